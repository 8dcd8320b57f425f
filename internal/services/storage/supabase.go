package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseStore implements ObjectStore on a Supabase Storage bucket
type SupabaseStore struct {
	client     *storage_go.Client
	bucket     string
	projectURL string
}

// NewSupabaseStore connects to the project's storage API with a service key
func NewSupabaseStore(projectURL, serviceKey, bucket string) (*SupabaseStore, error) {
	if projectURL == "" || serviceKey == "" {
		return nil, fmt.Errorf("supabase url and service key are required")
	}

	client, err := supabase.NewClient(projectURL, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}

	return &SupabaseStore{
		client:     client.Storage,
		bucket:     bucket,
		projectURL: strings.TrimRight(projectURL, "/"),
	}, nil
}

// Put uploads data to the bucket; existing keys are never overwritten
func (s *SupabaseStore) Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	upsert := false
	_, err := s.client.UploadFile(s.bucket, key, data, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to bucket %s: %w", key, s.bucket, err)
	}

	log.Printf("[DEBUG] Uploaded %s to supabase bucket %s", key, s.bucket)
	return s.PublicURL(key), nil
}

// Open downloads the object into memory
func (s *SupabaseStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, err := s.client.DownloadFile(s.bucket, key)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", key, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete removes objects from the bucket
func (s *SupabaseStore) Delete(ctx context.Context, keys ...string) error {
	var paths []string
	for _, key := range keys {
		if key != "" {
			paths = append(paths, key)
		}
	}
	if len(paths) == 0 {
		return nil
	}

	if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
		return fmt.Errorf("removing %d object(s): %w", len(paths), err)
	}
	return nil
}

// PublicURL returns the bucket's public URL for key
func (s *SupabaseStore) PublicURL(key string) string {
	return s.client.GetPublicUrl(s.bucket, key).SignedURL
}

// KeyFromURL recognises URLs of this project's public bucket
func (s *SupabaseStore) KeyFromURL(url string) (string, bool) {
	return keyFromPublicBucketURL(s.projectURL, s.bucket, url)
}

func keyFromPublicBucketURL(projectURL, bucket, url string) (string, bool) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", projectURL, bucket)
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if i := strings.IndexByte(key, '?'); i >= 0 {
		key = key[:i]
	}
	return key, key != ""
}
