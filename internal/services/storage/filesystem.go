package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FilesystemStore implements ObjectStore on the local disk
// The HTTP server exposes Root() under the public base URL
type FilesystemStore struct {
	basePath  string
	publicURL string
}

// NewFilesystemStore creates the base directory and its audio/ and covers/ folders
func NewFilesystemStore(basePath, publicURL string) (*FilesystemStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	for _, subdir := range []string{"audio", "covers"} {
		if err := os.MkdirAll(filepath.Join(basePath, subdir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create subdirectory %s: %w", subdir, err)
		}
	}

	return &FilesystemStore{
		basePath:  basePath,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Root returns the directory served as static media
func (fs *FilesystemStore) Root() string {
	return fs.basePath
}

// resolve maps a key to a path inside basePath, rejecting traversal
func (fs *FilesystemStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(fs.basePath, filepath.FromSlash(clean[1:])), nil
}

// Put writes data to disk
func (fs *FilesystemStore) Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error) {
	fullPath, err := fs.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, data)
	if err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	log.Printf("[DEBUG] Stored %d bytes at %s (%s)", written, key, contentType)
	return fs.PublicURL(key), nil
}

// Open opens a stored file
func (fs *FilesystemStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := fs.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes files from disk
func (fs *FilesystemStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if key == "" {
			continue
		}
		fullPath, err := fs.resolve(key)
		if err != nil {
			return err
		}
		if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete file: %w", err)
		}
	}
	return nil
}

// PublicURL returns the media URL for key
func (fs *FilesystemStore) PublicURL(key string) string {
	return fs.publicURL + "/" + strings.TrimLeft(key, "/")
}

// KeyFromURL strips the media prefix from url
func (fs *FilesystemStore) KeyFromURL(url string) (string, bool) {
	prefix := fs.publicURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}
