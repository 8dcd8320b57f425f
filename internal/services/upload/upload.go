package upload

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stooppolitics/stoop-cms/internal/services/storage"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
)

const (
	FolderAudio  = "audio"
	FolderCovers = "covers"
)

// Object is a stored media object
type Object struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Client pushes episode media to the object store under collision-resistant keys
type Client struct {
	store storage.ObjectStore
	now   func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithClock overrides the time source used for key prefixes
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates an upload client over store
func NewClient(store storage.ObjectStore, opts ...Option) *Client {
	c := &Client{store: store, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UploadAudio stores an episode's audio under audio/<unixmillis>-audio.<ext>
func (c *Client) UploadAudio(ctx context.Context, r io.Reader, contentType, ext string) (*Object, error) {
	obj, err := c.put(ctx, FolderAudio, "audio", r, contentType, ext)
	if err != nil {
		return nil, apperrors.ExternalServiceError("storage", fmt.Sprintf("Error uploading audio: %v", err), err)
	}
	return obj, nil
}

// UploadCover stores a cover image under covers/<unixmillis>-cover.<ext>
// Callers treat a failure as non-fatal
func (c *Client) UploadCover(ctx context.Context, r io.Reader, contentType, ext string) (*Object, error) {
	obj, err := c.put(ctx, FolderCovers, "cover", r, contentType, ext)
	if err != nil {
		return nil, apperrors.ExternalServiceError("storage", fmt.Sprintf("Error uploading cover image: %v", err), err)
	}
	return obj, nil
}

// Remove deletes stored objects, ignoring empty keys
func (c *Client) Remove(ctx context.Context, keys ...string) error {
	var nonEmpty []string
	for _, key := range keys {
		if key != "" {
			nonEmpty = append(nonEmpty, key)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}
	return c.store.Delete(ctx, nonEmpty...)
}

// Open returns a reader for a stored object
func (c *Client) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return c.store.Open(ctx, key)
}

// KeyFromURL maps a public URL back to a key in this store
func (c *Client) KeyFromURL(url string) (string, bool) {
	return c.store.KeyFromURL(url)
}

func (c *Client) put(ctx context.Context, folder, kind string, r io.Reader, contentType, ext string) (*Object, error) {
	key := c.key(folder, kind, ext)
	url, err := c.store.Put(ctx, key, r, contentType)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] Uploaded %s to %s", kind, key)
	return &Object{Key: key, URL: url}, nil
}

// key builds <folder>/<unixmillis>-<kind>-<suffix>.<ext>; the suffix separates same-millisecond uploads
func (c *Client) key(folder, kind, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "bin"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d-%s-%s.%s", folder, c.now().UnixMilli(), kind, suffix, ext)
}
