package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidKey     = errors.New("invalid object key")
)

// ObjectStore stores uploaded media and hands out publicly fetchable URLs
type ObjectStore interface {
	// Put writes data under key and returns its public URL
	Put(ctx context.Context, key string, data io.Reader, contentType string) (string, error)

	// Open returns a reader for a stored object
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes objects; missing keys are ignored
	Delete(ctx context.Context, keys ...string) error

	// PublicURL returns the URL listeners use to fetch key
	PublicURL(key string) string

	// KeyFromURL maps a public URL back to its key when it belongs to this store
	KeyFromURL(url string) (string, bool)
}
