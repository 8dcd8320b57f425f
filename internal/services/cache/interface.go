package cache

import (
	"context"
	"time"
)

// Cache stores rendered public responses
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// DeletePrefix drops every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
}

// Stats provides statistics about cache usage
type Stats struct {
	Hits      int64
	Misses    int64
	Sets      int64
	Deletes   int64
	Evictions int64
	Size      int64
	MaxSize   int64
	Entries   int
}

// StatsProvider is implemented by caches that track statistics
type StatsProvider interface {
	Stats() Stats
}

// Key prefixes for public responses; anything under PublicPrefix changes when an episode is published or deleted
const (
	PublicPrefix = "public:"
	FeedKey      = PublicPrefix + "feed"
	PagePrefix   = PublicPrefix + "page:"
)

// PageKey returns the cache key for a rendered public path
func PageKey(path string) string {
	return PagePrefix + path
}

// InvalidatePublic returns a hook that drops every cached public response
func InvalidatePublic(c Cache) func() {
	return func() {
		_ = c.DeletePrefix(context.Background(), PublicPrefix)
	}
}
