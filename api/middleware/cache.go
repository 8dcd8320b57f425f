package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/internal/services/cache"
)

// CacheConfig holds configuration for cache middleware
type CacheConfig struct {
	Cache      cache.Cache
	DefaultTTL time.Duration
	TTLByPath  map[string]time.Duration // Path-specific TTLs
	Enabled    bool
}

// responseWriter captures response for caching
type responseWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// CacheMiddleware serves public GET responses from the cache; publish and delete clear it through cache.InvalidatePublic
func CacheMiddleware(config CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.Enabled || config.Cache == nil {
			c.Next()
			return
		}

		// Skip caching for non-GET requests
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		// Check cache control headers from client
		if shouldBypassCache(c.Request) {
			c.Header("X-Cache", "BYPASS")
			c.Next()
			return
		}

		key := CacheKey(c.Request)

		if cachedData, found := config.Cache.Get(c.Request.Context(), key); found {
			if response, err := parseCachedResponse(cachedData); err == nil {
				c.Header("X-Cache", "HIT")
				c.Header("Age", strconv.Itoa(int(time.Since(response.CachedAt).Seconds())))
				c.Header("ETag", response.ETag)

				if match := c.GetHeader("If-None-Match"); match != "" && match == response.ETag {
					c.AbortWithStatus(http.StatusNotModified)
					return
				}

				c.Data(response.Status, response.ContentType, response.Body)
				c.Abort()
				return
			}
		}

		// Cache MISS - capture response
		c.Header("X-Cache", "MISS")

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
			status:         http.StatusOK,
		}
		c.Writer = w

		c.Next()

		// Only cache successful responses
		if w.status != http.StatusOK || w.body.Len() == 0 {
			return
		}

		cachedResponse := CachedResponse{
			Status:      w.status,
			Body:        w.body.Bytes(),
			ContentType: w.Header().Get("Content-Type"),
			CachedAt:    time.Now(),
			ETag:        generateETag(w.body.Bytes()),
		}
		if data, err := serializeCachedResponse(cachedResponse); err == nil {
			_ = config.Cache.Set(context.WithoutCancel(c.Request.Context()), key, data, ttlFor(config, c.Request.URL.Path))
		}
	}
}

// CacheKey maps a public request to its key under cache.PublicPrefix
func CacheKey(req *http.Request) string {
	if req.URL.Path == "/feed.xml" {
		return cache.FeedKey
	}
	return cache.PageKey(req.URL.Path)
}

func ttlFor(config CacheConfig, path string) time.Duration {
	if ttl, exists := config.TTLByPath[path]; exists {
		return ttl
	}
	longest := ""
	ttl := config.DefaultTTL
	for prefix, prefixTTL := range config.TTLByPath {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(longest) {
			longest, ttl = prefix, prefixTTL
		}
	}
	return ttl
}

// CachedResponse represents a cached HTTP response
type CachedResponse struct {
	Status      int
	Body        []byte
	ContentType string
	CachedAt    time.Time
	ETag        string
}

// shouldBypassCache checks if cache should be bypassed based on request headers
func shouldBypassCache(req *http.Request) bool {
	cacheControl := req.Header.Get("Cache-Control")
	if cacheControl != "" {
		for _, directive := range strings.Split(strings.ToLower(cacheControl), ",") {
			directive = strings.TrimSpace(directive)
			if directive == "no-cache" || directive == "no-store" || directive == "max-age=0" {
				return true
			}
		}
	}

	// Also check Pragma header for backwards compatibility
	return req.Header.Get("Pragma") == "no-cache"
}

// generateETag creates an ETag for the response body
func generateETag(body []byte) string {
	hash := sha256.Sum256(body)
	return fmt.Sprintf(`"%s"`, hex.EncodeToString(hash[:16]))
}

// serializeCachedResponse writes a metadata line followed by the body
func serializeCachedResponse(response CachedResponse) ([]byte, error) {
	if strings.ContainsAny(response.ContentType, "|\n") {
		return nil, fmt.Errorf("content type %q cannot be cached", response.ContentType)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d|%s|%d|%s\n",
		response.Status,
		response.ContentType,
		response.CachedAt.Unix(),
		response.ETag)
	buf.Write(response.Body)
	return buf.Bytes(), nil
}

// parseCachedResponse deserializes a cached response
func parseCachedResponse(data []byte) (*CachedResponse, error) {
	header, body, found := bytes.Cut(data, []byte("\n"))
	if !found {
		return nil, fmt.Errorf("invalid cached response format")
	}

	metadata := strings.Split(string(header), "|")
	if len(metadata) != 4 {
		return nil, fmt.Errorf("invalid metadata format")
	}

	status, err := strconv.Atoi(metadata[0])
	if err != nil {
		return nil, fmt.Errorf("invalid status: %w", err)
	}
	cachedAt, _ := strconv.ParseInt(metadata[2], 10, 64)

	return &CachedResponse{
		Status:      status,
		ContentType: metadata[1],
		CachedAt:    time.Unix(cachedAt, 0),
		ETag:        metadata[3],
		Body:        body,
	}, nil
}
