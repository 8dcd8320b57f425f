package api

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTimeout   = 10 * time.Minute
)

// clientLimiter holds a rate limiter and its last accessed time
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestSizeLimitWithSize caps request bodies of writes
func RequestSizeLimitWithSize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost ||
			c.Request.Method == http.MethodPut ||
			c.Request.Method == http.MethodPatch {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// BodySizeLimit caps multipart uploads at uploadMax and every other body at maxBytes
func BodySizeLimit(maxBytes, uploadMax int64) gin.HandlerFunc {
	small := RequestSizeLimitWithSize(maxBytes)
	large := RequestSizeLimitWithSize(uploadMax)
	return func(c *gin.Context) {
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			large(c)
			return
		}
		small(c)
	}
}

// RateLimiters keeps one token bucket per client and scope
type RateLimiters struct {
	limiters  sync.Map
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	now       func() time.Time
}

// NewRateLimiters creates an empty limiter set; the sweeper starts with the first Limit call
func NewRateLimiters() *RateLimiters {
	return &RateLimiters{stop: make(chan struct{}), now: time.Now}
}

// Limit allows rps requests per second per client IP with the given burst
func (r *RateLimiters) Limit(scope string, rps int, burst int) gin.HandlerFunc {
	r.startOnce.Do(func() {
		go r.sweep(limiterSweepInterval)
	})
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = rps
	}

	return func(c *gin.Context) {
		key := scope + "|" + c.ClientIP()

		fresh := &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		value, _ := r.limiters.LoadOrStore(key, fresh)
		cl := value.(*clientLimiter)
		cl.lastSeen.Store(r.now().UnixNano())

		if !cl.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, types.ErrorResponse{
				Status:  types.StatusError,
				Message: "Rate limit exceeded. Please slow down your requests.",
				Error:   "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

// Stop ends the sweeper goroutine; it is safe to call more than once
func (r *RateLimiters) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}

func (r *RateLimiters) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.removeIdle()
		case <-r.stop:
			return
		}
	}
}

func (r *RateLimiters) removeIdle() {
	cutoff := r.now().Add(-limiterIdleTimeout).UnixNano()
	r.limiters.Range(func(key, value interface{}) bool {
		if value.(*clientLimiter).lastSeen.Load() < cutoff {
			r.limiters.Delete(key)
		}
		return true
	})
}

func (r *RateLimiters) size() int {
	n := 0
	r.limiters.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
