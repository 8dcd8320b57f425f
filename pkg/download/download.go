package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// Options configures the download behavior
type Options struct {
	TempDir       string        // Directory for temporary files
	MaxSize       int64         // Maximum file size in bytes (0 = no limit)
	Timeout       time.Duration // Download timeout
	UserAgent     string
	ValidateAudio bool // Validate content-type is audio
	MaxAttempts   int
	RetryDelay    time.Duration
}

// DefaultOptions returns default download options
func DefaultOptions() Options {
	return Options{
		TempDir:       os.TempDir(),
		MaxSize:       100 * 1024 * 1024,
		Timeout:       2 * time.Minute,
		UserAgent:     "StoopCMS/1.0",
		ValidateAudio: true,
		MaxAttempts:   3,
		RetryDelay:    time.Second,
	}
}

// Result contains information about a successful download
type Result struct {
	FilePath      string
	ContentType   string
	ContentLength int64
}

// StatusError is returned when the remote host answers with a non-success status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// Retryable reports whether another attempt could succeed
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Downloader fetches remote audio into temporary files
type Downloader struct {
	client  *http.Client
	options Options
}

// NewDownloader creates a new downloader with the given options
func NewDownloader(options Options) *Downloader {
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = 1
	}
	return &Downloader{
		client: &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true, // Don't compress audio
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		options: options,
	}
}

// DownloadToTemp downloads a URL to a temporary file named after the episode
func (d *Downloader) DownloadToTemp(ctx context.Context, rawURL, episodeID string) (*Result, error) {
	log.Printf("[DEBUG] Starting download from %s for episode %s", rawURL, episodeID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.options.UserAgent)
	req.Header.Set("Accept", "audio/*,*/*")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	if d.options.ValidateAudio && !isAudioContentType(contentType) {
		return nil, fmt.Errorf("invalid content type: %s", contentType)
	}

	if d.options.MaxSize > 0 && resp.ContentLength > d.options.MaxSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", resp.ContentLength, d.options.MaxSize)
	}

	tempFile, err := d.createTempFile(episodeID, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	var reader io.Reader = resp.Body
	if d.options.MaxSize > 0 {
		// one extra byte tells a body that lied about its length apart from one that fits
		reader = io.LimitReader(resp.Body, d.options.MaxSize+1)
	}
	written, err := io.Copy(tempFile, reader)
	tempFile.Close()

	if err == nil && d.options.MaxSize > 0 && written > d.options.MaxSize {
		err = fmt.Errorf("file too large: more than %d bytes", d.options.MaxSize)
	}
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to download: %w", err)
	}

	log.Printf("[DEBUG] Downloaded %d bytes to %s", written, tempPath)

	return &Result{
		FilePath:      tempPath,
		ContentType:   contentType,
		ContentLength: written,
	}, nil
}

// DownloadWithRetry retries rate-limited and server-side failures with a linear backoff
func (d *Downloader) DownloadWithRetry(ctx context.Context, rawURL, episodeID string) (*Result, error) {
	var lastErr error
	for attempt := 1; attempt <= d.options.MaxAttempts; attempt++ {
		result, err := d.DownloadToTemp(ctx, rawURL, episodeID)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var statusErr *StatusError
		if !errors.As(err, &statusErr) || !statusErr.Retryable() || attempt == d.options.MaxAttempts {
			break
		}

		log.Printf("[WARN] Download attempt %d/%d for episode %s failed: %v", attempt, d.options.MaxAttempts, episodeID, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * d.options.RetryDelay):
		}
	}
	return nil, lastErr
}

// createTempFile creates episode_<id>_*.<ext>, taking the extension from the URL path
func (d *Downloader) createTempFile(episodeID, rawURL string) (*os.File, error) {
	ext := ".mp3"
	if u, err := url.Parse(rawURL); err == nil {
		if e := strings.TrimPrefix(path.Ext(u.Path), "."); isValidAudioExtension(e) {
			ext = "." + strings.ToLower(e)
		}
	}

	if err := os.MkdirAll(d.options.TempDir, 0755); err != nil {
		return nil, err
	}
	return os.CreateTemp(d.options.TempDir, fmt.Sprintf("episode_%s_*%s", episodeID, ext))
}

// CleanupTempFile removes a temporary file
func CleanupTempFile(path string) error {
	if path == "" {
		return nil
	}

	log.Printf("[DEBUG] Cleaning up temp file: %s", path)
	return os.Remove(path)
}

func isAudioContentType(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.HasPrefix(contentType, "audio/") ||
		strings.HasPrefix(contentType, "video/webm") ||
		strings.HasPrefix(contentType, "video/mp4") ||
		contentType == "application/octet-stream" // Some servers use this for audio
}

func isValidAudioExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case "mp3", "m4a", "aac", "ogg", "wav", "flac", "opus", "webm", "mp4":
		return true
	}
	return false
}
