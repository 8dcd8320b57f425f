package intake

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
	"github.com/stooppolitics/stoop-cms/pkg/ffmpeg"
)

// DefaultMaxFileSize is the intake ceiling when none is configured
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// accepted maps each audio extension to its canonical content type
var accepted = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"webm": "audio/webm",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"mp4":  "audio/mp4",
}

// contentTypes lists declared types browsers and recorders send for the accepted set
var contentTypes = map[string]string{
	"audio/mpeg":   "mp3",
	"audio/mp3":    "mp3",
	"audio/wav":    "wav",
	"audio/x-wav":  "wav",
	"audio/wave":   "wav",
	"audio/webm":   "webm",
	"video/webm":   "webm",
	"audio/ogg":    "ogg",
	"audio/mp4":    "m4a",
	"audio/x-m4a":  "m4a",
	"audio/m4a":    "m4a",
	"audio/aac":    "aac",
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
	"video/mp4":    "mp4",
}

// File describes an audio file offered for intake
type File struct {
	Name        string
	ContentType string
	Size        int64
}

// Prober extracts audio metadata from a file on disk
type Prober interface {
	GetMetadata(ctx context.Context, path string) (*ffmpeg.AudioMetadata, error)
}

// Validator checks offered audio files against the accepted formats and the size ceiling
type Validator struct {
	maxSize int64
	prober  Prober
}

// NewValidator creates a validator; a nil prober leaves every duration unknown
func NewValidator(maxSize int64, prober Prober) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	return &Validator{maxSize: maxSize, prober: prober}
}

// MaxSize returns the configured ceiling in bytes
func (v *Validator) MaxSize() int64 {
	return v.maxSize
}

// Validate rejects files that are neither declared nor named as accepted audio, then files over the ceiling
func (v *Validator) Validate(f File) error {
	if Extension(f) == "" {
		return apperrors.InvalidFormat(f.Name, f.ContentType)
	}
	if f.Size > v.maxSize {
		return apperrors.TooLarge(f.Size, v.maxSize)
	}
	return nil
}

// Duration probes the file; unknown or unreadable durations are 0
func (v *Validator) Duration(ctx context.Context, path string) float64 {
	if v.prober == nil {
		return 0
	}

	metadata, err := v.prober.GetMetadata(ctx, path)
	if err != nil {
		log.Printf("[WARN] Could not determine duration of %s: %v", filepath.Base(path), err)
		return 0
	}
	return metadata.Duration
}

// Spool copies r into a temp file, enforcing the ceiling for sources that do not declare a size
// The caller removes the returned path
func (v *Validator) Spool(r io.Reader, dir, ext string) (string, int64, error) {
	tmp, err := os.CreateTemp(dir, "intake_*."+ext)
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer tmp.Close()

	written, err := io.Copy(tmp, io.LimitReader(r, v.maxSize+1))
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("writing temp file: %w", err)
	}
	if written > v.maxSize {
		os.Remove(tmp.Name())
		return "", 0, apperrors.TooLarge(written, v.maxSize)
	}

	return tmp.Name(), written, nil
}

// Extension returns the canonical extension for an accepted file, or "" when neither
// the declared type nor the name matches
func Extension(f File) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
	if _, ok := accepted[ext]; ok {
		return ext
	}

	if f.ContentType != "" {
		mediaType, _, err := mime.ParseMediaType(f.ContentType)
		if err == nil {
			if ext, ok := contentTypes[strings.ToLower(mediaType)]; ok {
				return ext
			}
		}
	}
	return ""
}

// ContentType returns the content type to store an accepted file under
func ContentType(f File) string {
	if f.ContentType != "" {
		if mediaType, _, err := mime.ParseMediaType(f.ContentType); err == nil {
			if _, ok := contentTypes[strings.ToLower(mediaType)]; ok {
				return f.ContentType
			}
		}
	}
	if ct, ok := accepted[Extension(f)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ImageExtension validates a cover image and returns its extension
func ImageExtension(name, contentType string) (string, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	switch ext {
	case "jpg", "jpeg", "png", "webp", "gif":
		return ext, true
	}
	switch strings.ToLower(contentType) {
	case "image/jpeg":
		return "jpg", true
	case "image/png":
		return "png", true
	case "image/webp":
		return "webp", true
	case "image/gif":
		return "gif", true
	}
	return "", false
}
