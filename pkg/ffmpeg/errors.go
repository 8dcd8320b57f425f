package ffmpeg

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrFFmpegNotFound   = errors.New("ffmpeg binary not found")
	ErrFFprobeNotFound  = errors.New("ffprobe binary not found")
	ErrInvalidAudioFile = errors.New("invalid or unsupported audio file")
)

// ProcessingError represents an error during audio probing or capture
type ProcessingError struct {
	Operation string // The operation that failed (e.g., "metadata_extraction")
	File      string
	Err       error
	Stderr    string
}

func (e *ProcessingError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg %s failed for %s: %v (stderr: %s)", e.Operation, e.File, e.Err, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg %s failed for %s: %v", e.Operation, e.File, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NewProcessingError creates a new ProcessingError
func NewProcessingError(operation, file string, err error, stderr string) *ProcessingError {
	return &ProcessingError{
		Operation: operation,
		File:      file,
		Err:       err,
		Stderr:    stderr,
	}
}
