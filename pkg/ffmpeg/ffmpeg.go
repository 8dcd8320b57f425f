package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}

	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}

	return nil
}

// CaptureArgs builds the ffmpeg arguments that stream a capture device as raw PCM on stdout
func CaptureArgs(opts CaptureOptions) []string {
	sampleRate := opts.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels := opts.Channels
	if channels <= 0 {
		channels = 1
	}

	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", opts.InputFormat,
		"-i", opts.Device,
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-f", "s16le",
		"-",
	}
}

// CaptureCommand returns an unstarted ffmpeg process that records from a capture device
// The caller owns the process and must stop it
func (f *FFmpeg) CaptureCommand(ctx context.Context, opts CaptureOptions) *exec.Cmd {
	return exec.CommandContext(ctx, f.ffmpegPath, CaptureArgs(opts)...)
}
