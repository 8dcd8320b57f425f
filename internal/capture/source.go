package capture

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrPermissionDenied is returned when the input device cannot be opened
	ErrPermissionDenied = errors.New("microphone access denied")
	// ErrInvalidTransition is returned for an operation the current state does not allow
	ErrInvalidTransition = errors.New("invalid recorder state transition")
)

// PermissionMessage is shown to the operator when the microphone cannot be opened
const PermissionMessage = "Could not access microphone. Please allow microphone permissions."

// Source opens a live stream of little-endian signed 16-bit PCM
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Format() Format
}

// Format describes the PCM a source produces
type Format struct {
	SampleRate int
	Channels   int
}

// BytesPerSecond is the data rate of 16-bit PCM in this format
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * 2
}

// Ticker delivers the once-per-second elapsed ticks
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}
