package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource hands out an io.Pipe so tests decide exactly which bytes arrive
type fakeSource struct {
	mu     sync.Mutex
	err    error
	writer *io.PipeWriter
	reader *io.PipeReader
	opened int
	closed bool
	format Format
}

func newFakeSource() *fakeSource {
	return &fakeSource{format: Format{SampleRate: 100, Channels: 1}}
}

func (s *fakeSource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	if s.err != nil {
		return nil, s.err
	}
	s.reader, s.writer = io.Pipe()
	return &trackedStream{PipeReader: s.reader, source: s}, nil
}

func (s *fakeSource) Format() Format {
	return s.format
}

func (s *fakeSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// write returns once the recorder has handled the bytes; the empty write only
// completes when the reader comes back for more
func (s *fakeSource) write(t *testing.T, n int) {
	_, err := s.writer.Write(make([]byte, n))
	require.NoError(t, err)
	_, err = s.writer.Write(nil)
	require.NoError(t, err)
}

type trackedStream struct {
	*io.PipeReader
	source *fakeSource
}

func (s *trackedStream) Close() error {
	s.source.mu.Lock()
	s.source.closed = true
	s.source.mu.Unlock()
	return s.PipeReader.Close()
}

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
}

func (f *fakeTicker) C() <-chan time.Time {
	return f.ch
}

func (f *fakeTicker) Stop() {
	close(f.stopped)
}

type tickHarness struct {
	ticker *fakeTicker
	ticks  chan int
}

func newTickHarness() *tickHarness {
	return &tickHarness{
		ticker: &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})},
		ticks:  make(chan int, 16),
	}
}

func (h *tickHarness) options() []Option {
	return []Option{
		WithTicker(func(time.Duration) Ticker { return h.ticker }),
		WithTickHandler(func(elapsed int) { h.ticks <- elapsed }),
	}
}

// tick delivers one tick; read h.ticks to wait for it to be handled
func (h *tickHarness) tick() {
	h.ticker.ch <- time.Now()
}

func TestRecorder_Lifecycle(t *testing.T) {
	source := newFakeSource()
	h := newTickHarness()
	r := NewRecorder(source, h.options()...)
	defer r.Close()

	assert.Equal(t, StateIdle, r.State())
	require.NoError(t, r.Start(context.Background()))
	assert.Equal(t, StateRecording, r.State())

	source.write(t, 200) // two seconds at 100 Hz mono
	h.tick()
	assert.Equal(t, 1, <-h.ticks)
	h.tick()
	assert.Equal(t, 2, <-h.ticks)

	require.NoError(t, r.Pause())
	assert.Equal(t, StatePaused, r.State())
	source.write(t, 1000) // dropped
	h.tick()
	assert.Equal(t, 2, <-h.ticks, "paused ticks are not counted")
	h.tick()
	assert.Equal(t, 2, <-h.ticks)

	require.NoError(t, r.Resume())
	source.write(t, 100)
	h.tick()
	assert.Equal(t, 3, <-h.ticks)

	rec, err := r.Stop()
	require.NoError(t, err)
	assert.Equal(t, StateStopped, r.State())
	assert.True(t, source.isClosed())

	assert.Equal(t, "audio/wav", rec.ContentType)
	assert.InDelta(t, 1.5, rec.Duration, 0.001, "300 bytes of 16-bit mono at 100 Hz")
	assert.Len(t, rec.Data, wavHeaderSize+300)
	assert.Same(t, rec, r.Recording())

	require.NoError(t, r.Discard())
	assert.Equal(t, StateIdle, r.State())
	assert.Nil(t, r.Recording())
	assert.Zero(t, r.Elapsed())
}

func TestRecorder_PermissionDenied(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"source reports permission", ErrPermissionDenied},
		{"any open failure", errors.New("device busy")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := newFakeSource()
			source.err = tt.err
			r := NewRecorder(source)

			err := r.Start(context.Background())
			assert.ErrorIs(t, err, ErrPermissionDenied)
			assert.Equal(t, StateIdle, r.State())
			assert.NoError(t, r.Close())
		})
	}
}

func TestRecorder_InvalidTransitions(t *testing.T) {
	source := newFakeSource()
	r := NewRecorder(source, newTickHarness().options()...)
	defer r.Close()

	assert.ErrorIs(t, r.Pause(), ErrInvalidTransition)
	assert.ErrorIs(t, r.Resume(), ErrInvalidTransition)
	assert.ErrorIs(t, r.Discard(), ErrInvalidTransition)
	_, err := r.Stop()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, r.Start(context.Background()))
	assert.ErrorIs(t, r.Start(context.Background()), ErrInvalidTransition)
	assert.ErrorIs(t, r.Resume(), ErrInvalidTransition)
	assert.Equal(t, 1, source.opened)
}

func TestRecorder_StopAlwaysReleasesStream(t *testing.T) {
	source := newFakeSource()
	r := NewRecorder(source, newTickHarness().options()...)

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Pause())

	_, err := r.Stop()
	require.NoError(t, err)
	assert.True(t, source.isClosed())

	// a second stop is invalid but still safe
	_, err = r.Stop()
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRecorder_CloseMidRecording(t *testing.T) {
	source := newFakeSource()
	h := newTickHarness()
	r := NewRecorder(source, h.options()...)

	require.NoError(t, r.Start(context.Background()))
	source.write(t, 50)

	require.NoError(t, r.Close())
	assert.True(t, source.isClosed())
	assert.Equal(t, StateIdle, r.State())
	assert.Nil(t, r.Recording())

	select {
	case <-h.ticker.stopped:
	case <-time.After(time.Second):
		t.Fatal("ticker was not stopped")
	}

	require.NoError(t, r.Close())
}

func TestEncodeWAV(t *testing.T) {
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	data := EncodeWAV(pcm, Format{SampleRate: 16000, Channels: 1})

	require.Len(t, data, wavHeaderSize+len(pcm))
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[20:22]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(data[28:32]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[32:34]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[34:36]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(data[40:44]))
	assert.Equal(t, pcm, data[44:])
}

// bufferedSource has all of its samples ready before the recorder reads any
type bufferedSource struct {
	size int
}

func (s bufferedSource) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(make([]byte, s.size))), nil
}

func (s bufferedSource) Format() Format {
	return Format{SampleRate: 16000, Channels: 1}
}

func TestRecorder_StopKeepsBufferedAudio(t *testing.T) {
	for i := 0; i < 50; i++ {
		r := NewRecorder(bufferedSource{size: 3200}, newTickHarness().options()...)

		require.NoError(t, r.Start(context.Background()))
		rec, err := r.Stop()
		require.NoError(t, err)
		require.Len(t, rec.Data, wavHeaderSize+3200, "run %d", i)
		assert.InDelta(t, 0.1, rec.Duration, 0.001)
		assert.Equal(t, StateStopped, r.State())
		require.NoError(t, r.Close())
	}
}

func TestRecorder_TickHandlerCanStop(t *testing.T) {
	source := newFakeSource()
	ticker := &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	stopped := make(chan error, 1)

	var r *Recorder
	r = NewRecorder(source,
		WithTicker(func(time.Duration) Ticker { return ticker }),
		WithTickHandler(func(elapsed int) {
			_, err := r.Stop()
			stopped <- err
		}),
	)
	defer r.Close()

	require.NoError(t, r.Start(context.Background()))
	ticker.ch <- time.Now()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stopping from the tick handler deadlocked")
	}
	assert.Equal(t, StateStopped, r.State())
	assert.True(t, source.isClosed())
}
