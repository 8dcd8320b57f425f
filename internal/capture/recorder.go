package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

// State is where the recorder is in its lifecycle
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"

	// stateStopping is held while Stop drains the stream
	stateStopping State = "stopping"
)

// Recording is a finished capture held in memory
type Recording struct {
	Data        []byte
	ContentType string
	Duration    float64 // seconds of audio actually kept
}

// Recorder drives a capture source through idle, recording, paused and stopped
// Bytes that arrive while paused are dropped
type Recorder struct {
	source    Source
	newTicker func(time.Duration) Ticker
	onTick    func(elapsed int)

	mu        sync.Mutex
	state     State
	stream    io.ReadCloser
	pcm       bytes.Buffer
	elapsed   int
	recording *Recording
	draining  bool // keep bytes read while stopping
	readDone  chan struct{}
	tickStop  chan struct{}
	tickDone  chan struct{}
}

// Option configures a Recorder
type Option func(*Recorder)

// WithTicker replaces the wall-clock ticker
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(r *Recorder) {
		r.newTicker = newTicker
	}
}

// WithTickHandler is called with the elapsed seconds after every tick, paused or not
// Handlers run on their own goroutine in tick order and may call Stop or Close
func WithTickHandler(fn func(elapsed int)) Option {
	return func(r *Recorder) {
		r.onTick = fn
	}
}

// NewRecorder creates an idle recorder over source
func NewRecorder(source Source, opts ...Option) *Recorder {
	r := &Recorder{
		source:    source,
		newTicker: newTimeTicker,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns the seconds spent recording, excluding pauses
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// Start opens the source and begins capturing
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, r.state)
	}

	stream, err := r.source.Open(ctx)
	if err != nil {
		log.Printf("[ERROR] Opening capture source: %v", err)
		if errors.Is(err, ErrPermissionDenied) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	r.stream = stream
	r.pcm.Reset()
	r.elapsed = 0
	r.recording = nil
	r.state = StateRecording
	r.readDone = make(chan struct{})
	r.tickStop = make(chan struct{})
	r.tickDone = make(chan struct{})

	go r.read(stream, r.readDone)
	go r.tick(r.newTicker(time.Second), r.tickStop, r.tickDone)

	log.Printf("[INFO] Recording started")
	return nil
}

// Pause stops counting and keeping audio
func (r *Recorder) Pause() error {
	return r.transition(StateRecording, StatePaused)
}

// Resume continues a paused recording
func (r *Recorder) Resume() error {
	return r.transition(StatePaused, StateRecording)
}

func (r *Recorder) transition(from, to State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != from {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, to, r.state)
	}
	r.state = to
	log.Printf("[DEBUG] Recorder %s -> %s at %ds", from, to, r.elapsed)
	return nil
}

// Stop ends capture and finalizes the audio as one WAV object
// Audio the source produced before Stop is kept unless the recorder was paused
// The stream is released whatever state the recorder is in
func (r *Recorder) Stop() (*Recording, error) {
	r.mu.Lock()
	state := r.state
	if state == StateRecording || state == StatePaused {
		r.state = stateStopping
		r.draining = state == StateRecording
	}
	r.mu.Unlock()

	r.release()

	if state != StateRecording && state != StatePaused {
		return nil, fmt.Errorf("%w: stop from %s", ErrInvalidTransition, state)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateStopped
	r.draining = false

	format := r.source.Format()
	pcm := r.pcm.Bytes()
	duration := 0.0
	if bps := format.BytesPerSecond(); bps > 0 {
		duration = float64(len(pcm)) / float64(bps)
	}

	r.recording = &Recording{
		Data:        EncodeWAV(pcm, format),
		ContentType: "audio/wav",
		Duration:    duration,
	}
	r.pcm.Reset()

	log.Printf("[INFO] Recording stopped: %.1fs of audio, %d bytes", duration, len(r.recording.Data))
	return r.recording, nil
}

// Recording returns the finalized audio after Stop
func (r *Recorder) Recording() *Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Discard drops a stopped recording and returns to idle
func (r *Recorder) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateStopped {
		return fmt.Errorf("%w: discard from %s", ErrInvalidTransition, r.state)
	}
	r.recording = nil
	r.elapsed = 0
	r.state = StateIdle
	return nil
}

// Close releases the source and drops any audio; it is safe on every path and more than once
func (r *Recorder) Close() error {
	r.release()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pcm.Reset()
	r.recording = nil
	r.draining = false
	r.elapsed = 0
	r.state = StateIdle
	return nil
}

// release closes the stream and waits for the reader to drain it and the ticker to exit
func (r *Recorder) release() {
	r.mu.Lock()
	stream, readDone, tickStop, tickDone := r.stream, r.readDone, r.tickStop, r.tickDone
	r.stream, r.readDone, r.tickStop, r.tickDone = nil, nil, nil, nil
	r.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			log.Printf("[WARN] Closing capture stream: %v", err)
		}
	}
	if tickStop != nil {
		close(tickStop)
		<-tickDone
	}
	if readDone != nil {
		<-readDone
	}
}

func (r *Recorder) read(stream io.Reader, done chan struct{}) {
	defer close(done)

	buf := make([]byte, 32*1024)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			r.mu.Lock()
			if r.state == StateRecording || r.draining {
				r.pcm.Write(buf[:n])
			}
			r.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				log.Printf("[DEBUG] Capture stream ended: %v", err)
			}
			return
		}
	}
}

func (r *Recorder) tick(ticker Ticker, stop, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	var ticks chan int
	if r.onTick != nil {
		ticks = make(chan int, 16)
		defer close(ticks)
		go func() {
			for elapsed := range ticks {
				r.onTick(elapsed)
			}
		}()
	}

	for {
		select {
		case <-ticker.C():
			r.mu.Lock()
			if r.state == StateRecording {
				r.elapsed++
			}
			elapsed := r.elapsed
			r.mu.Unlock()

			if ticks != nil {
				select {
				case ticks <- elapsed:
				default:
					log.Printf("[DEBUG] Tick handler busy, dropping tick %d", elapsed)
				}
			}
		case <-stop:
			return
		}
	}
}
