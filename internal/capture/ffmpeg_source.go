package capture

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/stooppolitics/stoop-cms/pkg/ffmpeg"
)

// DefaultStartTimeout bounds how long a device may take to produce its first samples
const DefaultStartTimeout = 3 * time.Second

// drainTimeout bounds how long Close waits for buffered samples to be read
const drainTimeout = 2 * time.Second

// FFmpegSource captures a microphone through an ffmpeg child process
type FFmpegSource struct {
	ff           *ffmpeg.FFmpeg
	options      ffmpeg.CaptureOptions
	startTimeout time.Duration
}

// NewFFmpegSource creates a source for one capture device
func NewFFmpegSource(ff *ffmpeg.FFmpeg, options ffmpeg.CaptureOptions) *FFmpegSource {
	if options.SampleRate <= 0 {
		options.SampleRate = 16000
	}
	if options.Channels <= 0 {
		options.Channels = 1
	}
	return &FFmpegSource{ff: ff, options: options, startTimeout: DefaultStartTimeout}
}

// Format reports the PCM layout ffmpeg is asked to produce
func (s *FFmpegSource) Format() Format {
	return Format{SampleRate: s.options.SampleRate, Channels: s.options.Channels}
}

// Open starts ffmpeg and waits for the first samples; a refused or silent device is ErrPermissionDenied
func (s *FFmpegSource) Open(ctx context.Context) (io.ReadCloser, error) {
	procCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cmd := s.ff.CaptureCommand(procCtx, s.options)
	// ffmpeg flushes its output on SIGINT; WaitDelay kills it if it lingers
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = drainTimeout

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: starting ffmpeg: %v", ErrPermissionDenied, err)
	}

	reader := bufio.NewReaderSize(stdout, 64*1024)
	stream := &processStream{reader: reader, cmd: cmd, cancel: cancel, drained: make(chan struct{})}

	first := make(chan error, 1)
	go func() {
		_, err := reader.Peek(1)
		first <- err
	}()

	select {
	case err := <-first:
		if err != nil {
			stream.abort()
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, deviceMessage(stderr.String(), err))
		}
	case <-time.After(s.startTimeout):
		stream.abort()
		<-first
		return nil, fmt.Errorf("%w: no audio from %s within %s", ErrPermissionDenied, s.options.Device, s.startTimeout)
	case <-ctx.Done():
		stream.abort()
		<-first
		return nil, ctx.Err()
	}

	log.Printf("[INFO] Capturing from %s:%s at %d Hz", s.options.InputFormat, s.options.Device, s.options.SampleRate)
	return stream, nil
}

func deviceMessage(stderr string, err error) string {
	if msg := strings.TrimSpace(stderr); msg != "" {
		return msg
	}
	return err.Error()
}

// processStream reads ffmpeg's stdout; Close stops the process
// and leaves what it already wrote readable until EOF
type processStream struct {
	reader    *bufio.Reader
	cmd       *exec.Cmd
	cancel    context.CancelFunc
	once      sync.Once
	drained   chan struct{}
	drainOnce sync.Once
}

func (p *processStream) Read(b []byte) (int, error) {
	n, err := p.reader.Read(b)
	if err != nil {
		p.drainOnce.Do(func() { close(p.drained) })
	}
	return n, err
}

// Close signals ffmpeg and reaps it once the reader hits EOF
func (p *processStream) Close() error {
	p.once.Do(func() {
		p.cancel()
		select {
		case <-p.drained:
		case <-time.After(drainTimeout):
			log.Printf("[WARN] Capture stream not drained within %s", drainTimeout)
		}
		_ = p.cmd.Wait()
	})
	return nil
}

// abort stops a stream nobody is reading
func (p *processStream) abort() {
	p.once.Do(func() {
		p.cancel()
		_ = p.cmd.Wait()
	})
}
