package cmd

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stooppolitics/stoop-cms/internal/capture"
	"github.com/stooppolitics/stoop-cms/internal/services/studio"
	"github.com/stooppolitics/stoop-cms/pkg/config"
	"github.com/stooppolitics/stoop-cms/pkg/ffmpeg"
)

// newCaptureSource builds the microphone source; tests replace it
var newCaptureSource = func(cfg *config.Config) capture.Source {
	ff := ffmpeg.New(cfg.Intake.FFmpegPath, cfg.Intake.FFprobePath, cfg.Intake.ProbeTimeout)
	return capture.NewFFmpegSource(ff, ffmpeg.CaptureOptions{
		InputFormat: cfg.Capture.InputFormat,
		Device:      cfg.Capture.Device,
		SampleRate:  cfg.Capture.SampleRate,
		Channels:    1,
	})
}

// recordCmd represents the record command
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record an episode from the microphone",
	Long: `Record audio from the configured capture device.

While recording, type p and Enter to pause or resume, and press
Enter on an empty line (or type s) to stop. Ctrl+C discards the
recording.

With --output the audio is written to a WAV file. With --title it is
saved as a new draft episode, optionally transcribed.`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().StringP("output", "o", "", "write the recording to this WAV file")
	recordCmd.Flags().String("title", "", "save the recording as an episode with this title")
	recordCmd.Flags().String("summary", "", "episode summary")
	recordCmd.Flags().Bool("transcribe", false, "transcribe the episode after saving")
}

func runRecord(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	title, _ := cmd.Flags().GetString("title")
	summary, _ := cmd.Flags().GetString("summary")
	transcribe, _ := cmd.Flags().GetBool("transcribe")

	if output == "" && strings.TrimSpace(title) == "" {
		return errors.New("nothing to do with the recording: pass --output, --title or both")
	}

	cfg, err := appConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := &lockedWriter{w: cmd.OutOrStdout()}
	recorder := capture.NewRecorder(newCaptureSource(cfg), capture.WithTickHandler(func(elapsed int) {
		fmt.Fprintf(out, "\r%s", formatElapsed(elapsed))
	}))
	defer recorder.Close()

	recording, err := captureInteractive(ctx, recorder, cmd.InOrStdin(), out)
	if err != nil {
		return err
	}
	if recording == nil {
		fmt.Fprintln(out, "\nRecording discarded")
		return nil
	}
	fmt.Fprintf(out, "\nCaptured %s of audio\n", formatElapsed(int(recording.Duration)))

	if output != "" {
		if err := os.WriteFile(output, recording.Data, 0644); err != nil {
			return fmt.Errorf("failed to write recording: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s\n", output)
	}

	if strings.TrimSpace(title) == "" {
		return nil
	}

	app, err := newApplication(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.studio.Save(context.Background(), studio.SaveInput{
		Title:   title,
		Summary: summary,
		Audio: &studio.Media{
			Name:        "recording.wav",
			ContentType: recording.ContentType,
			Size:        int64(len(recording.Data)),
			Reader:      bytes.NewReader(recording.Data),
			Duration:    recording.Duration,
		},
		Transcribe: transcribe,
	})
	if err != nil {
		return err
	}
	printSaveResult(out, result)
	return nil
}

// captureInteractive drives the recorder from operator input
// A nil recording means the operator cancelled
func captureInteractive(ctx context.Context, recorder *capture.Recorder, in io.Reader, out io.Writer) (*capture.Recording, error) {
	if err := recorder.Start(ctx); err != nil {
		if errors.Is(err, capture.ErrPermissionDenied) {
			return nil, errors.New("could not access microphone. Please allow microphone permissions")
		}
		return nil, err
	}
	fmt.Fprintln(out, "Recording... [p] pause/resume, [Enter] stop, Ctrl+C discard")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil, nil
		case line, ok := <-lines:
			if !ok {
				// Input closed, treat as stop
				return recorder.Stop()
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "", "s", "stop":
				return recorder.Stop()
			case "p", "pause", "resume":
				if recorder.State() == capture.StatePaused {
					if err := recorder.Resume(); err != nil {
						return nil, err
					}
					fmt.Fprintln(out, "\nResumed")
				} else {
					if err := recorder.Pause(); err != nil {
						return nil, err
					}
					fmt.Fprintln(out, "\nPaused")
				}
			default:
				fmt.Fprintln(out, "\nUnknown command, use p or Enter")
			}
		}
	}
}

// lockedWriter serializes the tick display with the prompt output
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func formatElapsed(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
