package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"strings"
	"time"

	"github.com/stooppolitics/stoop-cms/internal/models"
	"github.com/stooppolitics/stoop-cms/internal/services/episodes"
	"github.com/stooppolitics/stoop-cms/internal/services/intake"
	"github.com/stooppolitics/stoop-cms/internal/services/transcripts"
	"github.com/stooppolitics/stoop-cms/pkg/download"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
)

const (
	// DefaultMaxPayload is the largest file the hosted service accepts
	DefaultMaxPayload int64 = 25 * 1024 * 1024
	DefaultTimeout          = 60 * time.Second
)

// Audio is one audio object submitted for transcription
type Audio struct {
	Filename    string
	ContentType string
	Size        int64 // 0 when unknown
	Reader      io.Reader
}

// Result summarizes a completed run
type Result struct {
	NodeCount int                     `json:"nodeCount"`
	FullText  string                  `json:"fullText"`
	Nodes     []models.TranscriptNode `json:"nodes,omitempty"`
}

// Service runs audio through the transcriber and stores the segments as transcript nodes
type Service struct {
	transcriber Transcriber
	episodes    episodes.EpisodeService
	transcripts transcripts.TranscriptService
	media       MediaSource
	downloader  *download.Downloader
	maxPayload  int64
	timeout     time.Duration
}

// ServiceOption is a functional option for configuring the service
type ServiceOption func(*Service)

// WithMaxPayload overrides the payload ceiling
func WithMaxPayload(limit int64) ServiceOption {
	return func(s *Service) {
		if limit > 0 {
			s.maxPayload = limit
		}
	}
}

// WithTimeout overrides the per-run deadline
func WithTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithMediaSource lets Retranscribe read audio from the object store
func WithMediaSource(media MediaSource) ServiceOption {
	return func(s *Service) {
		s.media = media
	}
}

// WithDownloader lets Retranscribe fetch audio that lives outside the object store
func WithDownloader(d *download.Downloader) ServiceOption {
	return func(s *Service) {
		s.downloader = d
	}
}

// NewService creates the orchestrator; a nil transcriber means the API key is not configured
func NewService(transcriber Transcriber, episodeService episodes.EpisodeService, transcriptService transcripts.TranscriptService, opts ...ServiceOption) *Service {
	s := &Service{
		transcriber: transcriber,
		episodes:    episodeService,
		transcripts: transcriptService,
		maxPayload:  DefaultMaxPayload,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a transcriber is configured
func (s *Service) Enabled() bool {
	return s.transcriber != nil
}

// Transcribe replaces an episode's transcript with the segments of audio
// The previous transcript survives any failure, and the episode always ends completed or failed
func (s *Service) Transcribe(ctx context.Context, episodeID string, audio Audio) (*Result, error) {
	if s.transcriber == nil {
		return nil, apperrors.Wrap(ErrMissingAPIKey, apperrors.ErrCodeConfigInvalid, missingKeyMessage)
	}
	if audio.Reader == nil {
		return nil, apperrors.MissingFieldError("audio", "Missing audio file or episode ID")
	}

	// Size gate runs before any network call or status change
	if audio.Size > s.maxPayload {
		return nil, apperrors.PayloadTooLarge(audio.Size, s.maxPayload)
	}
	data, err := io.ReadAll(io.LimitReader(audio.Reader, s.maxPayload+1))
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if int64(len(data)) > s.maxPayload {
		return nil, apperrors.PayloadTooLarge(int64(len(data)), s.maxPayload)
	}

	if _, err := s.episodes.Get(ctx, episodeID); err != nil {
		return nil, err
	}

	if err := s.episodes.SetTranscriptionStatus(ctx, episodeID, models.TranscriptionProcessing, ""); err != nil {
		return nil, err
	}

	result, err := s.run(ctx, episodeID, filenameFor(audio), data)
	if err != nil {
		s.finish(ctx, episodeID, models.TranscriptionFailed, err)
		return nil, err
	}

	s.finish(ctx, episodeID, models.TranscriptionCompleted, nil)
	return result, nil
}

func (s *Service) run(ctx context.Context, episodeID, filename string, data []byte) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	log.Printf("[INFO] Transcribing %s (%d bytes) for episode %s", filename, len(data), episodeID)
	started := time.Now()

	transcript, err := s.transcriber.Transcribe(runCtx, filename, bytes.NewReader(data))
	if err != nil {
		log.Printf("[ERROR] Transcription failed for episode %s: %v", episodeID, err)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.TimeoutError("transcription", s.timeout.String()).WithCause(err)
		}
		return nil, apperrors.ExternalServiceError("openai", serviceMessage(err), err)
	}

	log.Printf("[INFO] Transcription returned %d segment(s) in %s", len(transcript.Segments), time.Since(started).Round(time.Millisecond))

	nodes := make([]models.TranscriptNode, 0, len(transcript.Segments))
	texts := make([]string, 0, len(transcript.Segments))
	for _, seg := range transcript.Segments {
		content := strings.TrimSpace(seg.Text)
		nodes = append(nodes, models.TranscriptNode{
			Content:   content,
			StartTime: models.Float64Ptr(seg.Start),
			EndTime:   models.Float64Ptr(seg.End),
		})
		texts = append(texts, content)
	}

	// Stage-then-swap: the old nodes go only once the new batch is in hand
	saved, err := s.transcripts.Replace(ctx, episodeID, nodes)
	if err != nil {
		if errors.Is(err, transcripts.ErrEpisodeNotFound) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseQuery, "Failed to save transcript: "+storeMessage(err))
	}

	fullText := strings.TrimSpace(transcript.Text)
	if fullText == "" {
		fullText = strings.Join(texts, " ")
	}

	return &Result{
		NodeCount: len(saved),
		FullText:  fullText,
		Nodes:     saved,
	}, nil
}

// finish records a terminal status even when the request context is already done
func (s *Service) finish(ctx context.Context, episodeID string, status models.TranscriptionStatus, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
		if appErr, ok := apperrors.As(cause); ok {
			msg = appErr.Message
		}
	}

	if err := s.episodes.SetTranscriptionStatus(context.WithoutCancel(ctx), episodeID, status, msg); err != nil {
		log.Printf("[ERROR] Failed to record transcription status %s for episode %s: %v", status, episodeID, err)
	}
}

// Retranscribe runs the stored audio of an episode through the pipeline again
func (s *Service) Retranscribe(ctx context.Context, episodeID string) (*Result, error) {
	if s.transcriber == nil {
		return nil, apperrors.Wrap(ErrMissingAPIKey, apperrors.ErrCodeConfigInvalid, missingKeyMessage)
	}

	episode, err := s.episodes.Get(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	rc, name, size, err := s.openStoredAudio(ctx, episode)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	contentType := ""
	if episode.AudioFormat != nil {
		contentType = "audio/" + *episode.AudioFormat
	}

	return s.Transcribe(ctx, episodeID, Audio{
		Filename:    name,
		ContentType: contentType,
		Size:        size,
		Reader:      rc,
	})
}

// openStoredAudio prefers the object store and falls back to downloading the audio URL
func (s *Service) openStoredAudio(ctx context.Context, episode *models.Episode) (io.ReadCloser, string, int64, error) {
	var size int64
	if episode.AudioFileSize != nil {
		size = *episode.AudioFileSize
	}

	if s.media != nil {
		key := episode.AudioPath
		if key == "" {
			key, _ = s.media.KeyFromURL(episode.AudioURL)
		}
		if key != "" {
			rc, err := s.media.Open(ctx, key)
			if err != nil {
				return nil, "", 0, apperrors.ExternalServiceError("storage", fmt.Sprintf("Error reading stored audio: %v", err), err)
			}
			return rc, path.Base(key), size, nil
		}
	}

	if episode.AudioURL == "" {
		return nil, "", 0, ErrNoAudio
	}
	if s.downloader == nil {
		return nil, "", 0, fmt.Errorf("%w: %s is not in the object store", ErrNoAudio, episode.AudioURL)
	}

	result, err := s.downloader.DownloadWithRetry(ctx, episode.AudioURL, episode.ID)
	if err != nil {
		return nil, "", 0, apperrors.ExternalServiceError("download", fmt.Sprintf("Error downloading audio: %v", err), err)
	}
	file, err := os.Open(result.FilePath)
	if err != nil {
		_ = download.CleanupTempFile(result.FilePath)
		return nil, "", 0, fmt.Errorf("opening downloaded audio: %w", err)
	}

	return &tempFile{File: file}, path.Base(result.FilePath), result.ContentLength, nil
}

// tempFile removes the downloaded file on Close
type tempFile struct {
	*os.File
}

func (f *tempFile) Close() error {
	err := f.File.Close()
	_ = download.CleanupTempFile(f.Name())
	return err
}

// filenameFor makes sure the name sent upstream carries an extension matching the audio
func filenameFor(audio Audio) string {
	name := path.Base(strings.ReplaceAll(audio.Filename, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}

	file := intake.File{Name: name, ContentType: audio.ContentType}
	ext := intake.Extension(file)
	if ext == "" {
		ext = "webm"
	}
	if name == "" {
		return "audio." + ext
	}
	if path.Ext(name) == "" {
		return name + "." + ext
	}
	return name
}

func storeMessage(err error) string {
	if cause := errors.Unwrap(err); cause != nil {
		return cause.Error()
	}
	return err.Error()
}
