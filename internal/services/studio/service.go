package studio

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/stooppolitics/stoop-cms/internal/models"
	"github.com/stooppolitics/stoop-cms/internal/services/episodes"
	"github.com/stooppolitics/stoop-cms/internal/services/intake"
	"github.com/stooppolitics/stoop-cms/internal/services/transcription"
	"github.com/stooppolitics/stoop-cms/internal/services/transcripts"
	"github.com/stooppolitics/stoop-cms/internal/services/upload"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
)

// Service runs the save workflow: intake, upload, create, then transcribe or seed a placeholder
type Service struct {
	validator    *intake.Validator
	uploader     Uploader
	episodes     episodes.EpisodeService
	transcriber  Transcriber
	transcripts  Transcripts
	tempDir      string
}

// ServiceOption is a functional option for configuring the service
type ServiceOption func(*Service)

// WithTranscriber enables transcription on save
func WithTranscriber(t Transcriber) ServiceOption {
	return func(s *Service) {
		s.transcriber = t
	}
}

// WithTempDir sets where incoming audio is spooled before upload
func WithTempDir(dir string) ServiceOption {
	return func(s *Service) {
		s.tempDir = dir
	}
}

// NewService creates the save workflow
func NewService(validator *intake.Validator, uploader Uploader, episodeService episodes.EpisodeService, transcriptService Transcripts, opts ...ServiceOption) *Service {
	s := &Service{
		validator:    validator,
		uploader:     uploader,
		episodes:     episodeService,
		transcripts:  transcriptService,
		tempDir:      os.TempDir(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores the audio and cover, creates the episode and fills its transcript
// Objects uploaded before a failed create are deleted again
func (s *Service) Save(ctx context.Context, input SaveInput) (*SaveResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, episodes.NewValidationError("title", "Please enter an episode title")
	}
	if input.Audio == nil || input.Audio.Reader == nil {
		return nil, episodes.NewValidationError("audio", "Please record or upload audio first")
	}

	file := intake.File{Name: input.Audio.Name, ContentType: input.Audio.ContentType, Size: input.Audio.Size}
	if err := s.validator.Validate(file); err != nil {
		return nil, err
	}
	ext := intake.Extension(file)
	contentType := intake.ContentType(file)

	spooled, size, err := s.validator.Spool(input.Audio.Reader, s.tempDir, ext)
	if err != nil {
		return nil, err
	}
	defer os.Remove(spooled)

	duration := input.Audio.Duration
	if duration <= 0 {
		duration = s.validator.Duration(ctx, spooled)
	}

	audio, err := s.uploadSpooled(ctx, spooled, contentType, ext)
	if err != nil {
		return nil, err
	}

	result := &SaveResult{}
	var coverURL, coverKey string
	if input.Cover != nil && input.Cover.Reader != nil {
		if cover, warning := s.uploadCover(ctx, input.Cover); cover != nil {
			coverURL, coverKey = cover.URL, cover.Key
		} else if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
	}

	episode, err := s.episodes.Create(ctx, episodes.CreateInput{
		Title:          title,
		Summary:        input.Summary,
		AudioURL:       audio.URL,
		AudioPath:      audio.Key,
		CoverImageURL:  coverURL,
		CoverImagePath: coverKey,
		Duration:       duration,
		AudioFileSize:  size,
		AudioFormat:    ext,
	})
	if err != nil {
		s.compensate(ctx, audio.Key, coverKey)
		return nil, err
	}
	result.Episode = episode

	if input.Transcribe && s.transcriber != nil && s.transcriber.Enabled() {
		s.transcribe(ctx, result, spooled, file, size)
	} else if input.Transcribe {
		result.Warnings = append(result.Warnings, "Transcription is not configured; added a placeholder transcript")
	}
	s.ensureTranscript(ctx, episode.ID)

	// Reload so the caller sees the final transcription status
	if fresh, err := s.episodes.Get(ctx, episode.ID); err == nil {
		result.Episode = fresh
	}
	return result, nil
}

func (s *Service) uploadSpooled(ctx context.Context, path, contentType, ext string) (*upload.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Error reading audio")
	}
	defer f.Close()

	obj, err := s.uploader.UploadAudio(ctx, f, contentType, ext)
	if err != nil {
		log.Printf("[ERROR] Audio upload failed: %v", err)
		return nil, err
	}
	return obj, nil
}

// uploadCover returns the stored cover, or a warning when the cover was skipped
func (s *Service) uploadCover(ctx context.Context, cover *Media) (*upload.Object, string) {
	ext, ok := intake.ImageExtension(cover.Name, cover.ContentType)
	if !ok {
		log.Printf("[WARN] Skipping cover %q: not an image", cover.Name)
		return nil, "Cover image skipped: use JPG, PNG, WebP or GIF"
	}

	obj, err := s.uploader.UploadCover(ctx, cover.Reader, cover.ContentType, ext)
	if err != nil {
		log.Printf("[WARN] Cover upload failed, creating episode without cover: %v", err)
		return nil, "Cover image upload failed; the episode was saved without a cover"
	}
	return obj, ""
}

func (s *Service) transcribe(ctx context.Context, result *SaveResult, path string, file intake.File, size int64) {
	f, err := os.Open(path)
	if err != nil {
		result.TranscriptionError = "Error reading audio for transcription"
		log.Printf("[ERROR] Reopening spooled audio: %v", err)
		s.markFailed(ctx, result.Episode.ID, result.TranscriptionError)
		return
	}
	defer f.Close()

	res, err := s.transcriber.Transcribe(ctx, result.Episode.ID, transcription.Audio{
		Filename:    file.Name,
		ContentType: file.ContentType,
		Size:        size,
		Reader:      f,
	})
	if err != nil {
		result.TranscriptionError = err.Error()
		if appErr, ok := apperrors.As(err); ok {
			result.TranscriptionError = appErr.Message
		}
		log.Printf("[WARN] Episode %s saved but transcription failed: %v", result.Episode.ID, err)
		s.markFailed(ctx, result.Episode.ID, result.TranscriptionError)
		return
	}
	result.Transcription = res
}

// markFailed records a failure the transcription run rejected before it set any status
func (s *Service) markFailed(ctx context.Context, episodeID, message string) {
	ctx = context.WithoutCancel(ctx)
	episode, err := s.episodes.Get(ctx, episodeID)
	if err != nil {
		log.Printf("[ERROR] Reloading episode %s after failed transcription: %v", episodeID, err)
		return
	}
	if episode.TranscriptionStatus.Terminal() {
		return
	}
	if err := s.episodes.SetTranscriptionStatus(ctx, episodeID, models.TranscriptionFailed, message); err != nil {
		log.Printf("[ERROR] Failed to record transcription failure for episode %s: %v", episodeID, err)
	}
}

// ensureTranscript gives an episode without nodes the placeholder node
func (s *Service) ensureTranscript(ctx context.Context, episodeID string) {
	ctx = context.WithoutCancel(ctx)
	nodes, err := s.transcripts.ListByEpisode(ctx, episodeID)
	if err != nil {
		log.Printf("[WARN] Failed to read transcript for episode %s: %v", episodeID, err)
		return
	}
	if len(nodes) > 0 {
		return
	}
	if _, err := s.transcripts.InsertPlaceholder(ctx, episodeID, transcripts.DefaultPlaceholder); err != nil {
		log.Printf("[WARN] Failed to add placeholder transcript for episode %s: %v", episodeID, err)
	}
}

// compensate removes media uploaded for an episode that was never created
func (s *Service) compensate(ctx context.Context, keys ...string) {
	if err := s.uploader.Remove(context.WithoutCancel(ctx), keys...); err != nil {
		log.Printf("[ERROR] Failed to remove orphaned media %v: %v", keys, err)
		return
	}
	log.Printf("[INFO] Removed orphaned media after failed create")
}
