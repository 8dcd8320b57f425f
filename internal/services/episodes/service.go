package episodes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stooppolitics/stoop-cms/internal/models"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
)

// Service implements the EpisodeService interface with business logic
type Service struct {
	repository     EpisodeRepository
	media          MediaRemover
	onPublicChange func()
	now            func() time.Time
}

// Ensure Service implements EpisodeService interface
var _ EpisodeService = (*Service)(nil)

// ServiceOption is a functional option for configuring the service
type ServiceOption func(*Service)

// WithMediaRemover deletes an episode's stored objects after the record is gone
func WithMediaRemover(media MediaRemover) ServiceOption {
	return func(s *Service) {
		s.media = media
	}
}

// WithPublicChangeHook registers a callback run whenever the set of public episodes changes
func WithPublicChangeHook(fn func()) ServiceOption {
	return func(s *Service) {
		s.onPublicChange = fn
	}
}

// WithClock overrides the time source used for published_at
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new episode service with optional configuration
func NewService(repository EpisodeRepository, opts ...ServiceOption) *Service {
	s := &Service{
		repository: repository,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create saves a new unpublished episode
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Episode, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, NewValidationError("title", "Please enter an episode title")
	}
	if strings.TrimSpace(input.AudioURL) == "" {
		return nil, NewValidationError("audio", "Please record or upload audio first")
	}
	if input.Duration < 0 {
		input.Duration = 0
	}

	episode := &models.Episode{
		Title:               title,
		Summary:             models.StringPtr(strings.TrimSpace(input.Summary)),
		AudioURL:            input.AudioURL,
		AudioPath:           input.AudioPath,
		CoverImageURL:       models.StringPtr(input.CoverImageURL),
		CoverImagePath:      input.CoverImagePath,
		Duration:            input.Duration,
		AudioFormat:         models.StringPtr(input.AudioFormat),
		IsPublished:         false,
		TranscriptionStatus: models.TranscriptionNotStarted,
	}
	if input.AudioFileSize > 0 {
		size := input.AudioFileSize
		episode.AudioFileSize = &size
	}

	if err := s.repository.CreateEpisode(ctx, episode); err != nil {
		return nil, apperrors.DatabaseError("creating episode", storeMessage(err))
	}

	log.Printf("[INFO] Created episode %s (%q)", episode.ID, episode.Title)
	return episode, nil
}

// Get fetches one episode
func (s *Service) Get(ctx context.Context, id string) (*models.Episode, error) {
	return s.repository.GetEpisodeByID(ctx, id)
}

// List returns every episode, newest first
func (s *Service) List(ctx context.Context) ([]models.Episode, error) {
	return s.repository.ListEpisodes(ctx)
}

// ListPublished returns visible episodes, most recently published first
func (s *Service) ListPublished(ctx context.Context) ([]models.Episode, error) {
	return s.repository.ListPublished(ctx)
}

// UpdateField applies a single whitelisted field edit
func (s *Service) UpdateField(ctx context.Context, id, field, value string) (*models.Episode, error) {
	var update any
	switch field {
	case "title":
		title := strings.TrimSpace(value)
		if title == "" {
			return nil, NewValidationError("title", "Please enter an episode title")
		}
		update = title
	case "summary", "transcription_error":
		update = models.StringPtr(strings.TrimSpace(value))
	case "cover_image_url":
		update = models.StringPtr(strings.TrimSpace(value))
	case "transcription_status":
		status := models.TranscriptionStatus(value)
		if !status.Valid() {
			return nil, NewValidationError(field, fmt.Sprintf("Unknown transcription status %q", value))
		}
		update = status
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidField, field)
	}

	if err := s.repository.UpdateFields(ctx, id, map[string]any{field: update}); err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, apperrors.DatabaseError("updating episode", storeMessage(err))
	}

	episode, err := s.repository.GetEpisodeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if episode.Visible() && (field == "title" || field == "summary" || field == "cover_image_url") {
		s.publicChanged()
	}
	return episode, nil
}

// SetTranscriptionStatus records progress of a transcription run
func (s *Service) SetTranscriptionStatus(ctx context.Context, id string, status models.TranscriptionStatus, errMsg string) error {
	if !status.Valid() {
		return NewValidationError("transcription_status", fmt.Sprintf("Unknown transcription status %q", status))
	}

	updates := map[string]any{
		"transcription_status": status,
		"transcription_error":  models.StringPtr(errMsg),
	}
	if err := s.repository.UpdateFields(ctx, id, updates); err != nil {
		return err
	}
	log.Printf("[DEBUG] Episode %s transcription status: %s", id, status)
	return nil
}

// Publish makes an episode publicly visible; there is no way back
func (s *Service) Publish(ctx context.Context, id string) (*models.Episode, error) {
	published, err := s.repository.MarkPublished(ctx, id, s.now().UTC())
	if err != nil {
		return nil, apperrors.DatabaseError("publishing episode", storeMessage(err))
	}

	if !published {
		// Either the id is unknown or someone published first
		if _, err := s.repository.GetEpisodeByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyPublished
	}

	episode, err := s.repository.GetEpisodeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] Published episode %s (%q)", episode.ID, episode.Title)
	s.publicChanged()
	return episode, nil
}

// Delete removes an episode, its transcript and its stored media
func (s *Service) Delete(ctx context.Context, id string) (*models.Episode, error) {
	episode, err := s.repository.DeleteEpisode(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}
		return nil, apperrors.DatabaseError("deleting episode", storeMessage(err))
	}

	log.Printf("[INFO] Deleted episode %s (%q)", episode.ID, episode.Title)

	if s.media != nil {
		if err := s.media.Remove(ctx, episode.AudioPath, episode.CoverImagePath); err != nil {
			log.Printf("[WARN] Episode %s deleted but its media could not be removed: %v", episode.ID, err)
		}
	}
	if episode.Visible() {
		s.publicChanged()
	}
	return episode, nil
}

func (s *Service) publicChanged() {
	if s.onPublicChange != nil {
		s.onPublicChange()
	}
}

// storeMessage strips the repository's operation prefix so the store's own message is surfaced
func storeMessage(err error) error {
	if cause := errors.Unwrap(err); cause != nil {
		return cause
	}
	return err
}
