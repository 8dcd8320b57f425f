package episodes

import (
	"context"
	"time"

	"github.com/stooppolitics/stoop-cms/internal/models"
)

// EpisodeRepository defines the interface for episode data persistence
type EpisodeRepository interface {
	CreateEpisode(ctx context.Context, episode *models.Episode) error

	GetEpisodeByID(ctx context.Context, id string) (*models.Episode, error)
	ListEpisodes(ctx context.Context) ([]models.Episode, error)
	ListPublished(ctx context.Context) ([]models.Episode, error)

	UpdateFields(ctx context.Context, id string, updates map[string]any) error
	// MarkPublished flips an unpublished episode; it reports false when nothing matched
	MarkPublished(ctx context.Context, id string, at time.Time) (bool, error)

	// DeleteEpisode removes the episode and its transcript nodes, returning what was deleted
	DeleteEpisode(ctx context.Context, id string) (*models.Episode, error)
}

// EpisodeService defines the business logic interface for episode operations
type EpisodeService interface {
	Create(ctx context.Context, input CreateInput) (*models.Episode, error)
	Get(ctx context.Context, id string) (*models.Episode, error)
	List(ctx context.Context) ([]models.Episode, error)
	ListPublished(ctx context.Context) ([]models.Episode, error)

	UpdateField(ctx context.Context, id, field, value string) (*models.Episode, error)
	SetTranscriptionStatus(ctx context.Context, id string, status models.TranscriptionStatus, errMsg string) error

	Publish(ctx context.Context, id string) (*models.Episode, error)
	Delete(ctx context.Context, id string) (*models.Episode, error)
}

// MediaRemover deletes stored media objects by key
type MediaRemover interface {
	Remove(ctx context.Context, keys ...string) error
}

// CreateInput holds the fields an operator supplies when saving an episode
type CreateInput struct {
	Title          string
	Summary        string
	AudioURL       string
	AudioPath      string
	CoverImageURL  string
	CoverImagePath string
	Duration       float64
	AudioFileSize  int64
	AudioFormat    string
}
