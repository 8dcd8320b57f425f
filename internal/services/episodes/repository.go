package episodes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stooppolitics/stoop-cms/internal/models"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

// Ensure Repository implements EpisodeRepository interface
var _ EpisodeRepository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateEpisode(ctx context.Context, episode *models.Episode) error {
	if err := r.db.WithContext(ctx).Create(episode).Error; err != nil {
		return fmt.Errorf("creating episode: %w", err)
	}
	return nil
}

func (r *Repository) GetEpisodeByID(ctx context.Context, id string) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&episode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("episode", id)
		}
		return nil, fmt.Errorf("getting episode: %w", err)
	}
	return &episode, nil
}

func (r *Repository) ListEpisodes(ctx context.Context) ([]models.Episode, error) {
	var episodes []models.Episode
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&episodes).Error; err != nil {
		return nil, fmt.Errorf("listing episodes: %w", err)
	}
	return episodes, nil
}

func (r *Repository) ListPublished(ctx context.Context) ([]models.Episode, error) {
	var episodes []models.Episode
	if err := r.db.WithContext(ctx).
		Where("is_published = ? AND published_at IS NOT NULL", true).
		Order("published_at DESC").
		Find(&episodes).Error; err != nil {
		return nil, fmt.Errorf("listing published episodes: %w", err)
	}
	return episodes, nil
}

func (r *Repository) UpdateFields(ctx context.Context, id string, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Episode{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating episode: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("episode", id)
	}
	return nil
}

func (r *Repository) MarkPublished(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Episode{}).
		Where("id = ? AND is_published = ?", id, false).
		Updates(map[string]any{
			"is_published": true,
			"published_at": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("publishing episode: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *Repository) DeleteEpisode(ctx context.Context, id string) (*models.Episode, error) {
	var episode models.Episode
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&episode).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("episode", id)
			}
			return fmt.Errorf("getting episode: %w", err)
		}

		if err := tx.Where("episode_id = ?", id).Delete(&models.TranscriptNode{}).Error; err != nil {
			return fmt.Errorf("deleting transcript nodes: %w", err)
		}

		if err := tx.Where("id = ?", id).Delete(&models.Episode{}).Error; err != nil {
			return fmt.Errorf("deleting episode: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &episode, nil
}
