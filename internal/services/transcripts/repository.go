package transcripts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stooppolitics/stoop-cms/internal/models"
	"gorm.io/gorm"
)

// batchSize bounds each multi-row insert
const batchSize = 100

type Repository struct {
	db *gorm.DB
}

var _ NodeRepository = (*Repository)(nil)

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListByEpisode(ctx context.Context, episodeID string) ([]models.TranscriptNode, error) {
	var nodes []models.TranscriptNode
	if err := r.db.WithContext(ctx).
		Where("episode_id = ?", episodeID).
		Order("display_order ASC").
		Find(&nodes).Error; err != nil {
		return nil, fmt.Errorf("listing transcript nodes: %w", err)
	}
	return nodes, nil
}

func (r *Repository) GetNode(ctx context.Context, id string) (*models.TranscriptNode, error) {
	var node models.TranscriptNode
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&node).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNodeNotFound
		}
		return nil, fmt.Errorf("getting transcript node: %w", err)
	}
	return &node, nil
}

func (r *Repository) UpdateNodeFields(ctx context.Context, id string, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.TranscriptNode{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating transcript node: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNodeNotFound
	}
	return nil
}

func (r *Repository) AppendNode(ctx context.Context, node *models.TranscriptNode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := episodeExists(tx, node.EpisodeID); err != nil {
			return err
		}

		var maxOrder sql.NullInt64
		row := tx.Model(&models.TranscriptNode{}).
			Where("episode_id = ?", node.EpisodeID).
			Select("MAX(display_order)").
			Row()
		if err := row.Scan(&maxOrder); err != nil {
			return fmt.Errorf("finding last transcript node: %w", err)
		}

		node.DisplayOrder = 0
		if maxOrder.Valid {
			node.DisplayOrder = int(maxOrder.Int64) + 1
		}

		if err := tx.Create(node).Error; err != nil {
			return fmt.Errorf("creating transcript node: %w", err)
		}
		return nil
	})
}

func (r *Repository) ReplaceNodes(ctx context.Context, episodeID string, nodes []models.TranscriptNode) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := episodeExists(tx, episodeID); err != nil {
			return err
		}

		if err := tx.Where("episode_id = ?", episodeID).Delete(&models.TranscriptNode{}).Error; err != nil {
			return fmt.Errorf("clearing transcript nodes: %w", err)
		}

		if len(nodes) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&nodes, batchSize).Error; err != nil {
			return fmt.Errorf("inserting transcript nodes: %w", err)
		}
		return nil
	})
}

func episodeExists(tx *gorm.DB, episodeID string) error {
	var count int64
	if err := tx.Model(&models.Episode{}).Where("id = ?", episodeID).Count(&count).Error; err != nil {
		return fmt.Errorf("checking episode: %w", err)
	}
	if count == 0 {
		return ErrEpisodeNotFound
	}
	return nil
}
