package inbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/stooppolitics/stoop-cms/internal/models"
	"gorm.io/gorm"
)

// GormRepository stores messages with gorm
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new inbox repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, message *models.InboxMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("creating message: %w", err)
	}
	return nil
}

func (r *GormRepository) Get(ctx context.Context, id string) (*models.InboxMessage, error) {
	var message models.InboxMessage
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("getting message: %w", err)
	}
	return &message, nil
}

// List returns messages newest first
func (r *GormRepository) List(ctx context.Context, unreadOnly bool) ([]models.InboxMessage, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var messages []models.InboxMessage
	if err := query.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return messages, nil
}

func (r *GormRepository) Update(ctx context.Context, id string, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.InboxMessage{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFoundError{ID: id}
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.InboxMessage{})
	if result.Error != nil {
		return fmt.Errorf("deleting message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFoundError{ID: id}
	}
	return nil
}

func (r *GormRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InboxMessage{}).Where("is_read = ?", false).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}
