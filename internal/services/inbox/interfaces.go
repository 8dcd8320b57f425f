package inbox

import (
	"context"

	"github.com/stooppolitics/stoop-cms/internal/models"
)

// Repository persists listener messages
type Repository interface {
	Create(ctx context.Context, message *models.InboxMessage) error
	Get(ctx context.Context, id string) (*models.InboxMessage, error)
	List(ctx context.Context, unreadOnly bool) ([]models.InboxMessage, error)
	Update(ctx context.Context, id string, updates map[string]any) error
	Delete(ctx context.Context, id string) error
	CountUnread(ctx context.Context) (int64, error)
}

// Patch changes the operator-owned fields of a message; nil fields are left alone
type Patch struct {
	IsRead     *bool   `json:"is_read"`
	AdminNotes *string `json:"admin_notes"`
}
