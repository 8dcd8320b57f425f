package inbox

import (
	"context"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/stooppolitics/stoop-cms/internal/models"
)

// MaxMessageLength is the longest submission accepted, in characters
const MaxMessageLength = 2000

// Service handles listener submissions and their triage
type Service struct {
	repository Repository
}

// NewService creates a new inbox service
func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// Submit stores a trimmed listener message
func (s *Service) Submit(ctx context.Context, message string) (*models.InboxMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ValidationError{Field: "message", Message: "Please write a message first"}
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return nil, ValidationError{Field: "message", Message: "Message must be 2000 characters or fewer"}
	}

	m := &models.InboxMessage{Message: message}
	if err := s.repository.Create(ctx, m); err != nil {
		return nil, err
	}

	log.Printf("[INFO] New inbox message %s (%d chars)", m.ID, utf8.RuneCountInString(message))
	return m, nil
}

// List returns messages newest first
func (s *Service) List(ctx context.Context, unreadOnly bool) ([]models.InboxMessage, error) {
	return s.repository.List(ctx, unreadOnly)
}

// UnreadCount returns how many messages are still unread
func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	return s.repository.CountUnread(ctx)
}

// Update applies a patch and returns the saved message
func (s *Service) Update(ctx context.Context, id string, patch Patch) (*models.InboxMessage, error) {
	updates := map[string]any{}
	if patch.IsRead != nil {
		updates["is_read"] = *patch.IsRead
	}
	if patch.AdminNotes != nil {
		updates["admin_notes"] = models.StringPtr(strings.TrimSpace(*patch.AdminNotes))
	}
	if len(updates) == 0 {
		return nil, ValidationError{Field: "patch", Message: "Nothing to update"}
	}

	if err := s.repository.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.repository.Get(ctx, id)
}

// Delete removes a message
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repository.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[INFO] Deleted inbox message %s", id)
	return nil
}
