package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TranscriptionStatus tracks where an episode is in the transcription pipeline
type TranscriptionStatus string

const (
	TranscriptionNotStarted TranscriptionStatus = "not_started"
	TranscriptionProcessing TranscriptionStatus = "processing"
	TranscriptionCompleted  TranscriptionStatus = "completed"
	TranscriptionFailed     TranscriptionStatus = "failed"
)

// Valid reports whether s is one of the known statuses
func (s TranscriptionStatus) Valid() bool {
	switch s {
	case TranscriptionNotStarted, TranscriptionProcessing, TranscriptionCompleted, TranscriptionFailed:
		return true
	}
	return false
}

// Terminal reports whether the status ends a transcription run
func (s TranscriptionStatus) Terminal() bool {
	return s == TranscriptionCompleted || s == TranscriptionFailed
}

// Episode is a recorded or uploaded podcast episode
type Episode struct {
	ID      string  `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title   string  `json:"title" gorm:"not null"`
	Summary *string `json:"summary" gorm:"type:text"`

	// Media
	AudioURL       string  `json:"audio_url" gorm:"not null;column:audio_url"`
	AudioPath      string  `json:"-" gorm:"column:audio_path"`
	CoverImageURL  *string `json:"cover_image_url" gorm:"column:cover_image_url"`
	CoverImagePath string  `json:"-" gorm:"column:cover_image_path"`
	Duration       float64 `json:"duration"` // seconds, 0 when unknown
	AudioFileSize  *int64  `json:"audio_file_size"`
	AudioFormat    *string `json:"audio_format"`

	// Publishing
	IsPublished bool       `json:"is_published" gorm:"not null;default:false;index"`
	PublishedAt *time.Time `json:"published_at" gorm:"index"`

	// Transcription
	TranscriptionStatus TranscriptionStatus `json:"transcription_status" gorm:"type:varchar(16);not null;default:not_started"`
	TranscriptionError  *string             `json:"transcription_error,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	Nodes []TranscriptNode `json:"nodes,omitempty" gorm:"foreignKey:EpisodeID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns an identifier and the initial transcription status
func (e *Episode) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.TranscriptionStatus == "" {
		e.TranscriptionStatus = TranscriptionNotStarted
	}
	return nil
}

// Visible reports whether the episode can appear on the public page
func (e *Episode) Visible() bool {
	return e.IsPublished && e.PublishedAt != nil
}

// TableName returns the table name for the Episode model
func (Episode) TableName() string {
	return "episodes"
}

// TranscriptNode is one ordered segment of an episode transcript
type TranscriptNode struct {
	ID             string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EpisodeID      string   `json:"episode_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_node_episode_order,priority:1"`
	Content        string   `json:"content" gorm:"type:text;not null"`
	DisplayOrder   int      `json:"display_order" gorm:"not null;uniqueIndex:idx_node_episode_order,priority:2"`
	StartTime      *float64 `json:"start_time"` // seconds, nil for manual nodes
	EndTime        *float64 `json:"end_time"`
	ReferenceLink  *string  `json:"reference_link"`
	ReferenceTitle *string  `json:"reference_title"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate always issues a fresh identifier so replaced nodes never resolve again
func (n *TranscriptNode) BeforeCreate(tx *gorm.DB) error {
	n.ID = uuid.New().String()
	return nil
}

// HasLink reports whether the node carries a reference link
func (n *TranscriptNode) HasLink() bool {
	return n.ReferenceLink != nil && *n.ReferenceLink != ""
}

// TableName returns the table name for the TranscriptNode model
func (TranscriptNode) TableName() string {
	return "transcript_nodes"
}

// InboxMessage is a listener submission read by the operator
type InboxMessage struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Message    string    `json:"message" gorm:"type:text;not null"`
	IsRead     bool      `json:"is_read" gorm:"not null;default:false;index"`
	AdminNotes *string   `json:"admin_notes" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// BeforeCreate assigns an identifier
func (m *InboxMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName returns the table name for the InboxMessage model
func (InboxMessage) TableName() string {
	return "inbox_messages"
}

// All returns every model managed by migrations, parents first
func All() []any {
	return []any{&Episode{}, &TranscriptNode{}, &InboxMessage{}}
}

// StringPtr returns nil for an empty string, otherwise a pointer to s
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Float64Ptr returns a pointer to f
func Float64Ptr(f float64) *float64 {
	return &f
}
