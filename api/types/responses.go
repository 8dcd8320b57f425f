package types

import (
	"time"

	"github.com/stooppolitics/stoop-cms/internal/models"
	"github.com/stooppolitics/stoop-cms/internal/services/auth"
	"github.com/stooppolitics/stoop-cms/internal/services/transcription"
)

// Status constants for API responses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`            // One of the Status constants above
	Message string `json:"message,omitempty"` // Human-readable message
}

// EpisodesResponse for episode lists
type EpisodesResponse struct {
	BaseResponse
	Episodes []models.Episode `json:"episodes"`
	Count    int              `json:"count"`
}

// EpisodeResponse for a single episode, with its transcript when requested
type EpisodeResponse struct {
	BaseResponse
	Episode *models.Episode         `json:"episode"`
	Nodes   []models.TranscriptNode `json:"nodes,omitempty"`
}

// SaveEpisodeResponse is returned after the new-episode workflow
type SaveEpisodeResponse struct {
	BaseResponse
	Episode            *models.Episode       `json:"episode"`
	Transcription      *transcription.Result `json:"transcription,omitempty"`
	TranscriptionError string                `json:"transcription_error,omitempty"`
	Warnings           []string              `json:"warnings,omitempty"`
}

// NodesResponse for an episode transcript
type NodesResponse struct {
	BaseResponse
	EpisodeID string                  `json:"episode_id"`
	Nodes     []models.TranscriptNode `json:"nodes"`
	Count     int                     `json:"count"`
}

// NodeResponse is returned after a node edit so the editor can show when it was saved
type NodeResponse struct {
	BaseResponse
	Node    *models.TranscriptNode `json:"node"`
	SavedAt time.Time              `json:"saved_at"`
}

// TranscriptionResponse for admin transcription runs
type TranscriptionResponse struct {
	BaseResponse
	EpisodeID string `json:"episode_id"`
	NodeCount int    `json:"nodeCount"`
	FullText  string `json:"fullText"`
}

// TranscribeResult is the body of the transcription submission endpoint
type TranscribeResult struct {
	Success   bool   `json:"success"`
	NodeCount int    `json:"nodeCount"`
	FullText  string `json:"fullText"`
}

// TranscribeError is the failure body of the transcription submission endpoint
type TranscribeError struct {
	Error string `json:"error"`
}

// InboxMessagesResponse for the admin inbox
type InboxMessagesResponse struct {
	BaseResponse
	Messages []models.InboxMessage `json:"messages"`
	Count    int                   `json:"count"`
	Unread   int64                 `json:"unread"`
}

// InboxMessageResponse for a single inbox message
type InboxMessageResponse struct {
	BaseResponse
	Message *models.InboxMessage `json:"data"`
}

// LoginResponse carries the new operator session
type LoginResponse struct {
	BaseResponse
	Session *auth.Session `json:"session"`
}

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`   // Error code/type
	Details interface{} `json:"details,omitempty"` // Additional error details
}

// HealthResponse for health check endpoint
type HealthResponse struct {
	BaseResponse
	Version  string                 `json:"version,omitempty"`
	Services map[string]interface{} `json:"services,omitempty"`
}
