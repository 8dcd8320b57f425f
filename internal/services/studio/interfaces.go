package studio

import (
	"context"
	"io"

	"github.com/stooppolitics/stoop-cms/internal/models"
	"github.com/stooppolitics/stoop-cms/internal/services/transcription"
	"github.com/stooppolitics/stoop-cms/internal/services/upload"
)

// Uploader pushes episode media to object storage
type Uploader interface {
	UploadAudio(ctx context.Context, r io.Reader, contentType, ext string) (*upload.Object, error)
	UploadCover(ctx context.Context, r io.Reader, contentType, ext string) (*upload.Object, error)
	Remove(ctx context.Context, keys ...string) error
}

// Transcriber runs new audio through the transcription pipeline
type Transcriber interface {
	Enabled() bool
	Transcribe(ctx context.Context, episodeID string, audio transcription.Audio) (*transcription.Result, error)
}

// Transcripts reads a new episode's transcript and seeds it when empty
type Transcripts interface {
	ListByEpisode(ctx context.Context, episodeID string) ([]models.TranscriptNode, error)
	InsertPlaceholder(ctx context.Context, episodeID, content string) (*models.TranscriptNode, error)
}

// Media is one uploaded or captured file
type Media struct {
	Name        string
	ContentType string
	Size        int64 // 0 when unknown
	Reader      io.Reader
	Duration    float64 // seconds, known for captured audio
}

// SaveInput is everything the operator submits when saving a new episode
type SaveInput struct {
	Title      string
	Summary    string
	Audio      *Media
	Cover      *Media
	Transcribe bool
}

// SaveResult is the created episode and the outcome of the optional transcription
type SaveResult struct {
	Episode            *models.Episode       `json:"episode"`
	Transcription      *transcription.Result `json:"transcription,omitempty"`
	TranscriptionError string                `json:"transcription_error,omitempty"`
	Warnings           []string              `json:"warnings,omitempty"`
}
