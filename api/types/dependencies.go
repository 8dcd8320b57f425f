package types

import (
	"context"
	"io"

	"github.com/stooppolitics/stoop-cms/internal/database"
	"github.com/stooppolitics/stoop-cms/internal/services/auth"
	"github.com/stooppolitics/stoop-cms/internal/services/cache"
	"github.com/stooppolitics/stoop-cms/internal/services/episodes"
	"github.com/stooppolitics/stoop-cms/internal/services/inbox"
	"github.com/stooppolitics/stoop-cms/internal/services/public"
	"github.com/stooppolitics/stoop-cms/internal/services/studio"
	"github.com/stooppolitics/stoop-cms/internal/services/transcription"
	"github.com/stooppolitics/stoop-cms/internal/services/transcripts"
	"github.com/stooppolitics/stoop-cms/pkg/config"
)

// TokenValidator checks an operator access token
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// EpisodeSaver runs the new-episode workflow
type EpisodeSaver interface {
	Save(ctx context.Context, input studio.SaveInput) (*studio.SaveResult, error)
}

// Transcriber runs audio through transcription for an existing episode
type Transcriber interface {
	Transcribe(ctx context.Context, episodeID string, audio transcription.Audio) (*transcription.Result, error)
	Retranscribe(ctx context.Context, episodeID string) (*transcription.Result, error)
}

// FeedWriter renders the RSS feed
type FeedWriter interface {
	Write(ctx context.Context, w io.Writer) error
}

// MediaStore serves locally stored media
type MediaStore interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB                   *database.DB
	EpisodeService       episodes.EpisodeService
	TranscriptService    transcripts.TranscriptService
	TranscriptionService Transcriber
	Studio               EpisodeSaver
	InboxService         *inbox.Service
	PublicService        *public.Service
	Feed                 FeedWriter
	Media                MediaStore
	Cache                cache.Cache

	Auth  TokenValidator
	Login auth.PasswordLogin

	Site           config.SiteConfig
	SessionCookie  string
	MaxUploadBytes int64
	Version        string
}

// CookieName returns the session cookie name, falling back to the default
func (d *Dependencies) CookieName() string {
	if d.SessionCookie == "" {
		return "stoop_session"
	}
	return d.SessionCookie
}
