package cmd

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/internal/database"
	"github.com/stooppolitics/stoop-cms/internal/services/auth"
	"github.com/stooppolitics/stoop-cms/internal/services/cache"
	"github.com/stooppolitics/stoop-cms/internal/services/episodes"
	"github.com/stooppolitics/stoop-cms/internal/services/feed"
	"github.com/stooppolitics/stoop-cms/internal/services/inbox"
	"github.com/stooppolitics/stoop-cms/internal/services/intake"
	"github.com/stooppolitics/stoop-cms/internal/services/public"
	"github.com/stooppolitics/stoop-cms/internal/services/storage"
	"github.com/stooppolitics/stoop-cms/internal/services/studio"
	"github.com/stooppolitics/stoop-cms/internal/services/transcription"
	"github.com/stooppolitics/stoop-cms/internal/services/transcripts"
	"github.com/stooppolitics/stoop-cms/internal/services/upload"
	"github.com/stooppolitics/stoop-cms/pkg/config"
	"github.com/stooppolitics/stoop-cms/pkg/download"
	"github.com/stooppolitics/stoop-cms/pkg/ffmpeg"
)

// application holds every service built from configuration
type application struct {
	cfg           *config.Config
	db            *database.DB
	cache         *cache.MemoryCache
	ffmpeg        *ffmpeg.FFmpeg
	uploader      *upload.Client
	localMedia    *storage.FilesystemStore
	episodes      *episodes.Service
	transcripts   *transcripts.Service
	transcription *transcription.Service
	studio        *studio.Service
	inbox         *inbox.Service
}

// openDatabase connects with the configured driver
func openDatabase(cfg *config.Config) (*database.DB, error) {
	return database.Open(database.Options{
		Driver:  cfg.Database.Driver,
		Path:    cfg.Database.Path,
		DSN:     cfg.Database.DSN,
		Verbose: cfg.Database.Verbose,
	})
}

// newObjectStore selects the storage backend
func newObjectStore(cfg *config.Config) (storage.ObjectStore, *storage.FilesystemStore, error) {
	switch cfg.Storage.Backend {
	case "", "filesystem":
		base := strings.TrimRight(cfg.Server.PublicURL, "/") + "/media"
		fs, err := storage.NewFilesystemStore(cfg.Storage.BasePath, base)
		if err != nil {
			return nil, nil, err
		}
		return fs, fs, nil
	case "supabase":
		store, err := storage.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey, cfg.Storage.Bucket)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}

// newApplication opens the database, migrates it and builds the services
func newApplication(cfg *config.Config) (*application, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	store, localMedia, err := newObjectStore(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up storage: %w", err)
	}

	app := &application{cfg: cfg, db: db, localMedia: localMedia}

	invalidate := func() {}
	if cfg.Cache.Enabled {
		app.cache = cache.NewMemoryCache(cfg.Cache.MaxSizeMB)
		invalidate = cache.InvalidatePublic(app.cache)
	}

	app.ffmpeg = ffmpeg.New(cfg.Intake.FFmpegPath, cfg.Intake.FFprobePath, cfg.Intake.ProbeTimeout)
	if err := app.ffmpeg.ValidateBinaries(); err != nil {
		log.Printf("[WARN] ffmpeg not available, durations will be unknown: %v", err)
	}

	app.uploader = upload.NewClient(store)
	app.episodes = episodes.NewService(episodes.NewRepository(db.DB),
		episodes.WithMediaRemover(app.uploader),
		episodes.WithPublicChangeHook(invalidate),
	)
	app.transcripts = transcripts.NewService(transcripts.NewRepository(db.DB),
		transcripts.WithChangeHook(func(string) { invalidate() }),
	)
	app.inbox = inbox.NewService(inbox.NewRepository(db.DB))

	// A nil *WhisperTranscriber must not reach the interface
	var transcriber transcription.Transcriber
	whisper, err := transcription.NewWhisperTranscriber(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, &http.Client{Timeout: cfg.Transcription.Timeout})
	switch {
	case err == nil:
		transcriber = whisper
	case errors.Is(err, transcription.ErrMissingAPIKey):
		log.Printf("[INFO] OpenAI API key not set, transcription disabled")
	default:
		log.Printf("[WARN] Transcription disabled: %v", err)
	}

	downloadOptions := download.DefaultOptions()
	downloadOptions.TempDir = cfg.Storage.TempDir
	app.transcription = transcription.NewService(transcriber, app.episodes, app.transcripts,
		transcription.WithMaxPayload(cfg.Transcription.MaxPayloadBytes),
		transcription.WithTimeout(cfg.Transcription.Timeout),
		transcription.WithMediaSource(app.uploader),
		transcription.WithDownloader(download.NewDownloader(downloadOptions)),
	)

	validator := intake.NewValidator(cfg.Intake.MaxFileSize, app.ffmpeg)
	app.studio = studio.NewService(validator, app.uploader, app.episodes, app.transcripts,
		studio.WithTranscriber(app.transcription),
		studio.WithTempDir(cfg.Storage.TempDir),
	)

	return app, nil
}

// dependencies assembles the handler dependencies for the HTTP server
func (a *application) dependencies(version string) *types.Dependencies {
	cfg := a.cfg
	deps := &types.Dependencies{
		DB:                a.db,
		EpisodeService:    a.episodes,
		TranscriptService: a.transcripts,
		Studio:            a.studio,
		InboxService:      a.inbox,
		PublicService:     public.NewService(a.episodes, a.transcripts),
		Feed: feed.NewGenerator(a.episodes, feed.Options{
			Title:       cfg.Site.Title,
			Description: cfg.Site.Description,
			Author:      cfg.Site.Author,
			Language:    "en-us",
			SiteURL:     cfg.Server.PublicURL,
			ImageURL:    cfg.Site.ImageURL,
		}),
		Site:           cfg.Site,
		SessionCookie:  cfg.Auth.SessionCookie,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Version:        version,
	}

	if a.transcription.Enabled() {
		deps.TranscriptionService = a.transcription
	}
	if a.localMedia != nil {
		deps.Media = a.localMedia
	}
	if a.cache != nil {
		deps.Cache = a.cache
	}

	if cfg.Supabase.JWKSURL != "" {
		validator, err := auth.NewService(cfg.Supabase.JWKSURL, auth.WithAdminEmails(cfg.Auth.AdminEmails...))
		if err != nil {
			log.Printf("[WARN] Token validation disabled: %v", err)
		} else {
			deps.Auth = validator
		}
	} else {
		log.Printf("[WARN] supabase.jwks_url not set, admin API only reachable with dev auth")
	}

	if cfg.Supabase.URL != "" && cfg.Supabase.AnonKey != "" {
		login, err := auth.NewGoTrueLogin(cfg.Supabase.URL, cfg.Supabase.AnonKey)
		if err != nil {
			log.Printf("[WARN] Password sign-in disabled: %v", err)
		} else {
			deps.Login = login
		}
	}

	return deps
}

// stopCache is a no-op when caching is disabled
func (a *application) stopCache() {
	if a.cache != nil {
		a.cache.Stop()
	}
}

// Close releases the cache janitor and the database
func (a *application) Close() {
	a.stopCache()
	if err := a.db.Close(); err != nil {
		log.Printf("[WARN] Closing database: %v", err)
	}
}
