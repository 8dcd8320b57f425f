package studio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stooppolitics/stoop-cms/internal/database"
	"github.com/stooppolitics/stoop-cms/internal/models"
	"github.com/stooppolitics/stoop-cms/internal/services/episodes"
	"github.com/stooppolitics/stoop-cms/internal/services/intake"
	"github.com/stooppolitics/stoop-cms/internal/services/storage"
	"github.com/stooppolitics/stoop-cms/internal/services/transcription"
	"github.com/stooppolitics/stoop-cms/internal/services/transcripts"
	"github.com/stooppolitics/stoop-cms/internal/services/upload"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockTranscriber) Transcribe(ctx context.Context, episodeID string, audio transcription.Audio) (*transcription.Result, error) {
	args := m.Called(ctx, episodeID, audio)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transcription.Result), args.Error(1)
}

// failingCovers wraps an uploader and rejects every cover
type failingCovers struct {
	*upload.Client
}

func (f failingCovers) UploadCover(ctx context.Context, r io.Reader, contentType, ext string) (*upload.Object, error) {
	return nil, apperrors.ExternalServiceError("storage", "Error uploading cover image: bucket full", errors.New("bucket full"))
}

type failingCreate struct {
	episodes.EpisodeRepository
}

func (failingCreate) CreateEpisode(ctx context.Context, episode *models.Episode) error {
	return fmt.Errorf("creating episode: %w", errors.New("UNIQUE constraint failed"))
}

type fixture struct {
	db       *gorm.DB
	root     string
	store    *storage.FilesystemStore
	uploader *upload.Client
	episodes *episodes.Service
	nodes    *transcripts.Service
}

func setupFixture(t *testing.T) *fixture {
	conn, err := database.Open(database.Options{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, conn.Migrate())
	t.Cleanup(func() { conn.Close() })

	root := t.TempDir()
	store, err := storage.NewFilesystemStore(root, "http://localhost:8080/media")
	require.NoError(t, err)

	return &fixture{
		db:       conn.DB,
		root:     root,
		store:    store,
		uploader: upload.NewClient(store),
		episodes: episodes.NewService(episodes.NewRepository(conn.DB)),
		nodes:    transcripts.NewService(transcripts.NewRepository(conn.DB)),
	}
}

func (f *fixture) service(t *testing.T, opts ...ServiceOption) *Service {
	opts = append([]ServiceOption{WithTempDir(t.TempDir())}, opts...)
	return NewService(intake.NewValidator(intake.DefaultMaxFileSize, nil), f.uploader, f.episodes, f.nodes, opts...)
}

func (f *fixture) storedFiles(t *testing.T) []string {
	var files []string
	err := filepath.Walk(f.root, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			rel, _ := filepath.Rel(f.root, path)
			files = append(files, filepath.ToSlash(rel))
		}
		return err
	})
	require.NoError(t, err)
	return files
}

func audio(name, contentType string, data string) *Media {
	return &Media{Name: name, ContentType: contentType, Size: int64(len(data)), Reader: strings.NewReader(data)}
}

func TestService_Save(t *testing.T) {
	tests := []struct {
		name         string
		input        SaveInput
		wantErr      bool
		validateFunc func(*testing.T, *fixture, *SaveResult, error)
	}{
		{
			name: "audio only seeds a placeholder",
			input: SaveInput{
				Title:   "  Test Ep  ",
				Summary: "Council vote recap",
				Audio:   audio("episode.mp3", "audio/mpeg", "ID3-audio"),
			},
			validateFunc: func(t *testing.T, f *fixture, res *SaveResult, err error) {
				require.NoError(t, err)
				ep := res.Episode
				assert.Equal(t, "Test Ep", ep.Title)
				assert.False(t, ep.IsPublished)
				assert.Equal(t, models.TranscriptionNotStarted, ep.TranscriptionStatus)
				assert.True(t, strings.HasPrefix(ep.AudioPath, "audio/"))
				assert.True(t, strings.HasSuffix(ep.AudioPath, ".mp3"))
				assert.Equal(t, "http://localhost:8080/media/"+ep.AudioPath, ep.AudioURL)
				require.NotNil(t, ep.AudioFileSize)
				assert.Equal(t, int64(9), *ep.AudioFileSize)
				require.NotNil(t, ep.AudioFormat)
				assert.Equal(t, "mp3", *ep.AudioFormat)
				assert.Nil(t, ep.CoverImageURL)

				nodes, err := f.nodes.ListByEpisode(context.Background(), ep.ID)
				require.NoError(t, err)
				require.Len(t, nodes, 1)
				assert.Equal(t, "Transcript pending...", nodes[0].Content)
				assert.Nil(t, nodes[0].StartTime)
			},
		},
		{
			name: "with cover",
			input: SaveInput{
				Title: "Covered",
				Audio: audio("take.wav", "audio/wav", "RIFF"),
				Cover: &Media{Name: "art.png", ContentType: "image/png", Reader: strings.NewReader("png")},
			},
			validateFunc: func(t *testing.T, f *fixture, res *SaveResult, err error) {
				require.NoError(t, err)
				require.NotNil(t, res.Episode.CoverImageURL)
				assert.True(t, strings.HasPrefix(res.Episode.CoverImagePath, "covers/"))
				assert.Len(t, f.storedFiles(t), 2)
				assert.Empty(t, res.Warnings)
			},
		},
		{
			name: "cover that is not an image is skipped",
			input: SaveInput{
				Title: "Bad cover",
				Audio: audio("take.wav", "audio/wav", "RIFF"),
				Cover: &Media{Name: "notes.txt", ContentType: "text/plain", Reader: strings.NewReader("x")},
			},
			validateFunc: func(t *testing.T, f *fixture, res *SaveResult, err error) {
				require.NoError(t, err)
				assert.Nil(t, res.Episode.CoverImageURL)
				assert.Len(t, res.Warnings, 1)
			},
		},
		{
			name:    "missing title",
			input:   SaveInput{Title: "   ", Audio: audio("a.mp3", "audio/mpeg", "x")},
			wantErr: true,
			validateFunc: func(t *testing.T, f *fixture, res *SaveResult, err error) {
				assert.ErrorIs(t, err, episodes.ErrInvalidInput)
				assert.Equal(t, "Please enter an episode title", err.Error())
				assert.Empty(t, f.storedFiles(t))
			},
		},
		{
			name:    "missing audio",
			input:   SaveInput{Title: "No audio"},
			wantErr: true,
			validateFunc: func(t *testing.T, f *fixture, res *SaveResult, err error) {
				assert.Equal(t, "Please record or upload audio first", err.Error())
			},
		},
		{
			name:    "unsupported format",
			input:   SaveInput{Title: "Doc", Audio: audio("notes.txt", "text/plain", "hello")},
			wantErr: true,
			validateFunc: func(t *testing.T, f *fixture, res *SaveResult, err error) {
				assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidFormat))
				assert.Empty(t, f.storedFiles(t))
			},
		},
		{
			name: "declared size over the ceiling",
			input: SaveInput{Title: "Huge", Audio: &Media{
				Name: "huge.mp3", ContentType: "audio/mpeg", Size: 200 << 20, Reader: strings.NewReader("x"),
			}},
			wantErr: true,
			validateFunc: func(t *testing.T, f *fixture, res *SaveResult, err error) {
				assert.True(t, apperrors.Is(err, apperrors.ErrCodeTooLarge))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)
			res, err := f.service(t).Save(context.Background(), tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, res)
			}
			tt.validateFunc(t, f, res, err)
		})
	}
}

func TestService_SaveUndeclaredSizeOverCeiling(t *testing.T) {
	f := setupFixture(t)
	svc := NewService(intake.NewValidator(16, nil), f.uploader, f.episodes, f.nodes, WithTempDir(t.TempDir()))

	_, err := svc.Save(context.Background(), SaveInput{
		Title: "Stream",
		Audio: &Media{Name: "rec.webm", Reader: bytes.NewReader(make([]byte, 64))},
	})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeTooLarge))
	assert.Empty(t, f.storedFiles(t))
}

func TestService_SaveCoverFailureIsNonFatal(t *testing.T) {
	f := setupFixture(t)
	svc := NewService(intake.NewValidator(intake.DefaultMaxFileSize, nil), failingCovers{f.uploader}, f.episodes, f.nodes, WithTempDir(t.TempDir()))

	res, err := svc.Save(context.Background(), SaveInput{
		Title: "No cover",
		Audio: audio("a.mp3", "audio/mpeg", "x"),
		Cover: &Media{Name: "art.jpg", ContentType: "image/jpeg", Reader: strings.NewReader("jpg")},
	})
	require.NoError(t, err)
	assert.Nil(t, res.Episode.CoverImageURL)
	assert.Contains(t, res.Warnings[0], "without a cover")
}

func TestService_SaveRemovesMediaWhenCreateFails(t *testing.T) {
	f := setupFixture(t)
	broken := episodes.NewService(failingCreate{episodes.NewRepository(f.db)})
	svc := NewService(intake.NewValidator(intake.DefaultMaxFileSize, nil), f.uploader, broken, f.nodes, WithTempDir(t.TempDir()))

	_, err := svc.Save(context.Background(), SaveInput{
		Title: "Orphan",
		Audio: audio("a.mp3", "audio/mpeg", "x"),
		Cover: &Media{Name: "art.png", ContentType: "image/png", Reader: strings.NewReader("png")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error creating episode: UNIQUE constraint failed")
	assert.Empty(t, f.storedFiles(t), "uploaded objects must be removed")

	var count int64
	require.NoError(t, f.db.Model(&models.Episode{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestService_SaveWithTranscription(t *testing.T) {
	f := setupFixture(t)
	transcriber := new(MockTranscriber)
	transcriber.On("Enabled").Return(true)
	transcriber.On("Transcribe", mock.Anything, mock.AnythingOfType("string"), mock.MatchedBy(func(a transcription.Audio) bool {
		return a.Filename == "clip.webm" && a.ContentType == "audio/webm" && a.Size == 4 && a.Reader != nil
	})).Return(&transcription.Result{NodeCount: 2, FullText: "hello there"}, nil)

	res, err := f.service(t, WithTranscriber(transcriber)).Save(context.Background(), SaveInput{
		Title:      "Transcribed",
		Audio:      audio("clip.webm", "audio/webm", "webm"),
		Transcribe: true,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Transcription)
	assert.Equal(t, 2, res.Transcription.NodeCount)
	assert.Empty(t, res.TranscriptionError)

	// the mock stored no segments, so the editor still gets the placeholder
	nodes, err := f.nodes.ListByEpisode(context.Background(), res.Episode.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, transcripts.DefaultPlaceholder, nodes[0].Content)
	transcriber.AssertExpectations(t)
}

func TestService_SaveKeepsEpisodeWhenTranscriptionFails(t *testing.T) {
	f := setupFixture(t)
	transcriber := new(MockTranscriber)
	transcriber.On("Enabled").Return(true)
	transcriber.On("Transcribe", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ExternalServiceError("openai", "OpenAI API quota exceeded. Please check your billing.", nil))

	res, err := f.service(t, WithTranscriber(transcriber)).Save(context.Background(), SaveInput{
		Title:      "Quota",
		Audio:      audio("clip.webm", "audio/webm", "webm"),
		Transcribe: true,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Transcription)
	assert.Equal(t, "OpenAI API quota exceeded. Please check your billing.", res.TranscriptionError)
	assert.NotEmpty(t, f.storedFiles(t))

	assert.Equal(t, models.TranscriptionFailed, res.Episode.TranscriptionStatus)
	require.NotNil(t, res.Episode.TranscriptionError)
	assert.Equal(t, "OpenAI API quota exceeded. Please check your billing.", *res.Episode.TranscriptionError)

	nodes, err := f.nodes.ListByEpisode(context.Background(), res.Episode.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, transcripts.DefaultPlaceholder, nodes[0].Content)
}

// silentWhisper fails the test if the hosted service is ever reached
type silentWhisper struct {
	t *testing.T
}

func (w silentWhisper) Transcribe(ctx context.Context, filename string, audio io.Reader) (*transcription.Transcript, error) {
	w.t.Errorf("transcriber called for %s", filename)
	return nil, errors.New("unexpected call")
}

func TestService_SaveAudioOverTranscriptionCeiling(t *testing.T) {
	f := setupFixture(t)
	pipeline := transcription.NewService(silentWhisper{t}, f.episodes, f.nodes, transcription.WithMaxPayload(8))

	data := strings.Repeat("a", 32)
	res, err := f.service(t, WithTranscriber(pipeline)).Save(context.Background(), SaveInput{
		Title:      "Long show",
		Audio:      audio("show.mp3", "audio/mpeg", data),
		Transcribe: true,
	})
	require.NoError(t, err, "the episode is saved even when it cannot be transcribed")
	assert.Nil(t, res.Transcription)
	assert.NotEmpty(t, res.TranscriptionError)

	ep, err := f.episodes.Get(context.Background(), res.Episode.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TranscriptionFailed, ep.TranscriptionStatus)
	require.NotNil(t, ep.TranscriptionError)
	assert.Equal(t, res.TranscriptionError, *ep.TranscriptionError)

	nodes, err := f.nodes.ListByEpisode(context.Background(), ep.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, transcripts.DefaultPlaceholder, nodes[0].Content)
}

func TestService_SaveTranscriptionDisabled(t *testing.T) {
	f := setupFixture(t)
	transcriber := new(MockTranscriber)
	transcriber.On("Enabled").Return(false)

	res, err := f.service(t, WithTranscriber(transcriber)).Save(context.Background(), SaveInput{
		Title:      "No key",
		Audio:      audio("clip.webm", "audio/webm", "webm"),
		Transcribe: true,
	})
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)

	nodes, err := f.nodes.ListByEpisode(context.Background(), res.Episode.ID)
	require.NoError(t, err)
	assert.Len(t, nodes, 1)
	transcriber.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything, mock.Anything)
}
