package episodes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/internal/database"
	"github.com/stooppolitics/stoop-cms/internal/models"
	"github.com/stooppolitics/stoop-cms/internal/services/episodes"
	"github.com/stooppolitics/stoop-cms/internal/services/studio"
	"github.com/stooppolitics/stoop-cms/internal/services/transcription"
	"github.com/stooppolitics/stoop-cms/internal/services/transcripts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStudio struct {
	mock.Mock
}

func (m *MockStudio) Save(ctx context.Context, input studio.SaveInput) (*studio.SaveResult, error) {
	var audio []byte
	if input.Audio != nil {
		audio, _ = io.ReadAll(input.Audio.Reader)
	}
	args := m.Called(input.Title, input.Summary, string(audio), input.Cover != nil, input.Transcribe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*studio.SaveResult), args.Error(1)
}

type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, episodeID string, audio transcription.Audio) (*transcription.Result, error) {
	args := m.Called(episodeID, audio.Filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transcription.Result), args.Error(1)
}

func (m *MockTranscriber) Retranscribe(ctx context.Context, episodeID string) (*transcription.Result, error) {
	args := m.Called(episodeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transcription.Result), args.Error(1)
}

type fixture struct {
	router   *gin.Engine
	deps     *types.Dependencies
	episodes *episodes.Service
	episode  *models.Episode
}

func setupFixture(t *testing.T) *fixture {
	gin.SetMode(gin.TestMode)

	conn, err := database.Open(database.Options{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, conn.Migrate())
	t.Cleanup(func() { conn.Close() })

	f := &fixture{episodes: episodes.NewService(episodes.NewRepository(conn.DB))}
	nodes := transcripts.NewService(transcripts.NewRepository(conn.DB))

	f.episode, err = f.episodes.Create(context.Background(), episodes.CreateInput{
		Title:    "Zoning",
		Summary:  "Who decides what gets built",
		AudioURL: "http://localhost/media/audio/1-audio.mp3",
	})
	require.NoError(t, err)
	_, err = nodes.InsertPlaceholder(context.Background(), f.episode.ID, "")
	require.NoError(t, err)

	f.deps = &types.Dependencies{EpisodeService: f.episodes, TranscriptService: nodes}
	f.router = gin.New()
	RegisterRoutes(f.router.Group("/api/v1/admin"), f.deps)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) path(suffix string) string {
	return "/api/v1/admin/episodes/" + f.episode.ID + suffix
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for field, content := range files {
		part, err := writer.CreateFormFile(field, field+".webm")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestGetAllAndGetByID(t *testing.T) {
	f := setupFixture(t)

	w := f.do(http.MethodGet, "/api/v1/admin/episodes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list types.EpisodesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "Zoning", list.Episodes[0].Title)

	w = f.do(http.MethodGet, f.path(""), "")
	require.Equal(t, http.StatusOK, w.Code)
	var one types.EpisodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &one))
	assert.Equal(t, f.episode.ID, one.Episode.ID)
	require.Len(t, one.Nodes, 1)
	assert.Equal(t, transcripts.DefaultPlaceholder, one.Nodes[0].Content)

	w = f.do(http.MethodGet, "/api/v1/admin/episodes/3f2b8c1e-9a4d-4e2b-8f6a-1c2d3e4f5a6b", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/v1/admin/episodes/42", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantStatus   int
		validateFunc func(*testing.T, *models.Episode)
	}{
		{
			name:       "title",
			body:       `{"field":"title","value":"  Zoning, part two "}`,
			wantStatus: http.StatusOK,
			validateFunc: func(t *testing.T, e *models.Episode) {
				assert.Equal(t, "Zoning, part two", e.Title)
			},
		},
		{
			name:       "blank summary clears it",
			body:       `{"field":"summary","value":""}`,
			wantStatus: http.StatusOK,
			validateFunc: func(t *testing.T, e *models.Episode) {
				assert.Nil(t, e.Summary)
			},
		},
		{
			name:       "blank title is rejected",
			body:       `{"field":"title","value":"   "}`,
			wantStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, e *models.Episode) {
				assert.Equal(t, "Zoning", e.Title)
			},
		},
		{
			name:       "unknown field",
			body:       `{"field":"is_published","value":"true"}`,
			wantStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, e *models.Episode) {
				assert.False(t, e.IsPublished)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)

			w := f.do(http.MethodPatch, f.path(""), tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			stored, err := f.episodes.Get(context.Background(), f.episode.ID)
			require.NoError(t, err)
			tt.validateFunc(t, stored)
		})
	}
}

func TestPublish(t *testing.T) {
	f := setupFixture(t)

	w := f.do(http.MethodPost, f.path("/publish"), "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp types.EpisodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Episode.IsPublished)
	require.NotNil(t, resp.Episode.PublishedAt)

	w = f.do(http.MethodPost, f.path("/publish"), "")
	assert.Equal(t, http.StatusConflict, w.Code)

	stored, err := f.episodes.Get(context.Background(), f.episode.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Episode.PublishedAt.Unix(), stored.PublishedAt.Unix())
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantStatus  int
		wantDeleted bool
	}{
		{name: "without confirmation", query: "", wantStatus: http.StatusPreconditionRequired},
		{name: "confirm=false", query: "?confirm=false", wantStatus: http.StatusPreconditionRequired},
		{name: "confirmed", query: "?confirm=true", wantStatus: http.StatusOK, wantDeleted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)

			w := f.do(http.MethodDelete, f.path(tt.query), "")
			assert.Equal(t, tt.wantStatus, w.Code)

			_, err := f.episodes.Get(context.Background(), f.episode.ID)
			if tt.wantDeleted {
				assert.True(t, episodes.IsNotFound(err))
				nodes, err := f.deps.TranscriptService.ListByEpisode(context.Background(), f.episode.ID)
				require.NoError(t, err)
				assert.Empty(t, nodes)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name       string
		fields     map[string]string
		files      map[string]string
		setupMock  func(*MockStudio)
		wantStatus int
		validate   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:   "saved with transcription",
			fields: map[string]string{"title": "Ep 1", "summary": "First", "transcribe": "true"},
			files:  map[string]string{"audio": "RIFFDATA"},
			setupMock: func(m *MockStudio) {
				m.On("Save", "Ep 1", "First", "RIFFDATA", false, true).Return(&studio.SaveResult{
					Episode:       &models.Episode{ID: "e1", Title: "Ep 1"},
					Transcription: &transcription.Result{NodeCount: 3, FullText: "a b c"},
				}, nil)
			},
			wantStatus: http.StatusCreated,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp types.SaveEpisodeResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "e1", resp.Episode.ID)
				require.NotNil(t, resp.Transcription)
				assert.Equal(t, 3, resp.Transcription.NodeCount)
				assert.Empty(t, resp.TranscriptionError)
			},
		},
		{
			name:   "transcription failure still creates the episode",
			fields: map[string]string{"title": "Ep 2", "transcribe": "true"},
			files:  map[string]string{"audio": "RIFFDATA", "cover": "PNG"},
			setupMock: func(m *MockStudio) {
				m.On("Save", "Ep 2", "", "RIFFDATA", true, true).Return(&studio.SaveResult{
					Episode:            &models.Episode{ID: "e2", Title: "Ep 2"},
					TranscriptionError: "Transcription failed",
				}, nil)
			},
			wantStatus: http.StatusCreated,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Contains(t, w.Body.String(), `"transcription_error":"Transcription failed"`)
			},
		},
		{
			name:   "validation error from the studio",
			fields: map[string]string{"title": ""},
			files:  map[string]string{"audio": "RIFFDATA"},
			setupMock: func(m *MockStudio) {
				m.On("Save", "", "", "RIFFDATA", false, false).
					Return(nil, episodes.NewValidationError("title", "Please enter an episode title"))
			},
			wantStatus: http.StatusBadRequest,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Contains(t, w.Body.String(), "Please enter an episode title")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)
			studioMock := new(MockStudio)
			tt.setupMock(studioMock)
			f.deps.Studio = studioMock

			body, contentType := multipartBody(t, tt.fields, tt.files)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/episodes", body)
			req.Header.Set("Content-Type", contentType)
			f.router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			tt.validate(t, w)
			studioMock.AssertExpectations(t)
		})
	}
}

func TestCreate_NotConfigured(t *testing.T) {
	f := setupFixture(t)

	body, contentType := multipartBody(t, map[string]string{"title": "Ep"}, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/episodes", body)
	req.Header.Set("Content-Type", contentType)
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestTranscribe(t *testing.T) {
	f := setupFixture(t)

	w := f.do(http.MethodPost, f.path("/retranscribe"), "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	transcriber := new(MockTranscriber)
	transcriber.On("Transcribe", f.episode.ID, "audio.webm").Return(&transcription.Result{NodeCount: 2, FullText: "hi there"}, nil)
	transcriber.On("Retranscribe", f.episode.ID).Return(nil, transcription.ErrNoAudio)
	f.deps.TranscriptionService = transcriber

	body, contentType := multipartBody(t, nil, map[string]string{"audio": "RIFFDATA"})
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, f.path("/transcribe"), body)
	req.Header.Set("Content-Type", contentType)
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp types.TranscriptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.NodeCount)
	assert.Equal(t, "hi there", resp.FullText)

	w = f.do(http.MethodPost, f.path("/retranscribe"), "")
	assert.Equal(t, http.StatusConflict, w.Code)

	body, contentType = multipartBody(t, map[string]string{"note": "x"}, nil)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, f.path("/transcribe"), body)
	req.Header.Set("Content-Type", contentType)
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	transcriber.AssertExpectations(t)
}
