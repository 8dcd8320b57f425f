package transcripts

import (
	"bytes"
	"context"
	"encoding/json"
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
	"github.com/stooppolitics/stoop-cms/internal/services/transcripts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router      *gin.Engine
	episodes    *episodes.Service
	transcripts *transcripts.Service
	episode     *models.Episode
}

func setupFixture(t *testing.T) *fixture {
	gin.SetMode(gin.TestMode)

	conn, err := database.Open(database.Options{Driver: "sqlite"})
	require.NoError(t, err)
	require.NoError(t, conn.Migrate())
	t.Cleanup(func() { conn.Close() })

	f := &fixture{
		episodes:    episodes.NewService(episodes.NewRepository(conn.DB)),
		transcripts: transcripts.NewService(transcripts.NewRepository(conn.DB)),
	}
	f.episode, err = f.episodes.Create(context.Background(), episodes.CreateInput{Title: "Zoning", AudioURL: "http://localhost/media/audio/1-audio.mp3"})
	require.NoError(t, err)

	_, err = f.transcripts.Replace(context.Background(), f.episode.ID, []models.TranscriptNode{
		{Content: "Welcome back.", StartTime: models.Float64Ptr(0), EndTime: models.Float64Ptr(4)},
		{Content: "Read the ordinance.", StartTime: models.Float64Ptr(4), EndTime: models.Float64Ptr(9)},
	})
	require.NoError(t, err)

	deps := &types.Dependencies{EpisodeService: f.episodes, TranscriptService: f.transcripts}
	f.router = gin.New()
	RegisterRoutes(f.router.Group("/api/v1/admin"), deps)
	f.router.GET("/episodes/:id/transcript.vtt", Export(deps, "vtt", true))
	return f
}

func (f *fixture) nodes(t *testing.T) []models.TranscriptNode {
	nodes, err := f.transcripts.ListByEpisode(context.Background(), f.episode.ID)
	require.NoError(t, err)
	return nodes
}

func (f *fixture) do(method, path string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func TestUpdateNode(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantStatus   int
		validateFunc func(*testing.T, *fixture, *httptest.ResponseRecorder)
	}{
		{
			name:       "edit content",
			body:       `{"field":"content","value":"Welcome back to the stoop."}`,
			wantStatus: http.StatusOK,
			validateFunc: func(t *testing.T, f *fixture, w *httptest.ResponseRecorder) {
				var resp types.NodeResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, "Welcome back to the stoop.", resp.Node.Content)
				assert.False(t, resp.SavedAt.IsZero())
				assert.Equal(t, "Welcome back to the stoop.", f.nodes(t)[0].Content)
			},
		},
		{
			name:       "set reference link",
			body:       `{"field":"reference_link","value":"https://example.com/ordinance"}`,
			wantStatus: http.StatusOK,
			validateFunc: func(t *testing.T, f *fixture, w *httptest.ResponseRecorder) {
				require.NotNil(t, f.nodes(t)[0].ReferenceLink)
				assert.Equal(t, "https://example.com/ordinance", *f.nodes(t)[0].ReferenceLink)
			},
		},
		{
			name:       "empty reference link clears it",
			body:       `{"field":"reference_link","value":""}`,
			wantStatus: http.StatusOK,
			validateFunc: func(t *testing.T, f *fixture, w *httptest.ResponseRecorder) {
				assert.Nil(t, f.nodes(t)[0].ReferenceLink)
			},
		},
		{
			name:       "relative link is rejected",
			body:       `{"field":"reference_link","value":"/ordinance"}`,
			wantStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, f *fixture, w *httptest.ResponseRecorder) {
				assert.Contains(t, w.Body.String(), "http://")
			},
		},
		{
			name:       "field outside whitelist",
			body:       `{"field":"start_time","value":"3"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing field",
			body:       `{"value":"x"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)
			nodeID := f.nodes(t)[0].ID

			w := f.do(http.MethodPatch, "/api/v1/admin/nodes/"+nodeID, tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.validateFunc != nil {
				tt.validateFunc(t, f, w)
			}
		})
	}
}

func TestUpdateNode_UnknownNode(t *testing.T) {
	f := setupFixture(t)

	w := f.do(http.MethodPatch, "/api/v1/admin/nodes/3f2b8c1e-9a4d-4e2b-8f6a-1c2d3e4f5a6b", `{"field":"content","value":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPatch, "/api/v1/admin/nodes/not-a-uuid", `{"field":"content","value":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListNodesAndPlaceholder(t *testing.T) {
	f := setupFixture(t)
	path := "/api/v1/admin/episodes/" + f.episode.ID + "/nodes"

	w := f.do(http.MethodPost, path, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodPost, path, `{"content":"Host note"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.NodesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 4, resp.Count)
	assert.Equal(t, "Transcript pending...", resp.Nodes[2].Content)
	assert.Nil(t, resp.Nodes[2].StartTime)
	assert.Equal(t, "Host note", resp.Nodes[3].Content)
	for i, node := range resp.Nodes {
		assert.Equal(t, i, node.DisplayOrder)
	}

	w = f.do(http.MethodGet, "/api/v1/admin/episodes/3f2b8c1e-9a4d-4e2b-8f6a-1c2d3e4f5a6b/nodes", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func uploadCaptions(t *testing.T, f *fixture, filename, content string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/episodes/"+f.episode.ID+"/transcript/import", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	f.router.ServeHTTP(w, req)
	return w
}

func TestImport(t *testing.T) {
	vtt := "WEBVTT\n\n00:00:00.000 --> 00:00:02.500\nFirst cue\n\n00:00:02.500 --> 00:00:05.000\nSecond cue\n\n00:00:05.000 --> 00:00:07.000\nThird cue\n"

	tests := []struct {
		name         string
		filename     string
		content      string
		wantStatus   int
		validateFunc func(*testing.T, *fixture, []models.TranscriptNode)
	}{
		{
			name:       "vtt replaces transcript",
			filename:   "captions.vtt",
			content:    vtt,
			wantStatus: http.StatusOK,
			validateFunc: func(t *testing.T, f *fixture, before []models.TranscriptNode) {
				nodes := f.nodes(t)
				require.Len(t, nodes, 3)
				assert.Equal(t, "First cue", nodes[0].Content)
				assert.InDelta(t, 2.5, *nodes[1].StartTime, 0.001)
				for _, old := range before {
					for _, n := range nodes {
						assert.NotEqual(t, old.ID, n.ID)
					}
				}
			},
		},
		{
			name:       "plain text is rejected and the old transcript survives",
			filename:   "notes.txt",
			content:    "just some words",
			wantStatus: http.StatusBadRequest,
			validateFunc: func(t *testing.T, f *fixture, before []models.TranscriptNode) {
				assert.Equal(t, before, f.nodes(t))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupFixture(t)
			before := f.nodes(t)

			w := uploadCaptions(t, f, tt.filename, tt.content)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			tt.validateFunc(t, f, before)
		})
	}
}

func TestImport_MissingFile(t *testing.T) {
	f := setupFixture(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("other", "x"))
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/episodes/"+f.episode.ID+"/transcript/import", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please choose a caption file")
}

func TestExport(t *testing.T) {
	f := setupFixture(t)

	// Drafts are exported for the operator only
	w := f.do(http.MethodGet, "/episodes/"+f.episode.ID+"/transcript.vtt", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/v1/admin/episodes/"+f.episode.ID+"/transcript.srt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/x-subrip")
	assert.Contains(t, w.Body.String(), "00:00:04,000 --> 00:00:09,000")

	_, err := f.episodes.Publish(context.Background(), f.episode.ID)
	require.NoError(t, err)

	w = f.do(http.MethodGet, "/episodes/"+f.episode.ID+"/transcript.vtt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "WEBVTT"))
	assert.Contains(t, w.Body.String(), "Welcome back.")
	assert.Contains(t, w.Header().Get("Content-Disposition"), f.episode.ID+".vtt")
}
