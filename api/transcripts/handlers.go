package transcripts

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/internal/models"
	"github.com/stooppolitics/stoop-cms/internal/services/episodes"
	"github.com/stooppolitics/stoop-cms/internal/services/transcripts"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
	"github.com/stooppolitics/stoop-cms/pkg/transcript"
)

// maxCaptionBytes bounds an imported caption file
const maxCaptionBytes = 5 << 20

// UpdateNode commits one edited field of a transcript node
// @Summary Edit a transcript node
// @Description Per-field commit from the editor. Editable fields are content, reference_link and reference_title. An empty reference field removes the link.
// @Tags transcripts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Node ID"
// @Param request body types.FieldUpdateRequest true "Field and value"
// @Success 200 {object} types.NodeResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/v1/admin/nodes/{id} [patch]
func UpdateNode(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}

		var req types.FieldUpdateRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		node, err := deps.TranscriptService.UpdateField(c.Request.Context(), id, req.Field, req.Value)
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		c.JSON(http.StatusOK, types.NodeResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Node:         node,
			SavedAt:      time.Now().UTC(),
		})
	}
}

// ListNodes returns an episode's transcript in display order
// @Summary List transcript nodes
// @Tags transcripts
// @Security BearerAuth
// @Produce json
// @Param id path string true "Episode ID"
// @Success 200 {object} types.NodesResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/v1/admin/episodes/{id}/nodes [get]
func ListNodes(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}
		if _, err := deps.EpisodeService.Get(c.Request.Context(), id); err != nil {
			types.SendAppError(c, err)
			return
		}

		nodes, err := deps.TranscriptService.ListByEpisode(c.Request.Context(), id)
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, nodesResponse(id, nodes))
	}
}

// AddPlaceholder appends a manual node to the transcript
// @Summary Add a placeholder node
// @Tags transcripts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Episode ID"
// @Param request body types.PlaceholderRequest false "Node content"
// @Success 201 {object} types.NodeResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/v1/admin/episodes/{id}/nodes [post]
func AddPlaceholder(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}

		var req types.PlaceholderRequest
		if c.Request.ContentLength > 0 && !types.BindJSONOrError(c, &req) {
			return
		}
		content := strings.TrimSpace(req.Content)
		if content == "" {
			content = transcripts.DefaultPlaceholder
		}

		node, err := deps.TranscriptService.InsertPlaceholder(c.Request.Context(), id, content)
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusCreated, types.NodeResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Node:         node,
			SavedAt:      time.Now().UTC(),
		})
	}
}

// Import replaces the transcript with the cues of an uploaded caption file
// @Summary Import captions
// @Description Replace the transcript with the cues of a VTT, SRT or JSON caption file. The old transcript is kept when the file cannot be read.
// @Tags transcripts
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Episode ID"
// @Param file formData file true "Caption file"
// @Success 200 {object} types.NodesResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/v1/admin/episodes/{id}/transcript/import [post]
func Import(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}

		file, header, err := types.FormFile(c, "file")
		if err != nil {
			types.SendBadRequest(c, "Could not read the uploaded caption file")
			return
		}
		if file == nil {
			types.SendAppError(c, apperrors.MissingFieldError("file", "Please choose a caption file"))
			return
		}
		defer file.Close()

		content, err := io.ReadAll(io.LimitReader(file, maxCaptionBytes+1))
		if err != nil {
			types.SendBadRequest(c, "Could not read the uploaded caption file")
			return
		}
		if len(content) > maxCaptionBytes {
			types.SendAppError(c, apperrors.TooLarge(int64(len(content)), maxCaptionBytes))
			return
		}

		nodes, err := deps.TranscriptService.ImportCaptions(c.Request.Context(), id, header.Filename, header.Header.Get("Content-Type"), string(content))
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, nodesResponse(id, nodes))
	}
}

// Export writes the timed transcript as a caption file; public callers only see published episodes
// @Summary Export captions
// @Tags transcripts
// @Produce plain
// @Param id path string true "Episode ID"
// @Success 200 {string} string "WebVTT or SubRip captions"
// @Failure 404 {object} types.ErrorResponse
// @Router /episodes/{id}/transcript.vtt [get]
// @Router /episodes/{id}/transcript.srt [get]
func Export(deps *types.Dependencies, format transcript.Format, publishedOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}

		episode, err := deps.EpisodeService.Get(c.Request.Context(), id)
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		if publishedOnly && !episode.Visible() {
			types.SendAppError(c, episodes.NewNotFoundError("episode", id))
			return
		}

		var buf bytes.Buffer
		if err := deps.TranscriptService.ExportCaptions(c.Request.Context(), id, format, &buf); err != nil {
			types.SendAppError(c, err)
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, id, format))
		c.Data(http.StatusOK, transcript.ContentType(format), buf.Bytes())
	}
}

func nodesResponse(episodeID string, nodes []models.TranscriptNode) types.NodesResponse {
	return types.NodesResponse{
		BaseResponse: types.BaseResponse{Status: types.StatusOK},
		EpisodeID:    episodeID,
		Nodes:        nodes,
		Count:        len(nodes),
	}
}
