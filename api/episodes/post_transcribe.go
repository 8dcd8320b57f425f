package episodes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/internal/services/transcription"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
)

// Transcribe replaces an episode's transcript with a transcription of uploaded audio
// @Summary Transcribe audio for an episode
// @Tags episodes
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Episode ID"
// @Param audio formData file true "Audio to transcribe"
// @Success 200 {object} types.TranscriptionResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 413 {object} types.ErrorResponse
// @Failure 502 {object} types.ErrorResponse
// @Failure 503 {object} types.ErrorResponse
// @Router /api/v1/admin/episodes/{id}/transcribe [post]
func Transcribe(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}
		if !transcriptionEnabled(c, deps) {
			return
		}

		file, header, err := types.FormFile(c, "audio")
		if err != nil {
			types.SendBadRequest(c, "Could not read the uploaded audio")
			return
		}
		if file == nil {
			types.SendAppError(c, apperrors.MissingFieldError("audio", "Please choose an audio file"))
			return
		}
		defer file.Close()

		result, err := deps.TranscriptionService.Transcribe(c.Request.Context(), id, transcription.Audio{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      file,
		})
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, transcriptionResponse(id, result))
	}
}

// Retranscribe transcribes the episode's stored audio again
// @Summary Re-transcribe an episode
// @Description Fetches the stored audio and replaces the transcript. Manual edits are lost.
// @Tags episodes
// @Security BearerAuth
// @Produce json
// @Param id path string true "Episode ID"
// @Success 200 {object} types.TranscriptionResponse
// @Failure 404 {object} types.ErrorResponse
// @Failure 409 {object} types.ErrorResponse
// @Failure 502 {object} types.ErrorResponse
// @Failure 503 {object} types.ErrorResponse
// @Router /api/v1/admin/episodes/{id}/retranscribe [post]
func Retranscribe(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}
		if !transcriptionEnabled(c, deps) {
			return
		}

		result, err := deps.TranscriptionService.Retranscribe(c.Request.Context(), id)
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, transcriptionResponse(id, result))
	}
}

func transcriptionEnabled(c *gin.Context, deps *types.Dependencies) bool {
	if deps.TranscriptionService != nil {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
		Status:  types.StatusError,
		Message: "Transcription is not configured",
		Error:   string(apperrors.ErrCodeConfigInvalid),
	})
	return false
}

func transcriptionResponse(id string, result *transcription.Result) types.TranscriptionResponse {
	return types.TranscriptionResponse{
		BaseResponse: types.BaseResponse{Status: types.StatusOK},
		EpisodeID:    id,
		NodeCount:    result.NodeCount,
		FullText:     result.FullText,
	}
}
