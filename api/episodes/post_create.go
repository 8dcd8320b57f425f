package episodes

import (
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/internal/services/studio"
)

// Create saves a new episode from recorded or uploaded audio
// @Summary Save a new episode
// @Description Uploads the audio and optional cover, creates the episode as a draft and optionally transcribes it. A transcription failure does not undo the save.
// @Tags episodes
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Episode title"
// @Param summary formData string false "Episode summary"
// @Param audio formData file true "Recorded or uploaded audio"
// @Param cover formData file false "Cover image"
// @Param duration formData number false "Duration in seconds, when known from capture"
// @Param transcribe formData bool false "Transcribe after saving"
// @Success 201 {object} types.SaveEpisodeResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 413 {object} types.ErrorResponse
// @Failure 415 {object} types.ErrorResponse
// @Failure 502 {object} types.ErrorResponse
// @Router /api/v1/admin/episodes [post]
func Create(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Studio == nil {
			c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
				Status:  types.StatusError,
				Message: "Episode uploads are not configured",
			})
			return
		}

		audioFile, audioHeader, err := types.FormFile(c, "audio")
		if err != nil {
			log.Printf("[WARN] Failed to read audio upload: %v", err)
			types.SendBadRequest(c, "Could not read the uploaded audio")
			return
		}
		if audioFile != nil {
			defer audioFile.Close()
		}

		coverFile, coverHeader, err := types.FormFile(c, "cover")
		if err != nil {
			log.Printf("[WARN] Failed to read cover upload: %v", err)
			types.SendBadRequest(c, "Could not read the uploaded cover image")
			return
		}
		if coverFile != nil {
			defer coverFile.Close()
		}

		input := studio.SaveInput{
			Title:      c.PostForm("title"),
			Summary:    c.PostForm("summary"),
			Audio:      mediaFrom(audioFile, audioHeader),
			Cover:      mediaFrom(coverFile, coverHeader),
			Transcribe: formBool(c, "transcribe"),
		}
		if input.Audio != nil {
			if d, err := strconv.ParseFloat(c.PostForm("duration"), 64); err == nil && d > 0 {
				input.Audio.Duration = d
			}
		}

		result, err := deps.Studio.Save(c.Request.Context(), input)
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		c.JSON(http.StatusCreated, types.SaveEpisodeResponse{
			BaseResponse:       types.BaseResponse{Status: types.StatusOK, Message: "Episode saved"},
			Episode:            result.Episode,
			Transcription:      result.Transcription,
			TranscriptionError: result.TranscriptionError,
			Warnings:           result.Warnings,
		})
	}
}

func mediaFrom(file multipart.File, header *multipart.FileHeader) *studio.Media {
	if file == nil || header == nil {
		return nil
	}
	return &studio.Media{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Reader:      file,
	}
}

func formBool(c *gin.Context, field string) bool {
	v, err := strconv.ParseBool(c.PostForm(field))
	return err == nil && v
}
