package transcription

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/internal/services/transcription"
)

// Submit transcribes uploaded audio into an existing episode's transcript
// @Summary      Transcribe audio into an episode
// @Description  Sends the audio to the speech-to-text provider and replaces the episode transcript with the
// @Description  returned segments. Failures answer with a non-2xx status and a single error message.
// @Tags         transcription
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        audio formData file true "Audio file, named with its format extension"
// @Param        episodeId formData string true "Episode ID"
// @Success      200 {object} types.TranscribeResult
// @Failure      400 {object} types.TranscribeError "Missing audio file or episode ID"
// @Failure      404 {object} types.TranscribeError "Episode not found"
// @Failure      413 {object} types.TranscribeError "Audio over the provider limit"
// @Failure      502 {object} types.TranscribeError "Provider rejected the request"
// @Failure      503 {object} types.TranscribeError "Transcription not configured"
// @Router       /api/transcribe [post]
func Submit(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.TranscriptionService == nil {
			c.JSON(http.StatusServiceUnavailable, types.TranscribeError{Error: "Transcription is not configured"})
			return
		}

		episodeID := c.PostForm("episodeId")
		file, header, err := types.FormFile(c, "audio")
		if err != nil {
			log.Printf("[WARN] Failed to read transcription upload: %v", err)
			c.JSON(http.StatusBadRequest, types.TranscribeError{Error: "Could not read the uploaded audio"})
			return
		}
		if file != nil {
			defer file.Close()
		}
		if file == nil || episodeID == "" {
			c.JSON(http.StatusBadRequest, types.TranscribeError{Error: "Missing audio file or episode ID"})
			return
		}
		if _, err := uuid.Parse(episodeID); err != nil {
			c.JSON(http.StatusBadRequest, types.TranscribeError{Error: "Invalid episode ID"})
			return
		}

		log.Printf("[DEBUG] Transcription submitted for episode %s (%s, %d bytes)", episodeID, header.Filename, header.Size)
		result, err := deps.TranscriptionService.Transcribe(c.Request.Context(), episodeID, transcription.Audio{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Reader:      file,
		})
		if err != nil {
			status, resp := types.ErrorFor(err)
			if status >= http.StatusInternalServerError {
				log.Printf("[ERROR] Transcription failed for episode %s: %v", episodeID, err)
			}
			c.JSON(status, types.TranscribeError{Error: resp.Message})
			return
		}

		c.JSON(http.StatusOK, types.TranscribeResult{
			Success:   true,
			NodeCount: result.NodeCount,
			FullText:  result.FullText,
		})
	}
}
