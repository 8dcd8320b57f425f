package episodes

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
	apperrors "github.com/stooppolitics/stoop-cms/pkg/errors"
)

// Delete removes an episode with its transcript and stored media
// @Summary Delete an episode
// @Description Requires confirm=true; without it nothing is removed and 428 is returned.
// @Tags episodes
// @Security BearerAuth
// @Produce json
// @Param id path string true "Episode ID"
// @Param confirm query bool true "Confirm the delete"
// @Success 200 {object} types.EpisodeResponse
// @Failure 404 {object} types.ErrorResponse
// @Failure 428 {object} types.ErrorResponse
// @Router /api/v1/admin/episodes/{id} [delete]
func Delete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}

		if confirmed, _ := strconv.ParseBool(c.Query("confirm")); !confirmed {
			types.SendAppError(c, apperrors.New(apperrors.ErrCodeConfirmation,
				"Deleting an episode removes its transcript and audio. Repeat the request with confirm=true."))
			return
		}

		episode, err := deps.EpisodeService.Delete(c.Request.Context(), id)
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		c.JSON(http.StatusOK, types.EpisodeResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Episode deleted"},
			Episode:      episode,
		})
	}
}
