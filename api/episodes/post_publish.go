package episodes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// Publish makes a draft episode public
// @Summary Publish an episode
// @Description Publishing cannot be undone; a second publish answers 409.
// @Tags episodes
// @Security BearerAuth
// @Produce json
// @Param id path string true "Episode ID"
// @Success 200 {object} types.EpisodeResponse
// @Failure 404 {object} types.ErrorResponse
// @Failure 409 {object} types.ErrorResponse
// @Router /api/v1/admin/episodes/{id}/publish [post]
func Publish(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}

		episode, err := deps.EpisodeService.Publish(c.Request.Context(), id)
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		c.JSON(http.StatusOK, types.EpisodeResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Episode published"},
			Episode:      episode,
		})
	}
}
