package episodes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// GetAll lists every episode, drafts included
// @Summary List episodes
// @Description All episodes for the dashboard, newest first
// @Tags episodes
// @Security BearerAuth
// @Produce json
// @Success 200 {object} types.EpisodesResponse
// @Failure 401 {object} types.ErrorResponse
// @Router /api/v1/admin/episodes [get]
func GetAll(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := deps.EpisodeService.List(c.Request.Context())
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		c.JSON(http.StatusOK, types.EpisodesResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Episodes:     list,
			Count:        len(list),
		})
	}
}

// GetByID returns an episode and its transcript nodes
// @Summary Get episode
// @Tags episodes
// @Security BearerAuth
// @Produce json
// @Param id path string true "Episode ID"
// @Success 200 {object} types.EpisodeResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/v1/admin/episodes/{id} [get]
func GetByID(deps *types.Dependencies) gin.HandlerFunc {
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

		nodes, err := deps.TranscriptService.ListByEpisode(c.Request.Context(), id)
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		c.JSON(http.StatusOK, types.EpisodeResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Episode:      episode,
			Nodes:        nodes,
		})
	}
}
