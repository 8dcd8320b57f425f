package episodes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// Update commits one edited field of an episode
// @Summary Edit an episode field
// @Description Editable fields are title, summary and cover_image_url. Title cannot be blank.
// @Tags episodes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Episode ID"
// @Param request body types.FieldUpdateRequest true "Field and value"
// @Success 200 {object} types.EpisodeResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/v1/admin/episodes/{id} [patch]
func Update(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}

		var req types.FieldUpdateRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		episode, err := deps.EpisodeService.UpdateField(c.Request.Context(), id, req.Field, req.Value)
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		c.JSON(http.StatusOK, types.EpisodeResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK, Message: "Saved"},
			Episode:      episode,
		})
	}
}
