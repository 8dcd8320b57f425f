package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// Get handles version requests
// @Summary Version
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /version [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	v := "dev"
	if deps != nil && deps.Version != "" {
		v = deps.Version
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":        "Stoop CMS",
			"version":     v,
			"description": "Record, transcribe and publish Stoop Politics episodes",
			"status":      "running",
		})
	}
}
