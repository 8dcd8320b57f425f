package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// RegisterRoutes registers the HTML admin pages behind requireSession
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, requireSession gin.HandlerFunc) {
	pages := engine.Group("/admin", requireSession)

	// GET /admin - Dashboard: record, upload, episode list, inbox count
	pages.GET("", Dashboard(deps))

	// GET /admin/episodes/:id - Transcript editor
	pages.GET("/episodes/:id", Editor(deps))
}
