package inbox

import (
	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// RegisterPublicRoutes registers the listener submission endpoint
func RegisterPublicRoutes(router gin.IRoutes, deps *types.Dependencies) {
	// POST /api/v1/inbox - Listener message
	router.POST("/inbox", Submit(deps))
}

// RegisterAdminRoutes registers inbox triage routes
func RegisterAdminRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// GET /api/v1/admin/inbox?unread=true
	router.GET("/inbox", List(deps))

	// PATCH /api/v1/admin/inbox/:id - Mark read/unread, edit notes
	router.PATCH("/inbox/:id", Update(deps))

	// DELETE /api/v1/admin/inbox/:id
	router.DELETE("/inbox/:id", Delete(deps))
}
