package episodes

import (
	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// RegisterRoutes registers admin episode routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// GET /api/v1/admin/episodes - All episodes, newest first
	router.GET("/episodes", GetAll(deps))

	// POST /api/v1/admin/episodes - Save a new episode from the studio
	router.POST("/episodes", Create(deps))

	// GET /api/v1/admin/episodes/:id - Episode with its transcript
	router.GET("/episodes/:id", GetByID(deps))

	// PATCH /api/v1/admin/episodes/:id - Single-field edit
	router.PATCH("/episodes/:id", Update(deps))

	// POST /api/v1/admin/episodes/:id/publish - Publish, one way only
	router.POST("/episodes/:id/publish", Publish(deps))

	// DELETE /api/v1/admin/episodes/:id?confirm=true - Delete with its transcript and media
	router.DELETE("/episodes/:id", Delete(deps))

	// POST /api/v1/admin/episodes/:id/transcribe - Transcribe uploaded audio
	router.POST("/episodes/:id/transcribe", Transcribe(deps))

	// POST /api/v1/admin/episodes/:id/retranscribe - Transcribe the stored audio again
	router.POST("/episodes/:id/retranscribe", Retranscribe(deps))
}
