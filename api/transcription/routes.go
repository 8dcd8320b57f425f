package transcription

import (
	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// RegisterRoutes registers the transcription submission endpoint
func RegisterRoutes(router gin.IRoutes, deps *types.Dependencies) {
	// POST /api/transcribe - multipart audio + episodeId
	router.POST("/transcribe", Submit(deps))
}
