package media

import (
	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// RegisterRoutes registers local media serving; only used with the filesystem backend
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies) {
	// OPTIONS /media/*key - CORS preflight for cross-origin players
	engine.OPTIONS("/media/*key", HandleOptions())

	// GET /media/*key - Stored audio and cover images, with Range support
	engine.GET("/media/*key", Serve(deps))

	// HEAD /media/*key - Metadata without body
	engine.HEAD("/media/*key", Serve(deps))
}
