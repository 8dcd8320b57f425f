package feed

import (
	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// RegisterRoutes registers the RSS feed; cached is the response cache middleware, nil to disable
func RegisterRoutes(router gin.IRoutes, deps *types.Dependencies, cached gin.HandlerFunc) {
	handlers := []gin.HandlerFunc{Get(deps)}
	if cached != nil {
		handlers = append([]gin.HandlerFunc{cached}, handlers...)
	}

	// GET /feed.xml - Podcast RSS of published episodes
	router.GET("/feed.xml", handlers...)
}
