package transcripts

import (
	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/pkg/transcript"
)

// RegisterRoutes registers the transcript editor routes on the admin group
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.PATCH("/nodes/:id", UpdateNode(deps))
	router.GET("/episodes/:id/nodes", ListNodes(deps))
	router.POST("/episodes/:id/nodes", AddPlaceholder(deps))
	router.POST("/episodes/:id/transcript/import", Import(deps))
	router.GET("/episodes/:id/transcript.vtt", Export(deps, transcript.FormatVTT, false))
	router.GET("/episodes/:id/transcript.srt", Export(deps, transcript.FormatSRT, false))
}
