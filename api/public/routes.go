package public

import (
	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/transcripts"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/pkg/transcript"
)

// RegisterRoutes registers the public site; cached wraps the HTML pages
func RegisterRoutes(router gin.IRouter, deps *types.Dependencies, cached gin.HandlerFunc) {
	router.GET("/", cached, Page(deps))
	router.GET("/episodes/:id", cached, Episode(deps))
	router.GET("/episodes/:id/transcript.vtt", transcripts.Export(deps, transcript.FormatVTT, true))
	router.GET("/episodes/:id/transcript.srt", transcripts.Export(deps, transcript.FormatSRT, true))
}
