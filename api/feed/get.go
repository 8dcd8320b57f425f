package feed

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
)

// Get renders the podcast RSS feed
// @Summary Podcast RSS feed
// @Description iTunes-compatible RSS 2.0 of published episodes, newest first
// @Tags public
// @Produce xml
// @Success 200 {string} string "RSS document"
// @Failure 500 {object} types.ErrorResponse
// @Router /feed.xml [get]
func Get(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Feed == nil {
			types.SendNotFound(c, "Feed not available")
			return
		}

		var buf bytes.Buffer
		if err := deps.Feed.Write(c.Request.Context(), &buf); err != nil {
			types.SendAppError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", buf.Bytes())
	}
}
