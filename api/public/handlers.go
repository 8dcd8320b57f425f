package public

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/api/views"
	"github.com/stooppolitics/stoop-cms/internal/services/episodes"
	"github.com/stooppolitics/stoop-cms/internal/services/public"
)

// Page renders the latest published episode with its transcript and the archive
// @Summary Public page
// @Description Latest published episode, its transcript with playback seeking, and the archive. Shows "Coming Soon" when nothing is published.
// @Tags public
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router / [get]
func Page(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := deps.PublicService.BuildPage(c.Request.Context())
		if err != nil {
			log.Printf("[ERROR] Failed to build public page: %v", err)
			renderMessage(c, deps, http.StatusInternalServerError, "Something went wrong", "We could not load the latest episode. Please try again shortly.")
			return
		}
		c.HTML(http.StatusOK, "index.html", views.PageData{Site: deps.Site, Page: page, FeedURL: "/feed.xml"})
	}
}

// Episode renders one published episode
// @Summary Published episode page
// @Tags public
// @Produce html
// @Param id path string true "Episode ID"
// @Success 200 {string} string "HTML page"
// @Failure 404 {string} string "Not published or unknown"
// @Router /episodes/{id} [get]
func Episode(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := deps.PublicService.EpisodePage(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, public.ErrNotPublished) || episodes.IsNotFound(err) {
				renderMessage(c, deps, http.StatusNotFound, "Episode not found", "This episode does not exist or has not been published yet.")
				return
			}
			log.Printf("[ERROR] Failed to build episode page %s: %v", c.Param("id"), err)
			renderMessage(c, deps, http.StatusInternalServerError, "Something went wrong", "We could not load this episode. Please try again shortly.")
			return
		}
		c.HTML(http.StatusOK, "index.html", views.PageData{Site: deps.Site, Page: page, FeedURL: "/feed.xml"})
	}
}

func renderMessage(c *gin.Context, deps *types.Dependencies, status int, title, message string) {
	c.HTML(status, "message.html", views.MessageData{Site: deps.Site, Title: title, Message: message})
}
