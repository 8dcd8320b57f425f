package admin

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	apiauth "github.com/stooppolitics/stoop-cms/api/auth"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/api/views"
	"github.com/stooppolitics/stoop-cms/internal/services/episodes"
)

// Dashboard renders the operator's episode list
func Dashboard(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		list, err := deps.EpisodeService.List(ctx)
		if err != nil {
			log.Printf("[ERROR] Failed to load dashboard episodes: %v", err)
			renderMessage(c, deps, http.StatusInternalServerError, "Something went wrong", "Could not load episodes.")
			return
		}

		var unread int64
		if deps.InboxService != nil {
			if unread, err = deps.InboxService.UnreadCount(ctx); err != nil {
				log.Printf("[WARN] Failed to count unread inbox messages: %v", err)
			}
		}

		c.HTML(http.StatusOK, "admin.html", views.AdminData{
			Site:     deps.Site,
			Email:    operatorEmail(c),
			Episodes: list,
			Unread:   unread,
		})
	}
}

// Editor renders the transcript editor for one episode
func Editor(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}

		episode, err := deps.EpisodeService.Get(c.Request.Context(), id)
		if err != nil {
			if episodes.IsNotFound(err) {
				renderMessage(c, deps, http.StatusNotFound, "Episode not found", "This episode does not exist.")
				return
			}
			log.Printf("[ERROR] Failed to load episode %s for editing: %v", id, err)
			renderMessage(c, deps, http.StatusInternalServerError, "Something went wrong", "Could not load this episode.")
			return
		}

		nodes, err := deps.TranscriptService.ListByEpisode(c.Request.Context(), id)
		if err != nil {
			log.Printf("[ERROR] Failed to load transcript %s: %v", id, err)
			renderMessage(c, deps, http.StatusInternalServerError, "Something went wrong", "Could not load the transcript.")
			return
		}

		c.HTML(http.StatusOK, "editor.html", views.EditorData{
			Site:    deps.Site,
			Email:   operatorEmail(c),
			Episode: episode,
			Nodes:   nodes,
		})
	}
}

func operatorEmail(c *gin.Context) string {
	if claims, ok := apiauth.ClaimsFrom(c); ok {
		return claims.Email
	}
	return ""
}

func renderMessage(c *gin.Context, deps *types.Dependencies, status int, title, message string) {
	c.HTML(status, "message.html", views.MessageData{Site: deps.Site, Title: title, Message: message})
}
