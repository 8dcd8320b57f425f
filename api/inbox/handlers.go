package inbox

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stooppolitics/stoop-cms/api/types"
	"github.com/stooppolitics/stoop-cms/internal/services/inbox"
)

// Submit stores a listener message
// @Summary Send a message to the show
// @Description Messages are trimmed and must be 1 to 2000 characters. Rate limited per client.
// @Tags inbox
// @Accept json
// @Produce json
// @Param request body types.InboxSubmitRequest true "Message"
// @Success 201 {object} types.BaseResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 429 {object} types.ErrorResponse
// @Router /api/v1/inbox [post]
func Submit(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.InboxSubmitRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		if _, err := deps.InboxService.Submit(c.Request.Context(), req.Message); err != nil {
			types.SendAppError(c, err)
			return
		}

		types.SendCreated(c, types.BaseResponse{Status: types.StatusOK, Message: "Thanks! Your message was sent."})
	}
}

// List returns inbox messages newest first
// @Summary List inbox messages
// @Tags inbox
// @Security BearerAuth
// @Produce json
// @Param unread query bool false "Only unread messages"
// @Success 200 {object} types.InboxMessagesResponse
// @Router /api/v1/admin/inbox [get]
func List(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

		messages, err := deps.InboxService.List(c.Request.Context(), unreadOnly)
		if err != nil {
			types.SendAppError(c, err)
			return
		}
		unread, err := deps.InboxService.UnreadCount(c.Request.Context())
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		types.SendSuccess(c, types.InboxMessagesResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Messages:     messages,
			Count:        len(messages),
			Unread:       unread,
		})
	}
}

// Update marks a message read or unread and edits its notes
// @Summary Update an inbox message
// @Tags inbox
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Message ID"
// @Param request body types.InboxUpdateRequest true "Patch"
// @Success 200 {object} types.InboxMessageResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/v1/admin/inbox/{id} [patch]
func Update(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}

		var req types.InboxUpdateRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		message, err := deps.InboxService.Update(c.Request.Context(), id, inbox.Patch{
			IsRead:     req.IsRead,
			AdminNotes: req.AdminNotes,
		})
		if err != nil {
			types.SendAppError(c, err)
			return
		}

		types.SendSuccess(c, types.InboxMessageResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Message:      message,
		})
	}
}

// Delete removes a message
// @Summary Delete an inbox message
// @Tags inbox
// @Security BearerAuth
// @Produce json
// @Param id path string true "Message ID"
// @Success 200 {object} types.BaseResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /api/v1/admin/inbox/{id} [delete]
func Delete(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseIDParam(c, "id")
		if !ok {
			return
		}

		if err := deps.InboxService.Delete(c.Request.Context(), id); err != nil {
			types.SendAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, types.BaseResponse{Status: types.StatusOK, Message: "Message deleted"})
	}
}
