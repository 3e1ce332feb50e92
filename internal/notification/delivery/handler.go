package delivery

import (
	"errors"
	"net/http"
	"strconv"

	notifdomain "portal-backend/internal/notification/domain"
	"portal-backend/internal/notification/dto"
	"portal-backend/internal/notification/usecase"

	"github.com/gin-gonic/gin"
)

// NotificationHandler serves the in-app inbox and the internal dispatch API
type NotificationHandler struct {
	notifications usecase.NotificationUsecase
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// GetInbox returns the caller's newest notifications with the unread count
// GET /api/notifications?limit=20
func (h *NotificationHandler) GetInbox(c *gin.Context) {
	userID := c.GetString("userID")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
			return
		}
		limit = parsed
	}

	items, unread, err := h.notifications.ListInbox(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.NewInboxResponse(items, unread))
}

// MarkRead marks a single notification as read
// PATCH /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.notifications.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllRead marks every notification of the caller as read
// PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.notifications.MarkAllRead(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

// ClearAll deletes the caller's inbox
// DELETE /api/notifications
func (h *NotificationHandler) ClearAll(c *gin.Context) {
	userID := c.GetString("userID")

	removed, err := h.notifications.ClearAll(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Notify stores the event in every recipient's inbox and pushes it to their devices
// POST /api/internal/notifications
func (h *NotificationHandler) Notify(c *gin.Context) {
	var req dto.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.notifications.Notify(c.Request.Context(), req.Event.ToDomain(), req.Recipients)
	if err != nil {
		if result == nil {
			writeError(c, err)
			return
		}
		// partial inbox failure; push already went out
		c.JSON(http.StatusMultiStatus, gin.H{"result": result, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Dispatch pushes the event to every device of the recipients without touching the inbox
// POST /api/internal/push/dispatch
func (h *NotificationHandler) Dispatch(c *gin.Context) {
	var req dto.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.notifications.Dispatch(c.Request.Context(), req.Event.ToDomain(), req.Recipients)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, notifdomain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, notifdomain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, notifdomain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
