package delivery

import (
	"errors"
	"net/http"
	"time"

	"portal-backend/internal/notification/dto"
	"portal-backend/internal/reminder/domain"
	"portal-backend/internal/reminder/usecase"

	"github.com/gin-gonic/gin"
)

// ScheduleRequest holds an event back until DueAt
type ScheduleRequest struct {
	Event      dto.EventRequest `json:"event"`
	Recipients []string         `json:"recipients"`
	DueAt      time.Time        `json:"dueAt"`
}

// ReminderHandler handles scheduled notification requests from portal services
type ReminderHandler struct {
	reminders usecase.ReminderUsecase
}

// NewReminderHandler creates a new ReminderHandler
func NewReminderHandler(reminders usecase.ReminderUsecase) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

// Schedule stores a reminder
// POST /api/internal/reminders
func (h *ReminderHandler) Schedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reminder, err := h.reminders.Schedule(c.Request.Context(), c.GetString("service"), *req.Event.ToDomain(), req.Recipients, req.DueAt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reminder)
}

// GetReminder returns one reminder
// GET /api/internal/reminders/:id
func (h *ReminderHandler) GetReminder(c *gin.Context) {
	reminder, err := h.reminders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reminder)
}

// Cancel deletes a reminder that has not fired yet
// DELETE /api/internal/reminders/:id
func (h *ReminderHandler) Cancel(c *gin.Context) {
	if err := h.reminders.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reminder cancelled"})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidReminder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadySent):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
