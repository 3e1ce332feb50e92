package delivery

import (
	"errors"
	"net/http"

	subdomain "portal-backend/internal/subscription/domain"
	"portal-backend/internal/subscription/dto"
	"portal-backend/internal/subscription/usecase"

	"github.com/gin-gonic/gin"
)

// SubscriptionHandler handles device opt-in/opt-out for push notifications
type SubscriptionHandler struct {
	registry       usecase.Registry
	vapidPublicKey string
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(registry usecase.Registry, vapidPublicKey string) *SubscriptionHandler {
	return &SubscriptionHandler{
		registry:       registry,
		vapidPublicKey: vapidPublicKey,
	}
}

// GetVAPIDPublicKey returns the application server key for pushManager.subscribe
// GET /api/push/vapid-public-key
func (h *SubscriptionHandler) GetVAPIDPublicKey(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"publicKey": h.vapidPublicKey})
}

// Register stores the caller's device subscription
// POST /api/push/subscriptions
func (h *SubscriptionHandler) Register(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userAgent := req.UserAgent
	if userAgent == "" {
		userAgent = c.Request.UserAgent()
	}

	sub, err := h.registry.Register(c.Request.Context(), userID, subdomain.DeviceSubscription{
		Endpoint:  req.Endpoint,
		Keys:      req.Keys,
		UserAgent: userAgent,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewSubscriptionResponse(*sub))
}

// Unregister removes the caller's device subscription
// DELETE /api/push/subscriptions
func (h *SubscriptionHandler) Unregister(c *gin.Context) {
	userID := c.GetString("userID")

	var req dto.UnregisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.registry.Unregister(c.Request.Context(), userID, req.Endpoint); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription removed"})
}

// List returns the caller's registered devices
// GET /api/push/subscriptions
func (h *SubscriptionHandler) List(c *gin.Context) {
	userID := c.GetString("userID")

	subs, err := h.registry.ListForSubscriber(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]dto.SubscriptionResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, dto.NewSubscriptionResponse(s))
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": out, "count": len(out)})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, subdomain.ErrInvalidSubscription):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, subdomain.ErrRegistryUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "subscription registry unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
