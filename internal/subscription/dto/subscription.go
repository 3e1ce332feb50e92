package dto

import (
	"time"

	subdomain "portal-backend/internal/subscription/domain"
)

// RegisterRequest mirrors PushSubscription.toJSON() from the browser, plus an optional user agent.
type RegisterRequest struct {
	Endpoint  string         `json:"endpoint" binding:"required"`
	Keys      subdomain.Keys `json:"keys"`
	UserAgent string         `json:"userAgent"`
}

type UnregisterRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

type SubscriptionResponse struct {
	ID        string `json:"id"`
	Endpoint  string `json:"endpoint"`
	UserAgent string `json:"userAgent,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func NewSubscriptionResponse(sub subdomain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:        sub.ID,
		Endpoint:  sub.Endpoint,
		UserAgent: sub.UserAgent,
		CreatedAt: sub.CreatedAt.UTC().Format(time.RFC3339),
	}
}
