package dto

import (
	"time"

	notifdomain "portal-backend/internal/notification/domain"
)

// EventRequest is the notification event as submitted by portal services
type EventRequest struct {
	Category notifdomain.Category `json:"category"`
	Action   notifdomain.Action   `json:"action"`
	Title    string               `json:"title"`
	Body     string               `json:"body"`
	Tag      string               `json:"tag,omitempty"`
	Data     map[string]string    `json:"data,omitempty"`
	ActorID  string               `json:"actorId,omitempty"`
}

// DispatchRequest addresses one event to a set of recipients
type DispatchRequest struct {
	Event      EventRequest `json:"event"`
	Recipients []string     `json:"recipients"`
}

func (e EventRequest) ToDomain() *notifdomain.Notification {
	return &notifdomain.Notification{
		Category: e.Category,
		Action:   e.Action,
		Title:    e.Title,
		Body:     e.Body,
		Tag:      e.Tag,
		Data:     e.Data,
		ActorID:  e.ActorID,
	}
}

// NotificationResponse is one inbox entry
type NotificationResponse struct {
	ID        string            `json:"id"`
	Category  string            `json:"category"`
	Action    string            `json:"action"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	URL       string            `json:"url,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	ActorID   string            `json:"actorId,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt string            `json:"createdAt"`
}

// InboxResponse is the caller's inbox page
type InboxResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Unread        int64                  `json:"unread"`
}

func NewNotificationResponse(n notifdomain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Category:  string(n.Category),
		Action:    string(n.Action),
		Title:     n.Title,
		Body:      n.Body,
		URL:       n.URL(),
		Data:      n.Data,
		ActorID:   n.ActorID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func NewInboxResponse(items []notifdomain.Notification, unread int64) InboxResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NewNotificationResponse(n))
	}
	return InboxResponse{Notifications: out, Unread: unread}
}
