package repository

import (
	"context"

	notifdomain "portal-backend/internal/notification/domain"
)

// InboxRepository stores the in-app notification records each recipient's bell reads.
type InboxRepository interface {
	Create(ctx context.Context, n *notifdomain.Notification) error

	// FindByID returns nil, nil when the record does not exist
	FindByID(ctx context.Context, id string) (*notifdomain.Notification, error)

	// FindByRecipient returns the newest records first, at most limit of them
	FindByRecipient(ctx context.Context, recipientID string, limit int) ([]notifdomain.Notification, error)

	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, recipientID string) error

	// DeleteByRecipient clears a recipient's inbox and reports how many records went
	DeleteByRecipient(ctx context.Context, recipientID string) (int64, error)
}
