package repository

import (
	"context"

	subdomain "portal-backend/internal/subscription/domain"
)

// SubscriptionRepository persists push subscriptions keyed by their deterministic ID.
type SubscriptionRepository interface {
	// Save inserts or refreshes a subscription. CreatedAt of an existing record is preserved.
	Save(ctx context.Context, sub *subdomain.Subscription) error

	// Delete removes a subscription by ID. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// FindBySubscriberID returns every device registered for a subscriber.
	FindBySubscriberID(ctx context.Context, subscriberID string) ([]subdomain.Subscription, error)
}
