package repository

import (
	"context"

	subdomain "portal-backend/internal/subscription/domain"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// SubscriptionsCollection holds one document per device, id {subscriberId}_{endpointHash}.
const SubscriptionsCollection = "push_subscriptions"

type firestoreSubscriptionRepository struct {
	client *firestore.Client
}

// NewFirestoreSubscriptionRepository creates a Firestore-backed SubscriptionRepository
func NewFirestoreSubscriptionRepository(client *firestore.Client) SubscriptionRepository {
	return &firestoreSubscriptionRepository{client: client}
}

func (r *firestoreSubscriptionRepository) Save(ctx context.Context, sub *subdomain.Subscription) error {
	ref := r.client.Collection(SubscriptionsCollection).Doc(sub.ID)
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if snap != nil && snap.Exists() {
			var existing subdomain.Subscription
			if err := snap.DataTo(&existing); err == nil && !existing.CreatedAt.IsZero() {
				sub.CreatedAt = existing.CreatedAt
			}
		}
		return tx.Set(ref, sub)
	})
}

func (r *firestoreSubscriptionRepository) Delete(ctx context.Context, id string) error {
	// Firestore treats deletes of missing documents as success when no precondition is set.
	_, err := r.client.Collection(SubscriptionsCollection).Doc(id).Delete(ctx)
	return err
}

func (r *firestoreSubscriptionRepository) FindBySubscriberID(ctx context.Context, subscriberID string) ([]subdomain.Subscription, error) {
	docs, err := r.client.Collection(SubscriptionsCollection).
		Where("subscriberId", "==", subscriberID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	subs := make([]subdomain.Subscription, 0, len(docs))
	for _, doc := range docs {
		var sub subdomain.Subscription
		if err := doc.DataTo(&sub); err != nil {
			return nil, err
		}
		sub.ID = doc.Ref.ID
		subs = append(subs, sub)
	}
	return subs, nil
}
