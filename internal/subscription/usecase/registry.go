package usecase

import (
	"context"
	"fmt"
	"time"

	subdomain "portal-backend/internal/subscription/domain"
	"portal-backend/internal/subscription/repository"
	"portal-backend/pkg/logger"

	"go.uber.org/zap"
)

// Registry is the durable mapping from (subscriber, device) to push transport details.
type Registry interface {
	// Register upserts the device's subscription. Repeated calls with the same endpoint
	// refresh one record rather than creating another.
	Register(ctx context.Context, subscriberID string, device subdomain.DeviceSubscription) (*subdomain.Subscription, error)

	// Unregister removes the subscription; an absent record counts as success.
	Unregister(ctx context.Context, subscriberID, endpoint string) error

	// ListForSubscriber returns every registered device, empty when none.
	ListForSubscriber(ctx context.Context, subscriberID string) ([]subdomain.Subscription, error)

	// Purge drops a subscription the push service reported as gone.
	Purge(ctx context.Context, subscriberID, endpoint string) error
}

type registry struct {
	repo   repository.SubscriptionRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewRegistry creates a Registry over the given repository
func NewRegistry(repo repository.SubscriptionRepository, log *zap.Logger) Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &registry{
		repo:   repo,
		logger: log.Named("registry"),
		now:    time.Now,
	}
}

func (r *registry) Register(ctx context.Context, subscriberID string, device subdomain.DeviceSubscription) (*subdomain.Subscription, error) {
	if err := subdomain.ValidateSubscriberID(subscriberID); err != nil {
		return nil, err
	}
	if err := device.Validate(); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	sub := &subdomain.Subscription{
		ID:           subdomain.SubscriptionID(subscriberID, device.Endpoint),
		SubscriberID: subscriberID,
		Endpoint:     device.Endpoint,
		Keys:         device.Keys,
		UserAgent:    device.UserAgent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.repo.Save(ctx, sub); err != nil {
		return nil, unavailable("register", err)
	}

	r.logger.Info("subscription registered", zap.String("subscriber", subscriberID), zap.String("id", sub.ID))
	return sub, nil
}

func (r *registry) Unregister(ctx context.Context, subscriberID, endpoint string) error {
	if err := r.repo.Delete(ctx, subdomain.SubscriptionID(subscriberID, endpoint)); err != nil {
		return unavailable("unregister", err)
	}
	r.logger.Info("subscription removed", zap.String("subscriber", subscriberID), logger.Endpoint(endpoint))
	return nil
}

func (r *registry) ListForSubscriber(ctx context.Context, subscriberID string) ([]subdomain.Subscription, error) {
	subs, err := r.repo.FindBySubscriberID(ctx, subscriberID)
	if err != nil {
		return nil, unavailable("list", err)
	}
	if subs == nil {
		subs = []subdomain.Subscription{}
	}
	return subs, nil
}

func (r *registry) Purge(ctx context.Context, subscriberID, endpoint string) error {
	if err := r.repo.Delete(ctx, subdomain.SubscriptionID(subscriberID, endpoint)); err != nil {
		return unavailable("purge", err)
	}
	r.logger.Info("expired subscription purged", zap.String("subscriber", subscriberID), logger.Endpoint(endpoint))
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", subdomain.ErrRegistryUnavailable, op, err)
}
