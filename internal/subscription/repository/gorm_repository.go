package repository

import (
	"context"

	subdomain "portal-backend/internal/subscription/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormSubscriptionRepository implements SubscriptionRepository on a relational database
type gormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a GORM-backed SubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &gormSubscriptionRepository{db: db}
}

// Save upserts on the deterministic primary key: INSERT ... ON CONFLICT (id) DO UPDATE.
// created_at keeps its first value and is copied back into sub.
func (r *gormSubscriptionRepository) Save(ctx context.Context, sub *subdomain.Subscription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"subscriber_id", "endpoint", "key_p256dh", "key_auth", "user_agent", "updated_at"}),
		}).Create(sub).Error
		if err != nil {
			return err
		}

		var stored subdomain.Subscription
		if err := tx.Select("created_at").First(&stored, "id = ?", sub.ID).Error; err != nil {
			return err
		}
		sub.CreatedAt = stored.CreatedAt
		return nil
	})
}

func (r *gormSubscriptionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&subdomain.Subscription{}).Error
}

func (r *gormSubscriptionRepository) FindBySubscriberID(ctx context.Context, subscriberID string) ([]subdomain.Subscription, error) {
	var subs []subdomain.Subscription
	err := r.db.WithContext(ctx).Where("subscriber_id = ?", subscriberID).Order("created_at ASC").Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
