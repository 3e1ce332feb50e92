package repository

import (
	"context"
	"errors"

	notifdomain "portal-backend/internal/notification/domain"

	"gorm.io/gorm"
)

// gormInboxRepository implements InboxRepository using GORM
type gormInboxRepository struct {
	db *gorm.DB
}

// NewGormInboxRepository creates a new GORM-based InboxRepository
func NewGormInboxRepository(db *gorm.DB) InboxRepository {
	return &gormInboxRepository{db: db}
}

func (r *gormInboxRepository) Create(ctx context.Context, n *notifdomain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *gormInboxRepository) FindByID(ctx context.Context, id string) (*notifdomain.Notification, error) {
	var n notifdomain.Notification
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *gormInboxRepository) FindByRecipient(ctx context.Context, recipientID string, limit int) ([]notifdomain.Notification, error) {
	var out []notifdomain.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *gormInboxRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&notifdomain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&total).Error
	return total, err
}

func (r *gormInboxRepository) MarkRead(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&notifdomain.Notification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

func (r *gormInboxRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	return r.db.WithContext(ctx).Model(&notifdomain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true).Error
}

func (r *gormInboxRepository) DeleteByRecipient(ctx context.Context, recipientID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("recipient_id = ?", recipientID).Delete(&notifdomain.Notification{})
	return res.RowsAffected, res.Error
}
