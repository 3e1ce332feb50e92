package repository

import (
	"context"
	"errors"
	"time"

	"portal-backend/internal/reminder/domain"

	"gorm.io/gorm"
)

// gormReminderRepository implements ReminderRepository using GORM
type gormReminderRepository struct {
	db *gorm.DB
}

// NewGormReminderRepository creates a new GORM-based ReminderRepository
func NewGormReminderRepository(db *gorm.DB) ReminderRepository {
	return &gormReminderRepository{db: db}
}

func (r *gormReminderRepository) Create(ctx context.Context, reminder *domain.Reminder) error {
	return r.db.WithContext(ctx).Create(reminder).Error
}

func (r *gormReminderRepository) FindByID(ctx context.Context, id string) (*domain.Reminder, error) {
	var reminder domain.Reminder
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&reminder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &reminder, nil
}

func (r *gormReminderRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Reminder{}, "id = ?", id).Error
}

func (r *gormReminderRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.Reminder, error) {
	var reminders []*domain.Reminder
	err := r.db.WithContext(ctx).
		Where("due_at <= ? AND is_sent = ?", now, false).
		Order("due_at ASC").
		Limit(limit).
		Find(&reminders).Error
	return reminders, err
}

func (r *gormReminderRepository) MarkSent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Reminder{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_sent":    true,
			"updated_at": time.Now(),
		}).Error
}
