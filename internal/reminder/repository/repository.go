package repository

import (
	"context"
	"time"

	"portal-backend/internal/reminder/domain"
)

// ReminderRepository defines the interface for reminder data operations
type ReminderRepository interface {
	Create(ctx context.Context, reminder *domain.Reminder) error
	FindByID(ctx context.Context, id string) (*domain.Reminder, error)
	Delete(ctx context.Context, id string) error

	// FindDue returns unsent reminders due at or before now, oldest first
	FindDue(ctx context.Context, now time.Time, limit int) ([]*domain.Reminder, error)
	MarkSent(ctx context.Context, id string) error
}
