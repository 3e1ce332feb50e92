package domain

import (
	"errors"
	"fmt"
	"time"

	notifdomain "portal-backend/internal/notification/domain"
)

var (
	ErrInvalidReminder = errors.New("invalid reminder")
	ErrNotFound        = errors.New("reminder not found")
	ErrAlreadySent     = errors.New("reminder already sent")
)

// Reminder is a notification event held back until DueAt, e.g. a task deadline
// or a calendar entry starting soon.
type Reminder struct {
	ID         string                   `json:"id" firestore:"-" gorm:"primaryKey"`
	Event      notifdomain.Notification `json:"event" firestore:"event" gorm:"serializer:json;type:text"`
	Recipients []string                 `json:"recipients" firestore:"recipients" gorm:"serializer:json;type:text"`
	DueAt      time.Time                `json:"dueAt" firestore:"dueAt" gorm:"index:idx_reminder_due"`
	Sent       bool                     `json:"sent" firestore:"sent" gorm:"column:is_sent;default:false;index:idx_reminder_due"`
	CreatedBy  string                   `json:"createdBy,omitempty" firestore:"createdBy,omitempty"`
	CreatedAt  time.Time                `json:"createdAt" firestore:"createdAt"`
	UpdatedAt  time.Time                `json:"updatedAt" firestore:"updatedAt"`
}

// TableName specifies the table name for GORM
func (Reminder) TableName() string {
	return "reminders"
}

func (r *Reminder) Validate() error {
	if err := r.Event.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReminder, err)
	}
	if len(r.Recipients) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", ErrInvalidReminder)
	}
	if r.DueAt.IsZero() {
		return fmt.Errorf("%w: dueAt is required", ErrInvalidReminder)
	}
	return nil
}
