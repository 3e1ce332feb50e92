package usecase

import (
	"context"
	"time"

	notifdomain "portal-backend/internal/notification/domain"
	"portal-backend/internal/reminder/domain"
	"portal-backend/internal/reminder/repository"

	"github.com/google/uuid"
)

// ReminderUsecase schedules notification events for later delivery
type ReminderUsecase interface {
	Schedule(ctx context.Context, createdBy string, event notifdomain.Notification, recipients []string, dueAt time.Time) (*domain.Reminder, error)
	Get(ctx context.Context, id string) (*domain.Reminder, error)
	Cancel(ctx context.Context, id string) error
}

type reminderUsecase struct {
	repo repository.ReminderRepository
	now  func() time.Time
}

// NewReminderUsecase creates a new ReminderUsecase
func NewReminderUsecase(repo repository.ReminderRepository) ReminderUsecase {
	return &reminderUsecase{repo: repo, now: time.Now}
}

func (u *reminderUsecase) Schedule(ctx context.Context, createdBy string, event notifdomain.Notification, recipients []string, dueAt time.Time) (*domain.Reminder, error) {
	now := u.now().UTC()
	reminder := &domain.Reminder{
		ID:         uuid.New().String(),
		Event:      event,
		Recipients: recipients,
		DueAt:      dueAt.UTC(),
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := reminder.Validate(); err != nil {
		return nil, err
	}

	if err := u.repo.Create(ctx, reminder); err != nil {
		return nil, err
	}
	return reminder, nil
}

func (u *reminderUsecase) Get(ctx context.Context, id string) (*domain.Reminder, error) {
	reminder, err := u.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if reminder == nil {
		return nil, domain.ErrNotFound
	}
	return reminder, nil
}

func (u *reminderUsecase) Cancel(ctx context.Context, id string) error {
	reminder, err := u.Get(ctx, id)
	if err != nil {
		return err
	}
	if reminder.Sent {
		return domain.ErrAlreadySent
	}
	return u.repo.Delete(ctx, id)
}
