package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	notifdomain "portal-backend/internal/notification/domain"
	"portal-backend/internal/notification/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationUsecase is the entry point for application events: it records the
// inbox entry (system of record) and then fans out push as a best-effort side channel.
type NotificationUsecase interface {
	Notify(ctx context.Context, event *notifdomain.Notification, recipients []string) (*notifdomain.NotifyResult, error)

	// Dispatch sends push only, without writing inbox records
	Dispatch(ctx context.Context, event *notifdomain.Notification, recipients []string) (*notifdomain.DispatchSummary, error)

	ListInbox(ctx context.Context, recipientID string, limit int) ([]notifdomain.Notification, int64, error)
	MarkRead(ctx context.Context, recipientID, id string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	ClearAll(ctx context.Context, recipientID string) (int64, error)
}

type notificationUsecase struct {
	inbox      repository.InboxRepository
	dispatcher Dispatcher
	inboxLimit int
	logger     *zap.Logger
	now        func() time.Time
}

// NewNotificationUsecase creates a new NotificationUsecase
func NewNotificationUsecase(inbox repository.InboxRepository, dispatcher Dispatcher, inboxLimit int, log *zap.Logger) NotificationUsecase {
	if inboxLimit <= 0 {
		inboxLimit = 50
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &notificationUsecase{
		inbox:      inbox,
		dispatcher: dispatcher,
		inboxLimit: inboxLimit,
		logger:     log.Named("notifications"),
		now:        time.Now,
	}
}

func (u *notificationUsecase) Notify(ctx context.Context, event *notifdomain.Notification, recipients []string) (*notifdomain.NotifyResult, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	recipients = distinct(recipients)
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = u.now().UTC()
	}

	result := &notifdomain.NotifyResult{}
	var storeErrs []error
	for _, recipient := range recipients {
		record := *event
		record.ID = uuid.NewString()
		record.RecipientID = recipient
		record.Read = false
		record.CreatedAt = createdAt
		record.Data = maps.Clone(event.Data)

		if err := u.inbox.Create(ctx, &record); err != nil {
			u.logger.Error("failed to store inbox notification", zap.String("recipient", recipient), zap.Error(err))
			storeErrs = append(storeErrs, fmt.Errorf("store notification for %s: %w", recipient, err))
			continue
		}
		result.Stored++
	}

	summary, err := u.dispatcher.Dispatch(ctx, event, recipients)
	if err != nil {
		storeErrs = append(storeErrs, err)
	}
	result.Dispatch = summary

	return result, errors.Join(storeErrs...)
}

func (u *notificationUsecase) Dispatch(ctx context.Context, event *notifdomain.Notification, recipients []string) (*notifdomain.DispatchSummary, error) {
	return u.dispatcher.Dispatch(ctx, event, recipients)
}

func (u *notificationUsecase) ListInbox(ctx context.Context, recipientID string, limit int) ([]notifdomain.Notification, int64, error) {
	if limit <= 0 || limit > u.inboxLimit {
		limit = u.inboxLimit
	}

	items, err := u.inbox.FindByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []notifdomain.Notification{}
	}

	unread, err := u.inbox.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, 0, err
	}
	return items, unread, nil
}

func (u *notificationUsecase) MarkRead(ctx context.Context, recipientID, id string) error {
	n, err := u.inbox.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return notifdomain.ErrNotFound
	}
	if n.RecipientID != recipientID {
		return notifdomain.ErrForbidden
	}
	if n.Read {
		return nil
	}
	return u.inbox.MarkRead(ctx, id)
}

func (u *notificationUsecase) MarkAllRead(ctx context.Context, recipientID string) error {
	return u.inbox.MarkAllRead(ctx, recipientID)
}

func (u *notificationUsecase) ClearAll(ctx context.Context, recipientID string) (int64, error) {
	removed, err := u.inbox.DeleteByRecipient(ctx, recipientID)
	if err != nil {
		return removed, err
	}
	u.logger.Info("inbox cleared", zap.String("recipient", recipientID), zap.Int64("removed", removed))
	return removed, nil
}
