package scheduler

import (
	"context"
	"errors"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	notifdomain "portal-backend/internal/notification/domain"
	"portal-backend/internal/reminder/repository"

	"go.uber.org/zap"
)

const batchSize = 100

// Notifier records and pushes one event.
type Notifier interface {
	Notify(ctx context.Context, event *notifdomain.Notification, recipients []string) (*notifdomain.NotifyResult, error)
}

// ReminderScheduler releases due reminders through the notification pipeline
type ReminderScheduler struct {
	repo     repository.ReminderRepository
	notifier Notifier
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	started  atomic.Bool
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewReminderScheduler creates a new scheduler; interval defaults to one minute
func NewReminderScheduler(repo repository.ReminderRepository, notifier Notifier, interval time.Duration, log *zap.Logger) *ReminderScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ReminderScheduler{
		repo:     repo,
		notifier: notifier,
		interval: interval,
		logger:   log.Named("reminders"),
		now:      time.Now,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler loop
func (s *ReminderScheduler) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	s.logger.Info("starting reminder scheduler", zap.Duration("interval", s.interval))

	go func() {
		defer close(s.done)

		// Run immediately on start
		s.releaseDue(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.releaseDue(ctx)
			case <-ctx.Done():
				s.logger.Info("reminder scheduler stopped")
				return
			case <-s.stopChan:
				s.logger.Info("reminder scheduler stopped")
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight batch to finish
func (s *ReminderScheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
	if s.started.Load() {
		<-s.done
	}
}

// releaseDue notifies every due reminder and reports how many were released
func (s *ReminderScheduler) releaseDue(ctx context.Context) int {
	reminders, err := s.repo.FindDue(ctx, s.now().UTC(), batchSize)
	if err != nil {
		s.logger.Error("failed to find due reminders", zap.Error(err))
		return 0
	}
	if len(reminders) == 0 {
		return 0
	}

	s.logger.Info("releasing due reminders", zap.Int("count", len(reminders)))

	released := 0
	for _, reminder := range reminders {
		event := reminder.Event
		event.Data = maps.Clone(event.Data)
		if event.Data == nil {
			event.Data = map[string]string{}
		}
		event.Data["reminderId"] = reminder.ID

		result, err := s.notifier.Notify(ctx, &event, reminder.Recipients)
		switch {
		case errors.Is(err, notifdomain.ErrValidation):
			// Never deliverable; retire it instead of retrying every tick
			s.logger.Error("reminder event rejected", zap.String("reminder", reminder.ID), zap.Error(err))
		case err != nil:
			// Inbox write failed; push failures alone never surface here
			s.logger.Warn("reminder not stored, retrying next run", zap.String("reminder", reminder.ID), zap.Error(err))
			continue
		case result != nil && result.Dispatch != nil:
			s.logger.Debug("reminder released",
				zap.String("reminder", reminder.ID),
				zap.Int("stored", result.Stored),
				zap.Int("sent", result.Dispatch.Sent))
		}

		if err := s.repo.MarkSent(ctx, reminder.ID); err != nil {
			s.logger.Error("failed to mark reminder sent", zap.String("reminder", reminder.ID), zap.Error(err))
			continue
		}
		released++
	}
	return released
}
