package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	notifdomain "portal-backend/internal/notification/domain"
	"portal-backend/internal/notification/dto"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Notifier records and pushes one event.
type Notifier interface {
	Notify(ctx context.Context, event *notifdomain.Notification, recipients []string) (*notifdomain.NotifyResult, error)
}

// Subscriber turns events published by portal components into notifications.
type Subscriber struct {
	client    *pubsub.Client
	notifier  Notifier
	topicName string
	subName   string
	logger    *zap.Logger
}

func NewSubscriber(ctx context.Context, projectID, topicName, subName, credentialsFile string, notifier Notifier, log *zap.Logger) (*Subscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	if subName == "" {
		subName = topicName + "-sub"
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Subscriber{
		client:    client,
		notifier:  notifier,
		topicName: topicName,
		subName:   subName,
		logger:    log.Named("pubsub"),
	}, nil
}

// Start ensures the subscription exists and blocks receiving messages until ctx is done.
func (s *Subscriber) Start(ctx context.Context) error {
	s.logger.Info("starting event subscriber", zap.String("topic", s.topicName), zap.String("subscription", s.subName))

	sub := s.client.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check subscription %s: %w", s.subName, err)
	}

	if !exists {
		topic := s.client.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			return fmt.Errorf("check topic %s: %w", s.topicName, err)
		}
		if !topicExists {
			return fmt.Errorf("topic %s does not exist, cannot create subscription", s.topicName)
		}

		sub, err = s.client.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 30 * time.Second,
		})
		if err != nil {
			return fmt.Errorf("create subscription %s: %w", s.subName, err)
		}
		s.logger.Info("created subscription", zap.String("subscription", s.subName))
	}

	s.logger.Info("listening for events", zap.String("subscription", s.subName))
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if s.handle(ctx, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("receive: %w", err)
	}
	return nil
}

func (s *Subscriber) Close() error {
	return s.client.Close()
}

// handle processes one message body and reports whether it should be acknowledged.
// Messages that can never succeed are acknowledged so they are not redelivered forever.
func (s *Subscriber) handle(ctx context.Context, data []byte) bool {
	var req dto.DispatchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Warn("dropping undecodable event", zap.Error(err))
		return true
	}

	result, err := s.notifier.Notify(ctx, req.Event.ToDomain(), req.Recipients)
	if err != nil {
		if result == nil || errors.Is(err, notifdomain.ErrValidation) {
			s.logger.Warn("dropping invalid event", zap.Error(err))
			return true
		}
		s.logger.Error("inbox store failed, event will be redelivered",
			zap.Int("stored", result.Stored),
			zap.Int("recipients", len(req.Recipients)),
			zap.Error(err))
		return false
	}

	fields := []zap.Field{
		zap.String("category", string(req.Event.Category)),
		zap.Int("stored", result.Stored),
	}
	if result.Dispatch != nil {
		fields = append(fields, zap.Int("sent", result.Dispatch.Sent), zap.Int("failed", result.Dispatch.Failed))
	}
	s.logger.Debug("event handled", fields...)
	return true
}
