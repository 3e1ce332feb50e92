package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	notifdomain "portal-backend/internal/notification/domain"
	subdomain "portal-backend/internal/subscription/domain"
	"portal-backend/pkg/logger"
	"portal-backend/pkg/webpush"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SubscriptionSource is the slice of the subscription registry the dispatcher needs.
type SubscriptionSource interface {
	ListForSubscriber(ctx context.Context, subscriberID string) ([]subdomain.Subscription, error)
	Purge(ctx context.Context, subscriberID, endpoint string) error
}

// Deliverer sends one message to one device.
type Deliverer interface {
	Deliver(ctx context.Context, sub webpush.Subscription, message []byte, opts webpush.Options) webpush.Outcome
}

// PayloadDefaults fill in whatever an event leaves out.
type PayloadDefaults struct {
	Icon    string
	Badge   string
	URL     string
	TTL     int
	Urgency string
}

// Dispatcher fans one event out to every registered device of its recipients.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *notifdomain.Notification, recipients []string) (*notifdomain.DispatchSummary, error)
	BuildPayload(event *notifdomain.Notification) (*notifdomain.DeliveryPayload, error)
}

type dispatcher struct {
	subscriptions SubscriptionSource
	deliverer     Deliverer
	defaults      PayloadDefaults
	concurrency   int
	logger        *zap.Logger
	newTag        func() string
}

type target struct {
	recipient string
	sub       subdomain.Subscription
}

// NewDispatcher wires the registry and the push client together. concurrency bounds
// in-flight deliveries per dispatch; zero or less means unbounded.
func NewDispatcher(subscriptions SubscriptionSource, deliverer Deliverer, defaults PayloadDefaults, concurrency int, log *zap.Logger) Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &dispatcher{
		subscriptions: subscriptions,
		deliverer:     deliverer,
		defaults:      defaults,
		concurrency:   concurrency,
		logger:        log.Named("dispatcher"),
		newTag:        timeOrderedTag,
	}
}

func timeOrderedTag() string {
	return "notif-" + uuid.Must(uuid.NewV7()).String()
}

func (d *dispatcher) BuildPayload(event *notifdomain.Notification) (*notifdomain.DeliveryPayload, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	data := map[string]string{
		"url":      d.defaults.URL,
		"category": string(event.Category),
	}
	if event.Action != "" {
		data["action"] = string(event.Action)
	}
	if event.ID != "" {
		data["notificationId"] = event.ID
	}
	for k, v := range event.Data {
		data[k] = v
	}

	tag := event.Tag
	if tag == "" {
		tag = d.newTag()
	}

	return &notifdomain.DeliveryPayload{
		Title: event.Title,
		Body:  event.Body,
		Icon:  d.defaults.Icon,
		Badge: d.defaults.Badge,
		Tag:   tag,
		Data:  data,
	}, nil
}

func (d *dispatcher) Dispatch(ctx context.Context, event *notifdomain.Notification, recipients []string) (*notifdomain.DispatchSummary, error) {
	payload, err := d.BuildPayload(event)
	if err != nil {
		return nil, err
	}
	message, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode push payload: %w", err)
	}

	summary := &notifdomain.DispatchSummary{ExpiredRecipients: []notifdomain.ExpiredRecipient{}}
	recipients = distinct(recipients)
	if len(recipients) == 0 {
		return summary, nil
	}

	targets, skipped := d.resolve(ctx, recipients)
	summary.SkippedRecipients = skipped

	outcomes := d.fanOut(ctx, targets, message)
	for _, o := range outcomes {
		if o.Success {
			summary.Sent++
			continue
		}
		summary.Failed++
		if o.Failure == notifdomain.FailureExpired {
			summary.Expired++
			summary.ExpiredRecipients = append(summary.ExpiredRecipients, notifdomain.ExpiredRecipient{
				Recipient: o.SubscriberID,
				Endpoint:  o.Endpoint,
			})
		}
	}

	d.purge(ctx, summary.ExpiredRecipients)

	d.logger.Info("dispatch finished",
		zap.String("category", string(event.Category)),
		zap.String("action", string(event.Action)),
		zap.Int("recipients", len(recipients)),
		zap.Int("sent", summary.Sent),
		zap.Int("failed", summary.Failed),
		zap.Int("expired", summary.Expired),
		zap.Int("skipped", len(skipped)))
	return summary, nil
}

// resolve loads every recipient's devices concurrently. A recipient whose lookup
// fails is skipped; the others still receive the notification.
func (d *dispatcher) resolve(ctx context.Context, recipients []string) ([]target, []string) {
	found := make([][]subdomain.Subscription, len(recipients))
	failed := make([]bool, len(recipients))

	var g errgroup.Group
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for i, recipient := range recipients {
		g.Go(func() error {
			subs, err := d.subscriptions.ListForSubscriber(ctx, recipient)
			if err != nil {
				d.logger.Error("failed to load subscriptions", zap.String("recipient", recipient), zap.Error(err))
				failed[i] = true
				return nil
			}
			found[i] = subs
			return nil
		})
	}
	_ = g.Wait()

	var targets []target
	var skipped []string
	for i, recipient := range recipients {
		if failed[i] {
			skipped = append(skipped, recipient)
			continue
		}
		for _, sub := range found[i] {
			targets = append(targets, target{recipient: recipient, sub: sub})
		}
	}
	return targets, skipped
}

// fanOut delivers to every target and waits for all of them to settle.
func (d *dispatcher) fanOut(ctx context.Context, targets []target, message []byte) []notifdomain.DeliveryOutcome {
	outcomes := make([]notifdomain.DeliveryOutcome, len(targets))

	var g errgroup.Group
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for i, t := range targets {
		g.Go(func() error {
			outcomes[i] = d.deliverOne(ctx, t, message)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (d *dispatcher) deliverOne(ctx context.Context, t target, message []byte) notifdomain.DeliveryOutcome {
	res := d.deliverer.Deliver(ctx, webpush.Subscription{
		Endpoint: t.sub.Endpoint,
		P256dh:   t.sub.Keys.P256dh,
		Auth:     t.sub.Keys.Auth,
	}, message, webpush.Options{TTL: d.defaults.TTL, Urgency: d.defaults.Urgency})

	outcome := notifdomain.DeliveryOutcome{
		SubscriberID: t.recipient,
		Endpoint:     t.sub.Endpoint,
		Success:      res.Success(),
		Failure:      notifdomain.FailureNone,
		StatusCode:   res.StatusCode,
		Message:      res.Message,
	}
	switch res.Class {
	case webpush.ClassSuccess:
	case webpush.ClassExpired:
		outcome.Failure = notifdomain.FailureExpired
	default:
		outcome.Success = false
		outcome.Failure = notifdomain.FailureOther
	}

	if !outcome.Success {
		d.logger.Warn("push delivery failed",
			zap.String("recipient", t.recipient),
			logger.Endpoint(t.sub.Endpoint),
			zap.Int("status", res.StatusCode),
			zap.String("class", string(outcome.Failure)),
			zap.String("message", res.Message))
	}
	return outcome
}

// purge drops expired subscriptions. Failures are logged only; the summary stands.
func (d *dispatcher) purge(ctx context.Context, expired []notifdomain.ExpiredRecipient) {
	if len(expired) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, e := range expired {
		if err := d.subscriptions.Purge(ctx, e.Recipient, e.Endpoint); err != nil {
			d.logger.Error("failed to purge expired subscription",
				zap.String("recipient", e.Recipient),
				logger.Endpoint(e.Endpoint),
				zap.Error(err))
		}
	}
}

func distinct(recipients []string) []string {
	seen := make(map[string]struct{}, len(recipients))
	out := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
