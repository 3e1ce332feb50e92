package webpush

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"portal-backend/pkg/logger"
)

// Class is the delivery classification a push service response maps to.
type Class string

const (
	ClassSuccess Class = "success"
	// ClassExpired means the push service no longer knows the endpoint (404/410).
	ClassExpired Class = "expired"
	// ClassOther covers every transient failure: non-2xx, network errors, timeouts.
	ClassOther Class = "other"
)

const (
	DefaultTTL     = 3600
	DefaultUrgency = "high"
	DefaultTimeout = 5 * time.Second
)

var ErrMissingCredentials = errors.New("webpush: VAPID key pair and subject are required")

// Subscription is the transport half of a device registration.
type Subscription struct {
	Endpoint string
	P256dh   string
	Auth     string
}

// Options are per-call overrides; zero values fall back to the client defaults.
type Options struct {
	TTL     int
	Urgency string
}

// Outcome is the result of one delivery attempt.
type Outcome struct {
	Class      Class
	StatusCode int
	Message    string
}

func (o Outcome) Success() bool { return o.Class == ClassSuccess }

type Settings struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
	TTL             int
	Urgency         string
	Timeout         time.Duration
}

// Client delivers encrypted, VAPID-signed messages to Web Push endpoints.
// It holds only immutable settings and is safe for concurrent use.
type Client struct {
	publicKey  string
	privateKey string
	subscriber string
	ttl        int
	urgency    webpush.Urgency
	timeout    time.Duration
	httpClient webpush.HTTPClient
	logger     *zap.Logger
}

type ClientOption func(*Client)

// WithHTTPClient replaces the transport used to reach push services.
func WithHTTPClient(httpClient webpush.HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient validates the VAPID settings and returns a ready client.
func NewClient(settings Settings, log *zap.Logger, opts ...ClientOption) (*Client, error) {
	if settings.VAPIDPublicKey == "" || settings.VAPIDPrivateKey == "" || settings.Subject == "" {
		return nil, ErrMissingCredentials
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{
		publicKey:  settings.VAPIDPublicKey,
		privateKey: settings.VAPIDPrivateKey,
		// webpush-go prepends mailto: itself unless the subject is an https URL
		subscriber: strings.TrimPrefix(settings.Subject, "mailto:"),
		ttl:        settings.TTL,
		urgency:    webpush.Urgency(settings.Urgency),
		timeout:    settings.Timeout,
		logger:     log.Named("push"),
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.urgency == "" {
		c.urgency = DefaultUrgency
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	c.httpClient = &http.Client{Timeout: c.timeout}

	for _, opt := range opts {
		opt(c)
	}

	c.logger.Info("web push client initialized", zap.Int("ttl", c.ttl), zap.String("urgency", string(c.urgency)), zap.Duration("timeout", c.timeout))
	return c, nil
}

// PublicKey returns the application server key browsers subscribe with.
func (c *Client) PublicKey() string {
	return c.publicKey
}

// Deliver sends one message to one endpoint and classifies the response.
// It never returns an error: every failure is folded into the Outcome.
func (c *Client) Deliver(ctx context.Context, sub Subscription, message []byte, opts Options) Outcome {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = c.ttl
	}
	urgency := c.urgency
	if opts.Urgency != "" {
		urgency = webpush.Urgency(opts.Urgency)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      c.httpClient,
		Subscriber:      c.subscriber,
		TTL:             ttl,
		Urgency:         urgency,
		VAPIDPublicKey:  c.publicKey,
		VAPIDPrivateKey: c.privateKey,
	})
	if err != nil {
		c.logger.Debug("push delivery failed", logger.Endpoint(sub.Endpoint), zap.Error(err))
		return Outcome{Class: ClassOther, Message: err.Error()}
	}
	defer resp.Body.Close()

	outcome := Outcome{Class: ClassifyStatus(resp.StatusCode), StatusCode: resp.StatusCode}
	if outcome.Class != ClassSuccess {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		outcome.Message = fmt.Sprintf("push service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		c.logger.Debug("push service rejected message",
			logger.Endpoint(sub.Endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("class", string(outcome.Class)))
	}
	return outcome
}

// ClassifyStatus maps a push service status code to a delivery class.
func ClassifyStatus(status int) Class {
	switch {
	case status >= 200 && status < 300:
		return ClassSuccess
	case status == http.StatusNotFound || status == http.StatusGone:
		return ClassExpired
	default:
		return ClassOther
	}
}

// GenerateKeys returns a new VAPID key pair, URL-safe base64 encoded.
func GenerateKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
