package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrRegistryUnavailable wraps every persistence failure surfaced by the registry.
	ErrRegistryUnavailable = errors.New("subscription registry unavailable")
	ErrInvalidSubscription = errors.New("invalid push subscription")
)

// Keys are the browser-issued public values used to encrypt payloads to a device.
type Keys struct {
	P256dh string `json:"p256dh" firestore:"p256dh"`
	Auth   string `json:"auth" firestore:"auth"`
}

// Subscription is one Web Push registration for one device of one subscriber.
type Subscription struct {
	ID           string    `json:"id" firestore:"-" gorm:"primaryKey"`
	SubscriberID string    `json:"subscriberId" firestore:"subscriberId" gorm:"index;not null"`
	Endpoint     string    `json:"endpoint" firestore:"endpoint" gorm:"type:text;not null"`
	Keys         Keys      `json:"keys" firestore:"keys" gorm:"embedded;embeddedPrefix:key_"`
	UserAgent    string    `json:"userAgent,omitempty" firestore:"userAgent"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "push_subscriptions"
}

// DeviceSubscription is what a browser hands over after the user grants push permission.
type DeviceSubscription struct {
	Endpoint  string
	Keys      Keys
	UserAgent string
}

func (d DeviceSubscription) Validate() error {
	if d.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidSubscription)
	}
	u, err := url.Parse(d.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("%w: endpoint must be an absolute http(s) URL", ErrInvalidSubscription)
	}
	if d.Keys.P256dh == "" || d.Keys.Auth == "" {
		return fmt.Errorf("%w: keys.p256dh and keys.auth are required", ErrInvalidSubscription)
	}
	return nil
}

// ValidateSubscriberID rejects ids that cannot form a record key. A "/" would
// split the Firestore document path.
func ValidateSubscriberID(subscriberID string) error {
	if subscriberID == "" {
		return fmt.Errorf("%w: subscriber id is required", ErrInvalidSubscription)
	}
	if strings.Contains(subscriberID, "/") {
		return fmt.Errorf("%w: subscriber id must not contain '/'", ErrInvalidSubscription)
	}
	return nil
}

// EndpointHash is a short, stable digest of an endpoint used as the per-device key.
func EndpointHash(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return hex.EncodeToString(sum[:])[:20]
}

// SubscriptionID is the deterministic record key {subscriberId}_{endpointHash}.
func SubscriptionID(subscriberID, endpoint string) string {
	return subscriberID + "_" + EndpointHash(endpoint)
}
