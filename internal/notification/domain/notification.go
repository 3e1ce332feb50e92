package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation = errors.New("invalid notification")
	ErrNotFound   = errors.New("notification not found")
	ErrForbidden  = errors.New("notification belongs to another recipient")

	ErrTitleRequired    = fmt.Errorf("%w: title is required", ErrValidation)
	ErrCategoryRequired = fmt.Errorf("%w: category is required", ErrValidation)
)

// Category is the portal area an event originates from.
type Category string

const (
	CategoryTask        Category = "task"
	CategoryDiscussion  Category = "discussion"
	CategoryCalendar    Category = "calendar"
	CategoryApplication Category = "application"
)

// Action is the verb describing what happened.
type Action string

const (
	ActionCreated       Action = "created"
	ActionUpdated       Action = "updated"
	ActionDeleted       Action = "deleted"
	ActionAssigned      Action = "assigned"
	ActionMentioned     Action = "mentioned"
	ActionStatusChanged Action = "status_changed"
	ActionReplied       Action = "replied"
)

// Notification is one logical event addressed to one recipient. Stored in the
// in-app inbox; only Read is ever mutated after creation.
type Notification struct {
	ID          string            `json:"id" firestore:"-" gorm:"primaryKey"`
	RecipientID string            `json:"recipientId" firestore:"recipientId" gorm:"index:idx_recipient_created;not null"`
	Category    Category          `json:"category" firestore:"category"`
	Action      Action            `json:"action" firestore:"action"`
	Title       string            `json:"title" firestore:"title" gorm:"not null"`
	Body        string            `json:"body" firestore:"body" gorm:"type:text"`
	Tag         string            `json:"tag,omitempty" firestore:"tag,omitempty"`
	Data        map[string]string `json:"data,omitempty" firestore:"data,omitempty" gorm:"serializer:json;type:text"`
	ActorID     string            `json:"actorId,omitempty" firestore:"actorId,omitempty"`
	Read        bool              `json:"read" firestore:"read" gorm:"column:is_read;default:false"`
	CreatedAt   time.Time         `json:"createdAt" firestore:"createdAt" gorm:"index:idx_recipient_created"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) Validate() error {
	if n == nil || n.Title == "" {
		return ErrTitleRequired
	}
	if n.Category == "" {
		return ErrCategoryRequired
	}
	return nil
}

// URL is the deep link carried in Data, if any.
func (n *Notification) URL() string {
	if n.Data == nil {
		return ""
	}
	return n.Data["url"]
}

// DeliveryPayload is the JSON document a service worker receives. Built per dispatch, never stored.
type DeliveryPayload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Icon  string            `json:"icon"`
	Badge string            `json:"badge"`
	Tag   string            `json:"tag"`
	Data  map[string]string `json:"data"`
}

// FailureClass classifies a failed delivery.
type FailureClass string

const (
	FailureNone    FailureClass = "none"
	FailureExpired FailureClass = "expired"
	FailureOther   FailureClass = "other"
)

// DeliveryOutcome is the result of delivering to one device of one recipient.
type DeliveryOutcome struct {
	SubscriberID string       `json:"subscriberId"`
	Endpoint     string       `json:"endpoint"`
	Success      bool         `json:"success"`
	Failure      FailureClass `json:"failure"`
	StatusCode   int          `json:"statusCode,omitempty"`
	Message      string       `json:"message,omitempty"`
}

// ExpiredRecipient names a device whose subscription the push service no longer honours.
type ExpiredRecipient struct {
	Recipient string `json:"recipient"`
	Endpoint  string `json:"endpoint"`
}

// DispatchSummary aggregates one dispatch. Failed counts every failure, Expired is the
// subset classified expired.
type DispatchSummary struct {
	Sent              int                `json:"sent"`
	Failed            int                `json:"failed"`
	Expired           int                `json:"expired"`
	ExpiredRecipients []ExpiredRecipient `json:"expiredRecipients"`
	// SkippedRecipients could not be resolved because the registry was unavailable.
	SkippedRecipients []string `json:"skippedRecipients,omitempty"`
}

func (s *DispatchSummary) Attempts() int {
	return s.Sent + s.Failed
}

// NotifyResult reports the inbox write alongside the push side-channel.
type NotifyResult struct {
	Stored   int              `json:"stored"`
	Dispatch *DispatchSummary `json:"dispatch"`
}
