package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingVAPIDKeys    = errors.New("push: VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set")
	ErrMissingVAPIDSubject = errors.New("push: VAPID_SUBJECT must be a mailto: or https: URI")
)

const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	StoreDriver string
	DatabaseURL string

	FirebaseCredentials string
	FirebaseProjectID   string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string

	PushIcon        string
	PushBadge       string
	PushDefaultURL  string
	PushTTL         int
	PushUrgency     string
	PushTimeout     time.Duration
	PushConcurrency int

	GoogleProjectID    string
	GoogleCredentials  string
	PubSubTopic        string
	PubSubSubscription string

	ServiceTokenSecret string
	InboxLimit         int
	ReminderInterval   time.Duration
}

// PushSettings is the immutable, validated view of the Web Push configuration.
type PushSettings struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
	Icon            string
	Badge           string
	DefaultURL      string
	TTL             int
	Urgency         string
	Timeout         time.Duration
	Concurrency     int
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	pushTimeout := 5 * time.Second
	if v := os.Getenv("PUSH_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			pushTimeout = parsed
		}
	}

	reminderInterval := time.Minute
	if v := os.Getenv("REMINDER_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			reminderInterval = parsed
		}
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreFirestore)),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		FirebaseProjectID:   getEnv("FIREBASE_PROJECT_ID", ""),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    getEnv("VAPID_SUBJECT", ""),

		PushIcon:        getEnv("PUSH_ICON", "/logo192.png"),
		PushBadge:       getEnv("PUSH_BADGE", "/logo192.png"),
		PushDefaultURL:  getEnv("PUSH_DEFAULT_URL", "/employee-portal"),
		PushTTL:         getEnvInt("PUSH_TTL", 3600),
		PushUrgency:     getEnv("PUSH_URGENCY", "high"),
		PushTimeout:     pushTimeout,
		PushConcurrency: getEnvInt("PUSH_CONCURRENCY", 32),

		GoogleProjectID:    getEnv("GOOGLE_PROJECT_ID", ""),
		GoogleCredentials:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		PubSubTopic:        getEnv("PUBSUB_TOPIC", "portal-notifications"),
		PubSubSubscription: getEnv("PUBSUB_SUBSCRIPTION", "portal-notifications-sub"),

		ServiceTokenSecret: getEnv("SERVICE_TOKEN_SECRET", ""),
		InboxLimit:         getEnvInt("INBOX_LIMIT", 50),
		ReminderInterval:   reminderInterval,
	}
}

// PushSettings validates the Web Push inputs once so a missing key pair is a
// startup failure rather than a per-delivery one.
func (c *Config) PushSettings() (PushSettings, error) {
	if c.VAPIDPublicKey == "" || c.VAPIDPrivateKey == "" {
		return PushSettings{}, ErrMissingVAPIDKeys
	}
	if !strings.HasPrefix(c.VAPIDSubject, "mailto:") && !strings.HasPrefix(c.VAPIDSubject, "https:") {
		return PushSettings{}, ErrMissingVAPIDSubject
	}

	ttl := c.PushTTL
	if ttl <= 0 {
		ttl = 3600
	}
	urgency := c.PushUrgency
	if urgency == "" {
		urgency = "high"
	}
	concurrency := c.PushConcurrency
	if concurrency <= 0 {
		concurrency = 32
	}

	return PushSettings{
		VAPIDPublicKey:  c.VAPIDPublicKey,
		VAPIDPrivateKey: c.VAPIDPrivateKey,
		Subject:         c.VAPIDSubject,
		Icon:            c.PushIcon,
		Badge:           c.PushBadge,
		DefaultURL:      c.PushDefaultURL,
		TTL:             ttl,
		Urgency:         urgency,
		Timeout:         c.PushTimeout,
		Concurrency:     concurrency,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
