package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	api "portal-backend/cmd/api"
	authUsecase "portal-backend/internal/auth/usecase"
	notifdomain "portal-backend/internal/notification/domain"
	notifRepo "portal-backend/internal/notification/repository"
	"portal-backend/internal/notification/subscriber"
	notifUsecase "portal-backend/internal/notification/usecase"
	reminderdomain "portal-backend/internal/reminder/domain"
	reminderRepo "portal-backend/internal/reminder/repository"
	"portal-backend/internal/reminder/scheduler"
	reminderUsecase "portal-backend/internal/reminder/usecase"
	subdomain "portal-backend/internal/subscription/domain"
	subRepo "portal-backend/internal/subscription/repository"
	subUsecase "portal-backend/internal/subscription/usecase"
	"portal-backend/pkg/config"
	"portal-backend/pkg/database"
	"portal-backend/pkg/firebase"
	"portal-backend/pkg/logger"
	"portal-backend/pkg/webpush"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Push configuration is validated once; a bad key pair never reaches a delivery
	pushSettings, err := cfg.PushSettings()
	if err != nil {
		log.Fatal("invalid push configuration", zap.Error(err))
	}

	// Firebase is needed for ID token verification and for the Firestore store
	var verifier authUsecase.TokenVerifier
	var app *firebase.App
	if cfg.FirebaseCredentials != "" || cfg.FirebaseProjectID != "" {
		app, err = firebase.NewApp(ctx, cfg.FirebaseCredentials, cfg.FirebaseProjectID)
		if err != nil {
			log.Fatal("failed to initialize firebase", zap.Error(err))
		}
		authClient, err := app.Auth(ctx)
		if err != nil {
			log.Fatal("failed to initialize firebase auth", zap.Error(err))
		}
		verifier = authClient
	} else {
		log.Warn("firebase not configured, employee routes will reject every token")
	}

	// Initialize repositories for the configured store
	var subscriptions subRepo.SubscriptionRepository
	var inbox notifRepo.InboxRepository
	var reminders reminderRepo.ReminderRepository
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := database.NewPostgresConnection(cfg)
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(&subdomain.Subscription{}, &notifdomain.Notification{}, &reminderdomain.Reminder{}); err != nil {
			log.Fatal("failed to migrate database", zap.Error(err))
		}
		subscriptions = subRepo.NewGormSubscriptionRepository(db)
		inbox = notifRepo.NewGormInboxRepository(db)
		reminders = reminderRepo.NewGormReminderRepository(db)
	case config.StoreFirestore:
		if app == nil {
			log.Fatal("firestore store requires FIREBASE_CREDENTIALS or FIREBASE_PROJECT_ID")
		}
		fs, err := app.Firestore(ctx)
		if err != nil {
			log.Fatal("failed to connect to firestore", zap.Error(err))
		}
		defer fs.Close()
		subscriptions = subRepo.NewFirestoreSubscriptionRepository(fs)
		inbox = notifRepo.NewFirestoreInboxRepository(fs)
		reminders = reminderRepo.NewFirestoreReminderRepository(fs)
	default:
		log.Fatal("unknown STORE_DRIVER", zap.String("driver", cfg.StoreDriver))
	}
	log.Info("store initialized", zap.String("driver", cfg.StoreDriver))

	pushClient, err := webpush.NewClient(webpush.Settings{
		VAPIDPublicKey:  pushSettings.VAPIDPublicKey,
		VAPIDPrivateKey: pushSettings.VAPIDPrivateKey,
		Subject:         pushSettings.Subject,
		TTL:             pushSettings.TTL,
		Urgency:         pushSettings.Urgency,
		Timeout:         pushSettings.Timeout,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize push client", zap.Error(err))
	}

	// Initialize use cases (dependency injection)
	registry := subUsecase.NewRegistry(subscriptions, log)
	dispatcher := notifUsecase.NewDispatcher(registry, pushClient, notifUsecase.PayloadDefaults{
		Icon:    pushSettings.Icon,
		Badge:   pushSettings.Badge,
		URL:     pushSettings.DefaultURL,
		TTL:     pushSettings.TTL,
		Urgency: pushSettings.Urgency,
	}, pushSettings.Concurrency, log)
	notifications := notifUsecase.NewNotificationUsecase(inbox, dispatcher, cfg.InboxLimit, log)
	reminderUc := reminderUsecase.NewReminderUsecase(reminders)
	authUc := authUsecase.NewAuthUsecase(verifier, cfg.ServiceTokenSecret)
	if cfg.ServiceTokenSecret == "" {
		log.Warn("SERVICE_TOKEN_SECRET not set, internal dispatch routes are disabled")
	}

	// Event intake over Pub/Sub, only when a project is configured
	if cfg.GoogleProjectID != "" {
		// Accept the full resource name as well as the short topic name
		topicName := cfg.PubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}

		sub, err := subscriber.NewSubscriber(ctx, cfg.GoogleProjectID, topicName, cfg.PubSubSubscription, cfg.GoogleCredentials, notifications, log)
		if err != nil {
			log.Error("failed to initialize event subscriber", zap.Error(err))
		} else {
			defer sub.Close()
			go func() {
				if err := sub.Start(ctx); err != nil {
					log.Error("event subscriber stopped", zap.Error(err))
				}
			}()
		}
	} else {
		log.Warn("GOOGLE_PROJECT_ID not configured, event subscriber disabled")
	}

	reminderScheduler := scheduler.NewReminderScheduler(reminders, notifications, cfg.ReminderInterval, log)
	reminderScheduler.Start(ctx)
	defer reminderScheduler.Stop()

	handler := api.NewHandler(authUc, registry, notifications, reminderUc, pushClient.PublicKey(), log)
	if err := handler.Start(ctx, ":"+cfg.Port); err != nil {
		// Error rather than Fatal so the deferred shutdown still runs
		log.Error("server stopped", zap.Error(err))
		return
	}
	log.Info("server stopped")
}
