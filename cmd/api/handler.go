package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	authUsecase "portal-backend/internal/auth/usecase"
	notifDelivery "portal-backend/internal/notification/delivery"
	notifUsecase "portal-backend/internal/notification/usecase"
	reminderDelivery "portal-backend/internal/reminder/delivery"
	reminderUsecase "portal-backend/internal/reminder/usecase"
	subDelivery "portal-backend/internal/subscription/delivery"
	subUsecase "portal-backend/internal/subscription/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Handler struct {
	authUsecase         authUsecase.AuthUsecase
	subscriptionHandler *subDelivery.SubscriptionHandler
	notificationHandler *notifDelivery.NotificationHandler
	reminderHandler     *reminderDelivery.ReminderHandler
	logger              *zap.Logger
}

func NewHandler(authUc authUsecase.AuthUsecase, registry subUsecase.Registry, notificationUc notifUsecase.NotificationUsecase, reminderUc reminderUsecase.ReminderUsecase, vapidPublicKey string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		authUsecase:         authUc,
		subscriptionHandler: subDelivery.NewSubscriptionHandler(registry, vapidPublicKey),
		notificationHandler: notifDelivery.NewNotificationHandler(notificationUc),
		reminderHandler:     reminderDelivery.NewReminderHandler(reminderUc),
		logger:              log.Named("http"),
	}
}

// Router builds the engine with middleware and routes
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(h.logger))

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.subscriptionHandler, h.notificationHandler, h.reminderHandler)
	return r
}

// Start listens on addr and serves until ctx is cancelled
func (h *Handler) Start(ctx context.Context, addr string) error {
	gin.SetMode(gin.ReleaseMode)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return h.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln and shuts it down gracefully once ctx is done
func (h *Handler) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("server starting", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	h.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= 500 {
			log.Error("request", fields...)
			return
		}
		log.Debug("request", fields...)
	}
}
