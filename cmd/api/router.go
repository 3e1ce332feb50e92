package api

import (
	"net/http"

	"portal-backend/internal/auth/delivery"
	authUsecase "portal-backend/internal/auth/usecase"
	notifDelivery "portal-backend/internal/notification/delivery"
	reminderDelivery "portal-backend/internal/reminder/delivery"
	subDelivery "portal-backend/internal/subscription/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, subscriptionHandler *subDelivery.SubscriptionHandler, notificationHandler *notifDelivery.NotificationHandler, reminderHandler *reminderDelivery.ReminderHandler) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Push subscription routes
		push := api.Group("/push")
		{
			push.GET("/vapid-public-key", subscriptionHandler.GetVAPIDPublicKey)

			subs := push.Group("/subscriptions")
			subs.Use(delivery.AuthMiddleware(authUsecase))
			{
				subs.GET("", subscriptionHandler.List)
				subs.POST("", subscriptionHandler.Register)
				subs.DELETE("", subscriptionHandler.Unregister)
			}
		}

		// Inbox routes (protected)
		notifications := api.Group("/notifications")
		notifications.Use(delivery.AuthMiddleware(authUsecase))
		{
			notifications.GET("", notificationHandler.GetInbox)
			notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
			notifications.PATCH("/:id/read", notificationHandler.MarkRead)
			notifications.DELETE("", notificationHandler.ClearAll)
		}

		// Internal routes for portal services (service token)
		internal := api.Group("/internal")
		internal.Use(delivery.ServiceAuthMiddleware(authUsecase))
		{
			internal.POST("/notifications", notificationHandler.Notify)
			internal.POST("/push/dispatch", notificationHandler.Dispatch)
			internal.POST("/reminders", reminderHandler.Schedule)
			internal.GET("/reminders/:id", reminderHandler.GetReminder)
			internal.DELETE("/reminders/:id", reminderHandler.Cancel)
		}
	}
}
