package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taponce/taponce_backend/controllers"
	"github.com/taponce/taponce_backend/middleware"
)

// RegisterNotificationRoutes registers the in-app notification feed, shared
// by all three roles.
func RegisterNotificationRoutes(e *echo.Echo, db *mongo.Client) {
	notificationController := controllers.NewNotificationController(db)

	group := e.Group("/api/notifications")
	group.Use(middleware.JWTMiddleware())

	group.GET("", notificationController.GetMyNotifications)
	group.PUT("/:id/read", notificationController.MarkNotificationRead)
	group.PUT("/read-all", notificationController.MarkAllNotificationsRead)
	group.PUT("/fcm-token", notificationController.UpdateFcmToken)
}
