package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taponce/taponce_backend/controllers"
	"github.com/taponce/taponce_backend/websocket"
)

// RegisterAuthRoutes sets up authentication and public routes
func RegisterAuthRoutes(e *echo.Echo, db *mongo.Client, authController *controllers.AuthController, catalogController *controllers.CatalogController, orderController *controllers.OrderController, hub *websocket.Hub) {
	e.POST("/api/auth/login", authController.Login)

	// Public catalog for the website, without MSP information
	e.GET("/api/card-designs", catalogController.GetPublicCardDesigns)

	// Guest checkout; logged-in customers use /api/customer/orders instead
	e.POST("/api/orders", orderController.CreateDirectOrder)

	// Public order tracking by the number on the confirmation
	e.GET("/api/orders/track/:orderNumber", orderController.TrackOrder)

	// WebSocket endpoint; clients authenticate in-band with AUTH:<jwt>
	e.GET("/ws", func(c echo.Context) error {
		return websocket.HandleWebSocket(c, hub, primitive.NilObjectID)
	})
}
