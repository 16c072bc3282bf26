package routes

import (
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taponce/taponce_backend/controllers"
	"github.com/taponce/taponce_backend/middleware"
)

// RegisterCustomerRoutes registers customer account routes
func RegisterCustomerRoutes(e *echo.Echo, db *mongo.Client, orderController *controllers.OrderController) {
	customer := e.Group("/api/customer")
	customer.Use(middleware.JWTMiddleware())
	customer.Use(middleware.RequireUserType("customer"))

	customer.POST("/orders", orderController.CreateDirectOrder)
	customer.GET("/orders", orderController.GetCustomerOrders)
}
