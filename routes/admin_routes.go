package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/taponce/taponce_backend/controllers"
	"github.com/taponce/taponce_backend/middleware"
)

// RegisterAdminRoutes registers all admin dashboard routes
func RegisterAdminRoutes(e *echo.Echo, orderController *controllers.OrderController, catalogController *controllers.CatalogController, agentController *controllers.AgentController, payoutController *controllers.PayoutController) {
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireUserType("admin"))

	// Order pipeline
	admin.GET("/orders", orderController.GetOrders)
	admin.GET("/orders/kanban", orderController.GetKanban)
	admin.GET("/orders/:id", orderController.GetOrder)
	admin.PUT("/orders/:id/status", orderController.UpdateOrderStatus)
	admin.POST("/orders/:id/approve", orderController.ApproveOrder)
	admin.POST("/orders/:id/approve-below-msp", orderController.ApproveOrderBelowMsp)
	admin.POST("/orders/:id/reject", orderController.RejectOrder)
	admin.POST("/orders/:id/cancel", orderController.CancelOrder)

	// Card design catalog
	admin.GET("/card-designs", catalogController.GetCardDesigns)
	admin.POST("/card-designs", catalogController.CreateCardDesign)
	admin.PUT("/card-designs/:id", catalogController.UpdateCardDesign)

	// Agents and their MSP overrides
	admin.GET("/agents", agentController.GetAgents)
	admin.POST("/agents", agentController.CreateAgent)
	admin.GET("/agents/:id", agentController.GetAgent)
	admin.PUT("/agents/:id", agentController.UpdateAgent)
	admin.PUT("/agents/:id/msp/:designId", catalogController.SetAgentMsp)
	admin.DELETE("/agents/:id/msp/:designId", catalogController.ClearAgentMsp)

	// Finance
	admin.POST("/agents/:id/payouts", payoutController.RecordPayout)
	admin.GET("/agents/:id/payouts", payoutController.GetAgentPayouts)
	admin.GET("/finance/liability", payoutController.GetCommissionLiability)
}
