package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/taponce/taponce_backend/controllers"
	"github.com/taponce/taponce_backend/middleware"
)

// RegisterAgentRoutes registers the agent dashboard routes
func RegisterAgentRoutes(e *echo.Echo, orderController *controllers.OrderController, catalogController *controllers.CatalogController, agentController *controllers.AgentController, payoutController *controllers.PayoutController) {
	agent := e.Group("/api/agent")
	agent.Use(middleware.JWTMiddleware())
	agent.Use(middleware.RequireUserType("agent"))

	agent.GET("/card-designs", catalogController.GetAgentCatalog)

	agent.POST("/orders", orderController.CreateOrder)
	agent.GET("/orders", orderController.GetAgentOrders)

	agent.GET("/stats", agentController.GetMyStats)
	agent.GET("/sub-agents", agentController.GetMySubAgents)
	agent.GET("/commissions", agentController.GetMyCommissionHistory)
	agent.GET("/payouts", payoutController.GetMyPayouts)
	agent.GET("/referral-qr", agentController.GetMyReferralQRCode)
}
