package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/taponce/taponce_backend/config"
	"github.com/taponce/taponce_backend/controllers"
	"github.com/taponce/taponce_backend/middleware"
	"github.com/taponce/taponce_backend/repositories"
	"github.com/taponce/taponce_backend/routes"
	"github.com/taponce/taponce_backend/services"
	"github.com/taponce/taponce_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Initialize Firebase
	config.InitFirebase()

	// Connect to Redis
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "taponce"
	}
	db := client.Database(dbName)

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.GlobalCORS())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeaders())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "TapOnce Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.Use(httpsRedirect())

	// Initialize repositories
	orderRepo := repositories.NewOrderRepository(db)
	agentRepo := repositories.NewAgentRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	payoutRepo := repositories.NewPayoutRepository(db)
	overrideRepo := repositories.NewOverrideEarningRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// Initialize services
	ledgerService := services.NewLedgerService(agentRepo, payoutRepo, overrideRepo)
	orderService := services.NewOrderService(orderRepo, agentRepo, catalogRepo, ledgerService)

	// Initialize controllers
	authController := controllers.NewAuthController(client, userRepo)
	orderController := controllers.NewOrderController(client, orderService, wsHub)
	catalogController := controllers.NewCatalogController(client, redisClient)
	agentController := controllers.NewAgentController(client, ledgerService)
	payoutController := controllers.NewPayoutController(client, ledgerService, wsHub)

	// Register routes
	routes.RegisterAuthRoutes(e, client, authController, catalogController, orderController, wsHub)
	routes.RegisterAdminRoutes(e, orderController, catalogController, agentController, payoutController)
	routes.RegisterAgentRoutes(e, orderController, catalogController, agentController, payoutController)
	routes.RegisterCustomerRoutes(e, client, orderController)
	routes.RegisterNotificationRoutes(e, client)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
