package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/vitrinehub/vitrine_backend/config"
	"github.com/vitrinehub/vitrine_backend/controllers"
	"github.com/vitrinehub/vitrine_backend/middleware"
	"github.com/vitrinehub/vitrine_backend/repositories"
	"github.com/vitrinehub/vitrine_backend/routes"
	"github.com/vitrinehub/vitrine_backend/services"
	"github.com/vitrinehub/vitrine_backend/websocket"
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

	// Connect to Redis
	config.ConnectRedis()
	defer config.CloseRedis()

	// Connect to database
	client := config.ConnectDB()

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
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"*"},
		AllowInlineJS:  false,
	}))
	e.Use(httpsRedirect())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Vitrine Backend is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize repositories
	userRepo := repositories.NewUserRepository(client)
	commissionRepo := repositories.NewCommissionRepository(client)
	withdrawalRepo := repositories.NewWithdrawalRepository(client)
	productRepo := repositories.NewProductRepository(client)

	// Initialize services
	ledger := services.NewLedger(commissionRepo, services.MaturationFromEnv())
	processor := services.NewWithdrawalProcessor(ledger, withdrawalRepo, services.MinWithdrawalFromEnv())
	inventory := services.NewInventory(productRepo)
	pixService := services.NewPixService()

	// Initialize controllers
	ctrl := routes.Controllers{
		Auth:      controllers.NewAuthController(client, userRepo),
		Product:   controllers.NewProductController(client),
		Order:     controllers.NewOrderController(client, ledger, inventory, wsHub),
		Coupon:    controllers.NewCouponController(client),
		Course:    controllers.NewCourseController(client),
		Banner:    controllers.NewBannerController(client),
		Affiliate: controllers.NewAffiliateController(client, ledger, processor, userRepo, wsHub),
		Admin:     controllers.NewAdminController(client, ledger, processor, pixService, userRepo, wsHub),

		Notification: controllers.NewNotificationController(client),
	}

	routes.SetupRoutes(e, ctrl, wsHub)

	// Purge expired tokens from the logout blacklist
	go middleware.CleanupBlacklist()

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
