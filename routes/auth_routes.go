package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/vitrinehub/vitrine_backend/controllers"
	"github.com/vitrinehub/vitrine_backend/middleware"
)

// RegisterAuthRoutes sets up authentication and profile routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController) {
	// Public authentication routes
	e.POST("/api/auth/signup", authController.Signup)
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/logout", authController.Logout)
	e.POST("/api/auth/refresh-token", authController.RefreshToken)
	e.POST("/api/auth/remember-me/get", authController.GetRememberedCredentials)
	e.POST("/api/auth/remember-me/remove", authController.RemoveRememberedCredentials)
	e.POST("/api/auth/forgot-password", authController.ForgotPassword)
	e.POST("/api/auth/reset-password", authController.ResetPassword)

	// Profile routes require a valid token
	profile := e.Group("/api/profile", middleware.JWTMiddleware())
	profile.GET("", authController.GetProfile)
	profile.PUT("", authController.UpdateProfile)
}
