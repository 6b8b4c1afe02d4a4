package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vitrinehub/vitrine_backend/controllers"
	"github.com/vitrinehub/vitrine_backend/middleware"
	"github.com/vitrinehub/vitrine_backend/models"
	"github.com/vitrinehub/vitrine_backend/websocket"
)

// Controllers bundles every controller the route registration needs.
type Controllers struct {
	Auth      *controllers.AuthController
	Product   *controllers.ProductController
	Order     *controllers.OrderController
	Coupon    *controllers.CouponController
	Course    *controllers.CourseController
	Banner    *controllers.BannerController
	Affiliate *controllers.AffiliateController
	Admin     *controllers.AdminController

	Notification *controllers.NotificationController
}

// SetupRoutes configures all API routes by calling individual route
// registration functions
func SetupRoutes(e *echo.Echo, ctrl Controllers, wsHub *websocket.Hub) {
	RegisterAuthRoutes(e, ctrl.Auth)
	RegisterStorefrontRoutes(e, ctrl, wsHub)
	RegisterAffiliateRoutes(e, ctrl.Affiliate)
	RegisterAdminRoutes(e, ctrl.Admin, ctrl.Product, ctrl.Coupon, ctrl.Course, ctrl.Banner, ctrl.Order)
}

// RegisterStorefrontRoutes sets up the public catalog and the buyer's order
// routes
func RegisterStorefrontRoutes(e *echo.Echo, ctrl Controllers, wsHub *websocket.Hub) {
	// Public catalog
	e.GET("/api/products", ctrl.Product.ListProducts)
	e.GET("/api/products/:id", ctrl.Product.GetProduct)
	e.GET("/api/banners", ctrl.Banner.ListActiveBanners)
	e.GET("/api/courses", ctrl.Course.ListCourses)
	e.GET("/api/courses/:id", ctrl.Course.GetCourse)
	e.GET("/api/coupons/validate", ctrl.Coupon.ValidateCoupon)

	// Buyer routes
	orders := e.Group("/api/orders", middleware.JWTMiddleware())
	orders.POST("", ctrl.Order.CreateOrder)
	orders.GET("/my", ctrl.Order.GetMyOrders)

	// In-app notifications
	notifications := e.Group("/api/notifications", middleware.JWTMiddleware())
	notifications.GET("", ctrl.Notification.GetNotifications)
	notifications.PUT("/:id/read", ctrl.Notification.MarkNotificationRead)

	// Real-time events for the logged-in user (admins get the back-office
	// feed, affiliates get their withdrawal updates)
	e.GET("/api/ws", func(c echo.Context) error {
		claims := middleware.GetUserFromToken(c)
		if claims == nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Authentication failed",
			})
		}
		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid token",
			})
		}
		return websocket.HandleWebSocket(c, wsHub, userID, claims.Role)
	}, middleware.JWTMiddleware())
}
