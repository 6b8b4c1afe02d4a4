package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/vitrinehub/vitrine_backend/controllers"
	"github.com/vitrinehub/vitrine_backend/middleware"
	"github.com/vitrinehub/vitrine_backend/models"
)

// RegisterAdminRoutes sets up the back-office; every route requires an admin
// token
func RegisterAdminRoutes(e *echo.Echo, adminController *controllers.AdminController, productController *controllers.ProductController, couponController *controllers.CouponController, courseController *controllers.CourseController, bannerController *controllers.BannerController, orderController *controllers.OrderController) {
	admin := e.Group("/api/admin",
		middleware.JWTMiddleware(),
		middleware.RequireRole(models.RoleAdmin),
	)

	// Withdrawal review
	admin.GET("/withdrawals", adminController.ListWithdrawals)
	admin.POST("/withdrawals/:id/approve", adminController.ApproveWithdrawal)
	admin.POST("/withdrawals/:id/reject", adminController.RejectWithdrawal)

	// Affiliate management
	admin.GET("/users", adminController.ListUsers)
	admin.GET("/affiliates/:id/earnings", adminController.GetAffiliateEarnings)
	admin.POST("/affiliates/:id/pay", adminController.PayAffiliate)

	// Order fulfilment
	admin.GET("/orders", orderController.ListOrders)
	admin.PUT("/orders/:id/status", orderController.UpdateOrderStatus)

	// Catalog management
	admin.POST("/products", productController.CreateProduct)
	admin.PUT("/products/:id", productController.UpdateProduct)
	admin.DELETE("/products/:id", productController.DeleteProduct)

	admin.GET("/coupons", couponController.ListCoupons)
	admin.POST("/coupons", couponController.CreateCoupon)
	admin.DELETE("/coupons/:id", couponController.DeleteCoupon)

	admin.POST("/courses", courseController.CreateCourse)
	admin.PUT("/courses/:id", courseController.UpdateCourse)
	admin.DELETE("/courses/:id", courseController.DeleteCourse)

	admin.GET("/banners", bannerController.ListBanners)
	admin.POST("/banners", bannerController.CreateBanner)
	admin.PUT("/banners/:id", bannerController.UpdateBanner)
	admin.DELETE("/banners/:id", bannerController.DeleteBanner)
}
