package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/vitrinehub/vitrine_backend/controllers"
	"github.com/vitrinehub/vitrine_backend/middleware"
	"github.com/vitrinehub/vitrine_backend/models"
)

// RegisterAffiliateRoutes sets up the affiliate area; every route requires an
// affiliate token
func RegisterAffiliateRoutes(e *echo.Echo, affiliateController *controllers.AffiliateController) {
	affiliate := e.Group("/api/affiliate",
		middleware.JWTMiddleware(),
		middleware.RequireRole(models.RoleAffiliate),
	)

	affiliate.GET("/referral", affiliateController.GetReferralInfo)
	affiliate.GET("/commissions", affiliateController.GetCommissions)
	affiliate.GET("/balance", affiliateController.GetBalance)
	affiliate.POST("/withdrawals", affiliateController.RequestWithdrawal)
	affiliate.GET("/withdrawals", affiliateController.GetWithdrawals)
}
