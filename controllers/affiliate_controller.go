// controllers/affiliate_controller.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vitrinehub/vitrine_backend/middleware"
	"github.com/vitrinehub/vitrine_backend/models"
	"github.com/vitrinehub/vitrine_backend/repositories"
	"github.com/vitrinehub/vitrine_backend/services"
	"github.com/vitrinehub/vitrine_backend/utils"
	"github.com/vitrinehub/vitrine_backend/websocket"
)

// AffiliateController exposes the affiliate's own view of the commission
// ledger and the withdrawal request flow. Every operation is scoped to the
// authenticated user's id; an affiliate can never act on another's balance.
type AffiliateController struct {
	db        *mongo.Client
	ledger    *services.Ledger
	processor *services.WithdrawalProcessor
	userRepo  *repositories.UserRepository
	wsHub     *websocket.Hub
}

func NewAffiliateController(db *mongo.Client, ledger *services.Ledger, processor *services.WithdrawalProcessor, userRepo *repositories.UserRepository, wsHub *websocket.Hub) *AffiliateController {
	return &AffiliateController{
		db:        db,
		ledger:    ledger,
		processor: processor,
		userRepo:  userRepo,
		wsHub:     wsHub,
	}
}

func (afc *AffiliateController) affiliateID(c echo.Context) (primitive.ObjectID, error) {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(userID)
}

// GetReferralInfo returns the affiliate's referral code, signup link and a
// QR code for sharing
func (afc *AffiliateController) GetReferralInfo(c echo.Context) error {
	affiliateID, err := afc.affiliateID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	user, err := afc.userRepo.FindByID(affiliateID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Affiliate not found",
		})
	}

	if user.ReferralCode == "" {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "No referral code on this account",
		})
	}

	qrCode, err := utils.ReferralQRCodeBase64(user.ReferralCode)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral info retrieved successfully",
		Data: map[string]string{
			"referralCode": user.ReferralCode,
			"referralLink": utils.ReferralLink(user.ReferralCode),
			"qrCode":       qrCode,
		},
	})
}

// GetCommissions returns the affiliate's full commission history
func (afc *AffiliateController) GetCommissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	affiliateID, err := afc.affiliateID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	commissions, err := afc.ledger.History(ctx, affiliateID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch commission history",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission history retrieved successfully",
		Data:    commissions,
	})
}

// GetBalance returns the affiliate's earnings summary and what is
// withdrawable right now
func (afc *AffiliateController) GetBalance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	affiliateID, err := afc.affiliateID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	now := time.Now()
	summary, err := afc.ledger.Summary(ctx, affiliateID, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to compute balance",
		})
	}

	balance, err := afc.ledger.AvailableBalance(ctx, affiliateID, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to compute available balance",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Balance retrieved successfully",
		Data: map[string]interface{}{
			"summary":              summary,
			"availableCommissions": balance.Commissions,
			"availableAmount":      balance.Amount,
		},
	})
}

// RequestWithdrawal creates a withdrawal request for everything currently
// available
func (afc *AffiliateController) RequestWithdrawal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	affiliateID, err := afc.affiliateID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var req models.WithdrawalRequestBody
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	withdrawal, err := afc.processor.RequestWithdrawal(ctx, affiliateID, req.PixKey, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPayoutKey):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "A PIX key is required",
			})
		case errors.Is(err, services.ErrInsufficientBalance):
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: err.Error(),
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to create withdrawal request",
			})
		}
	}

	// Let operators know right away
	afc.wsHub.NotifyWithdrawalRequested(withdrawal)
	go utils.SendAdminEmail(
		"New withdrawal request",
		fmt.Sprintf("Affiliate %s requested a withdrawal of %.2f.\nRequest ID: %s\nRequested at: %s",
			affiliateID.Hex(), withdrawal.Amount, withdrawal.ID.Hex(),
			withdrawal.CreatedAt.Format("2006-01-02 15:04:05")),
	)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Withdrawal request created successfully",
		Data:    withdrawal,
	})
}

// GetWithdrawals returns the affiliate's withdrawal request history
func (afc *AffiliateController) GetWithdrawals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	affiliateID, err := afc.affiliateID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	withdrawals, err := afc.processor.History(ctx, affiliateID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch withdrawal history",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal history retrieved successfully",
		Data:    withdrawals,
	})
}
