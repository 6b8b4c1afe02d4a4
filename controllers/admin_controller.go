// controllers/admin_controller.go
package controllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vitrinehub/vitrine_backend/config"
	"github.com/vitrinehub/vitrine_backend/middleware"
	"github.com/vitrinehub/vitrine_backend/models"
	"github.com/vitrinehub/vitrine_backend/repositories"
	"github.com/vitrinehub/vitrine_backend/services"
	"github.com/vitrinehub/vitrine_backend/utils"
	"github.com/vitrinehub/vitrine_backend/websocket"
)

// AdminController handles the back-office side of the affiliate program:
// reviewing withdrawal requests, settling commissions and monitoring
// affiliate earnings.
type AdminController struct {
	db         *mongo.Client
	ledger     *services.Ledger
	processor  *services.WithdrawalProcessor
	pixService *services.PixService
	userRepo   *repositories.UserRepository
	wsHub      *websocket.Hub
}

func NewAdminController(db *mongo.Client, ledger *services.Ledger, processor *services.WithdrawalProcessor, pixService *services.PixService, userRepo *repositories.UserRepository, wsHub *websocket.Hub) *AdminController {
	return &AdminController{
		db:         db,
		ledger:     ledger,
		processor:  processor,
		pixService: pixService,
		userRepo:   userRepo,
		wsHub:      wsHub,
	}
}

func (ac *AdminController) adminID(c echo.Context) (primitive.ObjectID, error) {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(userID)
}

// ListWithdrawals returns withdrawal requests, optionally filtered by status
// via the ?status= query parameter
func (ac *AdminController) ListWithdrawals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status := c.QueryParam("status")
	if status != "" &&
		status != models.WithdrawalStatusPending &&
		status != models.WithdrawalStatusPaid &&
		status != models.WithdrawalStatusRejected {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid status filter",
		})
	}

	withdrawals, err := ac.processor.ListByStatus(ctx, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch withdrawal requests",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal requests retrieved successfully",
		Data:    withdrawals,
	})
}

// ApproveWithdrawal marks the request paid, settles the covered commissions
// and dispatches the PIX transfer
func (ac *AdminController) ApproveWithdrawal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid withdrawal request ID",
		})
	}

	adminID, err := ac.adminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	withdrawal, err := ac.processor.Approve(ctx, requestID, adminID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Withdrawal request not found",
			})
		case errors.Is(err, services.ErrInvalidStateTransition):
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Withdrawal request is no longer pending",
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to approve withdrawal request",
			})
		}
	}

	// The ledger is settled; the transfer and notifications are best-effort
	// and any failure here is resolved manually, not by reversing the approval.
	message := "Withdrawal approved successfully"
	if _, err := ac.pixService.Payout(withdrawal.PixKey, withdrawal.Amount, withdrawal.ID.Hex()); err != nil {
		log.Printf("PIX payout failed for withdrawal %s: %v", withdrawal.ID.Hex(), err)
		message = "Withdrawal approved, but the PIX transfer failed and needs manual dispatch"
	}

	ac.notifyDecision(withdrawal, "Withdrawal approved",
		fmt.Sprintf("Your withdrawal of %.2f has been approved and the transfer is on its way.", withdrawal.Amount))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
		Data:    withdrawal,
	})
}

// RejectWithdrawal declines the request with optional notes; the covered
// commissions go back into the affiliate's available balance
func (ac *AdminController) RejectWithdrawal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	requestID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid withdrawal request ID",
		})
	}

	adminID, err := ac.adminID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	var body models.WithdrawalDecisionBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	withdrawal, err := ac.processor.Reject(ctx, requestID, adminID, utils.SanitizeInput(body.Notes), time.Now())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Withdrawal request not found",
			})
		case errors.Is(err, services.ErrInvalidStateTransition):
			return c.JSON(http.StatusConflict, models.Response{
				Status:  http.StatusConflict,
				Message: "Withdrawal request is no longer pending",
			})
		default:
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to reject withdrawal request",
			})
		}
	}

	reason := withdrawal.Notes
	if reason == "" {
		reason = "no reason given"
	}
	ac.notifyDecision(withdrawal, "Withdrawal rejected",
		fmt.Sprintf("Your withdrawal of %.2f was rejected (%s). The commissions remain available for a new request.", withdrawal.Amount, reason))

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal rejected successfully",
		Data:    withdrawal,
	})
}

func (ac *AdminController) notifyDecision(withdrawal *models.Withdrawal, title, message string) {
	if err := utils.SaveNotification(ac.db, withdrawal.AffiliateID, title, message, "withdrawal", withdrawal); err != nil {
		log.Printf("Failed to save withdrawal notification: %v", err)
	}
	if err := ac.wsHub.NotifyWithdrawalProcessed(withdrawal.AffiliateID, withdrawal); err != nil {
		log.Printf("Failed to push withdrawal event: %v", err)
	}
	go func() {
		affiliate, err := ac.userRepo.FindByID(withdrawal.AffiliateID)
		if err != nil {
			log.Printf("Failed to load affiliate %s for email: %v", withdrawal.AffiliateID.Hex(), err)
			return
		}
		if err := utils.SendEmail(affiliate.Email, title, message); err != nil {
			log.Printf("Failed to email affiliate %s: %v", affiliate.Email, err)
		}
	}()
}

// PayAffiliate settles every outstanding commission of an affiliate outside
// the request flow, for manual payouts arranged out of band
func (ac *AdminController) PayAffiliate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	affiliateID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid affiliate ID",
		})
	}

	outstanding, err := ac.ledger.History(ctx, affiliateID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to load commissions",
		})
	}

	ids := make([]primitive.ObjectID, 0, len(outstanding))
	var total float64
	for _, commission := range outstanding {
		if commission.Status == models.CommissionStatusPaid {
			continue
		}
		ids = append(ids, commission.ID)
		total += commission.Amount
	}
	if len(ids) == 0 {
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: "No outstanding commissions for this affiliate",
			Data:    map[string]interface{}{"commissionsPaid": 0, "amount": 0.0},
		})
	}

	if err := ac.ledger.MarkCommissionsPaid(ctx, ids, time.Now()); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to settle commissions",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Affiliate commissions settled successfully",
		Data: map[string]interface{}{
			"commissionsPaid": len(ids),
			"amount":          total,
		},
	})
}

// GetAffiliateEarnings returns an earnings summary for one affiliate
func (ac *AdminController) GetAffiliateEarnings(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	affiliateID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid affiliate ID",
		})
	}

	affiliate, err := ac.userRepo.FindByID(affiliateID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Affiliate not found",
		})
	}

	summary, err := ac.ledger.Summary(ctx, affiliateID, time.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to compute earnings",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Affiliate earnings retrieved successfully",
		Data: map[string]interface{}{
			"affiliateId":  affiliate.ID,
			"fullName":     affiliate.FullName,
			"email":        affiliate.Email,
			"referralCode": affiliate.ReferralCode,
			"earnings":     summary,
		},
	})
}

// ListUsers returns registered users, optionally filtered by ?role=
func (ac *AdminController) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if role := c.QueryParam("role"); role != "" {
		filter["role"] = role
	}

	collection := ac.db.Database(config.DatabaseName()).Collection("users")
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"password": 0})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to fetch users",
		})
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to decode users",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Users retrieved successfully",
		Data:    users,
	})
}
