// services/withdrawal_processor.go
package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vitrinehub/vitrine_backend/models"
)

const defaultMinWithdrawal = 100.00

// WithdrawalStore is the persistence surface the processor needs.
type WithdrawalStore interface {
	Insert(ctx context.Context, withdrawal *models.Withdrawal) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error)
	FindByAffiliate(ctx context.Context, affiliateID primitive.ObjectID) ([]models.Withdrawal, error)
	FindByStatus(ctx context.Context, status string) ([]models.Withdrawal, error)
	// SetProcessed transitions the request from pending to the given status,
	// returning false when the request was no longer pending.
	SetProcessed(ctx context.Context, id primitive.ObjectID, status string, adminID primitive.ObjectID, notes string, processedAt time.Time) (bool, error)
}

// WithdrawalProcessor gates withdrawal requests against the minimum threshold
// and available balance, and applies request outcomes to the ledger.
type WithdrawalProcessor struct {
	ledger *Ledger
	store  WithdrawalStore
	min    float64
}

// NewWithdrawalProcessor creates a processor with the given minimum
// withdrawal amount.
func NewWithdrawalProcessor(ledger *Ledger, store WithdrawalStore, min float64) *WithdrawalProcessor {
	return &WithdrawalProcessor{ledger: ledger, store: store, min: min}
}

// MinWithdrawalFromEnv reads WITHDRAWAL_MIN_AMOUNT, defaulting to 100.00.
func MinWithdrawalFromEnv() float64 {
	if vStr := os.Getenv("WITHDRAWAL_MIN_AMOUNT"); vStr != "" {
		if v, err := strconv.ParseFloat(vStr, 64); err == nil && v >= 0 {
			return v
		}
		log.Printf("Invalid WITHDRAWAL_MIN_AMOUNT %q, using default of %.2f", vStr, defaultMinWithdrawal)
	}
	return defaultMinWithdrawal
}

// RequestWithdrawal creates a pending withdrawal request covering everything
// the affiliate can withdraw at now. The covered commission ids are fixed at
// request time; commissions maturing later go into a future request.
func (p *WithdrawalProcessor) RequestWithdrawal(ctx context.Context, affiliateID primitive.ObjectID, pixKey string, now time.Time) (*models.Withdrawal, error) {
	balance, err := p.ledger.AvailableBalance(ctx, affiliateID, now)
	if err != nil {
		return nil, err
	}
	if balance.Amount < p.min {
		return nil, fmt.Errorf("%w: available %.2f, minimum %.2f", ErrInsufficientBalance, balance.Amount, p.min)
	}

	if strings.TrimSpace(pixKey) == "" {
		return nil, ErrInvalidPayoutKey
	}

	commissionIDs := make([]primitive.ObjectID, 0, len(balance.Commissions))
	for _, commission := range balance.Commissions {
		commissionIDs = append(commissionIDs, commission.ID)
	}

	withdrawal := &models.Withdrawal{
		ID:            primitive.NewObjectID(),
		AffiliateID:   affiliateID,
		Amount:        balance.Amount,
		CommissionIDs: commissionIDs,
		PixKey:        strings.TrimSpace(pixKey),
		Status:        models.WithdrawalStatusPending,
		CreatedAt:     now,
	}

	if err := p.store.Insert(ctx, withdrawal); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}
	return withdrawal, nil
}

// Approve marks every commission covered by the request as paid, then flips
// the request from pending to paid. The commissions are updated first and the
// request status last, so a failure mid-way leaves the request pending and
// re-running the approval converges (marking a paid commission paid again is
// a no-op).
func (p *WithdrawalProcessor) Approve(ctx context.Context, requestID, adminID primitive.ObjectID, now time.Time) (*models.Withdrawal, error) {
	withdrawal, err := p.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if withdrawal.Status != models.WithdrawalStatusPending {
		return nil, fmt.Errorf("%w: withdrawal %s is %s", ErrInvalidStateTransition, requestID.Hex(), withdrawal.Status)
	}

	if err := p.ledger.MarkCommissionsPaid(ctx, withdrawal.CommissionIDs, now); err != nil {
		return nil, err
	}

	transitioned, err := p.store.SetProcessed(ctx, requestID, models.WithdrawalStatusPaid, adminID, "", now)
	if err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	if !transitioned {
		return nil, fmt.Errorf("%w: withdrawal %s was processed concurrently", ErrInvalidStateTransition, requestID.Hex())
	}

	withdrawal.Status = models.WithdrawalStatusPaid
	withdrawal.AdminID = &adminID
	withdrawal.ProcessedAt = &now
	return withdrawal, nil
}

// Reject flips the request from pending to rejected with the given notes. The
// covered commissions are untouched: they remain confirmed and reappear in
// the next balance computation.
func (p *WithdrawalProcessor) Reject(ctx context.Context, requestID, adminID primitive.ObjectID, notes string, now time.Time) (*models.Withdrawal, error) {
	withdrawal, err := p.store.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if withdrawal.Status != models.WithdrawalStatusPending {
		return nil, fmt.Errorf("%w: withdrawal %s is %s", ErrInvalidStateTransition, requestID.Hex(), withdrawal.Status)
	}

	transitioned, err := p.store.SetProcessed(ctx, requestID, models.WithdrawalStatusRejected, adminID, notes, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update withdrawal request: %w", err)
	}
	if !transitioned {
		return nil, fmt.Errorf("%w: withdrawal %s was processed concurrently", ErrInvalidStateTransition, requestID.Hex())
	}

	withdrawal.Status = models.WithdrawalStatusRejected
	withdrawal.Notes = notes
	withdrawal.AdminID = &adminID
	withdrawal.ProcessedAt = &now
	return withdrawal, nil
}

// History returns the affiliate's withdrawal requests.
func (p *WithdrawalProcessor) History(ctx context.Context, affiliateID primitive.ObjectID) ([]models.Withdrawal, error) {
	return p.store.FindByAffiliate(ctx, affiliateID)
}

// ListByStatus returns withdrawal requests with the given status; an empty
// status returns everything.
func (p *WithdrawalProcessor) ListByStatus(ctx context.Context, status string) ([]models.Withdrawal, error) {
	return p.store.FindByStatus(ctx, status)
}
