// services/ledger.go
package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vitrinehub/vitrine_backend/models"
)

const defaultMaturationDays = 7

// CommissionStore is the persistence surface the ledger needs. Implemented by
// repositories.CommissionRepository; tests use an in-memory fake.
type CommissionStore interface {
	Insert(ctx context.Context, commission *models.Commission) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Commission, error)
	FindByAffiliate(ctx context.Context, affiliateID primitive.ObjectID, statuses []string) ([]models.Commission, error)
	// ConfirmPendingByOrder transitions every pending commission of the order
	// to confirmed with the given timestamps, returning how many documents
	// matched. Already-confirmed commissions must not be touched.
	ConfirmPendingByOrder(ctx context.Context, orderID primitive.ObjectID, confirmedAt, availableAt time.Time) (int64, error)
	// MarkPaid transitions the commission to paid if it is currently pending
	// or confirmed. Returns false when the document exists but no transition
	// happened (i.e. it is already paid).
	MarkPaid(ctx context.Context, id primitive.ObjectID, paidAt time.Time) (bool, error)
}

// Ledger is the authoritative record of commission statuses and amounts. All
// balance figures are recomputed from the store on demand; there is no cached
// aggregate to drift.
type Ledger struct {
	store      CommissionStore
	maturation time.Duration
}

// NewLedger creates a commission ledger with the given maturation period (the
// delay between delivery confirmation and withdrawal eligibility).
func NewLedger(store CommissionStore, maturation time.Duration) *Ledger {
	return &Ledger{store: store, maturation: maturation}
}

// MaturationFromEnv reads COMMISSION_MATURATION_DAYS, defaulting to 7 days.
func MaturationFromEnv() time.Duration {
	days := defaultMaturationDays
	if dStr := os.Getenv("COMMISSION_MATURATION_DAYS"); dStr != "" {
		if d, err := strconv.Atoi(dStr); err == nil && d >= 0 {
			days = d
		} else {
			log.Printf("Invalid COMMISSION_MATURATION_DAYS %q, using default of %d days", dStr, defaultMaturationDays)
		}
	}
	return time.Duration(days) * 24 * time.Hour
}

// RecordCommission creates a pending commission for the order. Called at order
// placement when the buyer was referred by an affiliate.
func (l *Ledger) RecordCommission(ctx context.Context, orderID, affiliateID primitive.ObjectID, referredEmail string, amount float64) (*models.Commission, error) {
	if amount < 0 {
		return nil, fmt.Errorf("commission amount must not be negative, got %.2f", amount)
	}

	commission := &models.Commission{
		ID:                primitive.NewObjectID(),
		OrderID:           orderID,
		AffiliateID:       affiliateID,
		ReferredUserEmail: referredEmail,
		Amount:            amount,
		Status:            models.CommissionStatusPending,
		CreatedAt:         time.Now(),
	}

	if err := l.store.Insert(ctx, commission); err != nil {
		return nil, fmt.Errorf("failed to record commission for order %s: %w", orderID.Hex(), err)
	}
	return commission, nil
}

// ConfirmCommissionsForOrder transitions the order's pending commissions to
// confirmed, stamping confirmedAt and the withdrawal eligibility time. The
// store update only matches pending documents, so repeated delivery triggers
// are no-ops and never reset timestamps.
func (l *Ledger) ConfirmCommissionsForOrder(ctx context.Context, orderID primitive.ObjectID, now time.Time) (int64, error) {
	availableAt := now.Add(l.maturation)
	confirmed, err := l.store.ConfirmPendingByOrder(ctx, orderID, now, availableAt)
	if err != nil {
		return 0, fmt.Errorf("failed to confirm commissions for order %s: %w", orderID.Hex(), err)
	}
	return confirmed, nil
}

// MarkCommissionsPaid transitions the given commissions to paid. Commissions
// already paid are skipped, which makes re-running an interrupted withdrawal
// approval safe. An unknown id is an error.
func (l *Ledger) MarkCommissionsPaid(ctx context.Context, ids []primitive.ObjectID, now time.Time) error {
	for _, id := range ids {
		transitioned, err := l.store.MarkPaid(ctx, id, now)
		if err != nil {
			return fmt.Errorf("failed to mark commission %s paid: %w", id.Hex(), err)
		}
		if !transitioned {
			// Document exists but was not pending or confirmed; already paid
			// means a retry, anything else cannot happen since paid is the
			// only remaining status.
			continue
		}
	}
	return nil
}

// AvailableBalance returns the confirmed commissions whose maturation period
// has passed, plus their sum. This is what the affiliate may withdraw at now.
func (l *Ledger) AvailableBalance(ctx context.Context, affiliateID primitive.ObjectID, now time.Time) (*models.CommissionBalance, error) {
	confirmed, err := l.store.FindByAffiliate(ctx, affiliateID, []string{models.CommissionStatusConfirmed})
	if err != nil {
		return nil, fmt.Errorf("failed to load confirmed commissions: %w", err)
	}

	balance := &models.CommissionBalance{Commissions: []models.Commission{}}
	for _, commission := range confirmed {
		if commission.AvailableAt == nil || commission.AvailableAt.After(now) {
			continue
		}
		balance.Commissions = append(balance.Commissions, commission)
		balance.Amount += commission.Amount
	}
	return balance, nil
}

// TotalOutstanding returns the value generated for the affiliate but not yet
// paid out (pending plus confirmed commissions).
func (l *Ledger) TotalOutstanding(ctx context.Context, affiliateID primitive.ObjectID) (float64, error) {
	outstanding, err := l.store.FindByAffiliate(ctx, affiliateID, []string{
		models.CommissionStatusPending,
		models.CommissionStatusConfirmed,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load outstanding commissions: %w", err)
	}

	var total float64
	for _, commission := range outstanding {
		total += commission.Amount
	}
	return total, nil
}

// Summary aggregates the affiliate's earnings for the dashboard: withdrawable
// now, confirmed but still maturing, total outstanding, and total paid out.
func (l *Ledger) Summary(ctx context.Context, affiliateID primitive.ObjectID, now time.Time) (*models.CommissionSummary, error) {
	all, err := l.store.FindByAffiliate(ctx, affiliateID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load commissions: %w", err)
	}

	summary := &models.CommissionSummary{}
	for _, commission := range all {
		switch commission.Status {
		case models.CommissionStatusPending:
			summary.Outstanding += commission.Amount
		case models.CommissionStatusConfirmed:
			summary.Outstanding += commission.Amount
			if commission.AvailableAt != nil && !commission.AvailableAt.After(now) {
				summary.Available += commission.Amount
			} else {
				summary.Maturing += commission.Amount
			}
		case models.CommissionStatusPaid:
			summary.TotalPaid += commission.Amount
		}
	}
	return summary, nil
}

// History returns every commission for the affiliate, any status.
func (l *Ledger) History(ctx context.Context, affiliateID primitive.ObjectID) ([]models.Commission, error) {
	return l.store.FindByAffiliate(ctx, affiliateID, nil)
}
