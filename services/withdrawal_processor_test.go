// services/withdrawal_processor_test.go
package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vitrinehub/vitrine_backend/models"
)

// memWithdrawalStore mirrors the repository's conditional update semantics in
// memory.
type memWithdrawalStore struct {
	mu          sync.Mutex
	withdrawals map[primitive.ObjectID]*models.Withdrawal
}

func newMemWithdrawalStore() *memWithdrawalStore {
	return &memWithdrawalStore{withdrawals: make(map[primitive.ObjectID]*models.Withdrawal)}
}

func (s *memWithdrawalStore) Insert(_ context.Context, withdrawal *models.Withdrawal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *withdrawal
	s.withdrawals[withdrawal.ID] = &cp
	return nil
}

func (s *memWithdrawalStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	withdrawal, ok := s.withdrawals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *withdrawal
	return &cp, nil
}

func (s *memWithdrawalStore) FindByAffiliate(_ context.Context, affiliateID primitive.ObjectID) ([]models.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Withdrawal
	for _, withdrawal := range s.withdrawals {
		if withdrawal.AffiliateID == affiliateID {
			out = append(out, *withdrawal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memWithdrawalStore) FindByStatus(_ context.Context, status string) ([]models.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Withdrawal
	for _, withdrawal := range s.withdrawals {
		if status == "" || withdrawal.Status == status {
			out = append(out, *withdrawal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memWithdrawalStore) SetProcessed(_ context.Context, id primitive.ObjectID, status string, adminID primitive.ObjectID, notes string, processedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	withdrawal, ok := s.withdrawals[id]
	if !ok {
		return false, ErrNotFound
	}
	if withdrawal.Status != models.WithdrawalStatusPending {
		return false, nil
	}
	withdrawal.Status = status
	withdrawal.AdminID = &adminID
	withdrawal.Notes = notes
	pAt := processedAt
	withdrawal.ProcessedAt = &pAt
	return true, nil
}

func (s *memWithdrawalStore) get(id primitive.ObjectID) *models.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.withdrawals[id]
	return &cp
}

// newTestProcessor wires a processor over in-memory stores with a 7-day
// maturation and a 100.00 minimum.
func newTestProcessor(t *testing.T) (*WithdrawalProcessor, *Ledger, *memCommissionStore, *memWithdrawalStore) {
	t.Helper()
	commissionStore := newMemCommissionStore()
	withdrawalStore := newMemWithdrawalStore()
	ledger := NewLedger(commissionStore, week())
	processor := NewWithdrawalProcessor(ledger, withdrawalStore, 100.00)
	return processor, ledger, commissionStore, withdrawalStore
}

// seedMatured records a commission and confirms it long enough ago that it is
// withdrawable.
func seedMatured(t *testing.T, ledger *Ledger, affiliateID primitive.ObjectID, amount float64) *models.Commission {
	t.Helper()
	ctx := context.Background()
	commission, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "buyer@example.com", amount)
	require.NoError(t, err)
	_, err = ledger.ConfirmCommissionsForOrder(ctx, commission.OrderID, time.Now().Add(-8*24*time.Hour))
	require.NoError(t, err)
	return commission
}

func TestRequestWithdrawalRequiresPixKey(t *testing.T) {
	processor, ledger, _, _ := newTestProcessor(t)
	affiliateID := primitive.NewObjectID()
	seedMatured(t, ledger, affiliateID, 150)

	_, err := processor.RequestWithdrawal(context.Background(), affiliateID, "   ", time.Now())
	assert.ErrorIs(t, err, ErrInvalidPayoutKey)
}

// An insufficient balance wins over a blank key when both apply.
func TestRequestWithdrawalBalanceCheckedBeforeKey(t *testing.T) {
	processor, ledger, _, _ := newTestProcessor(t)
	affiliateID := primitive.NewObjectID()
	seedMatured(t, ledger, affiliateID, 50)

	_, err := processor.RequestWithdrawal(context.Background(), affiliateID, "   ", time.Now())
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestRequestWithdrawalBelowMinimum(t *testing.T) {
	processor, ledger, _, _ := newTestProcessor(t)
	affiliateID := primitive.NewObjectID()
	seedMatured(t, ledger, affiliateID, 99.99)

	_, err := processor.RequestWithdrawal(context.Background(), affiliateID, "buyer@bank.pix", time.Now())
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestRequestWithdrawalAtExactMinimum(t *testing.T) {
	processor, ledger, _, _ := newTestProcessor(t)
	affiliateID := primitive.NewObjectID()
	commission := seedMatured(t, ledger, affiliateID, 100.00)

	withdrawal, err := processor.RequestWithdrawal(context.Background(), affiliateID, "buyer@bank.pix", time.Now())
	require.NoError(t, err)

	assert.Equal(t, models.WithdrawalStatusPending, withdrawal.Status)
	assert.Equal(t, 100.00, withdrawal.Amount)
	assert.Equal(t, []primitive.ObjectID{commission.ID}, withdrawal.CommissionIDs)
}

func TestRequestWithdrawalSnapshotsCoveredCommissions(t *testing.T) {
	processor, ledger, _, _ := newTestProcessor(t)
	ctx := context.Background()
	affiliateID := primitive.NewObjectID()
	matured := seedMatured(t, ledger, affiliateID, 120)

	// Confirmed but still maturing: not covered
	maturing, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "b@example.com", 80)
	require.NoError(t, err)
	_, err = ledger.ConfirmCommissionsForOrder(ctx, maturing.OrderID, time.Now())
	require.NoError(t, err)

	withdrawal, err := processor.RequestWithdrawal(ctx, affiliateID, "buyer@bank.pix", time.Now())
	require.NoError(t, err)

	assert.Equal(t, 120.0, withdrawal.Amount)
	assert.Equal(t, []primitive.ObjectID{matured.ID}, withdrawal.CommissionIDs)
}

func TestApproveSettlesCommissionsAndRequest(t *testing.T) {
	processor, ledger, commissionStore, withdrawalStore := newTestProcessor(t)
	ctx := context.Background()
	affiliateID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()
	c1 := seedMatured(t, ledger, affiliateID, 60)
	c2 := seedMatured(t, ledger, affiliateID, 50)

	withdrawal, err := processor.RequestWithdrawal(ctx, affiliateID, "buyer@bank.pix", time.Now())
	require.NoError(t, err)

	approved, err := processor.Approve(ctx, withdrawal.ID, adminID, time.Now())
	require.NoError(t, err)

	assert.Equal(t, models.WithdrawalStatusPaid, approved.Status)
	require.NotNil(t, approved.AdminID)
	assert.Equal(t, adminID, *approved.AdminID)
	assert.NotNil(t, approved.ProcessedAt)

	assert.Equal(t, models.CommissionStatusPaid, commissionStore.get(c1.ID).Status)
	assert.Equal(t, models.CommissionStatusPaid, commissionStore.get(c2.ID).Status)
	assert.Equal(t, models.WithdrawalStatusPaid, withdrawalStore.get(withdrawal.ID).Status)

	// The settled commissions no longer count toward any balance
	balance, err := ledger.AvailableBalance(ctx, affiliateID, time.Now())
	require.NoError(t, err)
	assert.Zero(t, balance.Amount)
}

func TestApproveFailureLeavesRequestPending(t *testing.T) {
	processor, ledger, commissionStore, withdrawalStore := newTestProcessor(t)
	ctx := context.Background()
	affiliateID := primitive.NewObjectID()
	c1 := seedMatured(t, ledger, affiliateID, 60)
	c2 := seedMatured(t, ledger, affiliateID, 50)

	withdrawal, err := processor.RequestWithdrawal(ctx, affiliateID, "buyer@bank.pix", time.Now())
	require.NoError(t, err)

	// Settling the second commission fails mid-approval
	storeErr := errors.New("connection reset")
	commissionStore.markPaidErr[c2.ID] = storeErr

	_, err = processor.Approve(ctx, withdrawal.ID, primitive.NewObjectID(), time.Now())
	require.Error(t, err)

	// The request is still pending, so the approval can be re-run
	assert.Equal(t, models.WithdrawalStatusPending, withdrawalStore.get(withdrawal.ID).Status)
	assert.Equal(t, models.CommissionStatusPaid, commissionStore.get(c1.ID).Status)
	assert.Equal(t, models.CommissionStatusConfirmed, commissionStore.get(c2.ID).Status)

	// Re-running after the store recovers converges: c1 is skipped, c2 is
	// settled, the request flips to paid
	delete(commissionStore.markPaidErr, c2.ID)
	approved, err := processor.Approve(ctx, withdrawal.ID, primitive.NewObjectID(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPaid, approved.Status)
	assert.Equal(t, models.CommissionStatusPaid, commissionStore.get(c2.ID).Status)
}

func TestApproveNonPendingRequest(t *testing.T) {
	processor, ledger, _, _ := newTestProcessor(t)
	ctx := context.Background()
	affiliateID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()
	seedMatured(t, ledger, affiliateID, 150)

	withdrawal, err := processor.RequestWithdrawal(ctx, affiliateID, "buyer@bank.pix", time.Now())
	require.NoError(t, err)

	_, err = processor.Approve(ctx, withdrawal.ID, adminID, time.Now())
	require.NoError(t, err)

	_, err = processor.Approve(ctx, withdrawal.ID, adminID, time.Now())
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestApproveUnknownRequest(t *testing.T) {
	processor, _, _, _ := newTestProcessor(t)

	_, err := processor.Approve(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectLeavesCommissionsWithdrawable(t *testing.T) {
	processor, ledger, commissionStore, _ := newTestProcessor(t)
	ctx := context.Background()
	affiliateID := primitive.NewObjectID()
	commission := seedMatured(t, ledger, affiliateID, 150)

	withdrawal, err := processor.RequestWithdrawal(ctx, affiliateID, "buyer@bank.pix", time.Now())
	require.NoError(t, err)

	rejected, err := processor.Reject(ctx, withdrawal.ID, primitive.NewObjectID(), "PIX key does not match account holder", time.Now())
	require.NoError(t, err)

	assert.Equal(t, models.WithdrawalStatusRejected, rejected.Status)
	assert.Equal(t, "PIX key does not match account holder", rejected.Notes)

	// The covered commission is untouched and reappears in the balance
	assert.Equal(t, models.CommissionStatusConfirmed, commissionStore.get(commission.ID).Status)
	balance, err := ledger.AvailableBalance(ctx, affiliateID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 150.0, balance.Amount)

	// The affiliate can request again right away
	again, err := processor.RequestWithdrawal(ctx, affiliateID, "buyer@bank.pix", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 150.0, again.Amount)
}

func TestRejectNonPendingRequest(t *testing.T) {
	processor, ledger, _, _ := newTestProcessor(t)
	ctx := context.Background()
	affiliateID := primitive.NewObjectID()
	adminID := primitive.NewObjectID()
	seedMatured(t, ledger, affiliateID, 150)

	withdrawal, err := processor.RequestWithdrawal(ctx, affiliateID, "buyer@bank.pix", time.Now())
	require.NoError(t, err)

	_, err = processor.Reject(ctx, withdrawal.ID, adminID, "", time.Now())
	require.NoError(t, err)

	_, err = processor.Approve(ctx, withdrawal.ID, adminID, time.Now())
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestListByStatus(t *testing.T) {
	processor, ledger, _, _ := newTestProcessor(t)
	ctx := context.Background()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	seedMatured(t, ledger, alice, 150)
	seedMatured(t, ledger, bob, 200)

	w1, err := processor.RequestWithdrawal(ctx, alice, "alice@bank.pix", time.Now())
	require.NoError(t, err)
	_, err = processor.RequestWithdrawal(ctx, bob, "bob@bank.pix", time.Now())
	require.NoError(t, err)

	_, err = processor.Approve(ctx, w1.ID, primitive.NewObjectID(), time.Now())
	require.NoError(t, err)

	pending, err := processor.ListByStatus(ctx, models.WithdrawalStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bob, pending[0].AffiliateID)

	all, err := processor.ListByStatus(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// Full request lifecycle across the maturation window.
func TestWithdrawalLifecycle(t *testing.T) {
	commissionStore := newMemCommissionStore()
	withdrawalStore := newMemWithdrawalStore()
	ledger := NewLedger(commissionStore, week())
	processor := NewWithdrawalProcessor(ledger, withdrawalStore, 100.00)
	ctx := context.Background()
	affiliateID := primitive.NewObjectID()

	// Two referred orders; both delivered at t0, the second two days later
	c1, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "a@example.com", 50)
	require.NoError(t, err)
	c2, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "b@example.com", 60)
	require.NoError(t, err)

	t0 := time.Now()
	_, err = ledger.ConfirmCommissionsForOrder(ctx, c1.OrderID, t0)
	require.NoError(t, err)
	_, err = ledger.ConfirmCommissionsForOrder(ctx, c2.OrderID, t0.Add(2*24*time.Hour))
	require.NoError(t, err)

	// Day 6: nothing withdrawable yet
	_, err = processor.RequestWithdrawal(ctx, affiliateID, "buyer@bank.pix", t0.Add(6*24*time.Hour))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Day 8: only C1 matured, 50 < minimum
	_, err = processor.RequestWithdrawal(ctx, affiliateID, "buyer@bank.pix", t0.Add(8*24*time.Hour))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// Day 10: both matured, 110 covers the minimum
	withdrawal, err := processor.RequestWithdrawal(ctx, affiliateID, "buyer@bank.pix", t0.Add(10*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 110.0, withdrawal.Amount)
	assert.Len(t, withdrawal.CommissionIDs, 2)

	approved, err := processor.Approve(ctx, withdrawal.ID, primitive.NewObjectID(), t0.Add(11*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPaid, approved.Status)

	summary, err := ledger.Summary(ctx, affiliateID, t0.Add(11*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, summary.Outstanding)
	assert.Equal(t, 110.0, summary.TotalPaid)
}
