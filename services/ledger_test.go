// services/ledger_test.go
package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vitrinehub/vitrine_backend/models"
)

// memCommissionStore is an in-memory CommissionStore mirroring the repository
// semantics: status updates are conditional on the current status, exactly
// like the mongo filters.
type memCommissionStore struct {
	mu          sync.Mutex
	commissions map[primitive.ObjectID]*models.Commission
	insertErr   error
	markPaidErr map[primitive.ObjectID]error
}

func newMemCommissionStore() *memCommissionStore {
	return &memCommissionStore{
		commissions: make(map[primitive.ObjectID]*models.Commission),
		markPaidErr: make(map[primitive.ObjectID]error),
	}
}

func (s *memCommissionStore) Insert(_ context.Context, commission *models.Commission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	cp := *commission
	s.commissions[commission.ID] = &cp
	return nil
}

func (s *memCommissionStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	commission, ok := s.commissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *commission
	return &cp, nil
}

func (s *memCommissionStore) FindByAffiliate(_ context.Context, affiliateID primitive.ObjectID, statuses []string) ([]models.Commission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Commission
	for _, commission := range s.commissions {
		if commission.AffiliateID != affiliateID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, status := range statuses {
				if commission.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *commission)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memCommissionStore) ConfirmPendingByOrder(_ context.Context, orderID primitive.ObjectID, confirmedAt, availableAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, commission := range s.commissions {
		if commission.OrderID != orderID || commission.Status != models.CommissionStatusPending {
			continue
		}
		commission.Status = models.CommissionStatusConfirmed
		cAt, aAt := confirmedAt, availableAt
		commission.ConfirmedAt = &cAt
		commission.AvailableAt = &aAt
		n++
	}
	return n, nil
}

func (s *memCommissionStore) MarkPaid(_ context.Context, id primitive.ObjectID, paidAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markPaidErr[id]; err != nil {
		return false, err
	}
	commission, ok := s.commissions[id]
	if !ok {
		return false, ErrNotFound
	}
	if commission.Status == models.CommissionStatusPaid {
		return false, nil
	}
	commission.Status = models.CommissionStatusPaid
	pAt := paidAt
	commission.PaidAt = &pAt
	return true, nil
}

func (s *memCommissionStore) get(id primitive.ObjectID) *models.Commission {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.commissions[id]
	return &cp
}

func week() time.Duration { return 7 * 24 * time.Hour }

func TestRecordCommission(t *testing.T) {
	store := newMemCommissionStore()
	ledger := NewLedger(store, week())
	affiliateID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()

	commission, err := ledger.RecordCommission(context.Background(), orderID, affiliateID, "buyer@example.com", 25.50)
	require.NoError(t, err)

	assert.Equal(t, models.CommissionStatusPending, commission.Status)
	assert.Equal(t, 25.50, commission.Amount)
	assert.Nil(t, commission.ConfirmedAt)
	assert.Nil(t, commission.AvailableAt)
	assert.Nil(t, commission.PaidAt)

	stored := store.get(commission.ID)
	assert.Equal(t, models.CommissionStatusPending, stored.Status)
}

func TestRecordCommissionRejectsNegativeAmount(t *testing.T) {
	ledger := NewLedger(newMemCommissionStore(), week())

	_, err := ledger.RecordCommission(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), "buyer@example.com", -1)
	assert.Error(t, err)
}

func TestConfirmCommissionsForOrder(t *testing.T) {
	store := newMemCommissionStore()
	ledger := NewLedger(store, week())
	affiliateID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()

	commission, err := ledger.RecordCommission(context.Background(), orderID, affiliateID, "buyer@example.com", 50)
	require.NoError(t, err)

	now := time.Now()
	confirmed, err := ledger.ConfirmCommissionsForOrder(context.Background(), orderID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), confirmed)

	stored := store.get(commission.ID)
	assert.Equal(t, models.CommissionStatusConfirmed, stored.Status)
	require.NotNil(t, stored.ConfirmedAt)
	require.NotNil(t, stored.AvailableAt)
	assert.Equal(t, now.Add(week()), *stored.AvailableAt)
}

func TestConfirmCommissionsForOrderIsIdempotent(t *testing.T) {
	store := newMemCommissionStore()
	ledger := NewLedger(store, week())
	orderID := primitive.NewObjectID()

	commission, err := ledger.RecordCommission(context.Background(), orderID, primitive.NewObjectID(), "buyer@example.com", 50)
	require.NoError(t, err)

	first := time.Now()
	_, err = ledger.ConfirmCommissionsForOrder(context.Background(), orderID, first)
	require.NoError(t, err)
	afterFirst := store.get(commission.ID)

	// A second delivery trigger matches nothing and resets no timestamps
	confirmed, err := ledger.ConfirmCommissionsForOrder(context.Background(), orderID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), confirmed)

	afterSecond := store.get(commission.ID)
	assert.Equal(t, *afterFirst.ConfirmedAt, *afterSecond.ConfirmedAt)
	assert.Equal(t, *afterFirst.AvailableAt, *afterSecond.AvailableAt)
}

func TestAvailableBalanceExcludesMaturingAndPending(t *testing.T) {
	store := newMemCommissionStore()
	ledger := NewLedger(store, week())
	ctx := context.Background()
	affiliateID := primitive.NewObjectID()

	// C1 delivered now, C2 delivered now but checked before maturation,
	// C3 still pending.
	c1, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "a@example.com", 50)
	require.NoError(t, err)
	c2, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "b@example.com", 60)
	require.NoError(t, err)
	_, err = ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "c@example.com", 70)
	require.NoError(t, err)

	t0 := time.Now()
	_, err = ledger.ConfirmCommissionsForOrder(ctx, c1.OrderID, t0)
	require.NoError(t, err)
	_, err = ledger.ConfirmCommissionsForOrder(ctx, c2.OrderID, t0.Add(48*time.Hour))
	require.NoError(t, err)

	// Six days in: nothing has matured
	balance, err := ledger.AvailableBalance(ctx, affiliateID, t0.Add(6*24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, balance.Commissions)
	assert.Zero(t, balance.Amount)

	// Eight days in: only C1 has matured
	balance, err = ledger.AvailableBalance(ctx, affiliateID, t0.Add(8*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, balance.Commissions, 1)
	assert.Equal(t, c1.ID, balance.Commissions[0].ID)
	assert.Equal(t, 50.0, balance.Amount)

	// Ten days in: C1 and C2 both count
	balance, err = ledger.AvailableBalance(ctx, affiliateID, t0.Add(10*24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, balance.Commissions, 2)
	assert.Equal(t, 110.0, balance.Amount)
}

func TestMarkCommissionsPaid(t *testing.T) {
	store := newMemCommissionStore()
	ledger := NewLedger(store, week())
	ctx := context.Background()
	affiliateID := primitive.NewObjectID()

	commission, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "a@example.com", 50)
	require.NoError(t, err)
	_, err = ledger.ConfirmCommissionsForOrder(ctx, commission.OrderID, time.Now())
	require.NoError(t, err)

	paidAt := time.Now()
	require.NoError(t, ledger.MarkCommissionsPaid(ctx, []primitive.ObjectID{commission.ID}, paidAt))

	stored := store.get(commission.ID)
	assert.Equal(t, models.CommissionStatusPaid, stored.Status)
	require.NotNil(t, stored.PaidAt)

	// Marking again is a no-op, not an error
	require.NoError(t, ledger.MarkCommissionsPaid(ctx, []primitive.ObjectID{commission.ID}, paidAt.Add(time.Hour)))
	assert.Equal(t, *stored.PaidAt, *store.get(commission.ID).PaidAt)
}

func TestMarkCommissionsPaidUnknownID(t *testing.T) {
	ledger := NewLedger(newMemCommissionStore(), week())

	err := ledger.MarkCommissionsPaid(context.Background(), []primitive.ObjectID{primitive.NewObjectID()}, time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummary(t *testing.T) {
	store := newMemCommissionStore()
	ledger := NewLedger(store, week())
	ctx := context.Background()
	affiliateID := primitive.NewObjectID()

	_, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "a@example.com", 10)
	require.NoError(t, err)
	maturing, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "b@example.com", 20)
	require.NoError(t, err)
	available, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "c@example.com", 40)
	require.NoError(t, err)
	paid, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "d@example.com", 80)
	require.NoError(t, err)

	t0 := time.Now()
	_, err = ledger.ConfirmCommissionsForOrder(ctx, maturing.OrderID, t0)
	require.NoError(t, err)
	_, err = ledger.ConfirmCommissionsForOrder(ctx, available.OrderID, t0.Add(-8*24*time.Hour))
	require.NoError(t, err)
	_, err = ledger.ConfirmCommissionsForOrder(ctx, paid.OrderID, t0.Add(-8*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, ledger.MarkCommissionsPaid(ctx, []primitive.ObjectID{paid.ID}, t0))

	summary, err := ledger.Summary(ctx, affiliateID, t0)
	require.NoError(t, err)
	assert.Equal(t, 40.0, summary.Available)
	assert.Equal(t, 20.0, summary.Maturing)
	assert.Equal(t, 70.0, summary.Outstanding)
	assert.Equal(t, 80.0, summary.TotalPaid)
}

func TestTotalOutstanding(t *testing.T) {
	store := newMemCommissionStore()
	ledger := NewLedger(store, week())
	ctx := context.Background()
	affiliateID := primitive.NewObjectID()

	_, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "a@example.com", 10)
	require.NoError(t, err)
	confirmed, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "b@example.com", 20)
	require.NoError(t, err)
	paid, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), affiliateID, "c@example.com", 40)
	require.NoError(t, err)

	t0 := time.Now()
	_, err = ledger.ConfirmCommissionsForOrder(ctx, confirmed.OrderID, t0)
	require.NoError(t, err)
	_, err = ledger.ConfirmCommissionsForOrder(ctx, paid.OrderID, t0)
	require.NoError(t, err)
	require.NoError(t, ledger.MarkCommissionsPaid(ctx, []primitive.ObjectID{paid.ID}, t0))

	total, err := ledger.TotalOutstanding(ctx, affiliateID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, total)
}

func TestBalanceIsScopedToAffiliate(t *testing.T) {
	store := newMemCommissionStore()
	ledger := NewLedger(store, week())
	ctx := context.Background()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()

	mine, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), alice, "a@example.com", 50)
	require.NoError(t, err)
	theirs, err := ledger.RecordCommission(ctx, primitive.NewObjectID(), bob, "b@example.com", 500)
	require.NoError(t, err)

	t0 := time.Now().Add(-8 * 24 * time.Hour)
	_, err = ledger.ConfirmCommissionsForOrder(ctx, mine.OrderID, t0)
	require.NoError(t, err)
	_, err = ledger.ConfirmCommissionsForOrder(ctx, theirs.OrderID, t0)
	require.NoError(t, err)

	balance, err := ledger.AvailableBalance(ctx, alice, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 50.0, balance.Amount)
}
