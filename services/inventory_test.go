// services/inventory_test.go
package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vitrinehub/vitrine_backend/models"
)

// memProductStore mirrors the repository's conditional decrement in memory.
type memProductStore struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
}

func newMemProductStore(products ...models.Product) *memProductStore {
	store := &memProductStore{products: make(map[primitive.ObjectID]*models.Product)}
	for i := range products {
		cp := products[i]
		store.products[cp.ID] = &cp
	}
	return store
}

func (s *memProductStore) FindActiveByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok || !product.IsActive {
		return nil, ErrNotFound
	}
	cp := *product
	return &cp, nil
}

func (s *memProductStore) ReserveStock(_ context.Context, id primitive.ObjectID, qty int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok || !product.IsActive {
		return false, ErrNotFound
	}
	if product.Stock < qty {
		return false, nil
	}
	product.Stock -= qty
	return true, nil
}

func (s *memProductStore) ReleaseStock(_ context.Context, id primitive.ObjectID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok {
		return ErrNotFound
	}
	product.Stock += qty
	return nil
}

func (s *memProductStore) stock(id primitive.ObjectID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func catalogProduct(name string, price float64, stock int) models.Product {
	return models.Product{
		ID:       primitive.NewObjectID(),
		Name:     name,
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
}

func TestReserveItemsDecrementsStock(t *testing.T) {
	shirt := catalogProduct("Shirt", 40, 10)
	mug := catalogProduct("Mug", 15, 3)
	store := newMemProductStore(shirt, mug)
	inventory := NewInventory(store)

	items, err := inventory.ReserveItems(context.Background(), []models.OrderItemRequest{
		{ProductID: shirt.ID.Hex(), Quantity: 2},
		{ProductID: mug.ID.Hex(), Quantity: 3},
	})
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "Shirt", items[0].Name)
	assert.Equal(t, 40.0, items[0].Price)
	assert.Equal(t, 8, store.stock(shirt.ID))
	assert.Equal(t, 0, store.stock(mug.ID))
}

func TestReserveItemsInsufficientStock(t *testing.T) {
	shirt := catalogProduct("Shirt", 40, 1)
	store := newMemProductStore(shirt)
	inventory := NewInventory(store)

	_, err := inventory.ReserveItems(context.Background(), []models.OrderItemRequest{
		{ProductID: shirt.ID.Hex(), Quantity: 2},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, store.stock(shirt.ID))
}

func TestReserveItemsStockRunsOut(t *testing.T) {
	shirt := catalogProduct("Shirt", 40, 3)
	store := newMemProductStore(shirt)
	inventory := NewInventory(store)
	ctx := context.Background()
	reqs := []models.OrderItemRequest{{ProductID: shirt.ID.Hex(), Quantity: 2}}

	// First order takes 2 of 3; the second finds only 1 left
	_, err := inventory.ReserveItems(ctx, reqs)
	require.NoError(t, err)

	_, err = inventory.ReserveItems(ctx, reqs)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, store.stock(shirt.ID))
}

func TestReserveItemsReleasesOnFailure(t *testing.T) {
	shirt := catalogProduct("Shirt", 40, 10)
	mug := catalogProduct("Mug", 15, 1)
	store := newMemProductStore(shirt, mug)
	inventory := NewInventory(store)

	// The second item fails, so the first item's reservation is returned
	_, err := inventory.ReserveItems(context.Background(), []models.OrderItemRequest{
		{ProductID: shirt.ID.Hex(), Quantity: 2},
		{ProductID: mug.ID.Hex(), Quantity: 5},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 10, store.stock(shirt.ID))
	assert.Equal(t, 1, store.stock(mug.ID))
}

func TestReserveItemsUnknownProduct(t *testing.T) {
	inventory := NewInventory(newMemProductStore())

	_, err := inventory.ReserveItems(context.Background(), []models.OrderItemRequest{
		{ProductID: primitive.NewObjectID().Hex(), Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveItemsInvalidID(t *testing.T) {
	inventory := NewInventory(newMemProductStore())

	_, err := inventory.ReserveItems(context.Background(), []models.OrderItemRequest{
		{ProductID: "not-an-object-id", Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReleaseItems(t *testing.T) {
	shirt := catalogProduct("Shirt", 40, 5)
	store := newMemProductStore(shirt)
	inventory := NewInventory(store)
	ctx := context.Background()

	items, err := inventory.ReserveItems(ctx, []models.OrderItemRequest{
		{ProductID: shirt.ID.Hex(), Quantity: 4},
	})
	require.NoError(t, err)
	require.Equal(t, 1, store.stock(shirt.ID))

	inventory.ReleaseItems(ctx, items)
	assert.Equal(t, 5, store.stock(shirt.ID))
}
