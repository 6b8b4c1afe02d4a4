// services/inventory.go
package services

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vitrinehub/vitrine_backend/models"
)

// ProductStore is the persistence surface the inventory needs.
type ProductStore interface {
	FindActiveByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// ReserveStock atomically decrements the product's stock by qty if at
	// least qty units remain. Returns false when the product exists but has
	// insufficient stock.
	ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
	// ReleaseStock returns qty units to the product's stock.
	ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

// Inventory resolves order items against the catalog and holds stock for them.
// Reservation decrements stock with a conditional update, so two orders racing
// for the last unit cannot both succeed.
type Inventory struct {
	store ProductStore
}

func NewInventory(store ProductStore) *Inventory {
	return &Inventory{store: store}
}

// ReserveItems resolves each requested product at current catalog prices and
// reserves its stock. On any failure the items already reserved are released
// before returning, so a rejected order never leaks stock.
func (inv *Inventory) ReserveItems(ctx context.Context, reqs []models.OrderItemRequest) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(reqs))
	for _, req := range reqs {
		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			inv.ReleaseItems(ctx, items)
			return nil, fmt.Errorf("%w: invalid product id %q", ErrNotFound, req.ProductID)
		}

		product, err := inv.store.FindActiveByID(ctx, productID)
		if err != nil {
			inv.ReleaseItems(ctx, items)
			return nil, err
		}

		reserved, err := inv.store.ReserveStock(ctx, productID, req.Quantity)
		if err != nil {
			inv.ReleaseItems(ctx, items)
			return nil, fmt.Errorf("failed to reserve stock for %s: %w", product.Name, err)
		}
		if !reserved {
			inv.ReleaseItems(ctx, items)
			return nil, fmt.Errorf("%w for %s", ErrInsufficientStock, product.Name)
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  req.Quantity,
		})
	}
	return items, nil
}

// ReleaseItems returns the reserved stock of the given items. Failures are
// logged; the caller has nothing better to do with them.
func (inv *Inventory) ReleaseItems(ctx context.Context, items []models.OrderItem) {
	for _, item := range items {
		if err := inv.store.ReleaseStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("Failed to release %d units of product %s: %v", item.Quantity, item.ProductID.Hex(), err)
		}
	}
}
