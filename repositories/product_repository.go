// repositories/product_repository.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vitrinehub/vitrine_backend/config"
	"github.com/vitrinehub/vitrine_backend/models"
	"github.com/vitrinehub/vitrine_backend/services"
)

// ProductRepository persists products in the "products" collection. It
// implements services.ProductStore.
type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Client) *ProductRepository {
	return &ProductRepository{
		collection: db.Database(config.DatabaseName()).Collection("products"),
	}
}

func (r *ProductRepository) FindActiveByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "isActive": true}).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("product %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, err
	}
	return &product, nil
}

// ReserveStock is a compare-and-set: the filter only matches while at least
// qty units remain, so two orders racing for the last unit cannot both
// decrement.
func (r *ProductRepository) ReserveStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "isActive": true, "stock": bson.M{"$gte": qty}},
		bson.M{"$inc": bson.M{"stock": -qty}},
	)
	if err != nil {
		return false, err
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	// No decrement: either the stock ran out or the product vanished.
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "isActive": true})
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, fmt.Errorf("product %s: %w", id.Hex(), services.ErrNotFound)
	}
	return false, nil
}

func (r *ProductRepository) ReleaseStock(ctx context.Context, id primitive.ObjectID, qty int) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"stock": qty}})
	return err
}
