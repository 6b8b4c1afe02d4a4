// repositories/commission_repository.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vitrinehub/vitrine_backend/config"
	"github.com/vitrinehub/vitrine_backend/models"
	"github.com/vitrinehub/vitrine_backend/services"
)

// CommissionRepository persists commissions in the "commissions" collection.
// It implements services.CommissionStore.
type CommissionRepository struct {
	collection *mongo.Collection
}

func NewCommissionRepository(db *mongo.Client) *CommissionRepository {
	return &CommissionRepository{
		collection: db.Database(config.DatabaseName()).Collection("commissions"),
	}
}

func (r *CommissionRepository) Insert(ctx context.Context, commission *models.Commission) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, commission)
	return err
}

func (r *CommissionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Commission, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var commission models.Commission
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&commission)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("commission %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, err
	}
	return &commission, nil
}

func (r *CommissionRepository) FindByAffiliate(ctx context.Context, affiliateID primitive.ObjectID, statuses []string) ([]models.Commission, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"affiliateId": affiliateID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}

	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}

	var commissions []models.Commission
	if err := cursor.All(ctx, &commissions); err != nil {
		return nil, err
	}
	return commissions, nil
}

// ConfirmPendingByOrder is a compare-and-set: only documents still pending
// match the filter, so duplicate delivery triggers never re-stamp timestamps.
func (r *CommissionRepository) ConfirmPendingByOrder(ctx context.Context, orderID primitive.ObjectID, confirmedAt, availableAt time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.collection.UpdateMany(ctx,
		bson.M{"orderId": orderID, "status": models.CommissionStatusPending},
		bson.M{"$set": bson.M{
			"status":      models.CommissionStatusConfirmed,
			"confirmedAt": confirmedAt,
			"availableAt": availableAt,
		}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// MarkPaid is a compare-and-set on status: only a pending or confirmed
// commission transitions. Returns false without error when the commission is
// already paid.
func (r *CommissionRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, paidAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": []string{
			models.CommissionStatusPending,
			models.CommissionStatusConfirmed,
		}}},
		bson.M{"$set": bson.M{
			"status": models.CommissionStatusPaid,
			"paidAt": paidAt,
		}},
	)
	if err != nil {
		return false, err
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	// No transition: either the commission is already paid (fine, this is a
	// retry) or it does not exist at all.
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	if count == 0 {
		return false, fmt.Errorf("commission %s: %w", id.Hex(), services.ErrNotFound)
	}
	return false, nil
}
