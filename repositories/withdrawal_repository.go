// repositories/withdrawal_repository.go
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

// WithdrawalRepository persists withdrawal requests in the "withdrawals"
// collection. It implements services.WithdrawalStore.
type WithdrawalRepository struct {
	collection *mongo.Collection
}

func NewWithdrawalRepository(db *mongo.Client) *WithdrawalRepository {
	return &WithdrawalRepository{
		collection: db.Database(config.DatabaseName()).Collection("withdrawals"),
	}
}

func (r *WithdrawalRepository) Insert(ctx context.Context, withdrawal *models.Withdrawal) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, withdrawal)
	return err
}

func (r *WithdrawalRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Withdrawal, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var withdrawal models.Withdrawal
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&withdrawal)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("withdrawal %s: %w", id.Hex(), services.ErrNotFound)
		}
		return nil, err
	}
	return &withdrawal, nil
}

func (r *WithdrawalRepository) FindByAffiliate(ctx context.Context, affiliateID primitive.ObjectID) ([]models.Withdrawal, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"affiliateId": affiliateID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}

	var withdrawals []models.Withdrawal
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (r *WithdrawalRepository) FindByStatus(ctx context.Context, status string) ([]models.Withdrawal, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}

	var withdrawals []models.Withdrawal
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// SetProcessed is a compare-and-set on status: only a pending request
// transitions, so two admins racing on the same request cannot both win.
func (r *WithdrawalRepository) SetProcessed(ctx context.Context, id primitive.ObjectID, status string, adminID primitive.ObjectID, notes string, processedAt time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	update := bson.M{
		"status":      status,
		"adminId":     adminID,
		"processedAt": processedAt,
	}
	if notes != "" {
		update["notes"] = notes
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.WithdrawalStatusPending},
		bson.M{"$set": update},
	)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}
