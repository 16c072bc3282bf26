package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taponce/taponce_backend/models"
)

// MongoOverrideEarningRepository is the mongo-backed
// OverrideEarningRepository. The overrideEarnings collection carries a unique
// index on orderId (created at startup) which makes InsertOnce idempotent per
// order.
type MongoOverrideEarningRepository struct {
	earnings *mongo.Collection
}

// NewOverrideEarningRepository creates a mongo-backed override earning
// repository.
func NewOverrideEarningRepository(db *mongo.Database) *MongoOverrideEarningRepository {
	return &MongoOverrideEarningRepository{earnings: db.Collection("overrideEarnings")}
}

func (r *MongoOverrideEarningRepository) InsertOnce(ctx context.Context, earning *models.OverrideEarning) (bool, error) {
	if earning.ID.IsZero() {
		earning.ID = primitive.NewObjectID()
	}
	_, err := r.earnings.InsertOne(ctx, earning)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
