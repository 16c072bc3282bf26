package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taponce/taponce_backend/models"
)

// MongoPayoutRepository is the mongo-backed PayoutRepository.
type MongoPayoutRepository struct {
	payouts *mongo.Collection
}

// NewPayoutRepository creates a mongo-backed payout repository.
func NewPayoutRepository(db *mongo.Database) *MongoPayoutRepository {
	return &MongoPayoutRepository{payouts: db.Collection("payouts")}
}

func (r *MongoPayoutRepository) Insert(ctx context.Context, payout *models.Payout) error {
	if payout.ID.IsZero() {
		payout.ID = primitive.NewObjectID()
	}
	_, err := r.payouts.InsertOne(ctx, payout)
	return err
}
