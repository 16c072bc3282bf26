package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taponce/taponce_backend/models"
)

// MongoAgentRepository is the mongo-backed AgentRepository.
type MongoAgentRepository struct {
	agents *mongo.Collection
}

// NewAgentRepository creates a mongo-backed agent repository.
func NewAgentRepository(db *mongo.Database) *MongoAgentRepository {
	return &MongoAgentRepository{agents: db.Collection("agents")}
}

func (r *MongoAgentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Agent, error) {
	var agent models.Agent
	err := r.agents.FindOne(ctx, bson.M{"_id": id}).Decode(&agent)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &agent, nil
}

// CreditEarnings adds a commission to both running totals in one update, so
// earned and available never drift apart on the credit side.
func (r *MongoAgentRepository) CreditEarnings(ctx context.Context, id primitive.ObjectID, amount float64) error {
	_, err := r.agents.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{
				"totalEarnings":    amount,
				"availableBalance": amount,
			},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	return err
}

// DebitBalance decrements availableBalance only when the stored balance still
// covers the amount. The balance condition rides in the update filter, so two
// racing payouts can never both succeed past the available funds.
func (r *MongoAgentRepository) DebitBalance(ctx context.Context, id primitive.ObjectID, amount float64) (bool, error) {
	res, err := r.agents.UpdateOne(ctx,
		bson.M{"_id": id, "availableBalance": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"availableBalance": -amount},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// CreditBalance restores availableBalance after a failed payout write.
func (r *MongoAgentRepository) CreditBalance(ctx context.Context, id primitive.ObjectID, amount float64) error {
	_, err := r.agents.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"availableBalance": amount},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	return err
}

func (r *MongoAgentRepository) IncTotalSales(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.agents.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"totalSales": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	return err
}
