package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taponce/taponce_backend/models"
)

// MongoCatalogRepository is the mongo-backed CatalogRepository.
type MongoCatalogRepository struct {
	designs   *mongo.Collection
	agentMsps *mongo.Collection
}

// NewCatalogRepository creates a mongo-backed catalog repository.
func NewCatalogRepository(db *mongo.Database) *MongoCatalogRepository {
	return &MongoCatalogRepository{
		designs:   db.Collection("cardDesigns"),
		agentMsps: db.Collection("agentMsps"),
	}
}

func (r *MongoCatalogRepository) FindDesignByID(ctx context.Context, id primitive.ObjectID) (*models.CardDesign, error) {
	var design models.CardDesign
	err := r.designs.FindOne(ctx, bson.M{"_id": id}).Decode(&design)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &design, nil
}

func (r *MongoCatalogRepository) FindAgentMsp(ctx context.Context, agentID, cardDesignID primitive.ObjectID) (*models.AgentMsp, error) {
	var msp models.AgentMsp
	err := r.agentMsps.FindOne(ctx, bson.M{"agentId": agentID, "cardDesignId": cardDesignID}).Decode(&msp)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &msp, nil
}

func (r *MongoCatalogRepository) IncDesignSales(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.designs.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"totalSales": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	return err
}
