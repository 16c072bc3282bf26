package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taponce/taponce_backend/models"
)

// MongoOrderRepository is the mongo-backed OrderRepository.
type MongoOrderRepository struct {
	orders   *mongo.Collection
	counters *mongo.Collection
}

// NewOrderRepository creates a mongo-backed order repository.
func NewOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{
		orders:   db.Collection("orders"),
		counters: db.Collection("counters"),
	}
}

func (r *MongoOrderRepository) Insert(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := r.orders.InsertOne(ctx, order)
	return err
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// NextOrderNumber increments the shared counter and returns the new
// human-facing order number. The counter document is upserted on first use so
// numbering starts at OrderNumberBase+1.
func (r *MongoOrderRepository) NextOrderNumber(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "orderNumber"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return OrderNumberBase + counter.Seq, nil
}

// ApplyTransition performs the status change as a single conditional update
// keyed on the expected current status, so a retried or racing transition
// matches nothing instead of double-applying.
func (r *MongoOrderRepository) ApplyTransition(ctx context.Context, id primitive.ObjectID, from models.OrderStatus, patch OrderPatch) (bool, error) {
	set := bson.M{
		"status":    patch.Status,
		"updatedAt": time.Now(),
	}
	if patch.CommissionAmount != nil {
		set["commissionAmount"] = *patch.CommissionAmount
	}
	if patch.OverrideCommission != nil {
		set["overrideCommission"] = *patch.OverrideCommission
	}
	if patch.IsBelowMsp != nil {
		set["isBelowMsp"] = *patch.IsBelowMsp
	}
	if patch.TrackingNumber != "" {
		set["trackingNumber"] = patch.TrackingNumber
	}
	if patch.PortfolioSlug != "" {
		set["portfolioSlug"] = patch.PortfolioSlug
	}
	if patch.AdminNotes != "" {
		set["adminNotes"] = patch.AdminNotes
	}
	if patch.RejectionReason != "" {
		set["rejectionReason"] = patch.RejectionReason
	}
	if patch.ApprovedAt != nil {
		set["approvedAt"] = *patch.ApprovedAt
	}
	if patch.ShippedAt != nil {
		set["shippedAt"] = *patch.ShippedAt
	}
	if patch.DeliveredAt != nil {
		set["deliveredAt"] = *patch.DeliveredAt
	}
	if patch.PaidAt != nil {
		set["paidAt"] = *patch.PaidAt
	}

	res, err := r.orders.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}
