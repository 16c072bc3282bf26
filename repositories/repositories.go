// Package repositories holds the persistence boundary. Services depend on
// the interfaces here; the mongo-backed implementations live alongside them.
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taponce/taponce_backend/models"
)

// OrderNumberBase is the offset for human-facing order numbers; the first
// order is #12001.
const OrderNumberBase = 12000

// ErrNotFound is returned when a looked-up document does not exist.
var ErrNotFound = errors.New("not found")

// OrderPatch is the set of fields a single status transition may write.
// Nil/zero fields are left untouched so a transition changes exactly what it
// declares and nothing else.
type OrderPatch struct {
	Status             models.OrderStatus
	CommissionAmount   *float64
	OverrideCommission *float64
	IsBelowMsp         *bool
	TrackingNumber     string
	PortfolioSlug      string
	AdminNotes         string
	RejectionReason    string
	ApprovedAt         *time.Time
	ShippedAt          *time.Time
	DeliveredAt        *time.Time
	PaidAt             *time.Time
}

// OrderRepository persists orders.
type OrderRepository interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)

	// NextOrderNumber reserves and returns the next sequential order number.
	NextOrderNumber(ctx context.Context) (int64, error)

	// ApplyTransition writes patch to the order only if its status still
	// equals from, in one atomic update. It reports false when the order was
	// not in the expected status (lost race or retry), in which case nothing
	// was written.
	ApplyTransition(ctx context.Context, id primitive.ObjectID, from models.OrderStatus, patch OrderPatch) (bool, error)
}

// AgentRepository persists agents and their ledger aggregates.
type AgentRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Agent, error)

	// CreditEarnings adds amount to both totalEarnings and availableBalance.
	CreditEarnings(ctx context.Context, id primitive.ObjectID, amount float64) error

	// DebitBalance subtracts amount from availableBalance only if the current
	// balance covers it, in one atomic conditional update. It reports false
	// and writes nothing when the balance is insufficient.
	DebitBalance(ctx context.Context, id primitive.ObjectID, amount float64) (bool, error)

	// CreditBalance adds amount back to availableBalance without touching
	// totalEarnings. Used to compensate a debit whose payout record could not
	// be written.
	CreditBalance(ctx context.Context, id primitive.ObjectID, amount float64) error

	IncTotalSales(ctx context.Context, id primitive.ObjectID) error
}

// CatalogRepository reads the card catalog and per-agent MSP overrides.
type CatalogRepository interface {
	FindDesignByID(ctx context.Context, id primitive.ObjectID) (*models.CardDesign, error)

	// FindAgentMsp returns the agent's MSP override for a design, or nil when
	// the design's BaseMsp applies.
	FindAgentMsp(ctx context.Context, agentID, cardDesignID primitive.ObjectID) (*models.AgentMsp, error)

	IncDesignSales(ctx context.Context, id primitive.ObjectID) error
}

// PayoutRepository persists payout records.
type PayoutRepository interface {
	Insert(ctx context.Context, payout *models.Payout) error
}

// OverrideEarningRepository persists parent-agent override credits.
type OverrideEarningRepository interface {
	// InsertOnce inserts the earning unless one already exists for the same
	// order, reporting false (and writing nothing) on the duplicate.
	InsertOnce(ctx context.Context, earning *models.OverrideEarning) (bool, error)
}
