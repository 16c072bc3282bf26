package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommissionBreakdown is the result of running the commission calculation for
// a single sale.
//
// When IsBelowMsp is true the sale is under the agent's minimum selling price:
// no commission is payable until the admin approves the order through the
// explicit below-MSP override, so TotalCommission is zero while
// BaseCommission still reports what the agent would normally earn.
type CommissionBreakdown struct {
	BaseCommission   float64 `json:"baseCommission"`
	NegotiationBonus float64 `json:"negotiationBonus"`
	TotalCommission  float64 `json:"totalCommission"`
	IsBelowMsp       bool    `json:"isBelowMsp"`
}

// OverrideEarning records the flat-rate commission credited to a parent agent
// for one sub-agent sale. OrderID carries a unique index so the credit for an
// order is applied exactly once, even if the approval transition is retried.
type OverrideEarning struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID       primitive.ObjectID `bson:"orderId" json:"orderId"`
	ParentAgentID primitive.ObjectID `bson:"parentAgentId" json:"parentAgentId"`
	SubAgentID    primitive.ObjectID `bson:"subAgentId" json:"subAgentId"`
	SalePrice     float64            `bson:"salePrice" json:"salePrice"`
	Amount        float64            `bson:"amount" json:"amount"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// CommissionEntry is one row of an agent's commission history.
type CommissionEntry struct {
	OrderID     primitive.ObjectID `json:"orderId"`
	OrderNumber int64              `json:"orderNumber"`
	Amount      float64            `json:"amount"`
	Kind        string             `json:"kind"` // "sale" or "override"
	EarnedAt    time.Time          `json:"earnedAt"`
}
