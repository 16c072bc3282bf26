package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentMethod is how a payout reaches the agent.
type PaymentMethod string

const (
	PayoutUpi          PaymentMethod = "upi"
	PayoutBankTransfer PaymentMethod = "bank_transfer"
	PayoutCash         PaymentMethod = "cash"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	return m == PayoutUpi || m == PayoutBankTransfer || m == PayoutCash
}

// PayoutStatus is the settlement state of a payout record.
type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "pending"
	PayoutCompleted PayoutStatus = "completed"
	PayoutFailed    PayoutStatus = "failed"
)

// Payout records money paid out to an agent against their available balance.
// Completed payouts for an agent never sum to more than that agent's total
// earnings; the ledger refuses any payout that would take the balance
// negative.
type Payout struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AgentID       primitive.ObjectID `bson:"agentId" json:"agentId"`
	Amount        float64            `bson:"amount" json:"amount"`
	PaymentMethod PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	AdminNotes    string             `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	Status        PayoutStatus       `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// PayoutRequest is the admin payload for paying out part of an agent's
// balance.
type PayoutRequest struct {
	Amount        float64       `json:"amount" validate:"required,gt=0"`
	PaymentMethod PaymentMethod `json:"paymentMethod" validate:"required"`
	AdminNotes    string        `json:"adminNotes,omitempty"`
}
