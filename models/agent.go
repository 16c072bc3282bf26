package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AgentStatus is an agent's account status.
type AgentStatus string

const (
	AgentActive   AgentStatus = "active"
	AgentInactive AgentStatus = "inactive"
)

// Agent is a marketing agent selling TapOnce cards.
//
// The referral structure is exactly two levels deep: an agent may reference
// one parent agent and nothing above that. TotalEarnings and AvailableBalance
// are maintained by the ledger; AvailableBalance is TotalEarnings minus the
// sum of completed payouts and never exceeds TotalEarnings.
type Agent struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName string             `bson:"fullName" json:"fullName"`
	Email    string             `bson:"email" json:"email"`
	Phone    string             `bson:"phone" json:"phone"`
	Password string             `bson:"password" json:"-"`
	City     string             `bson:"city,omitempty" json:"city,omitempty"`

	ReferralCode string `bson:"referralCode" json:"referralCode"`

	// Banking details for payouts
	UpiID          string `bson:"upiId,omitempty" json:"upiId,omitempty"`
	BankAccount    string `bson:"bankAccount,omitempty" json:"bankAccount,omitempty"`
	BankIfsc       string `bson:"bankIfsc,omitempty" json:"bankIfsc,omitempty"`
	BankHolderName string `bson:"bankHolderName,omitempty" json:"bankHolderName,omitempty"`

	BaseCommission float64             `bson:"baseCommission" json:"baseCommission"`
	ParentAgentID  *primitive.ObjectID `bson:"parentAgentId,omitempty" json:"parentAgentId,omitempty"`

	TotalSales       int64   `bson:"totalSales" json:"totalSales"`
	TotalEarnings    float64 `bson:"totalEarnings" json:"totalEarnings"`
	AvailableBalance float64 `bson:"availableBalance" json:"availableBalance"`

	Status AgentStatus `bson:"status" json:"status"`

	FcmToken string `bson:"fcmToken,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	// Populated on the admin detail view only
	Msps      []AgentMsp        `bson:"-" json:"msps,omitempty"`
	SubAgents []SubAgentSummary `bson:"-" json:"subAgents,omitempty"`
}

// SubAgentSummary is what a parent agent (or the admin detail view) sees
// about each sub-agent.
type SubAgentSummary struct {
	ID               primitive.ObjectID `json:"id"`
	FullName         string             `json:"fullName"`
	TotalSales       int64              `json:"totalSales"`
	OverrideEarnings float64            `json:"overrideEarnings"`
	JoinedAt         time.Time          `json:"joinedAt"`
	Status           AgentStatus        `json:"status"`
}

// AgentStats is the headline block of the agent dashboard.
type AgentStats struct {
	TotalSales       int64   `json:"totalSales"`
	TotalEarnings    float64 `json:"totalEarnings"`
	AvailableBalance float64 `json:"availableBalance"`
	AmountReceived   float64 `json:"amountReceived"`
}

// CreateAgentRequest is the admin payload for provisioning a new agent.
type CreateAgentRequest struct {
	FullName       string  `json:"fullName" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	Phone          string  `json:"phone" validate:"required"`
	City           string  `json:"city,omitempty"`
	UpiID          string  `json:"upiId,omitempty"`
	BankAccount    string  `json:"bankAccount,omitempty"`
	BankIfsc       string  `json:"bankIfsc,omitempty"`
	BankHolderName string  `json:"bankHolderName,omitempty"`
	BaseCommission float64 `json:"baseCommission,omitempty" validate:"omitempty,gt=0"`
	ParentAgentID  string  `json:"parentAgentId,omitempty"`
}

// UpdateAgentRequest carries partial agent edits. Nil fields are left
// unchanged. BaseCommission edits affect future approvals only; commissions
// already snapshotted on orders keep their value.
type UpdateAgentRequest struct {
	FullName       *string      `json:"fullName,omitempty"`
	Phone          *string      `json:"phone,omitempty"`
	City           *string      `json:"city,omitempty"`
	UpiID          *string      `json:"upiId,omitempty"`
	BankAccount    *string      `json:"bankAccount,omitempty"`
	BankIfsc       *string      `json:"bankIfsc,omitempty"`
	BankHolderName *string      `json:"bankHolderName,omitempty"`
	BaseCommission *float64     `json:"baseCommission,omitempty" validate:"omitempty,gt=0"`
	Status         *AgentStatus `json:"status,omitempty"`
}

// AgentCredentials are the generated login details returned once at
// provisioning time and emailed to the agent.
type AgentCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateAgentResponse is returned after provisioning a new agent.
type CreateAgentResponse struct {
	ID           primitive.ObjectID `json:"id"`
	ReferralCode string             `json:"referralCode"`
	Credentials  AgentCredentials   `json:"credentials"`
}

// CommissionLiability is one row of the admin finance view: how much TapOnce
// currently owes an agent.
type CommissionLiability struct {
	AgentID          primitive.ObjectID `json:"agentId"`
	FullName         string             `json:"fullName"`
	AvailableBalance float64            `json:"availableBalance"`
	LastPayoutDate   *time.Time         `json:"lastPayoutDate,omitempty"`
}
