package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CardDesignStatus controls whether a design is sellable.
type CardDesignStatus string

const (
	CardDesignActive   CardDesignStatus = "active"
	CardDesignInactive CardDesignStatus = "inactive"
)

// CardDesign is a sellable card template from the catalog. BaseMsp is the
// default minimum selling price; agents may carry a personal override in the
// agentMsps collection.
type CardDesign struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	BaseMsp     float64            `bson:"baseMsp" json:"baseMsp"`
	PreviewURL  string             `bson:"previewUrl" json:"previewUrl"`
	TemplateURL string             `bson:"templateUrl,omitempty" json:"templateUrl,omitempty"`
	Status      CardDesignStatus   `bson:"status" json:"status"`
	TotalSales  int64              `bson:"totalSales" json:"totalSales"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AgentCardDesign is a catalog entry as an agent sees it, with the MSP that
// applies to that agent after overrides.
type AgentCardDesign struct {
	CardDesign `bson:",inline"`
	YourMsp    float64 `json:"yourMsp"`
}

// AgentMsp is an admin-set MSP override for one (agent, card design) pair.
// At most one override exists per pair; when absent the design's BaseMsp
// applies. Overrides persist until explicitly cleared.
type AgentMsp struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AgentID        primitive.ObjectID `bson:"agentId" json:"agentId"`
	CardDesignID   primitive.ObjectID `bson:"cardDesignId" json:"cardDesignId"`
	CardDesignName string             `bson:"cardDesignName" json:"cardDesignName"`
	MspAmount      float64            `bson:"mspAmount" json:"mspAmount"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CreateCardDesignRequest is the admin payload for a new catalog entry.
type CreateCardDesignRequest struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description,omitempty"`
	BaseMsp     float64          `json:"baseMsp" validate:"required,gt=0"`
	PreviewURL  string           `json:"previewUrl" validate:"required,url"`
	TemplateURL string           `json:"templateUrl,omitempty" validate:"omitempty,url"`
	Status      CardDesignStatus `json:"status,omitempty"`
}

// UpdateCardDesignRequest carries partial catalog edits. Nil fields are left
// unchanged.
type UpdateCardDesignRequest struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	BaseMsp     *float64          `json:"baseMsp,omitempty" validate:"omitempty,gt=0"`
	PreviewURL  *string           `json:"previewUrl,omitempty" validate:"omitempty,url"`
	TemplateURL *string           `json:"templateUrl,omitempty" validate:"omitempty,url"`
	Status      *CardDesignStatus `json:"status,omitempty"`
}

// SetAgentMspRequest sets or replaces an agent's MSP override for a design.
type SetAgentMspRequest struct {
	MspAmount float64 `json:"mspAmount" validate:"required,gt=0"`
}
