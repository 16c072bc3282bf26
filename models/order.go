package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShippingAddress is collected for direct website orders, where TapOnce ships
// the printed card straight to the customer.
type ShippingAddress struct {
	Flat     string `bson:"flat" json:"flat" validate:"required"`
	Building string `bson:"building" json:"building" validate:"required"`
	Street   string `bson:"street" json:"street" validate:"required"`
	Landmark string `bson:"landmark,omitempty" json:"landmark,omitempty"`
	City     string `bson:"city" json:"city" validate:"required"`
	State    string `bson:"state" json:"state" validate:"required"`
	Pincode  string `bson:"pincode" json:"pincode" validate:"required,len=6,numeric"`
}

// OrderCardDesign is the denormalized card design reference embedded in an
// order so listings do not need a catalog lookup.
type OrderCardDesign struct {
	ID         primitive.ObjectID `bson:"id" json:"id"`
	Name       string             `bson:"name" json:"name"`
	PreviewURL string             `bson:"previewUrl" json:"previewUrl"`
}

// OrderAgent is the denormalized selling agent reference embedded in an order.
type OrderAgent struct {
	ID           primitive.ObjectID `bson:"id" json:"id"`
	FullName     string             `bson:"fullName" json:"fullName"`
	ReferralCode string             `bson:"referralCode" json:"referralCode"`
}

// Order is a single card order moving through the fulfillment pipeline.
//
// MspAtOrder, CommissionAmount and OverrideCommission are snapshots: the MSP
// is captured when the order is created and the commission figures when the
// order is approved. Later edits to the card design's MSP or the agent's base
// commission must never change them.
type Order struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber int64              `bson:"orderNumber" json:"orderNumber"`

	// Customer details (denormalized)
	CustomerID       *primitive.ObjectID `bson:"customerId,omitempty" json:"customerId,omitempty"`
	CustomerName     string              `bson:"customerName" json:"customerName"`
	CustomerCompany  string              `bson:"customerCompany,omitempty" json:"customerCompany,omitempty"`
	CustomerPhone    string              `bson:"customerPhone" json:"customerPhone"`
	CustomerEmail    string              `bson:"customerEmail" json:"customerEmail"`
	CustomerWhatsapp string              `bson:"customerWhatsapp,omitempty" json:"customerWhatsapp,omitempty"`

	// Card & customization
	CardDesign   OrderCardDesign    `bson:"cardDesign" json:"cardDesign"`
	CardDesignID primitive.ObjectID `bson:"cardDesignId" json:"cardDesignId"`
	Line1Text    string             `bson:"line1Text,omitempty" json:"line1Text,omitempty"`
	Line2Text    string             `bson:"line2Text,omitempty" json:"line2Text,omitempty"`

	// Pricing. Commission fields stay zero until the approved transition.
	MspAtOrder         float64 `bson:"mspAtOrder" json:"mspAtOrder"`
	SalePrice          float64 `bson:"salePrice" json:"salePrice"`
	CommissionAmount   float64 `bson:"commissionAmount" json:"commissionAmount"`
	OverrideCommission float64 `bson:"overrideCommission" json:"overrideCommission"`

	Status        OrderStatus   `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`

	IsDirectSale bool `bson:"isDirectSale" json:"isDirectSale"`
	IsBelowMsp   bool `bson:"isBelowMsp" json:"isBelowMsp"`

	// Agent is nil for direct website sales.
	Agent   *OrderAgent         `bson:"agent,omitempty" json:"agent,omitempty"`
	AgentID *primitive.ObjectID `bson:"agentId,omitempty" json:"agentId,omitempty"`

	PortfolioSlug string `bson:"portfolioSlug,omitempty" json:"portfolioSlug,omitempty"`

	ShippingAddress *ShippingAddress `bson:"shippingAddress,omitempty" json:"shippingAddress,omitempty"`
	TrackingNumber  string           `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`

	SpecialInstructions string `bson:"specialInstructions,omitempty" json:"specialInstructions,omitempty"`
	AdminNotes          string `bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	RejectionReason     string `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	ApprovedAt  *time.Time `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	ShippedAt   *time.Time `bson:"shippedAt,omitempty" json:"shippedAt,omitempty"`
	DeliveredAt *time.Time `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	PaidAt      *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

// CreateOrderRequest is the payload an agent submits for a new order.
type CreateOrderRequest struct {
	CustomerName        string        `json:"customerName" validate:"required"`
	CustomerCompany     string        `json:"customerCompany,omitempty"`
	CustomerPhone       string        `json:"customerPhone" validate:"required"`
	CustomerEmail       string        `json:"customerEmail" validate:"required,email"`
	CustomerWhatsapp    string        `json:"customerWhatsapp,omitempty"`
	CardDesignID        string        `json:"cardDesignId" validate:"required"`
	Line1Text           string        `json:"line1Text,omitempty" validate:"max=30"`
	Line2Text           string        `json:"line2Text,omitempty" validate:"max=30"`
	SalePrice           float64       `json:"salePrice" validate:"required,gt=0"`
	PaymentStatus       PaymentStatus `json:"paymentStatus" validate:"required"`
	SpecialInstructions string        `json:"specialInstructions,omitempty"`
}

// CreateDirectOrderRequest is the website checkout payload. Direct orders
// carry no agent attribution and must include a shipping address.
type CreateDirectOrderRequest struct {
	CreateOrderRequest
	ShippingAddress ShippingAddress `json:"shippingAddress" validate:"required"`
}

// UpdateOrderStatusRequest asks the pipeline to move an order to a new
// status. TrackingNumber is required when moving to shipped, RejectionReason
// when moving to rejected.
type UpdateOrderStatusRequest struct {
	Status          OrderStatus `json:"status" validate:"required"`
	PortfolioSlug   string      `json:"portfolioSlug,omitempty"`
	AdminNotes      string      `json:"adminNotes,omitempty"`
	TrackingNumber  string      `json:"trackingNumber,omitempty"`
	RejectionReason string      `json:"rejectionReason,omitempty"`
}

// OrderListResponse is a paginated order listing.
type OrderListResponse struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Page   int64   `json:"page"`
	Limit  int64   `json:"limit"`
}

// OrderTracking is the public tracking view of an order: fulfillment fields
// only, no pricing or commission information.
type OrderTracking struct {
	OrderNumber    int64       `json:"orderNumber"`
	Status         OrderStatus `json:"status"`
	CardDesignName string      `json:"cardDesignName"`
	TrackingNumber string      `json:"trackingNumber,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	ShippedAt      *time.Time  `json:"shippedAt,omitempty"`
	DeliveredAt    *time.Time  `json:"deliveredAt,omitempty"`
}

// KanbanColumn is one column of the admin fulfillment board.
type KanbanColumn struct {
	Status OrderStatus `json:"status"`
	Orders []Order     `json:"orders"`
}
