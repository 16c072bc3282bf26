// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a login identity. Agents and customers each get one; UserType is
// "admin", "agent" or "customer". Agent users carry the agent document's id
// in AgentID.
type User struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email     string              `json:"email" bson:"email"`
	Password  string              `json:"-" bson:"password"`
	FullName  string              `json:"fullName" bson:"fullName"`
	UserType  string              `json:"userType" bson:"userType"`
	AgentID   *primitive.ObjectID `json:"agentId,omitempty" bson:"agentId,omitempty"`
	IsActive  bool                `json:"isActive" bson:"isActive"`
	FcmToken  string              `json:"-" bson:"fcmToken,omitempty"`
	CreatedAt time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// LoginRequest is the login payload for all three roles.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
