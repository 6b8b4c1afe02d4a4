// models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles
const (
	RoleUser      = "user"
	RoleAffiliate = "affiliate"
	RoleAdmin     = "admin"
)

// User represents an account on the platform. Affiliates are users with
// Role = "affiliate" and a referral code; customers who signed up through a
// referral link carry the affiliate's ID in ReferredBy.
type User struct {
	ID           primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Email        string              `json:"email" bson:"email"`
	Password     string              `json:"password,omitempty" bson:"password"`
	FullName     string              `json:"fullName" bson:"fullName"`
	Role         string              `json:"role" bson:"role"` // "user", "affiliate", "admin"
	Phone        string              `json:"phone,omitempty" bson:"phone,omitempty"`
	ReferralCode string              `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	ReferredBy   *primitive.ObjectID `json:"referredBy,omitempty" bson:"referredBy,omitempty"`
	PixKey       string              `json:"pixKey,omitempty" bson:"pixKey,omitempty"`
	IsActive     bool                `json:"isActive" bson:"isActive"`
	LastActivity time.Time           `json:"lastActivity,omitempty" bson:"lastActivity,omitempty"`
	CreatedAt    time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type UpdateProfileRequest struct {
	FullName string `json:"fullName,omitempty"`
	Phone    string `json:"phone,omitempty"`
	PixKey   string `json:"pixKey,omitempty"`
}
