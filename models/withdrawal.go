// models/withdrawal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal request status values. pending is the only non-terminal state.
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusPaid     = "paid"
	WithdrawalStatusRejected = "rejected"
)

// Withdrawal is an affiliate's request to be paid out their available
// commission balance via a PIX key. The covered commission ids are snapshotted
// at request time; commissions that mature later go into a future request.
type Withdrawal struct {
	ID            primitive.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	AffiliateID   primitive.ObjectID   `json:"affiliateId" bson:"affiliateId"`
	Amount        float64              `json:"amount" bson:"amount"`
	CommissionIDs []primitive.ObjectID `json:"commissionIds" bson:"commissionIds"`
	PixKey        string               `json:"pixKey" bson:"pixKey"`
	Status        string               `json:"status" bson:"status"`
	Notes         string               `json:"notes,omitempty" bson:"notes,omitempty"`
	AdminID       *primitive.ObjectID  `json:"adminId,omitempty" bson:"adminId,omitempty"`
	CreatedAt     time.Time            `json:"createdAt" bson:"createdAt"`
	ProcessedAt   *time.Time           `json:"processedAt,omitempty" bson:"processedAt,omitempty"`
}

type WithdrawalRequestBody struct {
	PixKey string `json:"pixKey" validate:"required"`
}

type WithdrawalDecisionBody struct {
	Notes string `json:"notes,omitempty"`
}
