// models/commission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Commission status values. Transitions only move forward:
// pending -> confirmed -> paid.
const (
	CommissionStatusPending   = "pending"
	CommissionStatusConfirmed = "confirmed"
	CommissionStatusPaid      = "paid"
)

// Commission records money owed to an affiliate for a single referred order.
// It is created pending when the order is placed, confirmed when the order is
// delivered, and paid when a withdrawal covering it is approved (or when an
// admin pays the affiliate directly).
type Commission struct {
	ID                primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OrderID           primitive.ObjectID `json:"orderId" bson:"orderId"`
	AffiliateID       primitive.ObjectID `json:"affiliateId" bson:"affiliateId"`
	ReferredUserEmail string             `json:"referredUserEmail" bson:"referredUserEmail"`
	Amount            float64            `json:"amount" bson:"amount"`
	Status            string             `json:"status" bson:"status"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	ConfirmedAt       *time.Time         `json:"confirmedAt,omitempty" bson:"confirmedAt,omitempty"`
	// AvailableAt is the moment the commission starts counting toward the
	// affiliate's withdrawable balance. Only meaningful once confirmed.
	AvailableAt *time.Time `json:"availableForWithdrawalAt,omitempty" bson:"availableAt,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
}

// CommissionBalance is the read-side answer to "how much can this affiliate
// withdraw right now", recomputed on demand.
type CommissionBalance struct {
	Commissions []Commission `json:"commissions"`
	Amount      float64      `json:"amount"`
}

// CommissionSummary aggregates an affiliate's earnings for the dashboard.
type CommissionSummary struct {
	Available   float64 `json:"available"`
	Maturing    float64 `json:"maturing"`
	Outstanding float64 `json:"outstanding"`
	TotalPaid   float64 `json:"totalPaid"`
}
