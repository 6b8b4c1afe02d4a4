// models/coupon.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Coupon discount types
const (
	CouponTypePercent = "percent"
	CouponTypeFixed   = "fixed"
)

type Coupon struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Code       string             `json:"code" bson:"code"`
	Type       string             `json:"type" bson:"type"` // "percent" or "fixed"
	Value      float64            `json:"value" bson:"value"`
	MinTotal   float64            `json:"minTotal,omitempty" bson:"minTotal,omitempty"`
	ValidFrom  time.Time          `json:"validFrom" bson:"validFrom"`
	ValidUntil time.Time          `json:"validUntil" bson:"validUntil"`
	MaxUses    int                `json:"maxUses,omitempty" bson:"maxUses,omitempty"`
	UsedCount  int                `json:"usedCount" bson:"usedCount"`
	IsActive   bool               `json:"isActive" bson:"isActive"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

type CouponRequest struct {
	Code       string    `json:"code" validate:"required"`
	Type       string    `json:"type" validate:"required,oneof=percent fixed"`
	Value      float64   `json:"value" validate:"required,gt=0"`
	MinTotal   float64   `json:"minTotal,omitempty"`
	ValidFrom  time.Time `json:"validFrom"`
	ValidUntil time.Time `json:"validUntil"`
	MaxUses    int       `json:"maxUses,omitempty"`
	IsActive   *bool     `json:"isActive,omitempty"`
}

// DiscountFor returns the discount this coupon grants on the given subtotal.
func (c *Coupon) DiscountFor(subtotal float64) float64 {
	var discount float64
	switch c.Type {
	case CouponTypePercent:
		discount = subtotal * c.Value / 100
	case CouponTypeFixed:
		discount = c.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}

// IsValidAt reports whether the coupon can be applied at the given time for
// the given subtotal.
func (c *Coupon) IsValidAt(now time.Time, subtotal float64) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	if c.MinTotal > 0 && subtotal < c.MinTotal {
		return false
	}
	if c.MaxUses > 0 && c.UsedCount >= c.MaxUses {
		return false
	}
	return true
}
