// models/coupon_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validCoupon() Coupon {
	return Coupon{
		Code:       "WELCOME10",
		Type:       CouponTypePercent,
		Value:      10,
		ValidFrom:  time.Now().Add(-24 * time.Hour),
		ValidUntil: time.Now().Add(24 * time.Hour),
		IsActive:   true,
	}
}

func TestDiscountFor(t *testing.T) {
	percent := validCoupon()
	assert.Equal(t, 20.0, percent.DiscountFor(200))

	fixed := validCoupon()
	fixed.Type = CouponTypeFixed
	fixed.Value = 30
	assert.Equal(t, 30.0, fixed.DiscountFor(200))

	// A fixed discount never exceeds the subtotal
	assert.Equal(t, 15.0, fixed.DiscountFor(15))
}

func TestIsValidAt(t *testing.T) {
	now := time.Now()

	coupon := validCoupon()
	assert.True(t, coupon.IsValidAt(now, 100))

	inactive := validCoupon()
	inactive.IsActive = false
	assert.False(t, inactive.IsValidAt(now, 100))

	expired := validCoupon()
	expired.ValidUntil = now.Add(-time.Hour)
	assert.False(t, expired.IsValidAt(now, 100))

	notYet := validCoupon()
	notYet.ValidFrom = now.Add(time.Hour)
	assert.False(t, notYet.IsValidAt(now, 100))

	belowMin := validCoupon()
	belowMin.MinTotal = 150
	assert.False(t, belowMin.IsValidAt(now, 100))
	assert.True(t, belowMin.IsValidAt(now, 150))

	usedUp := validCoupon()
	usedUp.MaxUses = 5
	usedUp.UsedCount = 5
	assert.False(t, usedUp.IsValidAt(now, 100))
}
