package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go-storefront/models"
)

func percentCoupon(value float64) *models.Coupon {
	return &models.Coupon{
		Code:     "SAVE",
		Type:     models.CouponTypePercent,
		Value:    value,
		IsActive: true,
	}
}

func fixedCoupon(value float64) *models.Coupon {
	return &models.Coupon{
		Code:     "FLAT",
		Type:     models.CouponTypeFixed,
		Value:    value,
		IsActive: true,
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestComputeDiscountPercent(t *testing.T) {
	now := time.Now()

	coupon := percentCoupon(10)
	coupon.MinOrderAmount = 500

	discount, ok := ComputeDiscount(coupon, 1000, now)
	assert.True(t, ok)
	assert.Equal(t, int64(100), discount)
}

func TestComputeDiscountPercentRounds(t *testing.T) {
	discount, ok := ComputeDiscount(percentCoupon(10), 105, time.Now())
	assert.True(t, ok)
	assert.Equal(t, int64(11), discount) // 10.5 rounds up
}

func TestComputeDiscountFixedClampedToSubtotal(t *testing.T) {
	discount, ok := ComputeDiscount(fixedCoupon(2000), 1000, time.Now())
	assert.True(t, ok)
	assert.Equal(t, int64(1000), discount)
}

func TestComputeDiscountMaxDiscountCap(t *testing.T) {
	coupon := percentCoupon(50)
	coupon.MaxDiscount = int64Ptr(200)

	discount, ok := ComputeDiscount(coupon, 1000, time.Now())
	assert.True(t, ok)
	assert.Equal(t, int64(200), discount)
}

func TestComputeDiscountBelowMinimum(t *testing.T) {
	coupon := percentCoupon(10)
	coupon.MinOrderAmount = 500

	discount, ok := ComputeDiscount(coupon, 499, time.Now())
	assert.False(t, ok)
	assert.Zero(t, discount)
}

func TestComputeDiscountExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	coupon := percentCoupon(10)
	coupon.ExpiresAt = &past

	_, ok := ComputeDiscount(coupon, 1000, now)
	assert.False(t, ok)
}

func TestComputeDiscountNotYetExpired(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	coupon := percentCoupon(10)
	coupon.ExpiresAt = &future

	discount, ok := ComputeDiscount(coupon, 1000, now)
	assert.True(t, ok)
	assert.Equal(t, int64(100), discount)
}

func TestComputeDiscountUsageLimitReached(t *testing.T) {
	coupon := percentCoupon(10)
	coupon.UsageLimit = int64Ptr(5)
	coupon.UsedCount = 5

	_, ok := ComputeDiscount(coupon, 1000, time.Now())
	assert.False(t, ok)
}

func TestComputeDiscountUsageLimitRemaining(t *testing.T) {
	coupon := percentCoupon(10)
	coupon.UsageLimit = int64Ptr(5)
	coupon.UsedCount = 4

	_, ok := ComputeDiscount(coupon, 1000, time.Now())
	assert.True(t, ok)
}

func TestComputeDiscountInactive(t *testing.T) {
	coupon := percentCoupon(10)
	coupon.IsActive = false

	_, ok := ComputeDiscount(coupon, 1000, time.Now())
	assert.False(t, ok)
}

func TestComputeDiscountNilCoupon(t *testing.T) {
	discount, ok := ComputeDiscount(nil, 1000, time.Now())
	assert.False(t, ok)
	assert.Zero(t, discount)
}

func TestComputeDiscountUnknownType(t *testing.T) {
	coupon := &models.Coupon{Code: "ODD", Type: "bogus", Value: 10, IsActive: true}

	_, ok := ComputeDiscount(coupon, 1000, time.Now())
	assert.False(t, ok)
}
