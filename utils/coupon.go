package utils

import (
	"math"
	"time"

	"go-storefront/models"
)

// ComputeDiscount evaluates a coupon against an order subtotal. It returns the
// discount amount and whether the coupon was applicable at all. A nil coupon,
// an inactive or expired coupon, an exhausted usage limit, or a subtotal below
// the coupon minimum all yield (0, false).
//
// Percent coupons discount round(subtotal*value/100); fixed coupons discount
// round(value). The result is capped at MaxDiscount when set, then clamped to
// [0, subtotal]. The evaluation is side-effect-free: usage counts are only
// incremented on confirmed payment.
func ComputeDiscount(coupon *models.Coupon, subtotal int64, now time.Time) (int64, bool) {
	if coupon == nil || !coupon.IsActive {
		return 0, false
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(now) {
		return 0, false
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return 0, false
	}
	if subtotal < coupon.MinOrderAmount {
		return 0, false
	}

	var discount int64
	switch coupon.Type {
	case models.CouponTypePercent:
		discount = int64(math.Round(float64(subtotal) * coupon.Value / 100))
	case models.CouponTypeFixed:
		discount = int64(math.Round(coupon.Value))
	default:
		return 0, false
	}

	if coupon.MaxDiscount != nil && discount > *coupon.MaxDiscount {
		discount = *coupon.MaxDiscount
	}
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount, true
}
