package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CouponTypePercent = "percent"
	CouponTypeFixed   = "fixed"
)

// Coupon is a discount rule identified by a unique uppercase code.
// Value is a percentage for percent coupons and a currency amount for fixed ones.
type Coupon struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code           string             `bson:"code" json:"code"`
	Type           string             `bson:"type" json:"type"`
	Value          float64            `bson:"value" json:"value"`
	MinOrderAmount int64              `bson:"min_order_amount" json:"minOrderAmount"`
	MaxDiscount    *int64             `bson:"max_discount,omitempty" json:"maxDiscount,omitempty"`
	ExpiresAt      *time.Time         `bson:"expires_at,omitempty" json:"expiresAt,omitempty"`
	IsActive       bool               `bson:"is_active" json:"isActive"`
	UsageLimit     *int64             `bson:"usage_limit,omitempty" json:"usageLimit,omitempty"`
	UsedCount      int64              `bson:"used_count" json:"usedCount"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
}
