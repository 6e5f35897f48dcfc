package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order lifecycle statuses
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusPacked         = "packed"
	OrderStatusShipped        = "shipped"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// OrderItem is a snapshot of a product at order time. Price and name are frozen
// so later catalog edits never change what the customer agreed to pay.
type OrderItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Name     string             `bson:"name" json:"name"`
	Price    int64              `bson:"price" json:"price"`
	Quantity int64              `bson:"quantity" json:"quantity"`
	Image    string             `bson:"image,omitempty" json:"image,omitempty"`
}

// Order represents a purchase: snapshotted items, address, computed totals and
// payment/fulfillment state
type Order struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID            primitive.ObjectID  `bson:"user_id" json:"userId"`
	Items             []OrderItem         `bson:"items" json:"items"`
	Address           Address             `bson:"address" json:"address"`
	Status            string              `bson:"status" json:"status"`
	Currency          string              `bson:"currency" json:"currency"`
	Subtotal          int64               `bson:"subtotal" json:"subtotal"`
	Discount          int64               `bson:"discount" json:"discount"`
	Total             int64               `bson:"total" json:"total"`
	Coupon            *primitive.ObjectID `bson:"coupon,omitempty" json:"coupon,omitempty"`
	PaymentProvider   string              `bson:"payment_provider" json:"paymentProvider"`
	RazorpayOrderID   string              `bson:"razorpay_order_id,omitempty" json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID string              `bson:"razorpay_payment_id,omitempty" json:"razorpayPaymentId,omitempty"`
	RazorpaySignature string              `bson:"razorpay_signature,omitempty" json:"razorpaySignature,omitempty"`
	PaidAt            *time.Time          `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	CreatedAt         time.Time           `bson:"created_at" json:"createdAt"`
}

// orderTransitions lists the allowed status changes. Fulfillment is linear to
// delivered; cancellation is allowed from any state before delivery. Nothing
// moves an order out of delivered or cancelled, and paid is never reversed to
// pending_payment.
var orderTransitions = map[string][]string{
	OrderStatusPendingPayment: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:           {OrderStatusPacked, OrderStatusCancelled},
	OrderStatusPacked:         {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:        {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
