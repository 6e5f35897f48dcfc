package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []string{
		OrderStatusPendingPayment, OrderStatusPaid, OrderStatusPacked,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
	} {
		assert.True(t, ValidOrderStatus(s), s)
	}
	assert.False(t, ValidOrderStatus("refunded"))
	assert.False(t, ValidOrderStatus(""))
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusPendingPayment, OrderStatusPaid, true},
		{OrderStatusPaid, OrderStatusPacked, true},
		{OrderStatusPacked, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},

		// cancellation is allowed until delivery
		{OrderStatusPendingPayment, OrderStatusCancelled, true},
		{OrderStatusPaid, OrderStatusCancelled, true},
		{OrderStatusPacked, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusCancelled, true},

		// no skipping, reversing, or leaving terminal states
		{OrderStatusPendingPayment, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusPendingPayment, false},
		{OrderStatusShipped, OrderStatusPacked, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusShipped, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
		{OrderStatusPaid, OrderStatusPaid, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}
