package utils

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signPayload(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyRazorpaySignatureValid(t *testing.T) {
	secret := "test_secret"
	sig := signPayload("order_abc", "pay_xyz", secret)

	assert.True(t, VerifyRazorpaySignature("order_abc", "pay_xyz", sig, secret))
}

func TestVerifyRazorpaySignatureTampered(t *testing.T) {
	secret := "test_secret"
	sig := signPayload("order_abc", "pay_xyz", secret)

	assert.False(t, VerifyRazorpaySignature("order_abc", "pay_other", sig, secret))
	assert.False(t, VerifyRazorpaySignature("order_other", "pay_xyz", sig, secret))
	assert.False(t, VerifyRazorpaySignature("order_abc", "pay_xyz", sig+"00", secret))
	assert.False(t, VerifyRazorpaySignature("order_abc", "pay_xyz", sig, "wrong_secret"))
}

func TestGatewayVerifySignatureUsesConfiguredSecret(t *testing.T) {
	g := NewRazorpayGateway("rzp_test_key", "the_secret")
	sig := signPayload("order_1", "pay_1", "the_secret")

	assert.True(t, g.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, g.VerifySignature("order_1", "pay_1", signPayload("order_1", "pay_1", "other")))
}

func TestVerifyRazorpaySignatureEmptySecret(t *testing.T) {
	// An empty secret would let anyone forge a verifiable signature, so it
	// never verifies, not even against its own HMAC.
	sig := signPayload("order_abc", "pay_xyz", "")

	assert.False(t, VerifyRazorpaySignature("order_abc", "pay_xyz", sig, ""))

	g := NewRazorpayGateway("", "")
	assert.False(t, g.VerifySignature("order_abc", "pay_xyz", sig))
}

func TestGatewayCreateOrderUnconfigured(t *testing.T) {
	g := NewRazorpayGateway("", "")

	_, err := g.CreateOrder(context.Background(), 1000, "INR", "order_x")
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
	assert.Empty(t, g.KeyID())
}
