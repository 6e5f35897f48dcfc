package utils

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// ErrGatewayNotConfigured is returned when Razorpay credentials are missing
var ErrGatewayNotConfigured = errors.New("razorpay is not configured (missing RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET)")

// RazorpayGateway wraps the Razorpay client. It is constructed once in main and
// injected where needed; there is no process-wide lazy instance.
type RazorpayGateway struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
}

// NewRazorpayGateway builds a gateway adapter. With empty credentials the
// adapter still constructs, but CreateOrder fails with ErrGatewayNotConfigured
// so the error surfaces per request rather than at startup.
func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	g := &RazorpayGateway{keyID: keyID, keySecret: keySecret}
	if keyID != "" && keySecret != "" {
		g.client = razorpay.NewClient(keyID, keySecret)
	}
	return g
}

// KeyID returns the public key id the client needs to open the payment widget
func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// CreateOrder creates a remote gateway order sized in minor currency units and
// returns the gateway order id.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	if g.client == nil {
		return "", ErrGatewayNotConfigured
	}

	data := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay order create: %w", err)
	}
	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("razorpay order create: missing order id in response")
	}
	return id, nil
}

// VerifySignature checks the signature echoed back by the payment widget
func (g *RazorpayGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return VerifyRazorpaySignature(gatewayOrderID, paymentID, signature, g.keySecret)
}

// VerifyRazorpaySignature computes HMAC-SHA256 over "orderId|paymentId" with
// the key secret and compares hex digests. A missing secret never verifies:
// anyone can compute an HMAC keyed with the empty string.
func VerifyRazorpaySignature(gatewayOrderID, paymentID, signature, keySecret string) bool {
	if keySecret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
