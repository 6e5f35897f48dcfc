package controllers

import (
	"net/http"

	"go-storefront/utils"
)

// PaymentController exposes the public checkout configuration
type PaymentController struct {
	Gateway *utils.RazorpayGateway
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(gateway *utils.RazorpayGateway) *PaymentController {
	return &PaymentController{Gateway: gateway}
}

// Key returns the publishable gateway key the frontend needs to open checkout
func (pc *PaymentController) Key(w http.ResponseWriter, r *http.Request) {
	keyID := pc.Gateway.KeyID()
	if keyID == "" {
		utils.WriteErrorCode(w, http.StatusServiceUnavailable, "Payment gateway is not configured", "GATEWAY_NOT_CONFIGURED")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"keyId": keyID})
}
