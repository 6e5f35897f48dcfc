// controllers/order.go
package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/services"
	"go-storefront/utils"
)

// OrderController handles checkout, payment verification and order listing
type OrderController struct {
	Service         *services.OrderService
	OrderCollection *mongo.Collection
	UserCollection  *mongo.Collection
	EmailService    *utils.EmailService
}

// NewOrderController creates a new OrderController
func NewOrderController(client *mongo.Client, service *services.OrderService, emailService *utils.EmailService) *OrderController {
	db := client.Database("storefront")
	return &OrderController{
		Service:         service,
		OrderCollection: db.Collection("orders"),
		UserCollection:  db.Collection("users"),
		EmailService:    emailService,
	}
}

func authedUserID(r *http.Request) (primitive.ObjectID, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// CreateOrder assembles an order from the submitted cart and returns it along
// with the gateway parameters the client needs to open the payment widget.
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req services.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateAddress(req.Address); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	order, checkout, err := oc.Service.CreateOrder(ctx, userID, req)
	if err != nil {
		oc.writeOrderError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"order":    order,
		"razorpay": checkout,
	})
}

// VerifyPayment confirms a gateway callback and returns the updated order
func (oc *OrderController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req services.VerifyPaymentInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	order, confirmed, err := oc.Service.VerifyPayment(ctx, userID, req)
	if err != nil {
		oc.writeOrderError(w, err)
		return
	}

	// Email only on the call that actually confirmed the payment; re-polled
	// verifications of an already paid order stay silent.
	if confirmed {
		// Fire-and-forget relative to the response.
		go func(userID primitive.ObjectID, order *models.Order) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			var user models.User
			if err := oc.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
				return
			}
			if err := oc.EmailService.SendOrderConfirmationEmail(user.Email, order); err != nil {
				log.Printf("Failed to send order confirmation to %s: %v", user.Email, err)
			}
		}(userID, order)
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "order": order})
}

// ListMyOrders retrieves the authenticated user's recent orders
func (oc *OrderController) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(50)
	cursor, err := oc.OrderCollection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": orders})
}

// writeOrderError maps service errors onto the error taxonomy
func (oc *OrderController) writeOrderError(w http.ResponseWriter, err error) {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.Is(err, services.ErrProductsUnavailable):
		utils.WriteErrorCode(w, http.StatusBadRequest, "Some products are unavailable", "PRODUCTS_UNAVAILABLE")
	case errors.As(err, &stockErr):
		utils.WriteErrorCode(w, http.StatusConflict, "Insufficient stock for "+stockErr.ProductName, "INSUFFICIENT_STOCK")
	case errors.Is(err, services.ErrOrderNotFound):
		utils.WriteError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, services.ErrGatewayOrderMismatch):
		utils.WriteErrorCode(w, http.StatusBadRequest, "Mismatched Razorpay order", "GATEWAY_ORDER_MISMATCH")
	case errors.Is(err, services.ErrInvalidSignature):
		utils.WriteErrorCode(w, http.StatusBadRequest, "Invalid payment signature", "INVALID_SIGNATURE")
	case errors.Is(err, utils.ErrGatewayNotConfigured):
		utils.WriteError(w, http.StatusInternalServerError, utils.ErrGatewayNotConfigured.Error())
	default:
		utils.WriteInternalError(w, err)
	}
}

func validateAddress(a models.Address) error {
	type addressCheck struct {
		FullName   string `validate:"required,min=2"`
		Phone      string `validate:"required,min=7"`
		Line1      string `validate:"required,min=2"`
		City       string `validate:"required,min=2"`
		State      string `validate:"required,min=2"`
		PostalCode string `validate:"required,min=3"`
	}
	return utils.Validate(addressCheck{
		FullName:   a.FullName,
		Phone:      a.Phone,
		Line1:      a.Line1,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
	})
}
