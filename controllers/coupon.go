package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/models"
	"go-storefront/utils"
)

// CouponController handles coupon application and admin management
type CouponController struct {
	Collection *mongo.Collection
}

// NewCouponController creates a new CouponController
func NewCouponController(client *mongo.Client) *CouponController {
	return &CouponController{Collection: client.Database("storefront").Collection("coupons")}
}

type applyCouponRequest struct {
	Code     string `json:"code" validate:"required,min=3"`
	Subtotal int64  `json:"subtotal" validate:"gte=0"`
}

type upsertCouponRequest struct {
	Code           string  `json:"code" validate:"required,min=3"`
	Type           string  `json:"type" validate:"required,oneof=percent fixed"`
	Value          float64 `json:"value" validate:"required,gt=0"`
	MinOrderAmount *int64  `json:"minOrderAmount,omitempty" validate:"omitempty,gte=0"`
	MaxDiscount    *int64  `json:"maxDiscount,omitempty" validate:"omitempty,gt=0"`
	ExpiresAt      *string `json:"expiresAt,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
	UsageLimit     *int64  `json:"usageLimit,omitempty" validate:"omitempty,gt=0"`
}

// ApplyCoupon evaluates a coupon against a client-computed subtotal. It never
// consumes usage; that happens only on confirmed payment.
func (cc *CouponController) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var coupon models.Coupon
	err := cc.Collection.FindOne(ctx, bson.M{"code": strings.ToUpper(req.Code), "is_active": true}).Decode(&coupon)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid coupon")
		return
	}

	discount, ok := utils.ComputeDiscount(&coupon, req.Subtotal, time.Now())
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid coupon")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"discount": discount,
		"coupon": map[string]interface{}{
			"code":  coupon.Code,
			"type":  coupon.Type,
			"value": coupon.Value,
		},
	})
}

// ListCoupons returns all coupons (Admin only)
func (cc *CouponController) ListCoupons(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := cc.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	defer cursor.Close(ctx)

	coupons := []models.Coupon{}
	if err := cursor.All(ctx, &coupons); err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": coupons})
}

// CreateCoupon adds a new coupon (Admin only)
func (cc *CouponController) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req upsertCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	code := strings.ToUpper(req.Code)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	count, err := cc.Collection.CountDocuments(ctx, bson.M{"code": code})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	if count > 0 {
		utils.WriteError(w, http.StatusConflict, "Coupon already exists")
		return
	}

	coupon := models.Coupon{
		Code:        code,
		Type:        req.Type,
		Value:       req.Value,
		MaxDiscount: req.MaxDiscount,
		IsActive:    true,
		UsageLimit:  req.UsageLimit,
		CreatedAt:   time.Now(),
	}
	if req.MinOrderAmount != nil {
		coupon.MinOrderAmount = *req.MinOrderAmount
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if req.ExpiresAt != nil {
		expires, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid expiresAt timestamp")
			return
		}
		coupon.ExpiresAt = &expires
	}

	result, err := cc.Collection.InsertOne(ctx, coupon)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	coupon.ID = result.InsertedID.(primitive.ObjectID)

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{"coupon": coupon})
}

// UpdateCoupon modifies a coupon (Admin only)
func (cc *CouponController) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid coupon ID")
		return
	}

	var req upsertCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	set := bson.M{}
	if req.Code != "" {
		set["code"] = strings.ToUpper(req.Code)
	}
	if req.Type != "" {
		if req.Type != models.CouponTypePercent && req.Type != models.CouponTypeFixed {
			utils.WriteError(w, http.StatusBadRequest, "Invalid coupon type")
			return
		}
		set["type"] = req.Type
	}
	if req.Value > 0 {
		set["value"] = req.Value
	}
	if req.MinOrderAmount != nil {
		set["min_order_amount"] = *req.MinOrderAmount
	}
	if req.MaxDiscount != nil {
		set["max_discount"] = *req.MaxDiscount
	}
	if req.ExpiresAt != nil {
		expires, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid expiresAt timestamp")
			return
		}
		set["expires_at"] = expires
	}
	if req.IsActive != nil {
		set["is_active"] = *req.IsActive
	}
	if req.UsageLimit != nil {
		set["usage_limit"] = *req.UsageLimit
	}
	if len(set) == 0 {
		utils.WriteError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	result, err := cc.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	if result.MatchedCount == 0 {
		utils.WriteError(w, http.StatusNotFound, "Coupon not found")
		return
	}

	var coupon models.Coupon
	if err := cc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&coupon); err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"coupon": coupon})
}

// DeleteCoupon removes a coupon (Admin only)
func (cc *CouponController) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid coupon ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := cc.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	if result.DeletedCount == 0 {
		utils.WriteError(w, http.StatusNotFound, "Coupon not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
