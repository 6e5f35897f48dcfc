package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/models"
	"go-storefront/utils"
)

// AdminController handles management and analytics screens
type AdminController struct {
	UserCollection    *mongo.Collection
	ProductCollection *mongo.Collection
	OrderCollection   *mongo.Collection
	ContactCollection *mongo.Collection
}

// NewAdminController creates a new AdminController
func NewAdminController(client *mongo.Client) *AdminController {
	db := client.Database("storefront")
	return &AdminController{
		UserCollection:    db.Collection("users"),
		ProductCollection: db.Collection("products"),
		OrderCollection:   db.Collection("orders"),
		ContactCollection: db.Collection("contact_messages"),
	}
}

// revenue counts orders that made it past payment
var revenueStatuses = bson.A{
	models.OrderStatusPaid,
	models.OrderStatusPacked,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
}

// ListUsers retrieves recent users
func (ac *AdminController) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(200).
		SetProjection(bson.M{"name": 1, "email": 1, "role": 1, "is_email_verified": 1, "created_at": 1})
	cursor, err := ac.UserCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": users})
}

// Stats returns entity counts
func (ac *AdminController) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	users, err := ac.UserCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	products, err := ac.ProductCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	orders, err := ac.OrderCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]int64{
		"users":    users,
		"products": products,
		"orders":   orders,
	})
}

// Analytics returns 30-day revenue-by-day and all-time top products
func (ac *AdminController) Analytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	last30 := time.Now().AddDate(0, 0, -30)

	salesPipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$in", Value: revenueStatuses}}},
			{Key: "created_at", Value: bson.D{{Key: "$gte", Value: last30}}},
		}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
				{Key: "format", Value: "%Y-%m-%d"},
				{Key: "date", Value: "$created_at"},
			}}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
			{Key: "orders", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	salesCursor, err := ac.OrderCollection.Aggregate(ctx, salesPipeline)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	defer salesCursor.Close(ctx)

	salesByDay := []bson.M{}
	if err := salesCursor.All(ctx, &salesByDay); err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	topPipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$in", Value: revenueStatuses}}},
		}}},
		bson.D{{Key: "$unwind", Value: "$items"}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$items.product"},
			{Key: "qty", Value: bson.D{{Key: "$sum", Value: "$items.quantity"}}},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$multiply", Value: bson.A{"$items.price", "$items.quantity"}},
			}}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}}}},
		bson.D{{Key: "$limit", Value: 8}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "products"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "product"},
		}}},
		bson.D{{Key: "$unwind", Value: "$product"}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "productId", Value: "$product._id"},
			{Key: "name", Value: "$product.name"},
			{Key: "revenue", Value: 1},
			{Key: "qty", Value: 1},
		}}},
	}
	topCursor, err := ac.OrderCollection.Aggregate(ctx, topPipeline)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	defer topCursor.Close(ctx)

	topProducts := []bson.M{}
	if err := topCursor.All(ctx, &topProducts); err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"salesByDay":  salesByDay,
		"topProducts": topProducts,
	})
}

// ListOrders retrieves recent orders across all users
func (ac *AdminController) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(200)
	cursor, err := ac.OrderCollection.Find(ctx, bson.M{}, opts)
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

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateOrderStatus drives fulfillment transitions. Illegal transitions (for
// example reversing paid, or leaving delivered/cancelled) are rejected.
func (ac *AdminController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req updateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !models.ValidOrderStatus(req.Status) {
		utils.WriteError(w, http.StatusBadRequest, "Invalid order status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	if err := ac.OrderCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		utils.WriteError(w, http.StatusNotFound, "Order not found")
		return
	}

	if !models.CanTransition(order.Status, req.Status) {
		utils.WriteErrorCode(w, http.StatusConflict,
			"Cannot change order status from "+order.Status+" to "+req.Status, "INVALID_TRANSITION")
		return
	}

	// The status filter keeps a concurrent transition from being overwritten.
	result, err := ac.OrderCollection.UpdateOne(ctx,
		bson.M{"_id": id, "status": order.Status},
		bson.M{"$set": bson.M{"status": req.Status}},
	)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	if result.ModifiedCount == 0 {
		utils.WriteErrorCode(w, http.StatusConflict, "Order status changed concurrently", "CONFLICT")
		return
	}

	order.Status = req.Status
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}

// ListContacts retrieves contact-form messages
func (ac *AdminController) ListContacts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(200)
	cursor, err := ac.ContactCollection.Find(ctx, bson.M{}, opts)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	defer cursor.Close(ctx)

	messages := []models.ContactMessage{}
	if err := cursor.All(ctx, &messages); err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": messages})
}
