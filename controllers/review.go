package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/models"
	"go-storefront/utils"
)

// ReviewController handles product reviews
type ReviewController struct {
	Collection        *mongo.Collection
	ProductCollection *mongo.Collection
	UserCollection    *mongo.Collection
}

// NewReviewController creates a new ReviewController
func NewReviewController(client *mongo.Client) *ReviewController {
	db := client.Database("storefront")
	return &ReviewController{
		Collection:        db.Collection("reviews"),
		ProductCollection: db.Collection("products"),
		UserCollection:    db.Collection("users"),
	}
}

type createReviewRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Title     string `json:"title,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// ListReviews retrieves recent reviews, optionally filtered by product
func (rc *ReviewController) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if productID := r.URL.Query().Get("productId"); productID != "" {
		id, err := primitive.ObjectIDFromHex(productID)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}
		filter["product_id"] = id
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(50)
	cursor, err := rc.Collection.Find(ctx, filter, opts)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": reviews})
}

// CreateOrUpdateReview upserts the caller's review for a product and folds the
// new rating aggregate back onto the product document.
func (rc *ReviewController) CreateOrUpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	if err := rc.ProductCollection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		utils.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}

	var user models.User
	if err := rc.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	now := time.Now()
	upsertOpts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var review models.Review
	err = rc.Collection.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID, "product_id": productID},
		bson.M{
			"$set": bson.M{
				"rating":     req.Rating,
				"title":      req.Title,
				"comment":    req.Comment,
				"user_name":  user.Name,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{"created_at": now},
		},
		upsertOpts,
	).Decode(&review)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	// Recompute the product's rating aggregate.
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "product_id", Value: productID}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$product_id"},
			{Key: "avg", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := rc.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	defer cursor.Close(ctx)

	var stats []struct {
		Avg   float64 `bson:"avg"`
		Count int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &stats); err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	ratingAvg, ratingCount := 0.0, int64(0)
	if len(stats) > 0 {
		ratingAvg, ratingCount = stats[0].Avg, stats[0].Count
	}
	_, err = rc.ProductCollection.UpdateOne(ctx, bson.M{"_id": productID}, bson.M{
		"$set": bson.M{"rating_avg": ratingAvg, "rating_count": ratingCount},
	})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{"review": review})
}
