package controllers

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/models"
	"go-storefront/utils"
)

// RecommendationController serves related-product suggestions
type RecommendationController struct {
	ProductCollection *mongo.Collection
}

// NewRecommendationController creates a new RecommendationController
func NewRecommendationController(client *mongo.Client) *RecommendationController {
	return &RecommendationController{
		ProductCollection: client.Database("storefront").Collection("products"),
	}
}

const recommendationLimit = 8

// Related suggests products sharing the base product's category or tags,
// most popular first. Without a productId it falls back to overall bestsellers.
func (rc *RecommendationController) Related(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"is_active": true}
	if raw := r.URL.Query().Get("productId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}
		var base models.Product
		if err := rc.ProductCollection.FindOne(ctx, bson.M{"_id": id}).Decode(&base); err != nil {
			utils.WriteError(w, http.StatusNotFound, "Product not found")
			return
		}
		filter["_id"] = bson.M{"$ne": base.ID}
		related := bson.A{bson.M{"category": base.Category}}
		if len(base.Tags) > 0 {
			related = append(related, bson.M{"tags": bson.M{"$in": base.Tags}})
		}
		filter["$or"] = related
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "popularity", Value: -1}, {Key: "created_at", Value: -1}}).
		SetLimit(recommendationLimit)
	cursor, err := rc.ProductCollection.Find(ctx, filter, opts)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	// Pad with bestsellers when the related pool is thin.
	if len(products) < recommendationLimit && filter["$or"] != nil {
		seen := map[primitive.ObjectID]bool{}
		for _, p := range products {
			seen[p.ID] = true
		}
		fallback := bson.M{"is_active": true}
		if excluded, ok := filter["_id"]; ok {
			fallback["_id"] = excluded
		}
		extraCursor, err := rc.ProductCollection.Find(ctx, fallback, opts)
		if err == nil {
			extra := []models.Product{}
			if err := extraCursor.All(ctx, &extra); err == nil {
				for _, p := range extra {
					if len(products) >= recommendationLimit {
						break
					}
					if !seen[p.ID] {
						products = append(products, p)
					}
				}
			}
			extraCursor.Close(ctx)
		}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": products})
}
