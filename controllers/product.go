package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/models"
	"go-storefront/realtime"
	"go-storefront/utils"
)

// ProductController handles catalog requests
type ProductController struct {
	Collection         *mongo.Collection
	CategoryCollection *mongo.Collection
	Hub                *realtime.Hub
}

// NewProductController creates a new ProductController
func NewProductController(client *mongo.Client, hub *realtime.Hub) *ProductController {
	db := client.Database("storefront")
	return &ProductController{
		Collection:         db.Collection("products"),
		CategoryCollection: db.Collection("categories"),
		Hub:                hub,
	}
}

type upsertProductRequest struct {
	Name           string            `json:"name" validate:"required,min=2"`
	CategorySlug   string            `json:"categorySlug" validate:"required"`
	Price          int64             `json:"price" validate:"required,gt=0"`
	CompareAtPrice *int64            `json:"compareAtPrice,omitempty"`
	Images         []string          `json:"images,omitempty"`
	Description    *string           `json:"description,omitempty"`
	Benefits       []string          `json:"benefits,omitempty"`
	Nutrition      *models.Nutrition `json:"nutrition,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Stock          *int64            `json:"stock,omitempty" validate:"omitempty,gte=0"`
	IsFeatured     *bool             `json:"isFeatured,omitempty"`
	IsActive       *bool             `json:"isActive,omitempty"`
}

var productSortMap = map[string]bson.D{
	"priceAsc":   {{Key: "price", Value: 1}},
	"priceDesc":  {{Key: "price", Value: -1}},
	"popularity": {{Key: "popularity", Value: -1}, {Key: "rating_avg", Value: -1}},
}

// ListProducts retrieves active products with paging, filters and sorting
func (pc *ProductController) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := int64(1)
	if v, err := strconv.ParseInt(q.Get("page"), 10, 64); err == nil && v > 1 {
		page = v
	}
	limit := int64(12)
	if v, err := strconv.ParseInt(q.Get("limit"), 10, 64); err == nil && v >= 1 {
		limit = v
	}
	if limit > 48 {
		limit = 48
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"is_active": true}

	if category := q.Get("category"); category != "" {
		var cat models.Category
		if err := pc.CategoryCollection.FindOne(ctx, bson.M{"slug": category}).Decode(&cat); err == nil {
			filter["category"] = cat.ID
		}
	}

	if search := q.Get("search"); search != "" {
		regex := primitive.Regex{Pattern: search, Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": regex},
			bson.M{"tags": regex},
		}
	}

	price := bson.M{}
	if v, err := strconv.ParseInt(q.Get("minPrice"), 10, 64); err == nil {
		price["$gte"] = v
	}
	if v, err := strconv.ParseInt(q.Get("maxPrice"), 10, 64); err == nil {
		price["$lte"] = v
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	sort, ok := productSortMap[q.Get("sort")]
	if !ok {
		sort = productSortMap["popularity"]
	}

	findOpts := options.Find().SetSort(sort).SetSkip((page - 1) * limit).SetLimit(limit)
	cursor, err := pc.Collection.Find(ctx, filter, findOpts)
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

	total, err := pc.Collection.CountDocuments(ctx, filter)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": products,
		"meta":  map[string]int64{"page": page, "limit": limit, "total": total, "pages": pages},
	})
}

// FeaturedProducts retrieves the featured selection
func (pc *ProductController) FeaturedProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "popularity", Value: -1}}).SetLimit(8)
	cursor, err := pc.Collection.Find(ctx, bson.M{"is_featured": true, "is_active": true}, opts)
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
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": products})
}

// GetProductBySlug retrieves a single product and bumps its popularity
func (pc *ProductController) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	err := pc.Collection.FindOne(ctx, bson.M{"slug": slug, "is_active": true}).Decode(&product)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}

	_, _ = pc.Collection.UpdateOne(ctx, bson.M{"_id": product.ID}, bson.M{"$inc": bson.M{"popularity": 1}})

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req upsertProductRequest
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

	var category models.Category
	if err := pc.CategoryCollection.FindOne(ctx, bson.M{"slug": req.CategorySlug}).Decode(&category); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid category")
		return
	}

	slug := utils.Slugify(req.Name)
	count, err := pc.Collection.CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	if count > 0 {
		utils.WriteError(w, http.StatusConflict, "Product already exists")
		return
	}

	product := models.Product{
		Name:      req.Name,
		Slug:      slug,
		Category:  category.ID,
		Price:     req.Price,
		Currency:  "INR",
		Images:    req.Images,
		Benefits:  req.Benefits,
		Nutrition: req.Nutrition,
		Tags:      req.Tags,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if req.CompareAtPrice != nil {
		product.CompareAtPrice = *req.CompareAtPrice
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.IsFeatured != nil {
		product.IsFeatured = *req.IsFeatured
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	if product.Tags == nil {
		product.Tags = []string{}
	}

	result, err := pc.Collection.InsertOne(ctx, product)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	product.ID = result.InsertedID.(primitive.ObjectID)

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{"product": product})
}

// UpdateProduct handles updating a product (Admin only). A stock change is
// broadcast to connected clients.
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req upsertProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var product models.Product
	if err := pc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		utils.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}

	set := bson.M{"updated_at": time.Now()}
	if req.Name != "" {
		set["name"] = req.Name
		set["slug"] = utils.Slugify(req.Name)
	}
	if req.CategorySlug != "" {
		var category models.Category
		if err := pc.CategoryCollection.FindOne(ctx, bson.M{"slug": req.CategorySlug}).Decode(&category); err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid category")
			return
		}
		set["category"] = category.ID
	}
	if req.Price > 0 {
		set["price"] = req.Price
	}
	if req.CompareAtPrice != nil {
		set["compare_at_price"] = *req.CompareAtPrice
	}
	if req.Images != nil {
		set["images"] = req.Images
	}
	if req.Description != nil {
		set["description"] = *req.Description
	}
	if req.Benefits != nil {
		set["benefits"] = req.Benefits
	}
	if req.Nutrition != nil {
		set["nutrition"] = req.Nutrition
	}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}
	if req.Stock != nil {
		set["stock"] = *req.Stock
	}
	if req.IsFeatured != nil {
		set["is_featured"] = *req.IsFeatured
	}
	if req.IsActive != nil {
		set["is_active"] = *req.IsActive
	}

	if _, err := pc.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set}); err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	if req.Stock != nil && *req.Stock != product.Stock && pc.Hub != nil {
		pc.Hub.StockChanged(id.Hex(), *req.Stock)
	}

	if err := pc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

// DeleteProduct handles deleting a product (Admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := pc.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	if result.DeletedCount == 0 {
		utils.WriteError(w, http.StatusNotFound, "Product not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
