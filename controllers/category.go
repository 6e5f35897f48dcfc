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

// CategoryController handles category requests
type CategoryController struct {
	Collection *mongo.Collection
}

// NewCategoryController creates a new CategoryController
func NewCategoryController(client *mongo.Client) *CategoryController {
	return &CategoryController{Collection: client.Database("storefront").Collection("categories")}
}

type upsertCategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// ListCategories retrieves all categories sorted by name
func (cc *CategoryController) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := cc.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	defer cursor.Close(ctx)

	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": categories})
}

// CreateCategory adds a new category (Admin only)
func (cc *CategoryController) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req upsertCategoryRequest
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

	slug := utils.Slugify(req.Name)
	count, err := cc.Collection.CountDocuments(ctx, bson.M{"slug": slug})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	if count > 0 {
		utils.WriteError(w, http.StatusConflict, "Category already exists")
		return
	}

	category := models.Category{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		CreatedAt:   time.Now(),
	}
	result, err := cc.Collection.InsertOne(ctx, category)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	category.ID = result.InsertedID.(primitive.ObjectID)

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{"category": category})
}

// UpdateCategory modifies a category (Admin only)
func (cc *CategoryController) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var req upsertCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	set := bson.M{}
	if req.Name != "" {
		set["name"] = req.Name
		set["slug"] = utils.Slugify(req.Name)
	}
	if req.Description != "" {
		set["description"] = req.Description
	}
	if req.ImageURL != "" {
		set["image_url"] = req.ImageURL
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
		utils.WriteError(w, http.StatusNotFound, "Category not found")
		return
	}

	var category models.Category
	if err := cc.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&category); err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"category": category})
}

// DeleteCategory removes a category (Admin only)
func (cc *CategoryController) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid category ID")
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
		utils.WriteError(w, http.StatusNotFound, "Category not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
