package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/models"
	"go-storefront/utils"
)

// MarketingController handles newsletter signups and the contact form
type MarketingController struct {
	SubscriberCollection *mongo.Collection
	ContactCollection    *mongo.Collection
}

// NewMarketingController creates a new MarketingController
func NewMarketingController(client *mongo.Client) *MarketingController {
	db := client.Database("storefront")
	return &MarketingController{
		SubscriberCollection: db.Collection("subscribers"),
		ContactCollection:    db.Collection("contact_messages"),
	}
}

type subscribeRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Source string `json:"source"`
}

// Subscribe records a newsletter signup. Re-subscribing is a no-op so the
// same success response goes out either way.
func (mc *MarketingController) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
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

	email := strings.ToLower(strings.TrimSpace(req.Email))
	source := req.Source
	if source == "" {
		source = "website"
	}

	_, err := mc.SubscriberCollection.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$setOnInsert": bson.M{
			"email":      email,
			"source":     source,
			"created_at": time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]bool{"subscribed": true})
}

type contactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,max=2000"`
}

// Contact stores a contact-form message for the admin inbox
func (mc *MarketingController) Contact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
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

	message := models.ContactMessage{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Message:   strings.TrimSpace(req.Message),
		Status:    "new",
		CreatedAt: time.Now(),
	}
	if _, err := mc.ContactCollection.InsertOne(ctx, message); err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]bool{"received": true})
}
