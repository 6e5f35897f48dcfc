package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Nutrition holds the optional nutrition facts of a product
type Nutrition struct {
	Calories float64 `bson:"calories,omitempty" json:"calories,omitempty"`
	Protein  float64 `bson:"protein,omitempty" json:"protein,omitempty"`
	Carbs    float64 `bson:"carbs,omitempty" json:"carbs,omitempty"`
	Fat      float64 `bson:"fat,omitempty" json:"fat,omitempty"`
	Fiber    float64 `bson:"fiber,omitempty" json:"fiber,omitempty"`
}

// Product represents an item in the catalog. Price is in whole currency units.
type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name           string             `bson:"name" json:"name"`
	Slug           string             `bson:"slug" json:"slug"`
	Category       primitive.ObjectID `bson:"category" json:"category"`
	Price          int64              `bson:"price" json:"price"`
	CompareAtPrice int64              `bson:"compare_at_price,omitempty" json:"compareAtPrice,omitempty"`
	Currency       string             `bson:"currency" json:"currency"`
	Images         []string           `bson:"images" json:"images"`
	Description    string             `bson:"description" json:"description"`
	Benefits       []string           `bson:"benefits,omitempty" json:"benefits,omitempty"`
	Nutrition      *Nutrition         `bson:"nutrition,omitempty" json:"nutrition,omitempty"`
	Tags           []string           `bson:"tags" json:"tags"`
	Stock          int64              `bson:"stock" json:"stock"`
	IsFeatured     bool               `bson:"is_featured" json:"isFeatured"`
	IsActive       bool               `bson:"is_active" json:"isActive"`
	RatingAvg      float64            `bson:"rating_avg" json:"ratingAvg"`
	RatingCount    int64              `bson:"rating_count" json:"ratingCount"`
	Popularity     int64              `bson:"popularity" json:"popularity"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}
