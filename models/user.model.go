package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Address represents a delivery address
type Address struct {
	Label      string `bson:"label,omitempty" json:"label,omitempty"`
	FullName   string `bson:"full_name" json:"fullName"`
	Phone      string `bson:"phone" json:"phone"`
	Line1      string `bson:"line1" json:"line1"`
	Line2      string `bson:"line2,omitempty" json:"line2,omitempty"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postal_code" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
}

// User represents a user in the system
type User struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id,omitempty"`
	Name            string               `bson:"name" json:"name"`
	Email           string               `bson:"email" json:"email"`
	PasswordHash    string               `bson:"password_hash,omitempty" json:"-"`
	Role            string               `bson:"role" json:"role"` // "user" or "admin"
	IsEmailVerified bool                 `bson:"is_email_verified" json:"isEmailVerified"`
	Wishlist        []primitive.ObjectID `bson:"wishlist,omitempty" json:"wishlist,omitempty"`
	Addresses       []Address            `bson:"addresses,omitempty" json:"addresses,omitempty"`
	CreatedAt       time.Time            `bson:"created_at" json:"createdAt"`
}
