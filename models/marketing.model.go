package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subscriber is a newsletter signup, unique by email
type Subscriber struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email     string             `bson:"email" json:"email"`
	Source    string             `bson:"source" json:"source"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// ContactMessage is a message submitted via the contact form
type ContactMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Message   string             `bson:"message" json:"message"`
	Status    string             `bson:"status" json:"status"` // "new" or "read"
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
