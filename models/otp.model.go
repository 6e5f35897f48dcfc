package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTP purposes
const (
	OtpPurposeVerifyEmail   = "verify_email"
	OtpPurposeResetPassword = "reset_password"
)

// OtpToken stores a hashed one-time code issued to a user. Only the sha256 of
// the code is persisted.
type OtpToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	Purpose   string             `bson:"purpose" json:"purpose"`
	CodeHash  string             `bson:"code_hash" json:"-"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expiresAt"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
