package utils

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// JWT secret keys, loaded from .env in main
var (
	JwtAccessKey  []byte
	JwtRefreshKey []byte
)

// Token lifetimes
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims represents the JWT claims. Subject carries the user id hex.
type Claims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// GenerateAccessToken generates a short-lived access token for a user
func GenerateAccessToken(userID, role string) (string, error) {
	return generateToken(userID, role, AccessTokenTTL, JwtAccessKey)
}

// GenerateRefreshToken generates a long-lived refresh token for a user
func GenerateRefreshToken(userID, role string) (string, error) {
	return generateToken(userID, role, RefreshTokenTTL, JwtRefreshKey)
}

func generateToken(userID, role string, ttl time.Duration, key []byte) (string, error) {
	claims := &Claims{
		Role: role,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ParseRefreshToken validates a refresh token and returns its claims
func ParseRefreshToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return JwtRefreshKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.NewValidationError("invalid token", jwt.ValidationErrorSignatureInvalid)
	}
	return claims, nil
}
