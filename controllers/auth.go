package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/utils"
)

// AuthController handles signup, login and the OTP flows
type AuthController struct {
	UserCollection *mongo.Collection
	OtpCollection  *mongo.Collection
	EmailService   *utils.EmailService
}

// NewAuthController creates a new AuthController
func NewAuthController(client *mongo.Client, emailService *utils.EmailService) *AuthController {
	db := client.Database("storefront")
	return &AuthController{
		UserCollection: db.Collection("users"),
		OtpCollection:  db.Collection("otp_tokens"),
		EmailService:   emailService,
	}
}

type signupRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,min=4,max=10"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required,min=20"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,min=4,max=10"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func otpTTL() time.Duration {
	if v, err := strconv.Atoi(os.Getenv("OTP_TTL_MINUTES")); err == nil && v > 0 {
		return time.Duration(v) * time.Minute
	}
	return 10 * time.Minute
}

// issueOtp replaces any outstanding code for the (user, purpose) pair and sends
// a fresh one. Only the sha256 of the code is stored.
func (ac *AuthController) issueOtp(ctx context.Context, user *models.User, purpose string) error {
	code, err := utils.RandomNumericCode(6)
	if err != nil {
		return err
	}

	if _, err := ac.OtpCollection.DeleteMany(ctx, bson.M{"user_id": user.ID, "purpose": purpose}); err != nil {
		return err
	}
	token := models.OtpToken{
		UserID:    user.ID,
		Purpose:   purpose,
		CodeHash:  utils.SHA256Hex(code),
		ExpiresAt: time.Now().Add(otpTTL()),
		CreatedAt: time.Now(),
	}
	if _, err := ac.OtpCollection.InsertOne(ctx, token); err != nil {
		return err
	}

	if err := ac.EmailService.SendOtpEmail(user.Email, purpose, code); err != nil {
		log.Printf("Failed to send OTP email to %s: %v", user.Email, err)
	}
	return nil
}

// consumeOtp validates a submitted code and deletes it on success
func (ac *AuthController) consumeOtp(ctx context.Context, userID primitive.ObjectID, purpose, code string) (bool, error) {
	var token models.OtpToken
	err := ac.OtpCollection.FindOne(ctx, bson.M{"user_id": userID, "purpose": purpose}).Decode(&token)
	if err != nil {
		return false, nil
	}
	if token.ExpiresAt.Before(time.Now()) {
		return false, nil
	}
	if utils.SHA256Hex(code) != token.CodeHash {
		return false, nil
	}
	_, err = ac.OtpCollection.DeleteMany(ctx, bson.M{"user_id": userID, "purpose": purpose})
	return true, err
}

func publicUser(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":              user.ID,
		"name":            user.Name,
		"email":           user.Email,
		"role":            user.Role,
		"isEmailVerified": user.IsEmailVerified,
	}
}

// Signup handles user registration and issues a verification OTP
func (ac *AuthController) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.ToLower(req.Email)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	count, err := ac.UserCollection.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	if count > 0 {
		utils.WriteError(w, http.StatusConflict, "Email already in use")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	user := models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         models.RoleUser,
		CreatedAt:    time.Now(),
	}
	result, err := ac.UserCollection.InsertOne(ctx, user)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	user.ID = result.InsertedID.(primitive.ObjectID)

	if err := ac.issueOtp(ctx, &user, models.OtpPurposeVerifyEmail); err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Account created. Please verify email with OTP.",
		"user":    publicUser(&user),
	})
}

// VerifyEmail handles OTP-based email verification
func (ac *AuthController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
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

	var user models.User
	err := ac.UserCollection.FindOne(ctx, bson.M{"email": strings.ToLower(req.Email)}).Decode(&user)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	ok, err := ac.consumeOtp(ctx, user.ID, models.OtpPurposeVerifyEmail, req.Code)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}

	_, err = ac.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set": bson.M{"is_email_verified": true},
	})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Email verified"})
}

// Login handles user authentication and returns access/refresh tokens
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
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

	var user models.User
	err := ac.UserCollection.FindOne(ctx, bson.M{"email": strings.ToLower(req.Email)}).Decode(&user)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.IsEmailVerified {
		if err := ac.issueOtp(ctx, &user, models.OtpPurposeVerifyEmail); err != nil {
			log.Printf("Failed to reissue OTP for %s: %v", user.Email, err)
		}
		utils.WriteErrorCode(w, http.StatusForbidden, "Email not verified. OTP re-sent.", "EMAIL_NOT_VERIFIED")
		return
	}

	accessToken, err := utils.GenerateAccessToken(user.ID.Hex(), user.Role)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID.Hex(), user.Role)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user":         publicUser(&user),
	})
}

// Refresh exchanges a valid refresh token for a new access token
func (ac *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.Validate(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	claims, err := utils.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	accessToken, err := utils.GenerateAccessToken(claims.Subject, claims.Role)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

// Me returns the authenticated user's profile
func (ac *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	if err := ac.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	user.PasswordHash = ""
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// ForgotPassword issues a password-reset OTP. Responds identically whether or
// not the email exists.
func (ac *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
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

	var user models.User
	err := ac.UserCollection.FindOne(ctx, bson.M{"email": strings.ToLower(req.Email)}).Decode(&user)
	if err == nil {
		if err := ac.issueOtp(ctx, &user, models.OtpPurposeResetPassword); err != nil {
			log.Printf("Failed to issue reset OTP for %s: %v", user.Email, err)
		}
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "If that email exists, OTP has been sent."})
}

// ResetPassword sets a new password after OTP validation
func (ac *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
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

	var user models.User
	err := ac.UserCollection.FindOne(ctx, bson.M{"email": strings.ToLower(req.Email)}).Decode(&user)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, "User not found")
		return
	}

	ok, err := ac.consumeOtp(ctx, user.ID, models.OtpPurposeResetPassword, req.Code)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}
	_, err = ac.UserCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{
		"$set": bson.M{"password_hash": string(hashed)},
	})
	if err != nil {
		utils.WriteInternalError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
