// utils/email.go
package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/keighl/postmark"

	"go-storefront/models"
)

// EmailService handles sending emails using Postmark
type EmailService struct {
	client *postmark.Client
	sender string
}

// NewEmailService initializes a new EmailService instance. When
// POSTMARK_API_TOKEN is unset the service is disabled and callers fall back to
// logging (development mode).
func NewEmailService() *EmailService {
	apiToken := os.Getenv("POSTMARK_API_TOKEN")
	if apiToken == "" {
		log.Println("POSTMARK_API_TOKEN not set; email delivery disabled")
		return &EmailService{}
	}
	return &EmailService{
		client: postmark.NewClient(apiToken, ""),
		sender: os.Getenv("EMAIL_SENDER"),
	}
}

// Configured reports whether the service can actually deliver mail
func (es *EmailService) Configured() bool {
	return es != nil && es.client != nil
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	if !es.Configured() {
		return fmt.Errorf("email service not configured")
	}
	_, err := es.client.SendEmail(postmark.Email{
		From:     es.sender,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendOtpEmail delivers a one-time code for email verification or password
// reset. Falls back to the log when mail is disabled so development still works.
func (es *EmailService) SendOtpEmail(toEmail, purpose, code string) error {
	if !es.Configured() {
		log.Printf("[OTP:%s] email=%s code=%s", purpose, toEmail, code)
		return nil
	}

	subject := "Your verification code"
	if purpose == models.OtpPurposeResetPassword {
		subject = "Your password reset code"
	}
	htmlContent := fmt.Sprintf(
		"<strong>Your one-time code is: %s</strong><br><br>It expires shortly. If you did not request this, ignore this email.",
		code,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}

// SendOrderConfirmationEmail sends an order confirmation after payment
func (es *EmailService) SendOrderConfirmationEmail(toEmail string, order *models.Order) error {
	if !es.Configured() {
		return nil
	}
	subject := "Order Confirmation"
	htmlContent := fmt.Sprintf(
		"<strong>Dear Customer,</strong><br><br>Thank you for your purchase! Your order (ID: %s) has been paid successfully.<br><br>Subtotal: <strong>%d</strong><br>Discount: <strong>%d</strong><br>Total: <strong>%d %s</strong><br><br>Thank you for shopping with us!",
		order.ID.Hex(),
		order.Subtotal,
		order.Discount,
		order.Total,
		order.Currency,
	)
	return es.SendEmail(toEmail, subject, htmlContent)
}
