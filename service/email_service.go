package service

import (
	"fmt"

	"portfolioapi.app/errors"
	"portfolioapi.app/providers"
)

// EmailService handles email operations using a provider
type EmailService struct {
	provider providers.EmailProvider
}

// NewEmailService creates a new email service with the specified provider
func NewEmailService(provider providers.EmailProvider) *EmailService {
	return &EmailService{
		provider: provider,
	}
}

// SendConfirmationEmail sends an email with a confirmation link
func (s *EmailService) SendConfirmationEmail(email, confirmURL string) error {
	if email == "" {
		return errors.NewValidationError("email cannot be empty")
	}
	if confirmURL == "" {
		return errors.NewValidationError("confirmation URL cannot be empty")
	}

	subject := "Confirm your newsletter subscription"
	htmlContent := fmt.Sprintf(
		"<p>Thanks for signing up for project updates and new posts.</p>"+
			"<p>Please confirm your subscription by clicking the following link:</p>"+
			"<p><a href=\"%s\">Confirm Subscription</a></p>"+
			"<p>If you didn't request this, you can ignore this email.</p>",
		confirmURL,
	)

	return s.provider.SendEmail(email, subject, htmlContent, true)
}

// SendWelcomeEmail sends a welcome email after subscription confirmation
func (s *EmailService) SendWelcomeEmail(email, unsubscribeURL string) error {
	if email == "" {
		return errors.NewValidationError("email cannot be empty")
	}
	if unsubscribeURL == "" {
		return errors.NewValidationError("unsubscribe URL cannot be empty")
	}

	subject := "Welcome aboard"
	htmlContent := fmt.Sprintf(
		"<p>Your subscription is confirmed. You'll get an occasional email "+
			"when new posts or projects go up. No spam, no schedule.</p>"+
			"<p>To unsubscribe at any time, <a href=\"%s\">click here</a>.</p>",
		unsubscribeURL,
	)

	return s.provider.SendEmail(email, subject, htmlContent, true)
}

// SendUnsubscribeConfirmationEmail sends a confirmation after unsubscribing
func (s *EmailService) SendUnsubscribeConfirmationEmail(email string) error {
	if email == "" {
		return errors.NewValidationError("email cannot be empty")
	}

	subject := "You have unsubscribed"
	htmlContent := "<p>You have been unsubscribed and won't receive further updates. " +
		"If this was a mistake, you can sign up again on the blog.</p>"

	return s.provider.SendEmail(email, subject, htmlContent, true)
}
