package service

import (
	"context"
	"time"

	"portfolioapi.app/models"
)

// SubscriberStoreInterface is the key-value contract both store backends
// implement. FindByEmail returns nil for an absent record; CreateIfAbsent
// fails with AlreadyExists when losing a concurrent create; UpdateFields
// supports removing attributes, which is how consumed token hashes are
// deleted.
type SubscriberStoreInterface interface {
	FindByEmail(ctx context.Context, email string) (*models.Subscriber, error)
	CreateIfAbsent(ctx context.Context, sub *models.Subscriber) error
	UpdateFields(ctx context.Context, email string, set map[string]interface{}, remove []string) error
}

// EmailServiceInterface defines the notifier operations the subscription
// flow uses. Sends happen only after the durable store write and never roll
// it back.
type EmailServiceInterface interface {
	SendConfirmationEmail(email, confirmURL string) error
	SendWelcomeEmail(email, unsubscribeURL string) error
	SendUnsubscribeConfirmationEmail(email string) error
}

// RateLimiterInterface admits or rejects one request for a client key
type RateLimiterInterface interface {
	Allow(key string) (bool, time.Duration)
}

// SubscriptionServiceInterface defines subscription business operations
type SubscriptionServiceInterface interface {
	Subscribe(ctx context.Context, req *models.SubscribeRequest, clientKey string) (*SubscribeResult, error)
	Confirm(ctx context.Context, emailRaw, token string) error
	Unsubscribe(ctx context.Context, emailRaw, token string) error
}

// QualityServiceInterface defines quality telemetry read operations
type QualityServiceInterface interface {
	GetSnapshot(ctx context.Context, mode string) (*models.QualitySnapshot, error)
	GetHistory(ctx context.Context) ([]models.QualitySnapshot, error)
}
