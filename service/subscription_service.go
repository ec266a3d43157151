package service

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"portfolioapi.app/config"
	"portfolioapi.app/errors"
	"portfolioapi.app/models"
)

// maxEmailLength is the RFC 3696 address ceiling
const maxEmailLength = 320

// SubscribeResult reports a successful subscribe. AlreadyActive and the
// honeypot case are indistinguishable from a fresh signup at the API
// boundary; NotificationSkipped flags the dev/unconfigured-notifier path.
type SubscribeResult struct {
	AlreadyActive       bool
	NotificationSkipped bool
}

// SubscriptionService owns the subscribe/confirm/unsubscribe state machine
type SubscriptionService struct {
	store        SubscriberStoreInterface
	emailService EmailServiceInterface
	limiter      RateLimiterInterface
	config       *config.Config

	now func() time.Time
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	store SubscriberStoreInterface,
	emailService EmailServiceInterface,
	limiter RateLimiterInterface,
	config *config.Config,
) *SubscriptionService {
	return &SubscriptionService{
		store:        store,
		emailService: emailService,
		limiter:      limiter,
		config:       config,
		now:          time.Now,
	}
}

// NormalizeEmail canonicalizes an address: trimmed and lower-cased. The
// normalized form is the record identity, so subscribe and confirm agree on
// the same key regardless of how the user typed it.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", errors.NewValidationError("email is required")
	}
	if !strings.Contains(email, "@") {
		return "", errors.NewValidationError("email must be a valid address")
	}
	if len(email) > maxEmailLength {
		return "", errors.NewValidationError(fmt.Sprintf("email cannot exceed %d characters", maxEmailLength))
	}
	return email, nil
}

// Subscribe runs the signup state machine. Honeypot hits and already-active
// addresses are silent successes so a probing caller cannot tell which
// addresses are registered. The rate limit is checked before any store
// access.
func (s *SubscriptionService) Subscribe(ctx context.Context, req *models.SubscribeRequest, clientKey string) (*SubscribeResult, error) {
	if req.Honey != "" {
		slog.Info("honeypot triggered, reporting success without side effects")
		return &SubscribeResult{}, nil
	}

	email, err := NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	if ok, retryAfter := s.limiter.Allow(clientKey); !ok {
		return nil, errors.NewRateLimitError(retryAfter)
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.NewStoreError("failed to check existing subscriber", err)
	}

	if existing != nil && existing.Status == models.StatusActive {
		slog.Debug("subscribe for already-active address", "email", email)
		return &SubscribeResult{AlreadyActive: true}, nil
	}

	rawToken, tokenHash := newToken()
	now := s.now().UTC()

	if existing == nil {
		err = s.createPending(ctx, email, req.Source, tokenHash, now)
	} else {
		err = s.rotatePending(ctx, existing, req.Source, tokenHash, now)
	}
	if err != nil {
		return nil, err
	}

	return s.sendConfirmation(email, rawToken)
}

func (s *SubscriptionService) createPending(ctx context.Context, email, source, tokenHash string, now time.Time) error {
	sub := &models.Subscriber{
		Email:            email,
		Status:           models.StatusPending,
		Source:           source,
		CreatedAt:        now,
		UpdatedAt:        now,
		ConfirmTokenHash: tokenHash,
	}

	err := s.store.CreateIfAbsent(ctx, sub)
	if err == nil {
		return nil
	}
	if !isType(err, errors.AlreadyExistsError) {
		return errors.NewStoreError("failed to create subscriber", err)
	}

	// Lost a concurrent create for the same email: retry as an update
	// against the record the winner wrote.
	existing, findErr := s.store.FindByEmail(ctx, email)
	if findErr != nil {
		return errors.NewStoreError("failed to re-read subscriber after create conflict", findErr)
	}
	if existing == nil {
		return errors.NewStoreError("subscriber disappeared after create conflict", nil)
	}
	if existing.Status == models.StatusActive {
		return nil
	}
	return s.rotatePending(ctx, existing, source, tokenHash, now)
}

// rotatePending resets a pending/unsubscribed record to pending with a
// fresh token hash. Source is first-write-wins: set only when the record
// has none yet.
func (s *SubscriptionService) rotatePending(ctx context.Context, existing *models.Subscriber, source, tokenHash string, now time.Time) error {
	set := map[string]interface{}{
		models.FieldStatus:           models.StatusPending,
		models.FieldConfirmTokenHash: tokenHash,
		models.FieldUpdatedAt:        now,
	}
	if existing.Source == "" && source != "" {
		set[models.FieldSource] = source
	}

	if err := s.store.UpdateFields(ctx, existing.Email, set, nil); err != nil {
		return errors.NewStoreError("failed to update subscriber", err)
	}
	return nil
}

// sendConfirmation builds the opt-in link and sends it. Without a
// configured base URL or notifier the subscription record still stands and
// the caller gets a success with a diagnostic flag instead of an error.
func (s *SubscriptionService) sendConfirmation(email, rawToken string) (*SubscribeResult, error) {
	if s.config.AppBaseURL == "" || !s.config.Email.Configured() {
		slog.Info("notifier unconfigured, skipping confirmation email", "email", email)
		return &SubscribeResult{NotificationSkipped: true}, nil
	}

	confirmURL := fmt.Sprintf("%s/api/confirm?email=%s&token=%s",
		s.config.AppBaseURL, url.QueryEscape(email), url.QueryEscape(rawToken))

	if err := s.emailService.SendConfirmationEmail(email, confirmURL); err != nil {
		return nil, err
	}

	return &SubscribeResult{}, nil
}

// Confirm redeems a confirmation token. Confirming an already-active
// subscriber succeeds without touching the store; the token hash is removed
// in the same write that activates the record, so a replayed token finds no
// hash and fails.
func (s *SubscriptionService) Confirm(ctx context.Context, emailRaw, token string) error {
	email := strings.ToLower(strings.TrimSpace(emailRaw))
	if email == "" || token == "" {
		return errors.NewTokenError("missing email or token")
	}

	sub, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return errors.NewStoreError("failed to look up subscriber", err)
	}
	if sub == nil {
		return errors.NewTokenError("unknown subscriber")
	}

	if sub.Status == models.StatusActive {
		return nil
	}

	if !tokenMatches(token, sub.ConfirmTokenHash) {
		return errors.NewTokenError("token mismatch")
	}

	rawUnsubToken, unsubHash := newToken()
	now := s.now().UTC()

	set := map[string]interface{}{
		models.FieldStatus:               models.StatusActive,
		models.FieldConfirmedAt:          now,
		models.FieldUpdatedAt:            now,
		models.FieldUnsubscribeTokenHash: unsubHash,
	}
	remove := []string{models.FieldConfirmTokenHash}

	if err := s.store.UpdateFields(ctx, email, set, remove); err != nil {
		return errors.NewStoreError("failed to activate subscriber", err)
	}

	s.sendWelcome(email, rawUnsubToken)
	return nil
}

// sendWelcome is best-effort: the subscriber is already active and a mail
// failure must not surface as a confirm failure.
func (s *SubscriptionService) sendWelcome(email, rawUnsubToken string) {
	if s.config.AppBaseURL == "" || !s.config.Email.Configured() {
		return
	}

	unsubscribeURL := fmt.Sprintf("%s/api/unsubscribe?email=%s&token=%s",
		s.config.AppBaseURL, url.QueryEscape(email), url.QueryEscape(rawUnsubToken))

	if err := s.emailService.SendWelcomeEmail(email, unsubscribeURL); err != nil {
		slog.Warn("failed to send welcome email", "email", email, "error", err)
	}
}

// Unsubscribe redeems an unsubscribe token using the same hash pattern as
// Confirm. Repeating it for an already-unsubscribed address succeeds.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, emailRaw, token string) error {
	email := strings.ToLower(strings.TrimSpace(emailRaw))
	if email == "" || token == "" {
		return errors.NewTokenError("missing email or token")
	}

	sub, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return errors.NewStoreError("failed to look up subscriber", err)
	}
	if sub == nil {
		return errors.NewTokenError("unknown subscriber")
	}

	if sub.Status == models.StatusUnsubscribed {
		return nil
	}

	if sub.Status != models.StatusActive || !tokenMatches(token, sub.UnsubscribeTokenHash) {
		return errors.NewTokenError("token mismatch")
	}

	now := s.now().UTC()
	set := map[string]interface{}{
		models.FieldStatus:    models.StatusUnsubscribed,
		models.FieldUpdatedAt: now,
	}
	remove := []string{models.FieldUnsubscribeTokenHash}

	if err := s.store.UpdateFields(ctx, email, set, remove); err != nil {
		return errors.NewStoreError("failed to unsubscribe subscriber", err)
	}

	if s.config.Email.Configured() {
		if err := s.emailService.SendUnsubscribeConfirmationEmail(email); err != nil {
			slog.Warn("failed to send unsubscribe confirmation email", "email", email, "error", err)
		}
	}

	return nil
}

func isType(err error, t errors.ErrorType) bool {
	var appErr *errors.AppError
	return goerrors.As(err, &appErr) && appErr.Type == t
}
