// Package repository implements the subscriber store backends
package repository

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"
	apperrors "portfolioapi.app/errors"
	"portfolioapi.app/models"
)

// SubscriberRepository is the relational subscriber store backed by GORM.
// Absent optional fields are represented as zero values; the DynamoDB store
// removes the attributes outright. Both honor the same contract.
type SubscriberRepository struct {
	db *gorm.DB
}

// NewSubscriberRepository creates a new repository for subscriber data
func NewSubscriberRepository(db *gorm.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// FindByEmail retrieves a subscriber by normalized email; returns nil when absent
func (r *SubscriberRepository) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	if email == "" {
		return nil, apperrors.NewValidationError("email cannot be empty")
	}

	var sub models.Subscriber
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("find subscriber", "error", result.Error)
		return nil, result.Error
	}

	return &sub, nil
}

// CreateIfAbsent inserts a new subscriber, failing with AlreadyExists when a
// record for the same email was created concurrently. Requires the database
// handle to be opened with TranslateError so duplicate-key violations are
// reported uniformly across drivers.
func (r *SubscriberRepository) CreateIfAbsent(ctx context.Context, sub *models.Subscriber) error {
	if sub.Email == "" {
		return apperrors.NewValidationError("email cannot be empty")
	}

	result := r.db.WithContext(ctx).Create(sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return apperrors.NewAlreadyExistsError("subscriber already exists")
		}
		slog.Error("create subscriber", "error", result.Error)
		return result.Error
	}

	return nil
}

// UpdateFields applies a partial update: set assigns columns, remove clears
// them back to absent. Fails with NotFound when no record matches.
func (r *SubscriberRepository) UpdateFields(ctx context.Context, email string, set map[string]interface{}, remove []string) error {
	if email == "" {
		return apperrors.NewValidationError("email cannot be empty")
	}

	updates := make(map[string]interface{}, len(set)+len(remove))
	for field, value := range set {
		updates[field] = value
	}
	for _, field := range remove {
		updates[field] = removedValue(field)
	}

	result := r.db.WithContext(ctx).Model(&models.Subscriber{}).
		Where("email = ?", email).
		Updates(updates)
	if result.Error != nil {
		slog.Error("update subscriber", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("subscriber not found")
	}

	return nil
}

// removedValue maps an attribute removal onto the column's absent
// representation: NULL for nullable timestamps, empty string otherwise.
func removedValue(field string) interface{} {
	if field == models.FieldConfirmedAt {
		return nil
	}
	return ""
}
