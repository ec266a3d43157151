package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	apperrors "portfolioapi.app/errors"
	"portfolioapi.app/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// TranslateError matches the production connection so duplicate keys
	// surface as gorm.ErrDuplicatedKey here too
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Subscriber{}))
	return db
}

func pendingSubscriber(email string) *models.Subscriber {
	now := time.Date(2026, 8, 14, 6, 0, 0, 0, time.UTC)
	return &models.Subscriber{
		Email:            email,
		Status:           models.StatusPending,
		Source:           "blog-footer",
		CreatedAt:        now,
		UpdatedAt:        now,
		ConfirmTokenHash: "confirmhash",
	}
}

func TestSubscriberRepository_FindByEmail(t *testing.T) {
	repo := NewSubscriberRepository(setupTestDB(t))
	ctx := context.Background()

	// Absent records are nil, not an error
	sub, err := repo.FindByEmail(ctx, "missing@example.com")
	require.NoError(t, err)
	assert.Nil(t, sub)

	require.NoError(t, repo.CreateIfAbsent(ctx, pendingSubscriber("user@example.com")))

	sub, err = repo.FindByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, models.StatusPending, sub.Status)
	assert.Equal(t, "confirmhash", sub.ConfirmTokenHash)

	_, err = repo.FindByEmail(ctx, "")
	assert.Error(t, err)
}

func TestSubscriberRepository_CreateIfAbsent_Conflict(t *testing.T) {
	repo := NewSubscriberRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.CreateIfAbsent(ctx, pendingSubscriber("user@example.com")))

	err := repo.CreateIfAbsent(ctx, pendingSubscriber("user@example.com"))
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.AlreadyExistsError, appErr.Type)
}

func TestSubscriberRepository_UpdateFields_ActivatesSubscriber(t *testing.T) {
	repo := NewSubscriberRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.CreateIfAbsent(ctx, pendingSubscriber("user@example.com")))

	confirmedAt := time.Date(2026, 8, 14, 7, 0, 0, 0, time.UTC)
	set := map[string]interface{}{
		models.FieldStatus:               models.StatusActive,
		models.FieldConfirmedAt:          confirmedAt,
		models.FieldUpdatedAt:            confirmedAt,
		models.FieldUnsubscribeTokenHash: "unsubhash",
	}
	remove := []string{models.FieldConfirmTokenHash}

	require.NoError(t, repo.UpdateFields(ctx, "user@example.com", set, remove))

	sub, err := repo.FindByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, sub.Status)
	assert.Equal(t, "unsubhash", sub.UnsubscribeTokenHash)
	assert.Empty(t, sub.ConfirmTokenHash)
	require.NotNil(t, sub.ConfirmedAt)
	assert.True(t, sub.ConfirmedAt.Equal(confirmedAt))
}

func TestSubscriberRepository_UpdateFields_RemovesConfirmedAt(t *testing.T) {
	repo := NewSubscriberRepository(setupTestDB(t))
	ctx := context.Background()

	sub := pendingSubscriber("user@example.com")
	confirmedAt := time.Date(2026, 8, 14, 7, 0, 0, 0, time.UTC)
	sub.Status = models.StatusActive
	sub.ConfirmedAt = &confirmedAt
	require.NoError(t, repo.CreateIfAbsent(ctx, sub))

	require.NoError(t, repo.UpdateFields(ctx, "user@example.com", nil, []string{models.FieldConfirmedAt}))

	got, err := repo.FindByEmail(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Nil(t, got.ConfirmedAt)
}

func TestSubscriberRepository_UpdateFields_NotFound(t *testing.T) {
	repo := NewSubscriberRepository(setupTestDB(t))

	err := repo.UpdateFields(context.Background(), "missing@example.com", map[string]interface{}{
		models.FieldStatus: models.StatusActive,
	}, nil)

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.NotFoundError, appErr.Type)
}
