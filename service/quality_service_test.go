package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apperrors "portfolioapi.app/errors"
	"portfolioapi.app/models"
	"portfolioapi.app/providers"
)

// Mock quality manager for testing
type mockQualityManager struct {
	mock.Mock
}

var _ providers.QualityManager = (*mockQualityManager)(nil)

func (m *mockQualityManager) GetSnapshot(ctx context.Context) (*models.QualitySnapshot, error) {
	args := m.Called(ctx)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QualitySnapshot), nil
}

func (m *mockQualityManager) GetSnapshotOnly(ctx context.Context) (*models.QualitySnapshot, error) {
	args := m.Called(ctx)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QualitySnapshot), nil
}

func (m *mockQualityManager) GetHistory(ctx context.Context) ([]models.QualitySnapshot, error) {
	args := m.Called(ctx)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QualitySnapshot), nil
}

func TestQualityService_DefaultModeServesSnapshotOnly(t *testing.T) {
	manager := new(mockQualityManager)
	expected := &models.QualitySnapshot{
		GeneratedAt: "2026-08-14T06:30:00Z",
		Debug:       &models.SnapshotDebug{Source: providers.SourceSnapshot},
	}
	manager.On("GetSnapshotOnly", mock.Anything).Return(expected, nil)

	svc := NewQualityService(manager)

	for _, mode := range []string{"", ModeSnapshot} {
		snapshot, err := svc.GetSnapshot(context.Background(), mode)
		require.NoError(t, err)
		assert.Equal(t, expected, snapshot)
	}

	manager.AssertNotCalled(t, "GetSnapshot", mock.Anything)
}

func TestQualityService_CloudModesRunTheChain(t *testing.T) {
	manager := new(mockQualityManager)
	expected := &models.QualitySnapshot{
		GeneratedAt: "2026-08-14T06:30:00Z",
		Debug:       &models.SnapshotDebug{Source: providers.SourceProxy},
	}
	manager.On("GetSnapshot", mock.Anything).Return(expected, nil)

	svc := NewQualityService(manager)

	for _, mode := range []string{ModeCloud, ModeAWS} {
		snapshot, err := svc.GetSnapshot(context.Background(), mode)
		require.NoError(t, err)
		assert.Equal(t, providers.SourceProxy, snapshot.Debug.Source)
	}
}

func TestQualityService_UnknownModeRejected(t *testing.T) {
	svc := NewQualityService(new(mockQualityManager))

	_, err := svc.GetSnapshot(context.Background(), "bogus")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ValidationError, appErr.Type)
}

func TestQualityService_ChainExhaustionPropagates(t *testing.T) {
	manager := new(mockQualityManager)
	manager.On("GetSnapshot", mock.Anything).Return(nil, apperrors.NewAllSourcesFailedError(nil))

	svc := NewQualityService(manager)

	_, err := svc.GetSnapshot(context.Background(), ModeCloud)
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.AllSourcesFailed, appErr.Type)
}

func TestQualityService_HistoryDelegates(t *testing.T) {
	manager := new(mockQualityManager)
	history := []models.QualitySnapshot{
		{GeneratedAt: "2026-08-14T06:30:00Z"},
		{GeneratedAt: "2026-08-13T06:30:00Z"},
	}
	manager.On("GetHistory", mock.Anything).Return(history, nil)

	svc := NewQualityService(manager)

	got, err := svc.GetHistory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, history, got)
}
