package providers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "portfolioapi.app/errors"
	"portfolioapi.app/models"
)

type stubSource struct {
	snapshot *models.QualitySnapshot
	err      error
	calls    int
}

func (s *stubSource) FetchLatest(_ context.Context) (*models.QualitySnapshot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	// fresh copy per call; provenance tagging mutates the snapshot
	copied := *s.snapshot
	return &copied, nil
}

func workingSnapshot() *models.QualitySnapshot {
	return &models.QualitySnapshot{
		GeneratedAt: "2026-08-14T06:30:00Z",
		Projects:    []models.ProjectHealth{{Name: "portfolio-site", Status: "healthy"}},
	}
}

func TestChain_FirstSourceWins(t *testing.T) {
	proxy := &stubSource{snapshot: workingSnapshot()}
	cloud := &stubSource{snapshot: workingSnapshot()}

	chain := NewChainBuilder().
		AddHandler(NewProxyHandler(proxy)).
		AddHandler(NewCloudHandler(cloud)).
		Build()

	snapshot, err := chain.Handle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snapshot.Debug)
	assert.Equal(t, SourceProxy, snapshot.Debug.Source)
	assert.Equal(t, 0, cloud.calls)
}

func TestChain_FallsThroughToNextSource(t *testing.T) {
	proxy := &stubSource{err: fmt.Errorf("connection refused")}
	cloud := &stubSource{snapshot: workingSnapshot()}
	snapshot := &stubSource{snapshot: workingSnapshot()}

	chain := NewChainBuilder().
		AddHandler(NewProxyHandler(proxy)).
		AddHandler(NewCloudHandler(cloud)).
		AddHandler(NewSnapshotHandler(snapshot)).
		Build()

	result, err := chain.Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceCloud, result.Debug.Source)
	assert.Equal(t, 1, proxy.calls)
	assert.Equal(t, 1, cloud.calls)
	assert.Equal(t, 0, snapshot.calls)
}

func TestChain_TerminalFallback(t *testing.T) {
	proxy := &stubSource{err: fmt.Errorf("connection refused")}
	cloud := &stubSource{err: fmt.Errorf("access denied")}
	snapshot := &stubSource{snapshot: workingSnapshot()}

	chain := NewChainBuilder().
		AddHandler(NewProxyHandler(proxy)).
		AddHandler(NewCloudHandler(cloud)).
		AddHandler(NewSnapshotHandler(snapshot)).
		Build()

	result, err := chain.Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceSnapshot, result.Debug.Source)
}

func TestChain_AllSourcesFailedIsFatal(t *testing.T) {
	proxy := &stubSource{err: fmt.Errorf("connection refused")}
	snapshot := &stubSource{err: fmt.Errorf("file missing")}

	chain := NewChainBuilder().
		AddHandler(NewProxyHandler(proxy)).
		AddHandler(NewSnapshotHandler(snapshot)).
		Build()

	_, err := chain.Handle(context.Background())
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.AllSourcesFailed, appErr.Type)
}

func TestChain_EmptyBuilderReturnsNil(t *testing.T) {
	assert.Nil(t, NewChainBuilder().Build())
}

func TestTagProvenance_PreservesExistingDebug(t *testing.T) {
	snapshot := &models.QualitySnapshot{
		Debug: &models.SnapshotDebug{Key: "quality/latest.json"},
	}

	tagProvenance(snapshot, SourceCloud)

	assert.Equal(t, SourceCloud, snapshot.Debug.Source)
	assert.Equal(t, "quality/latest.json", snapshot.Debug.Key)
}
