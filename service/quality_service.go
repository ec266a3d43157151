package service

import (
	"context"
	"log/slog"

	"portfolioapi.app/errors"
	"portfolioapi.app/models"
	"portfolioapi.app/providers"
)

// Dashboard read modes
const (
	ModeSnapshot = "snapshot"
	ModeCloud    = "cloud"
	ModeAWS      = "aws"
	ModeHistory  = "history"
)

// QualityService answers dashboard reads by dispatching to the source
// manager. Mode selects the path: the default serves the committed
// snapshot, cloud mode runs the full proxy/bucket/snapshot fallback chain.
type QualityService struct {
	manager providers.QualityManager
}

// NewQualityService creates a quality service over the given manager
func NewQualityService(manager providers.QualityManager) *QualityService {
	return &QualityService{
		manager: manager,
	}
}

// GetSnapshot returns the latest snapshot for the requested mode
func (s *QualityService) GetSnapshot(ctx context.Context, mode string) (*models.QualitySnapshot, error) {
	switch mode {
	case "", ModeSnapshot:
		return s.manager.GetSnapshotOnly(ctx)
	case ModeCloud, ModeAWS:
		snapshot, err := s.manager.GetSnapshot(ctx)
		if err != nil {
			slog.Error("quality aggregation failed", "error", err)
			return nil, err
		}
		return snapshot, nil
	default:
		return nil, errors.NewValidationError("unknown mode: " + mode)
	}
}

// GetHistory returns recent snapshots, newest first
func (s *QualityService) GetHistory(ctx context.Context) ([]models.QualitySnapshot, error) {
	return s.manager.GetHistory(ctx)
}
