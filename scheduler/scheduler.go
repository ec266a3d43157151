// Package scheduler implements background job scheduling
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"portfolioapi.app/config"
	"portfolioapi.app/models"
)

// SnapshotRefresher is the piece of the quality pipeline the scheduler
// drives: dropping the cached snapshot and re-walking the source chain.
type SnapshotRefresher interface {
	RefreshSnapshot(ctx context.Context) (*models.QualitySnapshot, error)
}

// Scheduler periodically warms the quality snapshot cache so readers
// rarely pay the cost of a cold chain walk.
type Scheduler struct {
	config    *config.Config
	refresher SnapshotRefresher
	stop      chan struct{}
}

// NewScheduler creates and configures a new task scheduler
func NewScheduler(cfg *config.Config, refresher SnapshotRefresher) *Scheduler {
	return &Scheduler{
		config:    cfg,
		refresher: refresher,
		stop:      make(chan struct{}),
	}
}

// Start begins the scheduler's operations
func (s *Scheduler) Start() {
	if !s.config.Scheduler.Enabled || s.refresher == nil {
		slog.Info("snapshot scheduler disabled")
		return
	}

	interval := time.Duration(s.config.Scheduler.SnapshotRefreshMinutes) * time.Minute
	go s.scheduleInterval(interval, s.refreshSnapshot)
}

// Stop terminates the scheduled jobs
func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) scheduleInterval(interval time.Duration, job func()) {
	job()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			job()
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) refreshSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.refresher.RefreshSnapshot(ctx); err != nil {
		slog.Error("snapshot refresh failed", "error", err)
		return
	}
	slog.Debug("snapshot cache refreshed")
}
