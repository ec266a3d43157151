package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"portfolioapi.app/metrics"
	"portfolioapi.app/models"
)

const latestSnapshotCacheKey = "quality:latest"

// QualityChainCacheProxy caches the result of the full aggregation chain
// for a TTL so dashboard polling does not hammer the proxy or the bucket.
type QualityChainCacheProxy struct {
	realChain QualitySourceChain
	cache     Cache
	cacheTTL  time.Duration
	metrics   *metrics.CacheMetrics
}

// NewQualityChainCacheProxy creates a caching proxy for the source chain
func NewQualityChainCacheProxy(realChain QualitySourceChain, cache Cache, cacheTTL time.Duration, cacheType string) QualitySourceChain {
	return &QualityChainCacheProxy{
		realChain: realChain,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics.NewCacheMetrics(cacheType),
	}
}

// Handle implements caching for the chain of responsibility
func (p *QualityChainCacheProxy) Handle(ctx context.Context) (*models.QualitySnapshot, error) {
	if cached, found := p.cache.Get(latestSnapshotCacheKey); found {
		p.metrics.RecordHit()
		slog.Debug("snapshot cache hit")
		return cached, nil
	}

	p.metrics.RecordMiss()
	slog.Debug("snapshot cache miss")

	snapshot, err := p.realChain.Handle(ctx)
	if err != nil {
		return nil, err
	}

	p.cache.Set(latestSnapshotCacheKey, snapshot, p.cacheTTL)

	return snapshot, nil
}

// Invalidate drops the cached snapshot so the next Handle refetches
func (p *QualityChainCacheProxy) Invalidate() {
	p.cache.Delete(latestSnapshotCacheKey)
}

// GetCacheStats returns current cache effectiveness numbers
func (p *QualityChainCacheProxy) GetCacheStats() metrics.CacheStats {
	return p.metrics.GetStats()
}

// SetNext delegates to the real chain
func (p *QualityChainCacheProxy) SetNext(handler QualitySourceChain) {
	p.realChain.SetNext(handler)
}

// GetSourceName returns a descriptive name for the cached chain
func (p *QualityChainCacheProxy) GetSourceName() string {
	return fmt.Sprintf("Cached(%s)", p.realChain.GetSourceName())
}
