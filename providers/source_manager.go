package providers

import (
	"context"
	"fmt"
	"time"

	"portfolioapi.app/errors"
	"portfolioapi.app/metrics"
	"portfolioapi.app/models"
	"portfolioapi.app/providers/cache"
)

// SourceConfiguration describes which quality sources are available and how
// the chain around them behaves. ProxyURL and Bucket are optional
// capabilities; SnapshotPath is the always-present terminal fallback.
type SourceConfiguration struct {
	ProxyURL    string
	ProxySecret string

	Bucket   string
	Prefix   string
	Region   string
	Endpoint string

	SnapshotPath string
	HistoryLimit int

	CacheTTL    time.Duration
	EnableCache bool
	CacheType   string
	Cache       Cache

	EnableAuditLog bool
	AuditLogPath   string

	SourceOrder []string
}

// DefaultSourceConfiguration returns the standard priority order and cache
// behavior
func DefaultSourceConfiguration() *SourceConfiguration {
	return &SourceConfiguration{
		Prefix:       "quality",
		SnapshotPath: "data/quality-snapshot.json",
		HistoryLimit: 30,
		CacheTTL:     10 * time.Minute,
		EnableCache:  true,
		CacheType:    "memory",
		AuditLogPath: "logs/quality_sources.log",
		SourceOrder:  []string{SourceProxy, SourceCloud, SourceSnapshot},
	}
}

// SourceManager assembles the fallback chain from whichever sources are
// configured and answers snapshot, snapshot-only and history reads.
type SourceManager struct {
	primaryChain   QualitySourceChain
	cacheProxy     *QualityChainCacheProxy
	snapshotSource QualitySource
	cloudSource    *CloudSource
	cache          Cache
	logger         FileLogger
	configuration  *SourceConfiguration
}

func NewSourceManager(config *SourceConfiguration) (*SourceManager, error) {
	manager := &SourceManager{
		configuration: config,
	}

	if err := manager.initializeComponents(); err != nil {
		return nil, fmt.Errorf("initialize source manager: %w", err)
	}

	if err := manager.buildSourceChain(); err != nil {
		return nil, fmt.Errorf("build source chain: %w", err)
	}

	return manager, nil
}

func (sm *SourceManager) initializeComponents() error {
	if sm.configuration.EnableCache {
		if sm.configuration.Cache != nil {
			sm.cache = sm.configuration.Cache
		} else {
			sm.cache = cache.NewSnapshotCache(cache.NewMemoryCache())
		}
	}

	if sm.configuration.EnableAuditLog {
		logger, err := NewFileLogger(sm.configuration.AuditLogPath)
		if err != nil {
			return fmt.Errorf("create audit logger: %w", err)
		}
		sm.logger = logger
	}

	return nil
}

func (sm *SourceManager) buildSourceChain() error {
	sources := sm.createSources()

	chain := sm.buildChain(sources)
	if chain == nil {
		return fmt.Errorf("no quality sources configured")
	}

	if sm.configuration.EnableCache {
		proxy := NewQualityChainCacheProxy(chain, sm.cache, sm.configuration.CacheTTL, sm.configuration.CacheType)
		sm.cacheProxy = proxy.(*QualityChainCacheProxy)
		chain = proxy
	}

	sm.primaryChain = chain
	return nil
}

// createSources builds only the sources whose configuration is present.
// Later sources' cost is not paid until the chain actually reaches them.
func (sm *SourceManager) createSources() map[string]QualitySource {
	sources := make(map[string]QualitySource)

	if sm.configuration.ProxyURL != "" {
		var source QualitySource = NewProxySource(sm.configuration.ProxyURL, sm.configuration.ProxySecret)
		if sm.configuration.EnableAuditLog {
			source = NewSourceLoggerDecorator(source, sm.logger, SourceProxy)
		}
		sources[SourceProxy] = source
	}

	if sm.configuration.Bucket != "" {
		cloud := NewCloudSource(
			sm.configuration.Bucket,
			sm.configuration.Prefix,
			sm.configuration.Region,
			sm.configuration.Endpoint,
		)
		sm.cloudSource = cloud

		var source QualitySource = cloud
		if sm.configuration.EnableAuditLog {
			source = NewSourceLoggerDecorator(source, sm.logger, SourceCloud)
		}
		sources[SourceCloud] = source
	}

	if sm.configuration.SnapshotPath != "" {
		snapshot := NewSnapshotSource(sm.configuration.SnapshotPath)
		sm.snapshotSource = snapshot

		var source QualitySource = snapshot
		if sm.configuration.EnableAuditLog {
			source = NewSourceLoggerDecorator(source, sm.logger, SourceSnapshot)
		}
		sources[SourceSnapshot] = source
	}

	return sources
}

func (sm *SourceManager) buildChain(sources map[string]QualitySource) QualitySourceChain {
	builder := NewChainBuilder()

	for _, sourceName := range sm.configuration.SourceOrder {
		if source, exists := sources[sourceName]; exists {
			handler := sm.createHandler(sourceName, source)
			if handler != nil {
				builder.AddHandler(handler)
			}
		}
	}

	return builder.Build()
}

func (sm *SourceManager) createHandler(sourceName string, source QualitySource) QualitySourceChain {
	switch sourceName {
	case SourceProxy:
		return NewProxyHandler(source)
	case SourceCloud:
		return NewCloudHandler(source)
	case SourceSnapshot:
		return NewSnapshotHandler(source)
	default:
		return nil
	}
}

// GetSnapshot runs the full fallback chain: proxy, then direct bucket, then
// the committed snapshot. Only exhaustion of every source is fatal.
func (sm *SourceManager) GetSnapshot(ctx context.Context) (*models.QualitySnapshot, error) {
	if sm.primaryChain == nil {
		return nil, errors.NewAllSourcesFailedError(nil)
	}

	return sm.primaryChain.Handle(ctx)
}

// GetSnapshotOnly serves the committed artifact directly, bypassing proxy
// and bucket. This is the default dashboard mode.
func (sm *SourceManager) GetSnapshotOnly(ctx context.Context) (*models.QualitySnapshot, error) {
	if sm.snapshotSource == nil {
		return nil, errors.NewAllSourcesFailedError(nil)
	}

	snapshot, err := sm.snapshotSource.FetchLatest(ctx)
	if err != nil {
		return nil, errors.NewAllSourcesFailedError(err)
	}

	tagProvenance(snapshot, SourceSnapshot)
	return snapshot, nil
}

// GetHistory lists recent snapshots from the bucket. Only the cloud source
// keeps history; without a configured bucket this reports the source as
// unavailable rather than inventing history from the static artifact.
func (sm *SourceManager) GetHistory(ctx context.Context) ([]models.QualitySnapshot, error) {
	if sm.cloudSource == nil {
		return nil, errors.NewSourceError(SourceCloud, fmt.Errorf("no bucket configured"))
	}

	return sm.cloudSource.FetchHistory(ctx, sm.configuration.HistoryLimit)
}

// RefreshSnapshot drops the cached chain result and fetches a fresh one;
// used by the background warm job.
func (sm *SourceManager) RefreshSnapshot(ctx context.Context) (*models.QualitySnapshot, error) {
	if sm.cacheProxy != nil {
		sm.cacheProxy.Invalidate()
	}
	return sm.GetSnapshot(ctx)
}

// GetCacheStats exposes snapshot cache effectiveness for the debug endpoint
func (sm *SourceManager) GetCacheStats() (metrics.CacheStats, error) {
	if sm.cacheProxy == nil {
		return metrics.CacheStats{}, fmt.Errorf("snapshot cache disabled")
	}
	return sm.cacheProxy.GetCacheStats(), nil
}

// GetSourceInfo returns safe-to-expose details about the wired sources
func (sm *SourceManager) GetSourceInfo() map[string]interface{} {
	info := make(map[string]interface{})

	info["cache_enabled"] = sm.configuration.EnableCache
	info["audit_log_enabled"] = sm.configuration.EnableAuditLog
	info["cache_ttl"] = sm.configuration.CacheTTL.String()
	info["source_order"] = sm.configuration.SourceOrder
	info["proxy_configured"] = sm.configuration.ProxyURL != ""
	info["bucket_configured"] = sm.configuration.Bucket != ""

	if sm.primaryChain != nil {
		info["chain_name"] = sm.primaryChain.GetSourceName()
	}

	return info
}
