package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type qualityCollector struct {
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheRequests  *prometheus.CounterVec
	cacheHitRatio  *prometheus.GaugeVec
	sourceAttempts *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	sourceServed   *prometheus.CounterVec
}

var (
	globalCollector *qualityCollector
	collectorOnce   sync.Once
)

func getCollector() *qualityCollector {
	collectorOnce.Do(func() {
		globalCollector = &qualityCollector{
			cacheHits: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "quality_cache_hits_total",
					Help: "The total number of snapshot cache hits",
				},
				[]string{"cache_type"},
			),
			cacheMisses: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "quality_cache_misses_total",
					Help: "The total number of snapshot cache misses",
				},
				[]string{"cache_type"},
			),
			cacheRequests: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "quality_cache_requests_total",
					Help: "The total number of snapshot cache requests",
				},
				[]string{"cache_type"},
			),
			cacheHitRatio: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "quality_cache_hit_ratio",
					Help: "Snapshot cache hit ratio (hits/total requests)",
				},
				[]string{"cache_type"},
			),
			sourceAttempts: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "quality_source_attempts_total",
					Help: "Fetch attempts per quality source",
				},
				[]string{"source"},
			),
			sourceFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "quality_source_failures_total",
					Help: "Failed fetches per quality source (each triggers chain fallthrough)",
				},
				[]string{"source"},
			),
			sourceServed: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "quality_source_served_total",
					Help: "Snapshots actually served per quality source",
				},
				[]string{"source"},
			),
		}
	})
	return globalCollector
}

// CacheStats is a point-in-time view of snapshot cache effectiveness
type CacheStats struct {
	CacheType string  `json:"cache_type"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Total     int64   `json:"total"`
	HitRatio  float64 `json:"hit_ratio"`
}

// CacheMetrics tracks snapshot cache hits and misses for one cache backend
type CacheMetrics struct {
	cacheType string
	hits      int64
	misses    int64
	total     int64
	collector *qualityCollector
	mu        sync.RWMutex
}

func NewCacheMetrics(cacheType string) *CacheMetrics {
	return &CacheMetrics{
		cacheType: cacheType,
		collector: getCollector(),
	}
}

func (m *CacheMetrics) RecordHit() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hits++
	m.total++
	m.collector.cacheHits.WithLabelValues(m.cacheType).Inc()
	m.collector.cacheRequests.WithLabelValues(m.cacheType).Inc()
	m.updateHitRatio()
}

func (m *CacheMetrics) RecordMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.misses++
	m.total++
	m.collector.cacheMisses.WithLabelValues(m.cacheType).Inc()
	m.collector.cacheRequests.WithLabelValues(m.cacheType).Inc()
	m.updateHitRatio()
}

// updateHitRatio updates the Prometheus hit ratio gauge.
// Must be called while holding the mutex.
func (m *CacheMetrics) updateHitRatio() {
	if m.total > 0 {
		ratio := float64(m.hits) / float64(m.total)
		m.collector.cacheHitRatio.WithLabelValues(m.cacheType).Set(ratio)
	}
}

func (m *CacheMetrics) GetStats() CacheStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var hitRatio float64
	if m.total > 0 {
		hitRatio = float64(m.hits) / float64(m.total)
	}

	return CacheStats{
		CacheType: m.cacheType,
		Hits:      m.hits,
		Misses:    m.misses,
		Total:     m.total,
		HitRatio:  hitRatio,
	}
}

// SourceMetrics tracks attempts, failures and served snapshots for one
// quality source in the fallback chain
type SourceMetrics struct {
	source    string
	collector *qualityCollector
}

func NewSourceMetrics(source string) *SourceMetrics {
	return &SourceMetrics{
		source:    source,
		collector: getCollector(),
	}
}

func (m *SourceMetrics) RecordAttempt() {
	m.collector.sourceAttempts.WithLabelValues(m.source).Inc()
}

func (m *SourceMetrics) RecordFailure() {
	m.collector.sourceFailures.WithLabelValues(m.source).Inc()
}

func (m *SourceMetrics) RecordSuccess() {
	m.collector.sourceServed.WithLabelValues(m.source).Inc()
}
