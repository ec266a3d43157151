package providers

import (
	"context"
	"log/slog"

	"portfolioapi.app/errors"
	"portfolioapi.app/metrics"
	"portfolioapi.app/models"
)

// Source names used for provenance tagging. Callers never branch on
// provenance except through Debug.Source.
const (
	SourceProxy    = "proxy"
	SourceCloud    = "cloud"
	SourceSnapshot = "snapshot"
)

type BaseSourceHandler struct {
	next       QualitySourceChain
	source     QualitySource
	sourceName string
	metrics    *metrics.SourceMetrics
}

func NewBaseSourceHandler(source QualitySource, sourceName string) *BaseSourceHandler {
	return &BaseSourceHandler{
		source:     source,
		sourceName: sourceName,
		metrics:    metrics.NewSourceMetrics(sourceName),
	}
}

// Handle tries this handler's source once and short-circuits on success,
// tagging the snapshot with its provenance. A failure is non-fatal while a
// later handler remains; exhausting the chain is fatal.
func (h *BaseSourceHandler) Handle(ctx context.Context) (*models.QualitySnapshot, error) {
	if h.source != nil {
		h.metrics.RecordAttempt()

		snapshot, err := h.source.FetchLatest(ctx)
		if err == nil {
			h.metrics.RecordSuccess()
			tagProvenance(snapshot, h.sourceName)
			return snapshot, nil
		}

		h.metrics.RecordFailure()
		slog.Info("quality source failed", "source", h.sourceName, "error", err)

		if h.next == nil {
			return nil, errors.NewAllSourcesFailedError(err)
		}
	}

	if h.next != nil {
		return h.next.Handle(ctx)
	}

	return nil, errors.NewAllSourcesFailedError(nil)
}

func (h *BaseSourceHandler) SetNext(handler QualitySourceChain) {
	h.next = handler
}

func (h *BaseSourceHandler) GetSourceName() string {
	return h.sourceName
}

func tagProvenance(snapshot *models.QualitySnapshot, sourceName string) {
	if snapshot.Debug == nil {
		snapshot.Debug = &models.SnapshotDebug{}
	}
	snapshot.Debug.Source = sourceName
}

type ProxyHandler struct {
	*BaseSourceHandler
}

func NewProxyHandler(source QualitySource) QualitySourceChain {
	return &ProxyHandler{
		BaseSourceHandler: NewBaseSourceHandler(source, SourceProxy),
	}
}

type CloudHandler struct {
	*BaseSourceHandler
}

func NewCloudHandler(source QualitySource) QualitySourceChain {
	return &CloudHandler{
		BaseSourceHandler: NewBaseSourceHandler(source, SourceCloud),
	}
}

type SnapshotHandler struct {
	*BaseSourceHandler
}

func NewSnapshotHandler(source QualitySource) QualitySourceChain {
	return &SnapshotHandler{
		BaseSourceHandler: NewBaseSourceHandler(source, SourceSnapshot),
	}
}

type ChainBuilder struct {
	handlers []QualitySourceChain
}

func NewChainBuilder() *ChainBuilder {
	return &ChainBuilder{
		handlers: make([]QualitySourceChain, 0),
	}
}

func (cb *ChainBuilder) AddHandler(handler QualitySourceChain) *ChainBuilder {
	cb.handlers = append(cb.handlers, handler)
	return cb
}

func (cb *ChainBuilder) Build() QualitySourceChain {
	if len(cb.handlers) == 0 {
		return nil
	}

	for i := 0; i < len(cb.handlers)-1; i++ {
		cb.handlers[i].SetNext(cb.handlers[i+1])
	}

	return cb.handlers[0]
}
