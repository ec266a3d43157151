package providers

import (
	"context"
	"time"

	"portfolioapi.app/models"
)

// SourceLoggerDecorator writes a JSON audit line for every fetch against a
// single quality source.
type SourceLoggerDecorator struct {
	wrappedSource QualitySource
	logger        FileLogger
	sourceName    string
}

func NewSourceLoggerDecorator(source QualitySource, logger FileLogger, sourceName string) QualitySource {
	return &SourceLoggerDecorator{
		wrappedSource: source,
		logger:        logger,
		sourceName:    sourceName,
	}
}

func (d *SourceLoggerDecorator) FetchLatest(ctx context.Context) (*models.QualitySnapshot, error) {
	d.logger.LogRequest(d.sourceName)
	startTime := time.Now()

	snapshot, err := d.wrappedSource.FetchLatest(ctx)
	duration := time.Since(startTime)

	if err != nil {
		d.logger.LogError(d.sourceName, err, duration)
		return nil, err
	}

	d.logger.LogResponse(d.sourceName, snapshot, duration)
	return snapshot, nil
}
