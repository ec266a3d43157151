package providers

import (
	"context"
	"time"

	"portfolioapi.app/models"
	"portfolioapi.app/providers/cache"
)

// QualitySource defines the contract shared by every quality data source
type QualitySource interface {
	FetchLatest(ctx context.Context) (*models.QualitySnapshot, error)
}

// QualitySourceChain defines the interface for Chain of Responsibility pattern
type QualitySourceChain interface {
	Handle(ctx context.Context) (*models.QualitySnapshot, error)
	SetNext(handler QualitySourceChain)
	GetSourceName() string
}

// Cache is an alias to avoid circular imports
type Cache = cache.CacheInterface

// FileLogger defines the interface for file logging operations
type FileLogger interface {
	LogRequest(sourceName string)
	LogResponse(sourceName string, snapshot *models.QualitySnapshot, duration time.Duration)
	LogError(sourceName string, err error, duration time.Duration)
}

// EmailProvider defines the interface for email providers
type EmailProvider interface {
	SendEmail(to, subject, body string, isHTML bool) error
}

// QualityManager defines the interface for quality source management
type QualityManager interface {
	GetSnapshot(ctx context.Context) (*models.QualitySnapshot, error)
	GetSnapshotOnly(ctx context.Context) (*models.QualitySnapshot, error)
	GetHistory(ctx context.Context) ([]models.QualitySnapshot, error)
}

// QualitySourceInfo exposes safe diagnostic details about the wired sources
type QualitySourceInfo interface {
	GetSourceInfo() map[string]interface{}
}
