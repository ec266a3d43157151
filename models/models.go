// Package models defines data structures used throughout the application
package models

import (
	"time"
)

// Subscriber statuses
const (
	StatusPending      = "pending"
	StatusActive       = "active"
	StatusUnsubscribed = "unsubscribed"
)

// Column/attribute names shared by the store implementations. The
// subscription service addresses partial updates by these names so the
// GORM and DynamoDB stores stay interchangeable.
const (
	FieldStatus               = "status"
	FieldSource               = "source"
	FieldUpdatedAt            = "updated_at"
	FieldConfirmedAt          = "confirmed_at"
	FieldConfirmTokenHash     = "confirm_token_hash"
	FieldUnsubscribeTokenHash = "unsubscribe_token_hash"
)

// Subscriber represents one newsletter recipient, keyed by normalized email.
// ConfirmTokenHash is present exactly while the record is pending;
// UnsubscribeTokenHash exactly while it is active.
type Subscriber struct {
	Email                string     `json:"email" gorm:"primaryKey;size:320"`
	Status               string     `json:"status" gorm:"index;not null"`
	Source               string     `json:"source,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	ConfirmedAt          *time.Time `json:"confirmed_at,omitempty"`
	ConfirmTokenHash     string     `json:"-"`
	UnsubscribeTokenHash string     `json:"-"`
}

// SubscribeRequest represents the body of a subscription request.
// Honey is a hidden form field; humans leave it empty.
type SubscribeRequest struct {
	Email  string `json:"email" form:"email"`
	Source string `json:"source" form:"source"`
	Honey  string `json:"honey" form:"honey"`
}

// Project health statuses as reported in quality snapshots
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthDown     = "down"
)

// QualitySnapshot is the aggregate served to the dashboard. The shape is
// identical no matter which source produced it; provenance is only visible
// through Debug.Source.
type QualitySnapshot struct {
	GeneratedAt string          `json:"generatedAt"`
	Summary     *QualitySummary `json:"summary,omitempty"`
	Projects    []ProjectHealth `json:"projects"`
	Debug       *SnapshotDebug  `json:"debug,omitempty"`
}

// QualitySummary is the overall rollup across projects
type QualitySummary struct {
	OverallStatus string             `json:"overallStatus,omitempty"`
	Notes         string             `json:"notes,omitempty"`
	Targets       map[string]float64 `json:"targets,omitempty"`
}

// ProjectHealth describes the health of a single tracked project
type ProjectHealth struct {
	Name        string        `json:"name"`
	Repo        string        `json:"repo,omitempty"`
	Status      string        `json:"status"`
	CI          *MetricDetail `json:"ci,omitempty"`
	Tests       *MetricDetail `json:"tests,omitempty"`
	Performance *MetricDetail `json:"performance,omitempty"`
	Security    *MetricDetail `json:"security,omitempty"`
}

// MetricDetail is one sub-metric reading for a project
type MetricDetail struct {
	Status string  `json:"status,omitempty"`
	Value  float64 `json:"value,omitempty"`
	Detail string  `json:"detail,omitempty"`
}

// SnapshotDebug carries safe-to-expose provenance metadata. Never contains
// secrets; used by end-to-end verification to assert which source answered.
type SnapshotDebug struct {
	Source      string   `json:"source"`
	Key         string   `json:"key,omitempty"`
	ScannedKeys []string `json:"scannedKeys,omitempty"`
}

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}
