package store

import (
	"context"
	"errors"

	"alert-relay-go/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// AlertStore handles alert record operations.
type AlertStore interface {
	SaveAlert(ctx context.Context, a models.Alert) error
	// UpdateAlert performs a partial field merge. Field names follow
	// the translation table in postgres.go; unknown names are an
	// error. Returns false when no row matched the id.
	UpdateAlert(ctx context.Context, id string, fields map[string]any) (bool, error)
	// AcknowledgeAlert writes the acknowledged fields together, only
	// when the alert is not yet acknowledged. Returns false when the
	// row is missing or another acknowledger got there first.
	AcknowledgeAlert(ctx context.Context, id, actor string, atMs int64) (bool, error)
	GetAlert(ctx context.Context, id string) (models.Alert, error)
	ListRecentAlerts(ctx context.Context, limit int, includeAcked bool) ([]models.Alert, error)
	DeleteAlertsBefore(ctx context.Context, cutoffMs int64) (int64, error)
}

// SilenceStore handles suppression rule operations.
type SilenceStore interface {
	SaveSilence(ctx context.Context, s models.Silence) error
	// ListActiveSilences excludes expired silences even when their
	// active flag has not been swept yet. Most recent first.
	ListActiveSilences(ctx context.Context, nowMs int64) ([]models.Silence, error)
	DeactivateSilence(ctx context.Context, id string) (bool, error)
	DeactivateExpiredSilences(ctx context.Context, nowMs int64) (int64, error)
}

// DecisionStore handles the routing audit log.
type DecisionStore interface {
	SaveDecision(ctx context.Context, d models.RoutingDecision) error
	ListRecentDecisions(ctx context.Context, limit int) ([]models.RoutingDecision, error)
	DeleteDecisionsBefore(ctx context.Context, cutoffMs int64) (int64, error)
}

// Store is the full persistence contract; the Postgres implementation
// is the single serialization point for all components.
type Store interface {
	AlertStore
	SilenceStore
	DecisionStore
}
