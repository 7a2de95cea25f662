package repository

import (
	"context"

	"OpsRecon/internal/domain/models"
)

// EventSource contributes zero or more telemetry events per aggregation cycle.
// Implementations swallow their own fetch/parse failures and return an empty
// slice; a returned error only skips the source for the current cycle.
type EventSource interface {
	Kind() models.SourceKind
	Fetch(ctx context.Context) ([]models.TelemetryEvent, error)
}

// StateWriter pushes read/acknowledge state back to a source that supports
// server-side state. Calls are best-effort: the caller never rolls back local
// state on failure.
type StateWriter interface {
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Acknowledge(ctx context.Context, id string) error
}

// EventBus publishes normalized telemetry events to the ops event bus.
type EventBus interface {
	PublishEvents(ctx context.Context, events []models.TelemetryEvent) error
	Close() error
}

// Archive persists reconciled telemetry for retrospective review.
type Archive interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreEvents(ctx context.Context, events []models.TelemetryEvent) error
	StoreCells(ctx context.Context, cells []*models.MergedCell) error
	Health(ctx context.Context) error // ping
	Close() error
}

// Metrics records operational instrumentation for the reconciliation layer.
type Metrics interface {
	RecordSourceFailure(source string)
	RecordIngested(source string, n int)
	RecordFeedSize(n int)
	RecordLiveMode(mode string)
	RecordFusion(cells, discrepant int)
	RecordWritebackFailure(action string)
	RecordLatency(op string, seconds float64)
}
