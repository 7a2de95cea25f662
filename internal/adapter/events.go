package adapter

import (
	"context"
	"strconv"
	"time"

	"OpsRecon/internal/domain/models"
	"OpsRecon/pkg/util"
)

// eventFields is the per-field precedence table shared by the alert-like
// sources. Per-kind tables below override individual entries.
type eventFields struct {
	ID           FieldSpec
	Timestamp    FieldSpec
	Title        FieldSpec
	Message      FieldSpec
	Severity     FieldSpec
	Read         FieldSpec
	Acknowledged FieldSpec
}

var defaultEventFields = eventFields{
	ID:           FieldSpec{"id", "alert_id", "event_id", "uuid"},
	Timestamp:    FieldSpec{"timestamp", "created_at", "ts", "time", "occurred_at"},
	Title:        FieldSpec{"title", "name", "rule", "subject"},
	Message:      FieldSpec{"message", "description", "detail", "details", "body"},
	Severity:     FieldSpec{"severity", "level", "priority"},
	Read:         FieldSpec{"read", "is_read", "seen"},
	Acknowledged: FieldSpec{"acknowledged", "ack", "is_acknowledged"},
}

var eventFieldsByKind = map[models.SourceKind]eventFields{
	models.SourceCompliance: {
		Title:   FieldSpec{"rule", "policy", "title", "name"},
		Message: FieldSpec{"violation", "message", "description", "detail"},
	},
	models.SourceAudit: {
		Title:   FieldSpec{"action", "operation", "title"},
		Message: FieldSpec{"detail", "details", "message", "summary"},
	},
	models.SourceAnomalies: {
		Title:   FieldSpec{"feed", "symbol", "title", "name"},
		Message: FieldSpec{"reason", "message", "description"},
	},
}

// SeverityRule derives a severity from the raw object for sources whose
// payloads carry status flags instead of explicit severities.
type SeverityRule func(raw map[string]any) models.Severity

// EventAdapter normalizes one alert-like source into TelemetryEvents.
type EventAdapter struct {
	kind     models.SourceKind
	fetch    *Fetcher
	severity SeverityRule
	now      func() time.Time
}

// NewEventAdapter creates an adapter for one event source. severity may be
// nil, in which case the payload's own severity field applies.
func NewEventAdapter(kind models.SourceKind, fetch *Fetcher, severity SeverityRule) *EventAdapter {
	return &EventAdapter{kind: kind, fetch: fetch, severity: severity, now: time.Now}
}

// Kind returns the source tag.
func (a *EventAdapter) Kind() models.SourceKind { return a.kind }

// Fetch retrieves and normalizes the source's current events.
func (a *EventAdapter) Fetch(ctx context.Context) ([]models.TelemetryEvent, error) {
	objs := a.fetch.Objects(ctx, nil)
	events := make([]models.TelemetryEvent, 0, len(objs))
	for i, raw := range objs {
		events = append(events, a.Normalize(raw, i))
	}
	return events, nil
}

// Normalize maps one raw object to a TelemetryEvent. Exposed so the live
// channel can reuse the alerts field tables for pushed frames.
func (a *EventAdapter) Normalize(raw map[string]any, ordinal int) models.TelemetryEvent {
	fields := a.fields()

	ts := a.now()
	if s, ok := fields.Timestamp.String(raw); ok {
		ts = util.ParseTimeDefault(s, ts)
	}

	ev := models.TelemetryEvent{
		Timestamp: ts,
		Source:    a.kind,
		Severity:  models.SeverityInfo,
	}

	if id, ok := fields.ID.String(raw); ok && id != "" {
		ev.ID = id
	} else {
		ev.ID = synthesizeID(a.kind, ts, ordinal)
	}
	ev.Title, _ = fields.Title.String(raw)
	ev.Message, _ = fields.Message.String(raw)
	if a.severity != nil {
		ev.Severity = a.severity(raw)
	} else if s, ok := fields.Severity.String(raw); ok {
		ev.Severity = models.ParseSeverity(s)
	}
	ev.Read, _ = fields.Read.Bool(raw)
	ev.Acknowledged, _ = fields.Acknowledged.Bool(raw)

	return ev
}

func (a *EventAdapter) fields() eventFields {
	fields := defaultEventFields
	override, ok := eventFieldsByKind[a.kind]
	if !ok {
		return fields
	}
	if override.ID != nil {
		fields.ID = override.ID
	}
	if override.Timestamp != nil {
		fields.Timestamp = override.Timestamp
	}
	if override.Title != nil {
		fields.Title = override.Title
	}
	if override.Message != nil {
		fields.Message = override.Message
	}
	if override.Severity != nil {
		fields.Severity = override.Severity
	}
	if override.Read != nil {
		fields.Read = override.Read
	}
	if override.Acknowledged != nil {
		fields.Acknowledged = override.Acknowledged
	}
	return fields
}

// synthesizeID builds a deterministic id from timestamp and ordinal for
// sources that do not assign one. Determinism keeps repeated aggregation
// cycles over unchanged data idempotent.
func synthesizeID(kind models.SourceKind, ts time.Time, ordinal int) string {
	return string(kind) + "-" + ts.UTC().Format("20060102T150405.000") + "-" + strconv.Itoa(ordinal)
}
