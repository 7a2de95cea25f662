package models

import "time"

// Severity classifies a telemetry event for the unified feed.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// ParseSeverity maps a raw source value to a Severity.
// Unknown or missing values default to info.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityWarning, SeverityError, SeveritySuccess:
		return Severity(s)
	default:
		return SeverityInfo
	}
}

// SourceKind tags the adapter a telemetry event originated from.
type SourceKind string

const (
	SourceAlerts        SourceKind = "alerts"
	SourceNotifications SourceKind = "notifications"
	SourceCompliance    SourceKind = "compliance"
	SourceAudit         SourceKind = "audit"
	SourceAnomalies     SourceKind = "anomalies"
)

// TelemetryEvent is the canonical normalized record for any alert-like signal.
// Note: no transport (json/http) concerns beyond field tags here.
type TelemetryEvent struct {
	ID           string     `json:"id"`
	Timestamp    time.Time  `json:"timestamp"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	Severity     Severity   `json:"severity"`
	Read         bool       `json:"read"`
	Acknowledged bool       `json:"acknowledged,omitempty"`
	Source       SourceKind `json:"source"`
}

// RegimeSnapshot is one entry of the regime-history timeline.
type RegimeSnapshot struct {
	Regime     string    `json:"regime"`
	Confidence float64   `json:"confidence"`
	From       time.Time `json:"from"`
	To         time.Time `json:"to"`
	RecordedAt time.Time `json:"recorded_at"`
}
