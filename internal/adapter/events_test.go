package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"OpsRecon/internal/domain/models"
	xhttp "OpsRecon/pkg/http"
)

func TestEventAdapterNormalize(t *testing.T) {
	a := NewEventAdapter(models.SourceAlerts, nil, nil)

	ev := a.Normalize(map[string]any{
		"id":        "alert-1",
		"timestamp": "2026-08-29T10:00:00Z",
		"title":     "Order router stalled",
		"message":   "latency above budget",
		"severity":  "error",
		"read":      true,
	}, 0)

	if ev.ID != "alert-1" {
		t.Errorf("ID = %q, want alert-1", ev.ID)
	}
	want := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	if !ev.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", ev.Timestamp, want)
	}
	if ev.Severity != models.SeverityError {
		t.Errorf("Severity = %q, want error", ev.Severity)
	}
	if !ev.Read {
		t.Error("Read = false, want true")
	}
	if ev.Source != models.SourceAlerts {
		t.Errorf("Source = %q, want alerts", ev.Source)
	}
}

func TestEventAdapterFieldFallbacks(t *testing.T) {
	a := NewEventAdapter(models.SourceNotifications, nil, nil)

	ev := a.Normalize(map[string]any{
		"event_id":   "n-7",
		"created_at": "2026-08-29T09:30:00Z",
		"name":       "fill report",
		"body":       "order filled",
		"level":      "success",
	}, 0)

	if ev.ID != "n-7" {
		t.Errorf("ID = %q, want n-7 via event_id fallback", ev.ID)
	}
	if ev.Title != "fill report" {
		t.Errorf("Title = %q, want name fallback", ev.Title)
	}
	if ev.Message != "order filled" {
		t.Errorf("Message = %q, want body fallback", ev.Message)
	}
	if ev.Severity != models.SeveritySuccess {
		t.Errorf("Severity = %q, want success", ev.Severity)
	}
}

func TestEventAdapterKindOverrides(t *testing.T) {
	a := NewEventAdapter(models.SourceCompliance, nil, nil)

	ev := a.Normalize(map[string]any{
		"id":        "c-1",
		"timestamp": "2026-08-29T08:00:00Z",
		"rule":      "max-exposure",
		"violation": "position limit exceeded",
	}, 0)

	if ev.Title != "max-exposure" {
		t.Errorf("Title = %q, want rule field for compliance", ev.Title)
	}
	if ev.Message != "position limit exceeded" {
		t.Errorf("Message = %q, want violation field", ev.Message)
	}
}

func TestEventAdapterSeverityRule(t *testing.T) {
	rule := func(raw map[string]any) models.Severity {
		return models.SeverityWarning
	}
	a := NewEventAdapter(models.SourceAudit, nil, rule)

	ev := a.Normalize(map[string]any{
		"id":       "a-1",
		"severity": "error", // rule wins over the payload field
	}, 0)
	if ev.Severity != models.SeverityWarning {
		t.Errorf("Severity = %q, want rule result", ev.Severity)
	}
}

func TestEventAdapterUnknownSeverityDefaultsInfo(t *testing.T) {
	a := NewEventAdapter(models.SourceAlerts, nil, nil)
	ev := a.Normalize(map[string]any{"id": "x", "severity": "catastrophic"}, 0)
	if ev.Severity != models.SeverityInfo {
		t.Errorf("Severity = %q, want info for unknown value", ev.Severity)
	}
}

func TestEventAdapterTimestampFallback(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	a := NewEventAdapter(models.SourceAlerts, nil, nil)
	a.now = func() time.Time { return now }

	for _, raw := range []map[string]any{
		{"id": "no-ts"},
		{"id": "bad-ts", "timestamp": "yesterday-ish"},
	} {
		ev := a.Normalize(raw, 0)
		if !ev.Timestamp.Equal(now) {
			t.Errorf("Timestamp for %v = %v, want ingestion time", raw, ev.Timestamp)
		}
	}
}

func TestEventAdapterSynthesizedIDDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	a := NewEventAdapter(models.SourceAudit, nil, nil)
	a.now = func() time.Time { return now }

	raw := map[string]any{"action": "login", "timestamp": "2026-08-29T07:00:00Z"}
	first := a.Normalize(raw, 3)
	second := a.Normalize(raw, 3)
	if first.ID == "" {
		t.Fatal("expected synthesized id")
	}
	if first.ID != second.ID {
		t.Errorf("ids differ across runs: %q vs %q", first.ID, second.ID)
	}
	other := a.Normalize(raw, 4)
	if other.ID == first.ID {
		t.Error("different ordinals should synthesize different ids")
	}
}

func TestEventAdapterFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"id":"1","timestamp":"2026-08-29T10:00:00Z","title":"one"},
			{"id":"2","timestamp":"2026-08-29T11:00:00Z","title":"two"}
		]}`))
	}))
	defer server.Close()

	client := xhttp.NewClient(xhttp.WithTimeout(5 * time.Second))
	f := NewFetcher("alerts", server.URL, []string{"/alerts"}, client)
	a := NewEventAdapter(models.SourceAlerts, f, nil)

	events, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Title != "one" || events[1].Title != "two" {
		t.Errorf("titles = %q, %q", events[0].Title, events[1].Title)
	}
}
