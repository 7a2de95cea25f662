package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	xhttp "OpsRecon/pkg/http"
	xlogger "OpsRecon/pkg/logger"
)

func newTestLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// recordingMetrics counts recorder calls for assertions.
type recordingMetrics struct {
	sourceFailures map[string]int
	ingested       map[string]int
	writebacks     map[string]int
	liveModes      []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		sourceFailures: make(map[string]int),
		ingested:       make(map[string]int),
		writebacks:     make(map[string]int),
	}
}

func (m *recordingMetrics) RecordSourceFailure(source string)    { m.sourceFailures[source]++ }
func (m *recordingMetrics) RecordIngested(source string, n int)  { m.ingested[source] += n }
func (m *recordingMetrics) RecordFeedSize(int)                   {}
func (m *recordingMetrics) RecordLiveMode(mode string)           { m.liveModes = append(m.liveModes, mode) }
func (m *recordingMetrics) RecordFusion(int, int)                {}
func (m *recordingMetrics) RecordWritebackFailure(action string) { m.writebacks[action]++ }
func (m *recordingMetrics) RecordLatency(string, float64)        {}

func TestFetcherFirstPathWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/alerts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"a"}]}`))
	}))
	defer server.Close()

	client := xhttp.NewClient(xhttp.WithTimeout(5 * time.Second))
	f := NewFetcher("alerts", server.URL, []string{"/api/alerts", "/api/v2/alerts"}, client)

	objs := f.Objects(context.Background(), nil)
	if len(objs) != 1 || objs[0]["id"] != "a" {
		t.Errorf("objs = %v, want one object from first path", objs)
	}
}

func TestFetcherFallsBackOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/alerts":
			http.NotFound(w, r)
		case "/api/v2/alerts":
			w.Write([]byte(`[{"id":"moved"}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := xhttp.NewClient(xhttp.WithTimeout(5 * time.Second))
	f := NewFetcher("alerts", server.URL, []string{"/api/alerts", "/api/v2/alerts"}, client)

	objs := f.Objects(context.Background(), nil)
	if len(objs) != 1 || objs[0]["id"] != "moved" {
		t.Errorf("objs = %v, want fallback path result", objs)
	}
}

func TestFetcherTotalFailureYieldsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	m := newRecordingMetrics()
	client := xhttp.NewClient(xhttp.WithTimeout(5 * time.Second))
	f := NewFetcher("alerts", server.URL, []string{"/a", "/b"}, client,
		WithLogger(newTestLogger(t)),
		WithMetrics(m),
	)

	if objs := f.Objects(context.Background(), nil); objs != nil {
		t.Errorf("objs = %v, want nil on total failure", objs)
	}
	if m.sourceFailures["alerts"] != 1 {
		t.Errorf("sourceFailures = %d, want 1", m.sourceFailures["alerts"])
	}
}

func TestFetcherQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q, want 50", got)
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := xhttp.NewClient(xhttp.WithTimeout(5 * time.Second))
	f := NewFetcher("live", server.URL, []string{"/api/alerts"}, client)

	f.Objects(context.Background(), map[string][]string{"limit": {"50"}})
}
