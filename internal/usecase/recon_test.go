package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"OpsRecon/internal/adapter"
	"OpsRecon/internal/aggregator"
	"OpsRecon/internal/domain/models"
	drepo "OpsRecon/internal/domain/repository"
	"OpsRecon/internal/fusion"
	"OpsRecon/internal/history"
	icache "OpsRecon/internal/service/cache"
	"OpsRecon/pkg/cache"
	xhttp "OpsRecon/pkg/http"
	xlogger "OpsRecon/pkg/logger"
)

type fakeSource struct {
	kind   models.SourceKind
	events []models.TelemetryEvent
}

func (s *fakeSource) Kind() models.SourceKind { return s.kind }
func (s *fakeSource) Fetch(context.Context) ([]models.TelemetryEvent, error) {
	return s.events, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordSourceFailure(string)    {}
func (nopMetrics) RecordIngested(string, int)    {}
func (nopMetrics) RecordFeedSize(int)            {}
func (nopMetrics) RecordLiveMode(string)         {}
func (nopMetrics) RecordFusion(int, int)         {}
func (nopMetrics) RecordWritebackFailure(string) {}
func (nopMetrics) RecordLatency(string, float64) {}

type recordingArchive struct {
	storedEvents atomic.Int32
	storedCells  atomic.Int32
}

func (a *recordingArchive) Init(context.Context) error { return nil }
func (a *recordingArchive) StoreEvents(_ context.Context, events []models.TelemetryEvent) error {
	a.storedEvents.Add(int32(len(events)))
	return nil
}
func (a *recordingArchive) StoreCells(_ context.Context, cells []*models.MergedCell) error {
	a.storedCells.Add(int32(len(cells)))
	return nil
}
func (a *recordingArchive) Health(context.Context) error { return nil }
func (a *recordingArchive) Close() error                 { return nil }

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testService(t *testing.T, sources []drepo.EventSource, archive drepo.Archive, fetches *atomic.Int32) (*ReconService, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetches != nil {
			fetches.Add(1)
		}
		if r.URL.Path == "/latency" {
			w.Write([]byte(`[{"venue":"binance","bucketKey":"2026-08-29T10:00","p50Latency":12}]`))
			return
		}
		w.Write([]byte(`[{"venue":"binance","bucketKey":"2026-08-29T10:00","predictedCost":10,"realizedCost":20}]`))
	}))

	log := testLogger(t)
	client := xhttp.NewClient(xhttp.WithTimeout(5 * time.Second))
	lat := adapter.NewLatencyAdapter(adapter.NewFetcher("latency", server.URL, []string{"/latency"}, client))
	imp := adapter.NewImpactAdapter(adapter.NewFetcher("impact", server.URL, []string{"/impact"}, client))
	eng := fusion.New(lat, imp, 0, log, nil)

	agg := aggregator.New(sources, log, nopMetrics{})
	ring := history.NewRing(cache.NewMemoryCache(), "test:regimes", 5)

	svc := NewReconService(agg, eng, nil, ring, archive, icache.NewTTLCache(), log)
	return svc, server.Close
}

func TestFeedFilterAndLimit(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	sources := []drepo.EventSource{
		&fakeSource{kind: models.SourceAlerts, events: []models.TelemetryEvent{
			{ID: "al-1", Timestamp: base.Add(2 * time.Minute), Source: models.SourceAlerts},
			{ID: "al-2", Timestamp: base.Add(4 * time.Minute), Source: models.SourceAlerts},
		}},
		&fakeSource{kind: models.SourceAudit, events: []models.TelemetryEvent{
			{ID: "au-1", Timestamp: base.Add(3 * time.Minute), Source: models.SourceAudit},
		}},
	}
	svc, done := testService(t, sources, nil, nil)
	defer done()
	svc.RefreshFeed(context.Background())

	all := svc.Feed("", 0)
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}

	alerts := svc.Feed("alerts", 0)
	if len(alerts) != 2 {
		t.Errorf("alerts len = %d, want 2", len(alerts))
	}
	for _, ev := range alerts {
		if ev.Source != models.SourceAlerts {
			t.Errorf("filtered feed contains %s", ev.Source)
		}
	}

	limited := svc.Feed("", 1)
	if len(limited) != 1 || limited[0].ID != "al-2" {
		t.Errorf("limited = %v, want newest only", limited)
	}
}

func TestRefreshFeedArchives(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	archive := &recordingArchive{}
	sources := []drepo.EventSource{
		&fakeSource{kind: models.SourceAlerts, events: []models.TelemetryEvent{
			{ID: "al-1", Timestamp: base, Source: models.SourceAlerts},
		}},
	}
	svc, done := testService(t, sources, archive, nil)
	defer done()

	svc.RefreshFeed(context.Background())
	if got := archive.storedEvents.Load(); got != 1 {
		t.Errorf("archived events = %d, want 1", got)
	}
}

func TestRefreshFeedAfterShutdownDiscards(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	archive := &recordingArchive{}
	sources := []drepo.EventSource{
		&fakeSource{kind: models.SourceAlerts, events: []models.TelemetryEvent{
			{ID: "al-1", Timestamp: base, Source: models.SourceAlerts},
		}},
	}
	svc, done := testService(t, sources, archive, nil)
	defer done()

	svc.Shutdown()
	svc.RefreshFeed(context.Background())
	if got := archive.storedEvents.Load(); got != 0 {
		t.Errorf("archived events = %d, want 0 after shutdown", got)
	}
}

func TestHeatmapCachesByRequest(t *testing.T) {
	var fetches atomic.Int32
	svc, done := testService(t, nil, nil, &fetches)
	defer done()

	req := &models.HeatmapRequest{Window: "1h"}
	first := svc.Heatmap(context.Background(), req)
	if first == nil || first.DiscrepantCount != 1 {
		t.Fatalf("first = %+v, want one discrepant cell", first)
	}
	after := fetches.Load()

	second := svc.Heatmap(context.Background(), req)
	if second.DiscrepantCount != 1 {
		t.Errorf("second = %+v", second)
	}
	if fetches.Load() != after {
		t.Errorf("fetches = %d, want no upstream traffic on cached request", fetches.Load())
	}

	// a different request misses the cache
	svc.Heatmap(context.Background(), &models.HeatmapRequest{Window: "1h", Venue: "binance"})
	if fetches.Load() == after {
		t.Error("distinct request should reach upstream")
	}
}

func TestHeatmapArchivesDiscrepantCells(t *testing.T) {
	archive := &recordingArchive{}
	svc, done := testService(t, nil, archive, nil)
	defer done()

	svc.Heatmap(context.Background(), &models.HeatmapRequest{Window: "1h"})
	if got := archive.storedCells.Load(); got != 1 {
		t.Errorf("archived cells = %d, want 1", got)
	}
}

func TestRecordRegimeStampsTime(t *testing.T) {
	svc, done := testService(t, nil, nil, nil)
	defer done()
	ctx := context.Background()

	if err := svc.RecordRegime(ctx, models.RegimeSnapshot{Regime: "choppy"}); err != nil {
		t.Fatalf("RecordRegime: %v", err)
	}
	entries, err := svc.RegimeHistory(ctx, 0)
	if err != nil {
		t.Fatalf("RegimeHistory: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	if entries[0].RecordedAt.IsZero() {
		t.Error("RecordedAt not stamped")
	}
}

func TestFusionParamsExplicitRangeWins(t *testing.T) {
	p := fusionParams(&models.HeatmapRequest{
		Window: "1h",
		From:   "2026-08-29T09:00:00Z",
		To:     "2026-08-29T10:00:00Z",
	})
	if !p.Window.Explicit() {
		t.Fatal("explicit range not active")
	}

	p = fusionParams(&models.HeatmapRequest{Window: "24h", From: "garbage", To: "2026-08-29T10:00:00Z"})
	if p.Window.Explicit() {
		t.Error("partial range must fall back to the named window")
	}
	if p.Window.Named != "24h" {
		t.Errorf("Named = %q, want 24h", p.Window.Named)
	}
}
