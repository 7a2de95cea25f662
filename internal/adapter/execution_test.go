package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	xhttp "OpsRecon/pkg/http"
)

func execFetcher(t *testing.T, name, body string) (*Fetcher, func()) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	client := xhttp.NewClient(xhttp.WithTimeout(5 * time.Second))
	return NewFetcher(name, server.URL, []string{"/" + name}, client), server.Close
}

func TestLatencyAdapterFieldRenames(t *testing.T) {
	f, done := execFetcher(t, "latency", `[
		{"venue":"binance","bucketKey":"2026-08-29T10:00","p50Latency":12,"p95Latency":40,"p50Slippage":1.5,"fillRate":0.98,"depthUsd":250000},
		{"exchange":"okx","time_bucket":"2026-08-29T10:00","latencyMs":30,"spread_bps":2.25}
	]`)
	defer done()

	samples := NewLatencyAdapter(f).Fetch(context.Background(), nil)
	if len(samples) != 2 {
		t.Fatalf("len = %d, want 2", len(samples))
	}

	if samples[0].Venue != "binance" || samples[0].P50Latency != 12 {
		t.Errorf("canonical sample = %+v", samples[0])
	}
	if samples[0].DepthUSD == nil || *samples[0].DepthUSD != 250000 {
		t.Errorf("DepthUSD = %v, want 250000", samples[0].DepthUSD)
	}

	legacy := samples[1]
	if legacy.Venue != "okx" {
		t.Errorf("Venue = %q, want exchange fallback", legacy.Venue)
	}
	if legacy.BucketKey != "2026-08-29T10:00" {
		t.Errorf("BucketKey = %q, want time_bucket fallback", legacy.BucketKey)
	}
	if legacy.P50Latency != 30 {
		t.Errorf("P50Latency = %v, want latencyMs fallback", legacy.P50Latency)
	}
	if legacy.P50Slippage != 2.25 {
		t.Errorf("P50Slippage = %v, want spread_bps fallback", legacy.P50Slippage)
	}
	if legacy.DepthUSD != nil {
		t.Errorf("DepthUSD = %v, want nil when absent", *legacy.DepthUSD)
	}
}

func TestLatencyAdapterSkipsUnkeyedObjects(t *testing.T) {
	f, done := execFetcher(t, "latency", `[
		{"p50Latency":12},
		{"venue":"binance","p50Latency":9},
		{"bucketKey":"2026-08-29T10:00","p50Latency":3}
	]`)
	defer done()

	samples := NewLatencyAdapter(f).Fetch(context.Background(), nil)
	if len(samples) != 0 {
		t.Errorf("len = %d, want 0: objects without both venue and bucket are dropped", len(samples))
	}
}

func TestImpactAdapterFieldRenames(t *testing.T) {
	f, done := execFetcher(t, "impact", `{"data":[
		{"venue":"binance","bucket":"2026-08-29T10:00","predictedCost":10,"realizedCost":13},
		{"venue":"okx","bucket":"2026-08-29T10:00","model_cost_bps":5,"actual_cost_bps":5.5}
	]}`)
	defer done()

	samples := NewImpactAdapter(f).Fetch(context.Background(), nil)
	if len(samples) != 2 {
		t.Fatalf("len = %d, want 2", len(samples))
	}
	if samples[0].PredictedCost != 10 || samples[0].RealizedCost != 13 {
		t.Errorf("canonical sample = %+v", samples[0])
	}
	if samples[1].PredictedCost != 5 || samples[1].RealizedCost != 5.5 {
		t.Errorf("legacy sample = %+v, want model/actual cost fallbacks", samples[1])
	}
}

func TestWritebackClientPaths(t *testing.T) {
	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := xhttp.NewClient(xhttp.WithTimeout(5 * time.Second))
	wb := NewWritebackClient(server.URL, client,
		"/api/notifications/:id/read",
		"/api/notifications/read-all",
		"/api/anomalies/:id/ack",
	)
	ctx := context.Background()

	if err := wb.MarkRead(ctx, "n-9"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/api/notifications/n-9/read" {
		t.Errorf("MarkRead sent %s %s", gotMethod, gotPath)
	}

	if err := wb.MarkAllRead(ctx); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/notifications/read-all" {
		t.Errorf("MarkAllRead sent %s %s", gotMethod, gotPath)
	}

	if err := wb.Acknowledge(ctx, "an-3"); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if gotPath != "/api/anomalies/an-3/ack" {
		t.Errorf("Acknowledge sent %s %s", gotMethod, gotPath)
	}
}

func TestWritebackClientUnsupported(t *testing.T) {
	client := xhttp.NewClient()
	wb := NewWritebackClient("http://unused", client, "", "", "")
	if err := wb.MarkRead(context.Background(), "x"); err == nil {
		t.Error("MarkRead with empty path should error")
	}
	if err := wb.Acknowledge(context.Background(), "x"); err == nil {
		t.Error("Acknowledge with empty path should error")
	}
}
