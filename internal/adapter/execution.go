package adapter

import (
	"context"

	"OpsRecon/internal/domain/models"
)

// Field tables for the execution telemetry feeds. The latency feed renamed
// its percentile fields once; the impact feed moved endpoints twice and
// renamed its cost fields along the way.
var (
	venueField  = FieldSpec{"venue", "exchange", "venue_id"}
	bucketField = FieldSpec{"bucketKey", "bucket", "time_bucket", "hour", "window"}
	symbolField = FieldSpec{"symbol", "instrument", "pair"}

	p50LatencyField  = FieldSpec{"p50Latency", "latencyMs", "latency", "p50_latency_ms"}
	p95LatencyField  = FieldSpec{"p95Latency", "p95_latency_ms", "latency_p95"}
	p50SlippageField = FieldSpec{"p50Slippage", "spread_bps", "spreadBps", "spread", "p50_slippage_bps"}
	p95SlippageField = FieldSpec{"p95Slippage", "p95_slippage_bps", "slippage_p95"}
	fillRateField    = FieldSpec{"fillRate", "fill_rate", "fills"}
	depthField       = FieldSpec{"depthUsd", "depth_usd", "depth"}

	predictedField = FieldSpec{"predictedCost", "predicted_cost", "predicted", "model_cost_bps"}
	realizedField  = FieldSpec{"realizedCost", "realized_cost", "realized", "actual_cost_bps"}
)

// LatencyAdapter normalizes the latency/fill telemetry feed.
type LatencyAdapter struct {
	fetch *Fetcher
}

// NewLatencyAdapter creates a latency feed adapter.
func NewLatencyAdapter(fetch *Fetcher) *LatencyAdapter {
	return &LatencyAdapter{fetch: fetch}
}

// Fetch retrieves latency samples. Failures yield an empty slice.
func (a *LatencyAdapter) Fetch(ctx context.Context, query map[string][]string) []models.LatencySample {
	objs := a.fetch.Objects(ctx, query)
	samples := make([]models.LatencySample, 0, len(objs))
	for _, raw := range objs {
		venue, ok := venueField.String(raw)
		if !ok {
			continue
		}
		bucket, ok := bucketField.String(raw)
		if !ok {
			continue
		}
		sample := models.LatencySample{
			Venue:       venue,
			BucketKey:   bucket,
			P50Latency:  p50LatencyField.NumberOrZero(raw),
			P95Latency:  p95LatencyField.NumberOrZero(raw),
			P50Slippage: p50SlippageField.NumberOrZero(raw),
			P95Slippage: p95SlippageField.NumberOrZero(raw),
			FillRate:    fillRateField.NumberOrZero(raw),
			DepthUSD:    depthField.NumberOptional(raw),
		}
		sample.Symbol, _ = symbolField.String(raw)
		samples = append(samples, sample)
	}
	return samples
}

// ImpactAdapter normalizes the predicted-vs-realized cost telemetry feed.
type ImpactAdapter struct {
	fetch *Fetcher
}

// NewImpactAdapter creates an impact feed adapter.
func NewImpactAdapter(fetch *Fetcher) *ImpactAdapter {
	return &ImpactAdapter{fetch: fetch}
}

// Fetch retrieves impact samples. Failures yield an empty slice.
func (a *ImpactAdapter) Fetch(ctx context.Context, query map[string][]string) []models.ImpactSample {
	objs := a.fetch.Objects(ctx, query)
	samples := make([]models.ImpactSample, 0, len(objs))
	for _, raw := range objs {
		venue, ok := venueField.String(raw)
		if !ok {
			continue
		}
		bucket, ok := bucketField.String(raw)
		if !ok {
			continue
		}
		samples = append(samples, models.ImpactSample{
			Venue:         venue,
			BucketKey:     bucket,
			PredictedCost: predictedField.NumberOrZero(raw),
			RealizedCost:  realizedField.NumberOrZero(raw),
		})
	}
	return samples
}
