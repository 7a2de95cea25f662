package models

import "time"

// LatencySample is per-venue, per-time-bucket execution telemetry.
// Units: latency in milliseconds, slippage in basis points, fill rate 0..1.
type LatencySample struct {
	Venue       string   `json:"venue"`
	BucketKey   string   `json:"bucketKey"`
	Symbol      string   `json:"symbol,omitempty"`
	P50Latency  float64  `json:"p50Latency"`
	P95Latency  float64  `json:"p95Latency"`
	P50Slippage float64  `json:"p50Slippage"`
	P95Slippage float64  `json:"p95Slippage"`
	FillRate    float64  `json:"fillRate"`
	DepthUSD    *float64 `json:"depthUsd,omitempty"`
}

// ImpactSample is per-venue, per-time-bucket cost telemetry.
type ImpactSample struct {
	Venue         string  `json:"venue"`
	BucketKey     string  `json:"bucketKey"`
	PredictedCost float64 `json:"predictedCost"`
	RealizedCost  float64 `json:"realizedCost"`
}

// MergedCell joins a LatencySample and an ImpactSample sharing (venue, bucket).
// A side missing from its source stays nil so downstream math can tell
// "absent" from "zero".
type MergedCell struct {
	Venue      string         `json:"venue"`
	BucketKey  string         `json:"bucketKey"`
	Latency    *LatencySample `json:"latency,omitempty"`
	Impact     *ImpactSample  `json:"impact,omitempty"`
	Discrepant bool           `json:"discrepant"`
}

// FusionRow holds one venue's bucket→cell map.
type FusionRow struct {
	Venue string                 `json:"venue"`
	Cells map[string]*MergedCell `json:"cells"`
}

// FusionResult is the venue × time-bucket matrix produced by the fusion engine.
type FusionResult struct {
	Rows            []FusionRow `json:"rows"`
	BucketKeys      []string    `json:"bucketKeys"`
	DiscrepantCount int         `json:"discrepantCount"`
}

// TimeWindow selects the fusion time range: a named window ("15m", "1h",
// "24h") or an explicit [From, To] range. An explicit range takes precedence
// over the named window.
type TimeWindow struct {
	Named string
	From  *time.Time
	To    *time.Time
}

// Explicit reports whether an explicit range is active.
func (w TimeWindow) Explicit() bool {
	return w.From != nil && w.To != nil
}
