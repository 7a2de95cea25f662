package fusion

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"OpsRecon/internal/adapter"
	"OpsRecon/internal/domain/models"
	drepo "OpsRecon/internal/domain/repository"
	xlogger "OpsRecon/pkg/logger"
	"OpsRecon/pkg/util"
)

// DefaultThreshold is the relative deviation above which a cell is flagged.
const DefaultThreshold = 0.25

// Params select the fusion inputs.
type Params struct {
	Venue  string // optional venue filter
	Symbol string // optional symbol filter (latency feed only)
	Window models.TimeWindow
}

// Engine joins the latency and impact telemetry streams on (venue, bucket)
// and flags cells whose realized cost deviates materially from prediction.
// Neither source is a hard dependency of the other: losing one side yields a
// partial matrix, never an error.
type Engine struct {
	latency   *adapter.LatencyAdapter
	impact    *adapter.ImpactAdapter
	threshold float64
	log       *xlogger.Logger
	metrics   drepo.Metrics
}

// New creates a fusion engine. threshold <= 0 selects the default.
func New(latency *adapter.LatencyAdapter, impact *adapter.ImpactAdapter, threshold float64, log *xlogger.Logger, metrics drepo.Metrics) *Engine {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Engine{latency: latency, impact: impact, threshold: threshold, log: log, metrics: metrics}
}

// Build fetches both streams concurrently and produces the merged matrix.
func (e *Engine) Build(ctx context.Context, p Params) *models.FusionResult {
	start := time.Now()
	query := buildQuery(p)

	var (
		wg      sync.WaitGroup
		latency []models.LatencySample
		impact  []models.ImpactSample
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		latency = e.latency.Fetch(ctx, query)
	}()
	go func() {
		defer wg.Done()
		impact = e.impact.Fetch(ctx, query)
	}()
	wg.Wait()

	if e.log != nil {
		if len(latency) == 0 && len(impact) > 0 {
			e.log.Debug("partial fusion: latency side empty")
		} else if len(impact) == 0 && len(latency) > 0 {
			e.log.Debug("partial fusion: impact side empty")
		}
	}

	result := e.merge(filterLatency(latency, p), filterImpact(impact, p), p.Window)

	if e.metrics != nil {
		cells := 0
		for _, row := range result.Rows {
			cells += len(row.Cells)
		}
		e.metrics.RecordFusion(cells, result.DiscrepantCount)
		e.metrics.RecordLatency("fusion", time.Since(start).Seconds())
	}
	return result
}

// merge builds a MergedCell for every (venue, bucket) pair present in either
// source, then applies the explicit window filter.
func (e *Engine) merge(latency []models.LatencySample, impact []models.ImpactSample, window models.TimeWindow) *models.FusionResult {
	latencyByVenue := make(map[string]map[string]*models.LatencySample)
	impactByVenue := make(map[string]map[string]*models.ImpactSample)
	buckets := make(map[string]struct{})
	venues := make(map[string]struct{})

	for i := range latency {
		s := &latency[i]
		if latencyByVenue[s.Venue] == nil {
			latencyByVenue[s.Venue] = make(map[string]*models.LatencySample)
		}
		latencyByVenue[s.Venue][s.BucketKey] = s
		buckets[s.BucketKey] = struct{}{}
		venues[s.Venue] = struct{}{}
	}
	for i := range impact {
		s := &impact[i]
		if impactByVenue[s.Venue] == nil {
			impactByVenue[s.Venue] = make(map[string]*models.ImpactSample)
		}
		impactByVenue[s.Venue][s.BucketKey] = s
		buckets[s.BucketKey] = struct{}{}
		venues[s.Venue] = struct{}{}
	}

	bucketKeys := filterBuckets(sortedKeys(buckets), window)
	inWindow := make(map[string]struct{}, len(bucketKeys))
	for _, b := range bucketKeys {
		inWindow[b] = struct{}{}
	}

	result := &models.FusionResult{BucketKeys: bucketKeys}
	for _, venue := range sortedKeys(venues) {
		row := models.FusionRow{Venue: venue, Cells: make(map[string]*models.MergedCell)}
		for bucket := range buckets {
			if _, ok := inWindow[bucket]; !ok {
				continue
			}
			var (
				lat = latencyByVenue[venue][bucket]
				imp = impactByVenue[venue][bucket]
			)
			if lat == nil && imp == nil {
				continue
			}
			cell := &models.MergedCell{Venue: venue, BucketKey: bucket, Latency: lat, Impact: imp}
			if imp != nil {
				cell.Discrepant = Discrepant(imp.PredictedCost, imp.RealizedCost, e.threshold)
			}
			if cell.Discrepant {
				result.DiscrepantCount++
			}
			row.Cells[bucket] = cell
		}
		if len(row.Cells) > 0 {
			result.Rows = append(result.Rows, row)
		}
	}
	return result
}

// Discrepant reports whether realized cost deviates from predicted cost
// beyond the relative threshold. A nonzero realized cost against a zero
// prediction is always flagged.
func Discrepant(predicted, realized, threshold float64) bool {
	if predicted == 0 {
		return realized != 0
	}
	return math.Abs(realized-predicted)/math.Abs(predicted) > threshold
}

// filterBuckets drops buckets outside an explicit [from, to] range. Buckets
// whose key does not parse are retained unfiltered: unparseable data is never
// silently dropped.
func filterBuckets(buckets []string, window models.TimeWindow) []string {
	if !window.Explicit() {
		return buckets
	}
	out := buckets[:0]
	for _, b := range buckets {
		t, ok := util.ParseBucketKey(b)
		if !ok {
			out = append(out, b)
			continue
		}
		if !t.Before(*window.From) && !t.After(*window.To) {
			out = append(out, b)
		}
	}
	return out
}

func filterLatency(samples []models.LatencySample, p Params) []models.LatencySample {
	out := samples[:0]
	for _, s := range samples {
		if p.Venue != "" && s.Venue != p.Venue {
			continue
		}
		if p.Symbol != "" && s.Symbol != "" && s.Symbol != p.Symbol {
			continue
		}
		out = append(out, s)
	}
	return out
}

func filterImpact(samples []models.ImpactSample, p Params) []models.ImpactSample {
	if p.Venue == "" {
		return samples
	}
	out := samples[:0]
	for _, s := range samples {
		if s.Venue == p.Venue {
			out = append(out, s)
		}
	}
	return out
}

func buildQuery(p Params) map[string][]string {
	query := map[string][]string{}
	if p.Window.Named != "" && !p.Window.Explicit() {
		query["window"] = []string{p.Window.Named}
	}
	if p.Venue != "" {
		query["venue"] = []string{p.Venue}
	}
	if p.Symbol != "" {
		query["symbol"] = []string{p.Symbol}
	}
	if len(query) == 0 {
		return nil
	}
	return query
}

func sortedKeys[M ~map[string]struct{}](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
