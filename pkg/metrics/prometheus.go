package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	sourceFailures    *prometheus.CounterVec
	eventsIngested    *prometheus.CounterVec
	feedSize          prometheus.Gauge
	liveMode          *prometheus.GaugeVec
	fusionCells       prometheus.Gauge
	discrepantCells   prometheus.Gauge
	writebackFailures *prometheus.CounterVec
	latency           *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		sourceFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsrecon_source_failures_total",
				Help: "Aggregation cycles that skipped a source due to fetch/parse failure",
			},
			[]string{"source"},
		),
		eventsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsrecon_events_ingested_total",
				Help: "Telemetry events ingested per source",
			},
			[]string{"source"},
		),
		feedSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "opsrecon_feed_size",
				Help: "Current size of the unified telemetry feed",
			},
		),
		liveMode: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "opsrecon_live_mode",
				Help: "Live channel mode (1 for the active mode)",
			},
			[]string{"mode"},
		),
		fusionCells: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "opsrecon_fusion_cells",
				Help: "Merged cells produced by the last fusion cycle",
			},
		),
		discrepantCells: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "opsrecon_fusion_discrepant_cells",
				Help: "Discrepant cells flagged by the last fusion cycle",
			},
		),
		writebackFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "opsrecon_writeback_failures_total",
				Help: "Best-effort state write-backs that failed",
			},
			[]string{"action"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "opsrecon_operation_duration_seconds",
				Help:    "Duration of reconciliation operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSourceFailure records a skipped source.
func (r *Recorder) RecordSourceFailure(source string) {
	r.sourceFailures.WithLabelValues(source).Inc()
}

// RecordIngested records events contributed by a source.
func (r *Recorder) RecordIngested(source string, n int) {
	if n > 0 {
		r.eventsIngested.WithLabelValues(source).Add(float64(n))
	}
}

// RecordFeedSize records the unified feed size after a cycle.
func (r *Recorder) RecordFeedSize(n int) {
	r.feedSize.Set(float64(n))
}

// RecordLiveMode records the live channel mode transition.
func (r *Recorder) RecordLiveMode(mode string) {
	for _, m := range []string{"connecting", "streaming", "polling"} {
		v := 0.0
		if m == mode {
			v = 1
		}
		r.liveMode.WithLabelValues(m).Set(v)
	}
}

// RecordFusion records the last fusion cycle's cell counts.
func (r *Recorder) RecordFusion(cells, discrepant int) {
	r.fusionCells.Set(float64(cells))
	r.discrepantCells.Set(float64(discrepant))
}

// RecordWritebackFailure records a failed state write-back.
func (r *Recorder) RecordWritebackFailure(action string) {
	r.writebackFailures.WithLabelValues(action).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
