package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
)

var (
    once sync.Once

    ReconLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "opsrecon",
            Subsystem: "api",
            Name:      "latency_seconds",
            Help:      "Latency of reconciliation endpoints",
            Buckets:   prometheus.DefBuckets,
        },
        []string{"endpoint"},
    )

    ReconErrors = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "opsrecon",
            Subsystem: "api",
            Name:      "errors_total",
            Help:      "Errors by reconciliation endpoint",
        },
        []string{"endpoint"},
    )
)

func Register() {
    once.Do(func() {
        prometheus.MustRegister(ReconLatency, ReconErrors)
    })
}
