// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsFile is the textfile-collector export written next to the shards.
const MetricsFile = "harvest.prom"

const namespace = "resource_miner"

// Metrics holds harvest counters in a private registry so a run can export
// them without a metrics server.
type Metrics struct {
	Registry *prometheus.Registry

	Queries       prometheus.Counter
	FailedQueries prometheus.Counter
	Records       prometheus.Counter
	NewIDs        prometheus.Counter
	Duplicates    prometheus.Counter
	QueueDepth    prometheus.Gauge
	PageSeconds   prometheus.Histogram
}

// NewMetrics registers the harvest collectors in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		Queries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "queries_total",
			Help: "Query tasks completed, including failed ones.",
		}),
		FailedQueries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "queries_failed_total",
			Help: "Query tasks that ended with an error.",
		}),
		Records: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "records_total",
			Help: "Records received by the writer.",
		}),
		NewIDs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "new_ids_total",
			Help: "Ids inserted for the first time and written to a shard.",
		}),
		Duplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "duplicate_ids_total",
			Help: "Records whose id was already stored.",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "queue_depth",
			Help: "Records waiting for the writer at the last receive.",
		}),
		PageSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "harvest", Name: "page_fetch_seconds",
			Help:    "Latency of search page requests, retries included.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

// WriteTextfile exports the current values in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics %s: %w", path, err)
	}
	return nil
}
