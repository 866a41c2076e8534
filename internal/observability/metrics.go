package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_polygons"

// Metrics holds the Prometheus counters, histograms, and gauges for the polygon pipeline.
type Metrics struct {
	AlertsProcessed prometheus.Counter
	AlertsDropped   *prometheus.CounterVec // labels: reason={unknown_severity,unresolved}
	TuplesRecorded  prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Resolution metrics.
	Resolutions      *prometheus.CounterVec // labels: strategy={geocode,affected_zones}, outcome={success,failure}
	PolygonsResolved *prometheus.CounterVec // labels: tier={geocode,affected_zone,zone_collection}
	MalformedRings   prometheus.Counter

	// Zone service metrics.
	ZoneRequests     *prometheus.CounterVec // labels: outcome={success,error}
	ZoneCache        *prometheus.CounterVec // labels: layer={memory,redis}, result={hit,miss}
	ZoneAPIDuration  prometheus.Histogram
	AlertAPIDuration prometheus.Histogram

	// Run metrics.
	RunDuration      prometheus.Histogram
	RunFailures      prometheus.Counter
	LastRunTimestamp prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.AlertsProcessed,
		m.AlertsDropped,
		m.TuplesRecorded,
		m.PipelineRunning,
		m.Resolutions,
		m.PolygonsResolved,
		m.MalformedRings,
		m.ZoneRequests,
		m.ZoneCache,
		m.ZoneAPIDuration,
		m.AlertAPIDuration,
		m.RunDuration,
		m.RunFailures,
		m.LastRunTimestamp,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AlertsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_processed_total",
			Help:      "Total alerts read from the active alert feed.",
		}),
		AlertsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_dropped_total",
			Help:      "Alerts that contributed nothing to the output, by reason.",
		}, []string{"reason"}),
		TuplesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tuples_recorded_total",
			Help:      "Total (polygon, event, color, region) tuples recorded.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the run loop is active, 0 when shut down.",
		}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Geometry resolution attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		PolygonsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polygons_resolved_total",
			Help:      "Polygons produced by geometry resolution, by tier.",
		}, []string{"tier"}),
		MalformedRings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_rings_total",
			Help:      "Zone coordinate rings skipped because they could not form a polygon.",
		}),
		ZoneRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zone_requests_total",
			Help:      "Zone geometry API requests by outcome.",
		}, []string{"outcome"}),
		ZoneCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zone_cache_total",
			Help:      "Zone geometry cache lookups by layer and result.",
		}, []string{"layer", "result"}),
		ZoneAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "zone_api_duration_seconds",
			Help:      "NWS zone API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		AlertAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alert_api_duration_seconds",
			Help:      "NWS active alerts request duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-resolve-publish run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		RunFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Runs that failed to fetch alerts or publish output.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}
