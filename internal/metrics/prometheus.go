package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weerlive-forecast/internal/weather"
)

// PrometheusRecorder records forecast pipeline metrics on its own registry.
// It implements weather.Recorder.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	fetchTotal       *prometheus.CounterVec
	coercionFailures *prometheus.CounterVec
	invalidTimestamp prometheus.Counter
	duplicates       prometheus.Counter
	missingCoords    prometheus.Gauge
	rows             prometheus.Gauge
	unavailable      prometheus.Gauge
	sessionDuration  prometheus.Histogram
	lastSession      prometheus.Gauge
}

// NewPrometheusRecorder creates a new instance of PrometheusRecorder.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weerlive_fetch_total",
			Help: "Total number of location fetches by outcome.",
		}, []string{"location", "outcome"}),
		coercionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weerlive_coercion_failures_total",
			Help: "Total number of present values that were not numeric, by field.",
		}, []string{"field"}),
		invalidTimestamp: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weerlive_invalid_timestamps_total",
			Help: "Total number of hourly records dropped for an invalid timestamp.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "weerlive_duplicate_rows_total",
			Help: "Total number of hourly records replaced by a later record with the same key.",
		}),
		missingCoords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weerlive_rows_without_coordinates",
			Help: "Rows of the latest session that cannot be placed on a map.",
		}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weerlive_rows",
			Help: "Rows in the hour table of the latest session.",
		}),
		unavailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weerlive_unavailable_locations",
			Help: "Locations that contributed nothing to the latest session.",
		}),
		sessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weerlive_session_duration_seconds",
			Help:    "Duration of forecast sessions.",
			Buckets: prometheus.DefBuckets,
		}),
		lastSession: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "weerlive_last_session_timestamp_seconds",
			Help: "UNIX time the latest session was fetched.",
		}),
	}

	registry.MustRegister(
		r.fetchTotal,
		r.coercionFailures,
		r.invalidTimestamp,
		r.duplicates,
		r.missingCoords,
		r.rows,
		r.unavailable,
		r.sessionDuration,
		r.lastSession,
	)

	return r
}

// Registry returns the Prometheus registry.
func (r *PrometheusRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveFetch counts one location fetch.
func (r *PrometheusRecorder) ObserveFetch(loc weather.LocationID, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "unavailable"
	}
	r.fetchTotal.WithLabelValues(string(loc), outcome).Inc()
}

// ObserveSession records the outcome of a completed session.
func (r *PrometheusRecorder) ObserveSession(ds *weather.Dataset, elapsed time.Duration) {
	r.sessionDuration.Observe(elapsed.Seconds())
	if ds == nil {
		return
	}

	stats := ds.Table.Stats
	for field, n := range stats.CoercionFailures {
		r.coercionFailures.WithLabelValues(field).Add(float64(n))
	}
	r.invalidTimestamp.Add(float64(stats.InvalidTimestamps))
	r.duplicates.Add(float64(stats.Duplicates))
	r.missingCoords.Set(float64(stats.MissingCoordinates))
	r.rows.Set(float64(stats.Rows))
	r.unavailable.Set(float64(len(ds.Raw.Unavailable)))
	r.lastSession.Set(float64(ds.FetchedAt.Unix()))
}

var _ weather.Recorder = (*PrometheusRecorder)(nil)
