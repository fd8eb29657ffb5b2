package perf

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gymcrm"

// Metrics holds the service's Prometheus collectors on a private registry.
// All methods are safe on a nil *Metrics so callers and tests may omit it.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	queryDuration   *prometheus.HistogramVec
	syncDuration    prometheus.Histogram
	syncRuns        *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	skippedInvalid  prometheus.Gauge
	snapshotRecords *prometheus.GaugeVec
	snapshotTime    prometheus.Gauge
	reminders       *prometheus.CounterVec
}

// New creates and registers the service metrics, plus the Go runtime and
// process collectors.
// PRE: none
// POST: Returns metrics ready to observe and to serve via Handler
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "SQLite call latency by operation.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"op"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of a full sync from the CRM backend.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync runs by result.",
		}, []string{"result"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rejected_records_total",
			Help:      "Records dropped at ingestion by collection.",
		}, []string{"collection"}),
		skippedInvalid: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "payments_invalid_date",
			Help:      "Paid payments in the current snapshot whose date could not be read.",
		}),
		snapshotRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_records",
			Help:      "Records in the current snapshot by collection.",
		}, []string{"collection"}),
		snapshotTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_fetched_timestamp_seconds",
			Help:      "Unix time the current snapshot was fetched.",
		}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Payment reminders by membership status and outcome.",
		}, []string{"status", "outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.queryDuration,
		m.syncDuration,
		m.syncRuns,
		m.rejected,
		m.skippedInvalid,
		m.snapshotRecords,
		m.snapshotTime,
		m.reminders,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveQuery records one database call.
func (m *Metrics) ObserveQuery(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveSync records the outcome of a sync run.
func (m *Metrics) ObserveSync(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.syncRuns.WithLabelValues(result).Inc()
	m.syncDuration.Observe(d.Seconds())
}

// AddRejected counts records dropped while ingesting collection.
func (m *Metrics) AddRejected(collection string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rejected.WithLabelValues(collection).Add(float64(n))
}

// SetSnapshot publishes the size and age of the current snapshot.
func (m *Metrics) SetSnapshot(counts map[string]int, skippedInvalid int, fetchedAt time.Time) {
	if m == nil {
		return
	}
	for collection, n := range counts {
		m.snapshotRecords.WithLabelValues(collection).Set(float64(n))
	}
	m.skippedInvalid.Set(float64(skippedInvalid))
	m.snapshotTime.Set(float64(fetchedAt.Unix()))
}

// CountReminder records one reminder outcome ("sent", "failed", "skipped").
func (m *Metrics) CountReminder(status, outcome string) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(status, outcome).Inc()
}
