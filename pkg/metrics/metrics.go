package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec

	// Lookup table metrics
	TableRowsLoaded   *prometheus.GaugeVec
	TableLoadDuration *prometheus.HistogramVec
	TableLoadErrors   *prometheus.CounterVec

	// Selector / renderer metrics
	SelectionsTotal   *prometheus.CounterVec
	ArtifactsRendered prometheus.Counter
	ArtifactBytes     prometheus.Histogram
	RenderDuration    prometheus.Histogram
	PrerenderDuration prometheus.Histogram
	PrerenderErrors   *prometheus.CounterVec

	// Database Metrics
	DBQueryDuration  *prometheus.HistogramVec
	DBConnectionPool *prometheus.GaugeVec
	DBErrorsTotal    *prometheus.CounterVec
	IngestBatchSize  prometheus.Histogram
}

// NewCollector creates a collector registered on the default Prometheus registry
func NewCollector(namespace string) *Collector {
	return NewCollectorWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector registered on reg. Tests pass a
// fresh prometheus.NewRegistry() so collectors can be built more than once.
func NewCollectorWithRegistry(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of HTTP requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0},
			},
			[]string{"endpoint"},
		),

		APIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of HTTP errors by type",
			},
			[]string{"error_type", "endpoint"},
		),

		TableRowsLoaded: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "table_rows_loaded",
				Help:      "Rows loaded per lookup table",
			},
			[]string{"table"}, // "airports", "stations", "distances", "monthly_lows"
		),

		TableLoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "table_load_duration_seconds",
				Help:      "Duration of lookup table loading by source",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"source"},
		),

		TableLoadErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "table_load_errors_total",
				Help:      "Lookup table load failures by type",
			},
			[]string{"error_type"},
		),

		SelectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nearest_station_selections_total",
				Help:      "Nearest-station selections by outcome",
			},
			[]string{"outcome"},
		),

		ArtifactsRendered: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "artifacts_rendered_total",
				Help:      "Total number of map artifacts rendered",
			},
		),

		ArtifactBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "artifact_size_bytes",
				Help:      "Size of rendered map artifacts",
				Buckets:   prometheus.ExponentialBuckets(1024, 2, 10),
			},
		),

		RenderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "render_duration_seconds",
				Help:      "Duration of a single map artifact render",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),

		PrerenderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prerender_duration_seconds",
				Help:      "Duration of a full batch prerender run",
				Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),

		PrerenderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prerender_errors_total",
				Help:      "Batch prerender failures by stage",
			},
			[]string{"stage"},
		),

		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_query_duration_seconds",
				Help:      "Database query duration in seconds by query type",
				Buckets:   []float64{0.001, 0.002, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5},
			},
			[]string{"query_type"},
		),

		DBConnectionPool: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"state"}, // "in_use", "idle", "total"
		),

		DBErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_errors_total",
				Help:      "Total number of database errors by type",
			},
			[]string{"error_type"},
		),

		IngestBatchSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingest_batch_size",
				Help:      "Rows per insert batch when loading tables into the database",
				Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000},
			},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIError increments API error counter
func (c *Collector) RecordAPIError(errorType, endpoint string) {
	c.APIErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordTableRows sets the loaded row count for one lookup table
func (c *Collector) RecordTableRows(table string, rows int) {
	c.TableRowsLoaded.WithLabelValues(table).Set(float64(rows))
}

// RecordTableLoadError increments the table load error counter
func (c *Collector) RecordTableLoadError(errorType string) {
	c.TableLoadErrors.WithLabelValues(errorType).Inc()
}

// RecordSelection increments the selection counter for outcome ("ok", "not_found")
func (c *Collector) RecordSelection(outcome string) {
	c.SelectionsTotal.WithLabelValues(outcome).Inc()
}

// RecordPrerenderError increments prerender error counter
func (c *Collector) RecordPrerenderError(stage string) {
	c.PrerenderErrors.WithLabelValues(stage).Inc()
}

// RecordDBError increments database error counter
func (c *Collector) RecordDBError(errorType string) {
	c.DBErrorsTotal.WithLabelValues(errorType).Inc()
}

// UpdateDBConnectionPool updates database connection pool metrics
func (c *Collector) UpdateDBConnectionPool(inUse, idle, total int) {
	c.DBConnectionPool.WithLabelValues("in_use").Set(float64(inUse))
	c.DBConnectionPool.WithLabelValues("idle").Set(float64(idle))
	c.DBConnectionPool.WithLabelValues("total").Set(float64(total))
}
