// Package observability provides Prometheus metrics and error reporting.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Journal metrics
	BetMutations      *prometheus.CounterVec
	GroupMutations    *prometheus.CounterVec
	StrategyMutations *prometheus.CounterVec

	// Recompute metrics
	RecomputeDuration prometheus.Histogram
	RecomputeErrors   prometheus.Counter
	PersistFailures   *prometheus.CounterVec

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Stream metrics
	StreamClients   prometheus.Gauge
	StreamBroadcast prometheus.Counter
	StreamDropped   prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "strategy_journal"
	}

	return &Metrics{
		BetMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "bet_mutations_total",
			Help:      "Total number of bet mutations by operation",
		}, []string{"operation"}),
		GroupMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "group_mutations_total",
			Help:      "Total number of bet group mutations by operation",
		}, []string{"operation"}),
		StrategyMutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "strategy_mutations_total",
			Help:      "Total number of strategy mutations by operation",
		}, []string{"operation"}),

		RecomputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "metrics",
			Name:      "recompute_duration_seconds",
			Help:      "Strategy metrics recomputation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RecomputeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metrics",
			Name:      "recompute_errors_total",
			Help:      "Total number of recomputations that could not load bets",
		}),
		PersistFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metrics",
			Name:      "persist_failures_total",
			Help:      "Total number of metrics hand-offs rejected by a sink",
		}, []string{"sink"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Metrics cache lookups by result",
		}, []string{"result"}),

		StreamClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Current number of connected websocket clients",
		}),
		StreamBroadcast: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "messages_broadcast_total",
			Help:      "Total number of metrics updates broadcast",
		}),
		StreamDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "messages_dropped_total",
			Help:      "Total number of messages dropped for slow clients",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method and status",
		}, []string{"method", "status"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBetMutation increments the bet mutation counter.
func RecordBetMutation(operation string) {
	DefaultMetrics.BetMutations.WithLabelValues(operation).Inc()
}

// RecordGroupMutation increments the bet group mutation counter.
func RecordGroupMutation(operation string) {
	DefaultMetrics.GroupMutations.WithLabelValues(operation).Inc()
}

// RecordStrategyMutation increments the strategy mutation counter.
func RecordStrategyMutation(operation string) {
	DefaultMetrics.StrategyMutations.WithLabelValues(operation).Inc()
}

// RecordRecompute records a metrics recomputation.
func RecordRecompute(seconds float64, err error) {
	DefaultMetrics.RecomputeDuration.Observe(seconds)
	if err != nil {
		DefaultMetrics.RecomputeErrors.Inc()
	}
}

// RecordPersistFailure increments the failed hand-off counter for a sink.
func RecordPersistFailure(sink string) {
	DefaultMetrics.PersistFailures.WithLabelValues(sink).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookups.WithLabelValues(result).Inc()
}

// UpdateStreamClients sets the connected client gauge.
func UpdateStreamClients(n int) {
	DefaultMetrics.StreamClients.Set(float64(n))
}

// RecordStreamBroadcast records one broadcast and the number of clients that missed it.
func RecordStreamBroadcast(dropped int) {
	DefaultMetrics.StreamBroadcast.Inc()
	DefaultMetrics.StreamDropped.Add(float64(dropped))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(method, status string, seconds float64) {
	DefaultMetrics.HTTPRequests.WithLabelValues(method, status).Inc()
	DefaultMetrics.HTTPDuration.WithLabelValues(method).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
