package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the rentas API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	externalErrors     *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	paymentsRegistered prometheus.Counter
	schedulesBuilt     prometheus.Counter
	schedulePeriods    prometheus.Histogram
	requestsTotal      *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rentas_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentas_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentas_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentas_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		paymentsRegistered: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rentas_payments_registered_total",
				Help: "Total payments registered against lease periods.",
			},
		),
		schedulesBuilt: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rentas_schedules_built_total",
				Help: "Total payment schedules derived from lease documents.",
			},
		),
		schedulePeriods: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rentas_schedule_periods",
				Help:    "Periods per derived schedule.",
				Buckets: []float64{1, 6, 12, 24, 36, 48, 60},
			},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentas_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordPaymentRegistered counts one registered payment.
func (m *Metrics) RecordPaymentRegistered() {
	m.paymentsRegistered.Inc()
}

// RecordScheduleBuilt counts one derived schedule and its size.
func (m *Metrics) RecordScheduleBuilt(periods int) {
	m.schedulesBuilt.Inc()
	m.schedulePeriods.Observe(float64(periods))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// OpsSnapshot is a plain-numbers view of the core counters, served by
// the operator tools endpoint for quick checks without a Prometheus
// stack.
type OpsSnapshot struct {
	PaymentsRegistered float64 `json:"payments_registered"`
	SchedulesBuilt     float64 `json:"schedules_built"`
	CacheHitRate       float64 `json:"cache_hit_rate"`
	ExternalErrors     float64 `json:"external_errors"`
}

// GetOpsSnapshot reads the current counter values.
func (m *Metrics) GetOpsSnapshot() *OpsSnapshot {
	hits := getCounterValue(m.cacheHits, "dashboard")
	misses := getCounterValue(m.cacheMisses, "dashboard")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &OpsSnapshot{
		PaymentsRegistered: getPlainCounterValue(m.paymentsRegistered),
		SchedulesBuilt:     getPlainCounterValue(m.schedulesBuilt),
		CacheHitRate:       hitRate,
		ExternalErrors:     getCounterValue(m.externalErrors, "supabase"),
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func getPlainCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
