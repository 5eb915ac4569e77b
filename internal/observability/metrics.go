package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Anil1013/mob13r-platform-sub000/internal/platform/logger"
)

const namespace = "pin"

// Metrics is the process-wide Prometheus registry. All methods are safe on a
// nil receiver so callers never branch on whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	httpInflight prometheus.Gauge

	pinOutcomes        *prometheus.CounterVec
	advertiserLatency  *prometheus.HistogramVec
	advertiserAttempts *prometheus.CounterVec
	holdbacks          *prometheus.CounterVec
	fallbacks          *prometheus.CounterVec
	adaptiveOverrides  prometheus.Counter

	recorderQueueDepth prometheus.Gauge
	recorderInline     prometheus.Counter
	recorderErrors     *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics once.
func Init(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		instance = New(prometheus.NewRegistry())
		if log != nil {
			log.Info("prometheus metrics initialized")
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		pinOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "outcomes_total",
			Help: "Terminal PIN outcomes by step and internal status.",
		}, []string{"step", "status"}),
		advertiserLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "advertiser_call_duration_seconds",
			Help:    "Advertiser call latency including retries.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30, 45},
		}, []string{"step", "outcome"}),
		advertiserAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "advertiser_attempts_total",
			Help: "Individual advertiser HTTP attempts.",
		}, []string{"step", "result"}),
		holdbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "holdbacks_total",
			Help: "Held transactions by publisher-facing disguise.",
		}, []string{"disguise"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "offer_fallbacks_total",
			Help: "Offer substitutions caused by exhausted capacity.",
		}, []string{"reason"}),
		adaptiveOverrides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "adaptive_overrides_total",
			Help: "Requests rerouted by the adaptive router.",
		}),
		recorderQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "recorder_queue_depth",
			Help: "Pending recorder writes.",
		}),
		recorderInline: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "recorder_inline_total",
			Help: "Recorder writes executed inline because the queue was full.",
		}),
		recorderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "recorder_errors_total",
			Help: "Failed recorder writes by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.httpRequests, m.httpLatency, m.httpInflight,
		m.pinOutcomes, m.advertiserLatency, m.advertiserAttempts,
		m.holdbacks, m.fallbacks, m.adaptiveOverrides,
		m.recorderQueueDepth, m.recorderInline, m.recorderErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RegisterDBStats exposes connection pool stats for db.
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) {
	if m == nil || db == nil {
		return
	}
	_ = m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) IncInflight() {
	if m != nil {
		m.httpInflight.Inc()
	}
}

func (m *Metrics) DecInflight() {
	if m != nil {
		m.httpInflight.Dec()
	}
}

func (m *Metrics) IncOutcome(step, status string) {
	if m != nil {
		m.pinOutcomes.WithLabelValues(step, status).Inc()
	}
}

func (m *Metrics) ObserveAdvertiserCall(step, outcome string, d time.Duration) {
	if m != nil {
		m.advertiserLatency.WithLabelValues(step, outcome).Observe(d.Seconds())
	}
}

func (m *Metrics) IncAdvertiserAttempt(step string, ok bool) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	m.advertiserAttempts.WithLabelValues(step, result).Inc()
}

func (m *Metrics) IncHoldback(disguise string) {
	if m != nil {
		m.holdbacks.WithLabelValues(disguise).Inc()
	}
}

func (m *Metrics) IncFallback(reason string) {
	if m != nil {
		m.fallbacks.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) IncAdaptiveOverride() {
	if m != nil {
		m.adaptiveOverrides.Inc()
	}
}

func (m *Metrics) SetRecorderQueueDepth(n int) {
	if m != nil {
		m.recorderQueueDepth.Set(float64(n))
	}
}

func (m *Metrics) IncRecorderInline() {
	if m != nil {
		m.recorderInline.Inc()
	}
}

func (m *Metrics) IncRecorderError(kind string) {
	if m != nil {
		m.recorderErrors.WithLabelValues(kind).Inc()
	}
}
