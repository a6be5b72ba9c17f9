package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	submissions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	capsApplied   *prometheus.CounterVec
	pointsAwarded prometheus.Counter
	liveClients   prometheus.Gauge
	rateLimited   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitcomp",
			Name:      "http_requests_total",
			Help:      "HTTP requests served by route, method and status.",
		}, []string{"route", "method", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fitcomp",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitcomp",
			Name:      "submissions_scored_total",
			Help:      "Activity submissions accepted by activity type.",
		}, []string{"activity"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitcomp",
			Name:      "submissions_rejected_total",
			Help:      "Activity submissions rejected by reason.",
		}, []string{"reason"}),
		capsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitcomp",
			Name:      "caps_applied_total",
			Help:      "Times a scoring cap reduced awarded points.",
		}, []string{"cap"}),
		pointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fitcomp",
			Name:      "points_awarded_total",
			Help:      "Sum of points awarded to accepted submissions.",
		}),
		liveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fitcomp",
			Name:      "live_clients",
			Help:      "Connected live leaderboard websocket clients.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fitcomp",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.durations,
		m.submissions,
		m.rejections,
		m.capsApplied,
		m.pointsAwarded,
		m.liveClients,
		m.rateLimited,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.durations.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSubmission(activity string, points float64, caps []string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(activity).Inc()
	if points > 0 {
		m.pointsAwarded.Add(points)
	}
	for _, c := range caps {
		m.capsApplied.WithLabelValues(c).Inc()
	}
}

func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) LiveClientConnected() {
	if m == nil {
		return
	}
	m.liveClients.Inc()
}

func (m *Metrics) LiveClientDisconnected() {
	if m == nil {
		return
	}
	m.liveClients.Dec()
}

func (m *Metrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
