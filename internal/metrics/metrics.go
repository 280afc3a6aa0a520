package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eight_sleep_local"

// Metrics groups every collector the bridge exports. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	pollsTotal        *prometheus.CounterVec
	pollDuration      prometheus.Histogram
	podAvailable      prometheus.Gauge
	commandsTotal     *prometheus.CounterVec
	stateChanges      *prometheus.CounterVec
	eventsDropped     prometheus.Counter
	wsClients         prometheus.Gauge
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Coordinator polls of the companion server by result.",
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_duration_seconds",
			Help:      "Duration of a full coordinator refresh.",
			Buckets:   prometheus.DefBuckets,
		}),
		podAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pod_available",
			Help:      "1 when the last poll succeeded, 0 otherwise.",
		}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands dispatched to the companion server by command and result.",
		}, []string{"command", "result"}),
		stateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entity_state_changes_total",
			Help:      "Entity state changes by platform.",
		}, []string{"platform"}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events not delivered to a slow subscriber.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Connected websocket clients.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pollsTotal,
		m.pollDuration,
		m.podAvailable,
		m.commandsTotal,
		m.stateChanges,
		m.eventsDropped,
		m.wsClients,
		m.httpRequestsTotal,
		m.httpDuration,
	)
	return m
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// PollCompleted records one coordinator refresh.
func (m *Metrics) PollCompleted(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.pollsTotal.WithLabelValues(resultLabel(err)).Inc()
	m.pollDuration.Observe(d.Seconds())
	if err != nil {
		m.podAvailable.Set(0)
	} else {
		m.podAvailable.Set(1)
	}
}

// CommandIssued records one command sent to the companion server.
func (m *Metrics) CommandIssued(command string, err error) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(command, resultLabel(err)).Inc()
}

func (m *Metrics) StateChanged(platform string) {
	if m == nil {
		return
	}
	m.stateChanges.WithLabelValues(platform).Inc()
}

func (m *Metrics) EventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}

func (m *Metrics) WSClientConnected() {
	if m == nil {
		return
	}
	m.wsClients.Inc()
}

func (m *Metrics) WSClientDisconnected() {
	if m == nil {
		return
	}
	m.wsClients.Dec()
}

// GinMiddleware counts requests by matched route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
