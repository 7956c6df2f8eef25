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

// Collector owns a private registry. All methods are nil-safe so components
// can run without metrics.
type Collector struct {
	reg *prometheus.Registry

	HTTPRequests *prometheus.CounterVec // method, route, status
	HTTPDuration *prometheus.HistogramVec

	SocketClients prometheus.Gauge
	EventsEmitted *prometheus.CounterVec // event
	SinkErrors    *prometheus.CounterVec // sink

	TickDuration prometheus.Histogram
	TicksSkipped prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		reg: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartbus_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartbus_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"route"}),
		SocketClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smartbus_socket_clients",
			Help: "Currently connected socket clients.",
		}),
		EventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartbus_socket_events_total",
			Help: "Socket events emitted, by event name.",
		}, []string{"event"}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smartbus_sink_errors_total",
			Help: "Failed event mirror publishes, by sink.",
		}, []string{"sink"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartbus_tracker_tick_duration_seconds",
			Help:    "Duration of a tracker broadcast tick.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		TicksSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smartbus_tracker_ticks_skipped_total",
			Help: "Tracker ticks skipped because the previous one was still running.",
		}),
	}
	reg.MustRegister(
		c.HTTPRequests, c.HTTPDuration,
		c.SocketClients, c.EventsEmitted, c.SinkErrors,
		c.TickDuration, c.TicksSkipped,
		collectors.NewGoCollector(),
	)
	return c
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by matched route template.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil {
			ctx.Next()
			return
		}
		start := time.Now()
		ctx.Next()
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.HTTPRequests.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func (c *Collector) ClientConnected() {
	if c != nil {
		c.SocketClients.Inc()
	}
}

func (c *Collector) ClientDisconnected() {
	if c != nil {
		c.SocketClients.Dec()
	}
}

func (c *Collector) EventEmitted(event string) {
	if c != nil {
		c.EventsEmitted.WithLabelValues(event).Inc()
	}
}

func (c *Collector) SinkFailed(sink string) {
	if c != nil {
		c.SinkErrors.WithLabelValues(sink).Inc()
	}
}

func (c *Collector) ObserveTick(d time.Duration) {
	if c != nil {
		c.TickDuration.Observe(d.Seconds())
	}
}

func (c *Collector) TickSkipped() {
	if c != nil {
		c.TicksSkipped.Inc()
	}
}
