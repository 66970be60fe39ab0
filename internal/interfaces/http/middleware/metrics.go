package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// httpMetrics holds the HTTP request instruments.
type httpMetrics struct {
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	activeRequests  prometheus.Gauge
}

// HTTPMetrics records request count, latency and in-flight requests on reg.
// Routes are labeled by their gin pattern so path parameters do not explode cardinality.
func HTTPMetrics(reg prometheus.Registerer) gin.HandlerFunc {
	m := &httpMetrics{
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_server_request_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_server_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		activeRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_server_active_requests",
				Help: "Number of in-flight HTTP requests",
			},
		),
	}
	reg.MustRegister(m.requestTotal, m.requestDuration, m.activeRequests)

	return func(c *gin.Context) {
		start := time.Now()
		m.activeRequests.Inc()
		defer m.activeRequests.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requestTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
