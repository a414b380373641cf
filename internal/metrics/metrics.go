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

// Metrics owns the collectors of one service and the registry they live in
type Metrics struct {
	ServiceName string
	registry    *prometheus.Registry

	requestCounter            *prometheus.CounterVec
	requestDuration           *prometheus.HistogramVec
	statusOkCounter           *prometheus.CounterVec
	statusClientErrorCounter  *prometheus.CounterVec
	statusServerErrorCounter  *prometheus.CounterVec
	statusCodeCategoryCounter *prometheus.CounterVec

	storefrontRequests *prometheus.CounterVec
	storefrontDuration *prometheus.HistogramVec
}

// New creates and registers the collectors for a service on a fresh registry
func New(serviceName string) *Metrics {
	m := &Metrics{
		ServiceName: serviceName,
		registry:    prometheus.NewRegistry(),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path", "status"},
		),
		statusOkCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_2xx_total",
				Help: "Total number of 2xx (success) responses",
			},
			[]string{"service"},
		),
		statusClientErrorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_4xx_total",
				Help: "Total number of 4xx (client error) responses",
			},
			[]string{"service"},
		),
		statusServerErrorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_5xx_total",
				Help: "Total number of 5xx (server error) responses",
			},
			[]string{"service"},
		),
		statusCodeCategoryCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_status_category_total",
				Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
			},
			[]string{"service", "category", "method", "path"},
		),
		storefrontRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_api_requests_total",
				Help: "Total number of Storefront GraphQL operations by outcome",
			},
			[]string{"service", "operation", "outcome"},
		),
		storefrontDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_api_request_duration_seconds",
				Help:    "Duration of Storefront GraphQL operations in seconds, retries included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestCounter,
		m.requestDuration,
		m.statusOkCounter,
		m.statusClientErrorCounter,
		m.statusServerErrorCounter,
		m.statusCodeCategoryCounter,
		m.storefrontRequests,
		m.storefrontDuration,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// incrementStatusCounter increments the counter matching the status class
func (m *Metrics) incrementStatusCounter(status int, method, path string) {
	var category string
	switch {
	case status >= 200 && status < 300:
		m.statusOkCounter.WithLabelValues(m.ServiceName).Inc()
		category = "2xx"
	case status >= 400 && status < 500:
		m.statusClientErrorCounter.WithLabelValues(m.ServiceName).Inc()
		category = "4xx"
	case status >= 500 && status < 600:
		m.statusServerErrorCounter.WithLabelValues(m.ServiceName).Inc()
		category = "5xx"
	}

	if category != "" {
		m.statusCodeCategoryCounter.WithLabelValues(m.ServiceName, category, method, path).Inc()
	}
}

// Middleware records request metrics labelled by route template.
// Unmatched routes share the "unmatched" path label.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		status := c.Writer.Status()
		statusStr := strconv.Itoa(status)

		m.requestCounter.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
		m.incrementStatusCounter(status, method, path)
		m.requestDuration.WithLabelValues(m.ServiceName, method, path, statusStr).Observe(time.Since(start).Seconds())
	}
}

// ObserveStorefrontRequest records one Storefront GraphQL operation
func (m *Metrics) ObserveStorefrontRequest(operation, outcome string, duration time.Duration) {
	m.storefrontRequests.WithLabelValues(m.ServiceName, operation, outcome).Inc()
	m.storefrontDuration.WithLabelValues(m.ServiceName, operation).Observe(duration.Seconds())
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
