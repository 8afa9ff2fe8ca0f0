// Package metrics registers the service's Prometheus collectors and exposes
// them through an echo route.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "masterdata_"

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	mappingWrites      *prometheus.CounterVec
	mappingResolutions *prometheus.CounterVec
)

// Init registers all collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		)
		mappingWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mapping_writes_total",
				Help: "Appointment type mapping writes by result",
			},
			[]string{"result"},
		)
		mappingResolutions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "mapping_resolutions_total",
				Help: "Mapping resolutions by outcome",
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(httpRequests, httpLatency, mappingWrites, mappingResolutions)
	})
}

// ObserveMappingWrite records the outcome of an AddMapping or CloseMapping
// call. Result is one of "ok", "validation", "reference", "conflict", "error".
func ObserveMappingWrite(result string) {
	if mappingWrites != nil {
		mappingWrites.WithLabelValues(result).Inc()
	}
}

// ObserveResolution records a resolution outcome: "hit" or "miss".
func ObserveResolution(outcome string) {
	if mappingResolutions != nil {
		mappingResolutions.WithLabelValues(outcome).Inc()
	}
}

// Middleware instruments every request with the HTTP counter and histogram.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			if httpRequests != nil {
				path := c.Path()
				if path == "" {
					path = c.Request().URL.Path
				}
				httpRequests.WithLabelValues(
					c.Request().Method, path, strconv.Itoa(c.Response().Status)).Inc()
				httpLatency.WithLabelValues(c.Request().Method, path).
					Observe(time.Since(start).Seconds())
			}
			return err
		}
	}
}

// Handler exposes the Prometheus text endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
