// Package metrics exposes Prometheus instruments for HTTP traffic,
// maintenance jobs and the user lookup cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	MaintenanceRunsTotal     *prometheus.CounterVec
	MaintenanceDuration      *prometheus.HistogramVec
	MaintenanceRecordsTotal  *prometheus.CounterVec
	MaintenanceLastSuccessTS *prometheus.GaugeVec

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// New creates the instruments and registers them on registry. A nil
// registry gets a fresh one.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_rbac_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admin_rbac_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		MaintenanceRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_rbac_maintenance_runs_total",
				Help: "Maintenance job runs by outcome",
			},
			[]string{"job", "status"},
		),
		MaintenanceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "admin_rbac_maintenance_duration_seconds",
				Help:    "Maintenance job duration in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
			},
			[]string{"job"},
		),
		MaintenanceRecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_rbac_maintenance_records_changed_total",
				Help: "Role and user records written by maintenance jobs",
			},
			[]string{"job"},
		),
		MaintenanceLastSuccessTS: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "admin_rbac_maintenance_last_success_timestamp_seconds",
				Help: "Unix time of the last successful run of each job",
			},
			[]string{"job"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_rbac_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "admin_rbac_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.MaintenanceRunsTotal,
		m.MaintenanceDuration,
		m.MaintenanceRecordsTotal,
		m.MaintenanceLastSuccessTS,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)
	return m
}

func (m *Metrics) ObserveJob(job string, elapsed time.Duration, changed int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.MaintenanceRunsTotal.WithLabelValues(job, status).Inc()
	m.MaintenanceDuration.WithLabelValues(job).Observe(elapsed.Seconds())
	if changed > 0 {
		m.MaintenanceRecordsTotal.WithLabelValues(job).Add(float64(changed))
	}
	if err == nil {
		m.MaintenanceLastSuccessTS.WithLabelValues(job).SetToCurrentTime()
	}
}

func (m *Metrics) CacheHit(cache string)  { m.CacheHitsTotal.WithLabelValues(cache).Inc() }
func (m *Metrics) CacheMiss(cache string) { m.CacheMissesTotal.WithLabelValues(cache).Inc() }

// Middleware records request counts and latency labelled by the matched
// route pattern rather than the raw path.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Response().Status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
