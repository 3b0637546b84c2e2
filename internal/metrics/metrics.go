// Package metrics provides Prometheus metrics for the LifeOS API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the API server.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	StructureOpsTotal *prometheus.CounterVec
	HabitTogglesTotal *prometheus.CounterVec
	TokenCacheTotal   *prometheus.CounterVec
	ErrorsTotal       *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifeos_http_requests_total",
				Help: "Total number of API requests by route and status code.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lifeos_http_request_duration_seconds",
				Help:    "API request duration by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StructureOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifeos_structure_operations_total",
				Help: "Structure create/update/delete operations by result.",
			},
			[]string{"op", "result"},
		),
		HabitTogglesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifeos_habit_toggles_total",
				Help: "Habit completion toggles by direction.",
			},
			[]string{"direction"},
		),
		TokenCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifeos_token_cache_total",
				Help: "Verified-token cache lookups by outcome.",
			},
			[]string{"outcome"},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lifeos_errors_total",
				Help: "Total errors by module and type.",
			},
			[]string{"module", "type"},
		),
		registry: reg,
	}

	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.RequestDuration)
	reg.MustRegister(m.StructureOpsTotal)
	reg.MustRegister(m.HabitTogglesTotal)
	reg.MustRegister(m.TokenCacheTotal)
	reg.MustRegister(m.ErrorsTotal)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest increments the request counter and observes its duration.
func (m *Metrics) RecordRequest(method, route, status string, seconds float64) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordStructureOp counts a structure mutation.
func (m *Metrics) RecordStructureOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StructureOpsTotal.WithLabelValues(op, result).Inc()
}

// RecordHabitToggle counts a toggle; completed is the state after the toggle.
func (m *Metrics) RecordHabitToggle(completed bool) {
	direction := "cleared"
	if completed {
		direction = "completed"
	}
	m.HabitTogglesTotal.WithLabelValues(direction).Inc()
}

// RecordTokenCache counts a verified-token cache hit or miss.
func (m *Metrics) RecordTokenCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.TokenCacheTotal.WithLabelValues(outcome).Inc()
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(module, errType string) {
	m.ErrorsTotal.WithLabelValues(module, errType).Inc()
}
