// Package metrics exposes authentication activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	devconnect "github.com/goliatone/go-devconnect"
)

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	ActivityTotal *prometheus.CounterVec
	TokenRejected *prometheus.CounterVec
	RequestsTotal *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		ActivityTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devconnect_auth_activity_total",
				Help: "Total number of authentication events by type and reason",
			},
			[]string{"type", "reason"},
		),
		TokenRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devconnect_auth_token_rejected_total",
				Help: "Total number of requests refused by the auth gate by reason",
			},
			[]string{"reason"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devconnect_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
	}

	reg.MustRegister(m.ActivityTotal)
	reg.MustRegister(m.TokenRejected)
	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(collectors.NewGoCollector())

	return m
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Sink returns an ActivitySink that counts events
func (m *Metrics) Sink() devconnect.ActivitySink {
	return devconnect.ActivitySinkFunc(func(_ context.Context, event devconnect.ActivityEvent) error {
		m.ActivityTotal.WithLabelValues(string(event.EventType), event.Reason).Inc()
		if event.EventType == devconnect.ActivityEventTokenRejected {
			m.TokenRejected.WithLabelValues(event.Reason).Inc()
		}
		return nil
	})
}

// ObserveRequest counts a finished request
func (m *Metrics) ObserveRequest(route string, status int) {
	m.RequestsTotal.WithLabelValues(route, http.StatusText(status)).Inc()
}
