// Package metrics exposes the provider's Prometheus counters on a private
// registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ssop"

// Metrics holds the provider counters. The zero value is not usable; use
// New.
type Metrics struct {
	registry *prometheus.Registry

	authentications *prometheus.CounterVec
	consents        *prometheus.CounterVec
	tokens          *prometheus.CounterVec
	swept           prometheus.Counter
}

// New registers every counter on a fresh registry. When runtime is true
// the Go and process collectors are registered too.
func New(runtime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authentications_total",
			Help:      "Credential checks by outcome.",
		}, []string{"outcome"}),
		consents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consent_decisions_total",
			Help:      "Consent decisions by result.",
		}, []string{"decision"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Codes and tokens issued by kind.",
		}, []string{"kind"}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "housekeeping_removed_total",
			Help:      "Expired artifacts removed by housekeeping.",
		}),
	}

	m.registry.MustRegister(m.authentications, m.consents, m.tokens, m.swept)
	if runtime {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Authentication counts one credential check.
func (m *Metrics) Authentication(outcome string) {
	m.authentications.WithLabelValues(outcome).Inc()
}

// Consent counts one consent decision.
func (m *Metrics) Consent(accepted bool) {
	decision := "denied"
	if accepted {
		decision = "accepted"
	}
	m.consents.WithLabelValues(decision).Inc()
}

// TokenIssued counts one issued artifact: authorization_code, access_token,
// refresh_token or id_token.
func (m *Metrics) TokenIssued(kind string) {
	m.tokens.WithLabelValues(kind).Inc()
}

// Swept adds n removed artifacts.
func (m *Metrics) Swept(n int) {
	if n > 0 {
		m.swept.Add(float64(n))
	}
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
