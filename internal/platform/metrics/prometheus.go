// Package metrics provides Prometheus metrics for the EPS client and the demo backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientMetrics holds the metrics recorded by the HTTP adapter and the session store.
type ClientMetrics struct {
	Requests           *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	SessionExpirations prometheus.Counter
	BreakerState       *prometheus.GaugeVec
}

// NewClient creates the client metrics and registers them on reg.
// A nil reg skips registration (useful when metrics are not scraped).
func NewClient(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eps_client_requests_total",
			Help: "Backend requests issued by the client, by method and outcome kind",
		}, []string{"method", "kind"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eps_client_request_duration_seconds",
			Help:    "Backend request duration",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		SessionExpirations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eps_client_session_expirations_total",
			Help: "Sessions purged after a 401 from the backend",
		}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "eps_client_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Requests,
			m.RequestDuration,
			m.SessionExpirations,
			m.BreakerState,
		)
	}
	return m
}

// ObserveRequest records one finished request. Safe on a nil receiver.
func (m *ClientMetrics) ObserveRequest(method, kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, kind).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// SessionExpired counts a 401-driven purge. Safe on a nil receiver.
func (m *ClientMetrics) SessionExpired() {
	if m == nil {
		return
	}
	m.SessionExpirations.Inc()
}

// SetBreakerState publishes a breaker state. Safe on a nil receiver.
func (m *ClientMetrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(state)
}

// ServerMetrics holds the demo backend metrics.
type ServerMetrics struct {
	Requests        *prometheus.CounterVec
	LoginsTotal     *prometheus.CounterVec
	TransitionTotal *prometheus.CounterVec
}

// NewServer creates the backend metrics and registers them on reg.
func NewServer(reg prometheus.Registerer) *ServerMetrics {
	m := &ServerMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eps_api_requests_total",
			Help: "Requests served by the demo backend",
		}, []string{"method", "status"}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eps_api_logins_total",
			Help: "Login attempts by role and outcome",
		}, []string{"tipo", "outcome"}),
		TransitionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eps_api_cita_transitions_total",
			Help: "Appointment status transitions by target status and outcome",
		}, []string{"estado", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.LoginsTotal, m.TransitionTotal)
	}
	return m
}

// ObserveRequest is nil-safe.
func (m *ServerMetrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *ServerMetrics) Login(tipo, outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(tipo, outcome).Inc()
}

func (m *ServerMetrics) Transition(estado, outcome string) {
	if m == nil {
		return
	}
	m.TransitionTotal.WithLabelValues(estado, outcome).Inc()
}

// Handler returns the Prometheus HTTP handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
