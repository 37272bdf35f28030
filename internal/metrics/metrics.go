package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "employee_registry"

// Login outcomes recorded by LoginAttempts.
const (
	LoginSucceeded = "success"
	LoginRejected  = "invalid_credentials"
	LoginFailed    = "error"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	EmployeesCreated prometheus.Counter
	EmployeesDeleted prometheus.Counter
	LoginAttempts    *prometheus.CounterVec
	TokensRejected   *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EmployeesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "employees_created_total",
			Help:      "Total number of employee records created",
		}),
		EmployeesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "employees_deleted_total",
			Help:      "Total number of employee records deleted",
		}),
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),
		TokensRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_rejected_total",
			Help:      "Bearer tokens rejected by reason",
		}, []string{"reason"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) IncrementEmployeesCreated() {
	if m == nil {
		return
	}
	m.EmployeesCreated.Inc()
}

func (m *Metrics) IncrementEmployeesDeleted() {
	if m == nil {
		return
	}
	m.EmployeesDeleted.Inc()
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTokenRejected(reason string) {
	if m == nil {
		return
	}
	m.TokensRejected.WithLabelValues(reason).Inc()
}
