package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the people service.
type Metrics struct {
	PersonsCreated prometheus.Counter
	PersonsUpdated prometheus.Counter
	PersonsDeleted prometheus.Counter

	// Person cache lookups by result: "hit" or "miss"
	CacheLookups *prometheus.CounterVec

	// HTTP latency by method, chi route pattern and status code
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction never collides.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PersonsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "people_persons_created_total",
			Help: "Total number of persons created",
		}),
		PersonsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "people_persons_updated_total",
			Help: "Total number of persons updated",
		}),
		PersonsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "people_persons_deleted_total",
			Help: "Total number of persons deleted",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "people_person_cache_lookups_total",
			Help: "Person cache lookups by result",
		}, []string{"result"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "people_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

// IncrementPersonsCreated increments the persons created counter by 1
func (m *Metrics) IncrementPersonsCreated() {
	if m != nil {
		m.PersonsCreated.Inc()
	}
}

// IncrementPersonsUpdated increments the persons updated counter by 1
func (m *Metrics) IncrementPersonsUpdated() {
	if m != nil {
		m.PersonsUpdated.Inc()
	}
}

// IncrementPersonsDeleted increments the persons deleted counter by 1
func (m *Metrics) IncrementPersonsDeleted() {
	if m != nil {
		m.PersonsDeleted.Inc()
	}
}

// IncrementCacheLookup records one cache lookup outcome.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// ObserveRequest records the duration of one HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}
