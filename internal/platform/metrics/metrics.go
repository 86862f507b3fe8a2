package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the workflow engine.
type Metrics struct {
	TransitionsTotal *prometheus.CounterVec
	ConflictsTotal   *prometheus.CounterVec
}

// New creates and registers all collectors on the given registry. A nil
// registry uses the default one.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicore_transitions_total",
			Help: "State transitions attempted, by aggregate type and outcome.",
		}, []string{"aggregate", "outcome"}),
		ConflictsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clinicore_transition_conflicts_total",
			Help: "Optimistic-concurrency conflicts, by aggregate type.",
		}, []string{"aggregate"}),
	}
}

// RecordTransition increments the transition counter for an outcome
// ("success" or an error kind).
func (m *Metrics) RecordTransition(aggregate, outcome string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(aggregate, outcome).Inc()
}

// RecordConflict increments the conflict counter.
func (m *Metrics) RecordConflict(aggregate string) {
	if m == nil {
		return
	}
	m.ConflictsTotal.WithLabelValues(aggregate).Inc()
}

// Handler exposes the default registry in Prometheus text format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
