package metrics

import (
	"net/http"

	"github.com/namnv2496/gameforge/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts pipeline events on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	// runsTotal counts finished runs by outcome
	runsTotal *prometheus.CounterVec
	// checksTotal counts checks by stage and result
	checksTotal *prometheus.CounterVec
	// repairsTotal counts repair requests by result
	repairsTotal *prometheus.CounterVec
	// checkDuration tracks check run time
	checkDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gameforge_runs_total",
			Help: "Finished pipeline runs by outcome",
		}, []string{"outcome"}),
		checksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gameforge_checks_total",
			Help: "Checks by stage and result",
		}, []string{"stage", "result"}),
		repairsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gameforge_repairs_total",
			Help: "Repair requests by result",
		}, []string{"result"}),
		checkDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gameforge_check_duration_seconds",
			Help:    "Check run time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		}, []string{"stage"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Report(ev model.Event) {
	switch ev.Kind {
	case model.EventCheckPassed, model.EventCheckFailed:
		result := "passed"
		if ev.Kind == model.EventCheckFailed {
			result = "failed"
		}
		m.checksTotal.WithLabelValues(string(ev.Stage), result).Inc()
		m.checkDuration.WithLabelValues(string(ev.Stage)).Observe(ev.Duration.Seconds())
	case model.EventRepairing:
		m.repairsTotal.WithLabelValues("requested").Inc()
	case model.EventRepairFailed:
		m.repairsTotal.WithLabelValues("failed").Inc()
	case model.EventSucceeded, model.EventExhausted, model.EventAborted:
		m.runsTotal.WithLabelValues(string(ev.Kind)).Inc()
	}
}
