package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/namnv2496/gameforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestReport_Counts(t *testing.T) {
	m := New()
	m.Report(model.Event{Kind: model.EventCheckFailed, Stage: model.StageBasic, Duration: time.Second})
	m.Report(model.Event{Kind: model.EventRepairing})
	m.Report(model.Event{Kind: model.EventCheckPassed, Stage: model.StageBasic})
	m.Report(model.Event{Kind: model.EventCheckPassed, Stage: model.StageFuzz})
	m.Report(model.Event{Kind: model.EventSucceeded})

	assert.Equal(t, 1.0, counterValue(t, m, "gameforge_checks_total", map[string]string{"stage": "basic", "result": "failed"}))
	assert.Equal(t, 1.0, counterValue(t, m, "gameforge_checks_total", map[string]string{"stage": "fuzz", "result": "passed"}))
	assert.Equal(t, 1.0, counterValue(t, m, "gameforge_repairs_total", map[string]string{"result": "requested"}))
	assert.Equal(t, 1.0, counterValue(t, m, "gameforge_runs_total", map[string]string{"outcome": "succeeded"}))
}

func TestHandler_Exposes(t *testing.T) {
	m := New()
	m.Report(model.Event{Kind: model.EventExhausted})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gameforge_runs_total{outcome="exhausted"} 1`)
}
