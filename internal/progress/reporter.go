package progress

import "github.com/namnv2496/gameforge/internal/model"

// Reporter receives pipeline progress. Implementations must not block for long.
type Reporter interface {
	Report(ev model.Event)
}

type ReporterFunc func(ev model.Event)

func (f ReporterFunc) Report(ev model.Event) { f(ev) }

// Multi fans an event out to every non-nil reporter in order.
type Multi []Reporter

func (m Multi) Report(ev model.Event) {
	for _, r := range m {
		if r != nil {
			r.Report(ev)
		}
	}
}

// Discard drops every event.
var Discard Reporter = ReporterFunc(func(model.Event) {})
