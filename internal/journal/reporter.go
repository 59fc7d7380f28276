package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/namnv2496/gameforge/internal/model"
)

const writeTimeout = 5 * time.Second

// Report records pipeline events. Write failures are logged and never stop
// the run.
func (j *Journal) Report(ev model.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	switch ev.Kind {
	case model.EventRunStarted:
		err = j.CreateRun(ctx, ev.RunID, ev.Prompt, ev.Time)
	case model.EventCheckPassed, model.EventCheckFailed:
		err = j.RecordCheck(ctx, ev.RunID, Check{
			Attempt:    ev.Attempt,
			Stage:      ev.Stage,
			Passed:     ev.Kind == model.EventCheckPassed,
			Detail:     ev.Message,
			Diagnostic: ev.Diagnostic,
			Duration:   ev.Duration,
		})
	case model.EventSucceeded:
		err = j.FinishRun(ctx, ev.RunID, StatusSucceeded, ev.Artifact, "", ev.Time)
	case model.EventExhausted:
		err = j.FinishRun(ctx, ev.RunID, StatusExhausted, ev.Artifact, "", ev.Time)
	case model.EventAborted:
		err = j.FinishRun(ctx, ev.RunID, StatusAborted, ev.Artifact, ev.Message, ev.Time)
	}
	if err != nil {
		slog.Warn("Failed to write run journal", "run_id", ev.RunID, "event", ev.Kind, "error", err)
	}
}
