package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/namnv2496/gameforge/internal/model"
	"github.com/namnv2496/gameforge/internal/progress"
)

// Planner turns a user request into the first version of the program and
// writes it to the artifact path.
type Planner interface {
	Create(ctx context.Context, prompt string) (model.SourceArtifact, error)
}

// Forge is the whole pipeline: plan and generate, then check and repair.
type Forge struct {
	planner  Planner
	loop     *Loop
	reporter progress.Reporter
}

func NewForge(planner Planner, loop *Loop, reporter progress.Reporter) *Forge {
	if reporter == nil {
		reporter = progress.Discard
	}
	return &Forge{planner: planner, loop: loop, reporter: reporter}
}

func NewRunID() string {
	return uuid.NewString()
}

// Run executes one pipeline run under runID.
func (f *Forge) Run(ctx context.Context, runID, prompt string) (Report, error) {
	f.emit(model.Event{RunID: runID, Kind: model.EventRunStarted, Prompt: prompt, MaxAttempts: f.loop.maxAttempts})

	art, err := f.planner.Create(ctx, prompt)
	if err != nil {
		f.emit(model.Event{RunID: runID, Kind: model.EventAborted, Message: err.Error()})
		return Report{RunID: runID, Outcome: ExhaustedFailure}, fmt.Errorf("generate program: %w", err)
	}
	f.emit(model.Event{RunID: runID, Kind: model.EventGenerated, Message: "program generated", Artifact: art.Path})

	return f.loop.Run(ctx, runID, art)
}

func (f *Forge) emit(ev model.Event) {
	ev.Time = time.Now()
	f.reporter.Report(ev)
}
