package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/namnv2496/gameforge/internal/model"
	"github.com/namnv2496/gameforge/internal/progress"
)

const DefaultMaxAttempts = 3

// BasicChecker is the short execution check (see runner.ProcessRunner).
type BasicChecker interface {
	Run(ctx context.Context, script string) model.ExecutionResult
}

// FuzzChecker is the harness-wrapped check (see fuzz.Orchestrator).
type FuzzChecker interface {
	RunFuzz(ctx context.Context, target string) model.FuzzOutcome
}

type Repairer interface {
	Repair(ctx context.Context, diagnostic, source string) (string, error)
}

type Outcome string

const (
	Success          Outcome = "success"
	ExhaustedFailure Outcome = "exhausted_failure"
)

type Report struct {
	RunID    string                `json:"runId"`
	Outcome  Outcome               `json:"outcome"`
	Attempts []model.RepairAttempt `json:"attempts"`
	Artifact model.SourceArtifact  `json:"artifact"`
}

// Loop drives basic check -> fuzz check -> repair until the program passes
// both checks or the attempt budget runs out.
//
// Every failure, whichever check found it, consumes one attempt. After a
// repair the next attempt starts again from the basic check. The last failing
// attempt is not repaired, so at most maxAttempts-1 repairs are requested.
type Loop struct {
	basic       BasicChecker
	fuzz        FuzzChecker
	repairer    Repairer
	reporter    progress.Reporter
	maxAttempts int
}

func NewLoop(basic BasicChecker, fuzz FuzzChecker, repairer Repairer, reporter progress.Reporter, maxAttempts int) *Loop {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if reporter == nil {
		reporter = progress.Discard
	}
	return &Loop{basic: basic, fuzz: fuzz, repairer: repairer, reporter: reporter, maxAttempts: maxAttempts}
}

// Run checks art (already on disk) and repairs it in place. The returned
// error is non-nil only when ctx ends the run early.
func (l *Loop) Run(ctx context.Context, runID string, art model.SourceArtifact) (Report, error) {
	report := Report{RunID: runID, Outcome: ExhaustedFailure, Artifact: art}
	source := art.Content

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return l.abort(report, source, err)
		}
		l.emit(model.Event{RunID: runID, Kind: model.EventAttemptStarted, Attempt: attempt})
		rec := model.RepairAttempt{Index: attempt}

		basic := l.basic.Run(ctx, art.Path)
		if err := ctx.Err(); err != nil {
			return l.abort(report, source, err)
		}
		l.emitCheck(runID, attempt, model.StageBasic, basic.Succeeded, basic.Diagnostic, basic.Status.String(), basic.RunTime)

		if basic.Succeeded {
			fz := l.fuzz.RunFuzz(ctx, art.Path)
			if err := ctx.Err(); err != nil {
				return l.abort(report, source, err)
			}
			l.emitCheck(runID, attempt, model.StageFuzz, fz.Succeeded, fz.Diagnostic, string(fz.Verdict), fz.RunTime)
			if fz.Succeeded {
				rec.Passed = true
				rec.Source = source
				report.Attempts = append(report.Attempts, rec)
				report.Outcome = Success
				report.Artifact.Content = source
				l.emit(model.Event{RunID: runID, Kind: model.EventSucceeded, Attempt: attempt, Artifact: art.Path})
				return report, nil
			}
			rec.Stage, rec.Diagnostic = model.StageFuzz, fz.Diagnostic
		} else {
			rec.Stage, rec.Diagnostic = model.StageBasic, basic.Diagnostic
		}

		if attempt < l.maxAttempts {
			l.emit(model.Event{RunID: runID, Kind: model.EventRepairing, Attempt: attempt, Stage: rec.Stage})
			fixed, err := l.repairer.Repair(ctx, rec.Diagnostic, source)
			if err != nil {
				slog.Warn("Repair failed; attempt consumed", "run_id", runID, "attempt", attempt, "error", err)
				rec.RepairErr = err.Error()
				l.emit(model.Event{RunID: runID, Kind: model.EventRepairFailed, Attempt: attempt, Stage: rec.Stage, Message: err.Error()})
			} else {
				source = fixed
			}
		}
		rec.Source = source
		report.Attempts = append(report.Attempts, rec)
	}

	report.Artifact.Content = source
	l.emit(model.Event{RunID: runID, Kind: model.EventExhausted, Attempt: l.maxAttempts, Artifact: art.Path})
	return report, nil
}

func (l *Loop) abort(report Report, source string, err error) (Report, error) {
	report.Artifact.Content = source
	l.emit(model.Event{RunID: report.RunID, Kind: model.EventAborted, Message: err.Error(), Artifact: report.Artifact.Path})
	return report, fmt.Errorf("run %s aborted: %w", report.RunID, err)
}

func (l *Loop) emitCheck(runID string, attempt int, stage model.Stage, passed bool, diag, detail string, d time.Duration) {
	kind := model.EventCheckPassed
	if !passed {
		kind = model.EventCheckFailed
	}
	l.emit(model.Event{
		RunID:      runID,
		Kind:       kind,
		Attempt:    attempt,
		Stage:      stage,
		Message:    detail,
		Diagnostic: diag,
		Duration:   d,
	})
}

func (l *Loop) emit(ev model.Event) {
	if ev.MaxAttempts == 0 {
		ev.MaxAttempts = l.maxAttempts
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	l.reporter.Report(ev)
}
