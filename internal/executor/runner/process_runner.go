package runner

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/namnv2496/gameforge/internal/executor/worker/job_executor"
	"github.com/namnv2496/gameforge/internal/model"
)

// ProcessRunner performs the basic execution check: does the program start
// and keep running without crashing.
type ProcessRunner struct {
	executor  job_executor.JobExecutor
	timeout   time.Duration
	tailChars int
}

func NewProcessRunner(executor job_executor.JobExecutor, timeout time.Duration, tailChars int) *ProcessRunner {
	return &ProcessRunner{executor: executor, timeout: timeout, tailChars: tailChars}
}

// Run executes script with its directory as working directory. A program
// still running at the timeout counts as a success: games are interactive and
// expected to run until closed.
func (r *ProcessRunner) Run(ctx context.Context, script string) model.ExecutionResult {
	out := r.executor.Execute(ctx, job_executor.Job{
		Script:  script,
		WorkDir: filepath.Dir(script),
		Timeout: r.timeout,
	})
	res := Classify(out, r.tailChars)
	slog.Info("Basic check finished",
		"script", script,
		"status", out.Status.String(),
		"exit_code", out.ExitCode,
		"run_time", out.RunTime,
		"succeeded", res.Succeeded,
	)
	return res
}

// Classify maps a raw launch into an ExecutionResult.
func Classify(out job_executor.JobExecutorOutput, tailChars int) model.ExecutionResult {
	res := model.ExecutionResult{
		Status:   out.Status,
		ExitCode: out.ExitCode,
		RunTime:  out.RunTime,
	}
	switch out.Status {
	case model.Successful, model.RuntimeTimeout:
		res.Succeeded = true
	case model.RuntimeError:
		res.Diagnostic = job_executor.Diagnostic(out.Stderr, out.Stdout, tailChars)
	default:
		res.Diagnostic = hostError(out)
	}
	return res
}

func hostError(out job_executor.JobExecutorOutput) string {
	if out.Err != nil && out.Err.Error() != "" {
		return out.Err.Error()
	}
	return "execution failed on the host: " + out.Status.String()
}
