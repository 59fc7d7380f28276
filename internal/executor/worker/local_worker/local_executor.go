package local_job_executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/namnv2496/gameforge/internal/executor/worker/job_executor"
	"github.com/namnv2496/gameforge/internal/model"
)

const defaultWaitDelay = 2 * time.Second

// LocalJobExecutor runs programs as child processes of the host.
type LocalJobExecutor struct {
	interpreter string
	waitDelay   time.Duration
}

func NewLocalJobExecutor(interpreter string) *LocalJobExecutor {
	return &LocalJobExecutor{interpreter: interpreter, waitDelay: defaultWaitDelay}
}

// Execute launches "<interpreter> <script>" and blocks until it exits or the
// job timeout elapses, in which case the child is killed.
func (executor *LocalJobExecutor) Execute(ctx context.Context, job job_executor.Job) job_executor.JobExecutorOutput {
	script, err := filepath.Abs(job.Script)
	if err != nil {
		return launchError(fmt.Errorf("resolve script path %s: %w", job.Script, err))
	}
	if _, err := os.Stat(script); err != nil {
		return launchError(fmt.Errorf("script not found: %w", err))
	}
	dir := job.WorkDir
	if dir == "" {
		dir = filepath.Dir(script)
	}

	runCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, executor.interpreter, script)
	cmd.Dir = dir
	cmd.Env = append(append(os.Environ(), job_executor.UTF8Env...), job.Env...)
	// The child may leave grandchildren holding the pipes open.
	cmd.WaitDelay = executor.waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("Launching program", "interpreter", executor.interpreter, "script", script, "dir", dir, "timeout", job.Timeout)
	start := time.Now()
	runErr := cmd.Run()
	out := job_executor.JobExecutorOutput{
		RunTime: time.Since(start),
		Stdout:  job_executor.DecodeOutput(stdout.Bytes()),
		Stderr:  job_executor.DecodeOutput(stderr.Bytes()),
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		out.Status = model.Successful
	case errors.Is(runErr, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success():
		out.Status = model.Successful
	case ctx.Err() != nil:
		out.Status = model.Cancelled
		out.ExitCode = -1
		out.Err = ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		out.Status = model.RuntimeTimeout
		out.ExitCode = -1
	case errors.As(runErr, &exitErr):
		out.Status = model.RuntimeError
		out.ExitCode = exitErr.ExitCode()
	default:
		out.Status = model.LaunchError
		out.ExitCode = -1
		out.Err = runErr
	}
	return out
}

func launchError(err error) job_executor.JobExecutorOutput {
	return job_executor.JobExecutorOutput{Status: model.LaunchError, ExitCode: -1, Err: err}
}
