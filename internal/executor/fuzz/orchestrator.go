package fuzz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/namnv2496/gameforge/internal/artifact"
	"github.com/namnv2496/gameforge/internal/config"
	"github.com/namnv2496/gameforge/internal/executor/worker/job_executor"
	"github.com/namnv2496/gameforge/internal/model"
)

// Separator sits between the harness and the original program in the wrapper.
const Separator = "\n\n# --- ORIGINAL GAME CODE ---\n"

// Orchestrator runs a program with the harness prepended and turns the run
// into a FuzzOutcome. It never returns an error: every failure is reported as
// an unsuccessful outcome with a diagnostic.
type Orchestrator struct {
	executor      job_executor.JobExecutor
	payload       string
	sentinel      string
	workDir       string
	launcher      string
	wrapperPrefix string
	timeout       time.Duration
	timeoutPasses bool
	markers       []string
	tailChars     int
}

type Option func(*Orchestrator)

// WithWorkDir sets where the wrapper is written and run.
func WithWorkDir(dir string) Option {
	return func(o *Orchestrator) {
		o.workDir = dir
	}
}

// WithLauncher sets an auto-start launcher that is fuzzed instead of the
// target when it exists. An empty path disables it.
func WithLauncher(path string) Option {
	return func(o *Orchestrator) {
		o.launcher = path
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = timeout
	}
}

// WithTimeoutVerdict decides whether a run that hits the host timeout
// without printing the sentinel passes.
func WithTimeoutVerdict(pass bool) Option {
	return func(o *Orchestrator) {
		o.timeoutPasses = pass
	}
}

// WithPayload replaces the rendered harness text.
func WithPayload(payload string) Option {
	return func(o *Orchestrator) {
		o.payload = payload
	}
}

func WithTracebackMarkers(markers ...string) Option {
	return func(o *Orchestrator) {
		o.markers = markers
	}
}

func WithTailChars(n int) Option {
	return func(o *Orchestrator) {
		o.tailChars = n
	}
}

func WithWrapperPrefix(prefix string) Option {
	return func(o *Orchestrator) {
		o.wrapperPrefix = prefix
	}
}

// NewOrchestrator renders the harness and applies opts. The host timeout
// defaults to the harness duration plus ten seconds of slack.
func NewOrchestrator(executor job_executor.JobExecutor, harness Harness, opts ...Option) (*Orchestrator, error) {
	payload, err := harness.Render()
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		executor:      executor,
		payload:       payload,
		sentinel:      harness.Sentinel,
		workDir:       ".",
		wrapperPrefix: "temp_fuzz_wrapper",
		timeout:       harness.Duration + 10*time.Second,
		markers:       []string{"Traceback (most recent call last)"},
		tailChars:     1000,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// NewOrchestratorFromConfig wires an Orchestrator from the fuzz and runner
// sections of the config.
func NewOrchestratorFromConfig(executor job_executor.JobExecutor, conf config.Config) (*Orchestrator, error) {
	fc := conf.Fuzz
	return NewOrchestrator(executor, NewHarness(fc),
		WithWorkDir(fc.WorkDir),
		WithLauncher(fc.Launcher),
		WithWrapperPrefix(fc.WrapperPrefix),
		WithTimeout(fc.Duration+fc.Slack),
		WithTimeoutVerdict(fc.TimeoutVerdict == config.TimeoutVerdictPass),
		WithTracebackMarkers(fc.TracebackMarkers...),
		WithTailChars(conf.Runner.TailChars),
	)
}

// RunFuzz wraps target (or the launcher, when present) with the harness and
// runs it. The wrapper file is removed on every path.
func (o *Orchestrator) RunFuzz(ctx context.Context, target string) model.FuzzOutcome {
	script := o.Target(target)
	slog.Info("Fuzz target selected", "script", script)

	data, err := os.ReadFile(script)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return harnessError(fmt.Sprintf("Fuzzer error: target file not found: %s", script))
		}
		return harnessError(fmt.Sprintf("Fuzzer error: cannot read target %s: %v", script, err))
	}
	source := job_executor.DecodeOutput(data)

	wrapper := filepath.Join(o.workDir, o.wrapperName(script))
	defer removeWrapper(wrapper)
	if err := artifact.WriteFile(wrapper, o.payload+Separator+source); err != nil {
		return harnessError(fmt.Sprintf("Fuzzer error: cannot write wrapper %s: %v", wrapper, err))
	}

	slog.Info("Starting fuzz run", "wrapper", wrapper, "timeout", o.timeout)
	out := o.executor.Execute(ctx, job_executor.Job{
		Script:  wrapper,
		WorkDir: o.workDir,
		Timeout: o.timeout,
	})
	outcome := o.Classify(out)
	slog.Info("Fuzz run finished",
		"verdict", outcome.Verdict,
		"exit_code", out.ExitCode,
		"run_time", out.RunTime,
		"succeeded", outcome.Succeeded,
	)
	return outcome
}

// Classify turns a harness-wrapped run into a verdict. The sentinel wins over
// everything else, including the exit code.
func (o *Orchestrator) Classify(out job_executor.JobExecutorOutput) model.FuzzOutcome {
	outcome := model.FuzzOutcome{ExitCode: out.ExitCode, RunTime: out.RunTime}
	switch {
	case strings.Contains(out.Stdout, o.sentinel):
		outcome.Verdict = model.Survived
		outcome.Succeeded = true
	case out.Status == model.LaunchError || out.Status == model.Cancelled:
		outcome.Verdict = model.HarnessError
		outcome.Diagnostic = "Fuzzer internal error: " + errText(out)
	case out.Status == model.RuntimeTimeout:
		outcome.Verdict = model.TimedOut
		if o.timeoutPasses {
			outcome.Succeeded = true
			break
		}
		outcome.Diagnostic = o.hangDiagnostic(out)
	case out.Status == model.Successful:
		if o.hasTraceback(out) {
			outcome.Verdict = model.Crashed
			outcome.Diagnostic = job_executor.Diagnostic(out.Stderr, out.Stdout, o.tailChars)
			break
		}
		outcome.Verdict = model.ExitedClean
		outcome.Succeeded = true
	default:
		outcome.Verdict = model.Crashed
		outcome.Diagnostic = job_executor.Diagnostic(out.Stderr, out.Stdout, o.tailChars)
	}
	return outcome
}

// Target returns the script RunFuzz will wrap for target: the launcher when it
// exists, else target itself.
func (o *Orchestrator) Target(target string) string {
	if o.launcher != "" {
		if info, err := os.Stat(o.launcher); err == nil && !info.IsDir() {
			return o.launcher
		}
	}
	return target
}

func (o *Orchestrator) wrapperName(script string) string {
	ext := filepath.Ext(script)
	if ext == "" {
		ext = ".py"
	}
	return fmt.Sprintf("%s_%s%s", o.wrapperPrefix, uuid.NewString()[:8], ext)
}

func (o *Orchestrator) hasTraceback(out job_executor.JobExecutorOutput) bool {
	for _, marker := range o.markers {
		if marker != "" && (strings.Contains(out.Stderr, marker) || strings.Contains(out.Stdout, marker)) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) hangDiagnostic(out job_executor.JobExecutorOutput) string {
	msg := fmt.Sprintf("Timeout: the program did not report surviving the fuzz test within %s (possible hang or deadlock under synthetic input).", o.timeout)
	if strings.TrimSpace(out.Stderr) != "" || strings.TrimSpace(out.Stdout) != "" {
		msg += "\n" + job_executor.Diagnostic(out.Stderr, out.Stdout, o.tailChars)
	}
	return msg
}

func errText(out job_executor.JobExecutorOutput) string {
	if out.Err != nil {
		return out.Err.Error()
	}
	return out.Status.String()
}

func harnessError(msg string) model.FuzzOutcome {
	return model.FuzzOutcome{Verdict: model.HarnessError, Diagnostic: msg, ExitCode: -1}
}

// removeWrapper is best effort; a leftover wrapper only wastes disk space.
func removeWrapper(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to remove fuzz wrapper", "path", path, "error", err)
	}
}
