package command

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/namnv2496/gameforge/internal/artifact"
	"github.com/namnv2496/gameforge/internal/catalog"
	"github.com/namnv2496/gameforge/internal/config"
	"github.com/namnv2496/gameforge/internal/executor/fuzz"
	"github.com/namnv2496/gameforge/internal/executor/runner"
	docker_job_executor "github.com/namnv2496/gameforge/internal/executor/worker/docker_worker"
	"github.com/namnv2496/gameforge/internal/executor/worker/job_executor"
	local_job_executor "github.com/namnv2496/gameforge/internal/executor/worker/local_worker"
	"github.com/namnv2496/gameforge/internal/llm"
	"github.com/namnv2496/gameforge/internal/pipeline"
	"github.com/namnv2496/gameforge/internal/planner"
	"github.com/namnv2496/gameforge/internal/progress"
	"github.com/namnv2496/gameforge/internal/repair"
)

const (
	backendLocal  = "local"
	backendDocker = "docker"
)

func newExecutor(ctx context.Context, conf config.RunnerConfig) (job_executor.JobExecutor, error) {
	switch conf.Backend {
	case backendLocal:
		return local_job_executor.NewLocalJobExecutor(conf.Interpreter), nil
	case backendDocker:
		return docker_job_executor.NewDockerJobExecutor(ctx, conf.Docker, conf.Interpreter)
	default:
		return nil, fmt.Errorf("unknown runner backend %q", conf.Backend)
	}
}

// checks holds the two checks every program goes through.
type checks struct {
	basic *runner.ProcessRunner
	fuzz  *fuzz.Orchestrator
}

func newChecks(ctx context.Context, conf config.Config) (checks, error) {
	executor, err := newExecutor(ctx, conf.Runner)
	if err != nil {
		return checks{}, err
	}
	orchestrator, err := fuzz.NewOrchestratorFromConfig(executor, conf)
	if err != nil {
		return checks{}, err
	}
	return checks{
		basic: runner.NewProcessRunner(executor, conf.Runner.Timeout, conf.Runner.TailChars),
		fuzz:  orchestrator,
	}, nil
}

// newForge wires the whole pipeline from the config.
func newForge(ctx context.Context, conf config.Config, reporter progress.Reporter) (*pipeline.Forge, error) {
	generator, err := llm.NewOpenAIClient(conf.LLM)
	if err != nil {
		return nil, err
	}
	c, err := newChecks(ctx, conf)
	if err != nil {
		return nil, err
	}
	if conf.Fuzz.AutoLauncher && conf.Fuzz.Launcher != "" {
		if err := fuzz.WriteLauncher(conf.Fuzz.Launcher, conf.Artifact.Path, conf.Fuzz.WorkDir); err != nil {
			return nil, err
		}
		slog.Debug("Launcher written", "path", conf.Fuzz.Launcher, "program", conf.Artifact.Path)
	}

	store := artifact.NewStore(conf.Artifact.Path)
	plan := planner.New(generator, catalog.NewDirCatalog(conf.Catalog.Dir, conf.Catalog.MaxBytes), store, planner.Options{
		DesignDoc: conf.Artifact.DesignDoc,
		Review:    conf.Planner.Review,
		MinChars:  conf.LLM.MinSourceChars,
	})
	fixer := repair.NewService(generator, store, conf.LLM.MinSourceChars)
	loop := pipeline.NewLoop(c.basic, c.fuzz, fixer, reporter, conf.Loop.MaxAttempts)
	return pipeline.NewForge(plan, loop, reporter), nil
}
