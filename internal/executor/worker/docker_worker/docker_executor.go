package docker_job_executor

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/namnv2496/gameforge/internal/config"
	"github.com/namnv2496/gameforge/internal/executor/worker/job_executor"
	"github.com/namnv2496/gameforge/internal/model"
)

const (
	workDir = "/workdir"
	// runtimeRepo names images built by installing packages on the base image.
	runtimeRepo = "gameforge-runtime"
	// Grace period for draining the attach stream after the container stops.
	drainTimeout = 2 * time.Second
)

// Headless SDL so pygame programs can open a display inside the container.
var headlessEnv = []string{"SDL_VIDEODRIVER=dummy", "SDL_AUDIODRIVER=dummy"}

// DockerJobExecutor runs programs inside a throwaway container with the
// script's directory bind-mounted at /workdir.
type DockerJobExecutor struct {
	cli         *client.Client
	image       string
	interpreter string
	resources   container.Resources
}

func NewDockerJobExecutor(ctx context.Context, conf config.DockerConfig, interpreter string) (*DockerJobExecutor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	executor := &DockerJobExecutor{
		cli:         cli,
		image:       conf.Image,
		interpreter: interpreter,
		resources: container.Resources{
			Memory:   conf.Memory,
			CPUQuota: conf.CPUQuota,
		},
	}
	if conf.Pull {
		if err := executor.pullImage(ctx); err != nil {
			return nil, err
		}
	}
	if len(conf.Packages) > 0 {
		if err := executor.prepareRuntime(ctx, conf.Packages); err != nil {
			return nil, err
		}
	}
	return executor, nil
}

func (executor *DockerJobExecutor) Execute(ctx context.Context, job job_executor.Job) job_executor.JobExecutorOutput {
	dir, script, err := mountPaths(job)
	if err != nil {
		return launchError(err)
	}
	return executor.runExecutable(ctx, dir, script, job)
}

// mountPaths returns the host directory bind-mounted at /workdir and the
// script path relative to it, in slash form.
func mountPaths(job job_executor.Job) (string, string, error) {
	script, err := filepath.Abs(job.Script)
	if err != nil {
		return "", "", fmt.Errorf("resolve script path %s: %w", job.Script, err)
	}
	dir := job.WorkDir
	if dir == "" {
		dir = filepath.Dir(script)
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return "", "", fmt.Errorf("resolve work dir: %w", err)
	}
	rel, err := filepath.Rel(dir, script)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", fmt.Errorf("script %s is outside work dir %s", script, dir)
	}
	return dir, filepath.ToSlash(rel), nil
}

// runExecutable spins up a container, streams its output into buffers and
// waits for it to stop or for the job timeout, whichever comes first.
func (executor *DockerJobExecutor) runExecutable(ctx context.Context, dir, script string, job job_executor.Job) job_executor.JobExecutorOutput {
	env := append(append(append([]string{}, job_executor.UTF8Env...), headlessEnv...), job.Env...)
	resp, err := executor.cli.ContainerCreate(ctx, &container.Config{
		Image:           executor.image,
		WorkingDir:      workDir,
		Cmd:             []string{executor.interpreter, script},
		Env:             env,
		NetworkDisabled: true,
	}, &container.HostConfig{
		Binds:     []string{fmt.Sprintf("%s:%s", dir, workDir)},
		Resources: executor.resources,
	}, nil, nil, "")
	if err != nil {
		return launchError(fmt.Errorf("failed to create container: %w", err))
	}

	defer func() {
		if err := executor.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true}); err != nil {
			slog.Warn("Failed to remove container", "id", resp.ID, "error", err)
		}
	}()

	attachResp, err := executor.cli.ContainerAttach(ctx, resp.ID, container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return launchError(fmt.Errorf("failed to attach to container: %w", err))
	}
	defer attachResp.Close()

	stdoutBuffer := new(bytes.Buffer)
	stderrBuffer := new(bytes.Buffer)
	copied := make(chan struct{})
	go func() {
		defer close(copied)
		if _, err := stdcopy.StdCopy(stdoutBuffer, stderrBuffer, attachResp.Reader); err != nil {
			slog.Debug("Attach stream ended", "id", resp.ID, "error", err)
		}
	}()

	start := time.Now()
	if err := executor.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return launchError(fmt.Errorf("failed to start container: %w", err))
	}

	waitCtx, cancel := context.WithTimeout(ctx, job.Timeout)
	defer cancel()

	out := job_executor.JobExecutorOutput{ExitCode: -1}
	okChan, errChan := executor.cli.ContainerWait(waitCtx, resp.ID, container.WaitConditionNotRunning)
	select {
	case data := <-okChan:
		out.ExitCode = int(data.StatusCode)
		if data.StatusCode == 0 {
			out.Status = model.Successful
		} else {
			out.Status = model.RuntimeError
		}
	case err := <-errChan:
		switch {
		case ctx.Err() != nil:
			out.Status = model.Cancelled
			out.Err = ctx.Err()
		case waitCtx.Err() != nil:
			out.Status = model.RuntimeTimeout
		default:
			out.Status = model.LaunchError
			out.Err = fmt.Errorf("container wait error: %w", err)
		}
		if err := executor.cli.ContainerKill(context.Background(), resp.ID, "KILL"); err != nil {
			slog.Warn("Failed to kill container", "id", resp.ID, "error", err)
		}
	}

	select {
	case <-copied:
	case <-time.After(drainTimeout):
		attachResp.Close()
		<-copied
	}
	out.Stdout = job_executor.DecodeOutput(stdoutBuffer.Bytes())
	out.Stderr = job_executor.DecodeOutput(stderrBuffer.Bytes())
	out.RunTime = executor.runTime(resp.ID, time.Since(start))
	return out
}

// runTime prefers the container's own start/finish timestamps and falls back
// to wall-clock time measured on the host.
func (executor *DockerJobExecutor) runTime(id string, fallback time.Duration) time.Duration {
	inspectResp, err := executor.cli.ContainerInspect(context.Background(), id)
	if err != nil || inspectResp.ContainerJSONBase == nil || inspectResp.State == nil {
		return fallback
	}
	startTime, err := dateparse.ParseAny(inspectResp.State.StartedAt)
	if err != nil {
		slog.Debug("Failed to parse start time", "value", inspectResp.State.StartedAt, "error", err)
		return fallback
	}
	finishTime, err := dateparse.ParseAny(inspectResp.State.FinishedAt)
	if err != nil || finishTime.Before(startTime) {
		return fallback
	}
	return finishTime.Sub(startTime)
}

// pullImage pre-pulls the image so first executions aren't slow.
// The response body MUST be fully drained before closing, otherwise Docker
// cancels the download mid-flight and the image is never stored locally.
func (executor *DockerJobExecutor) pullImage(ctx context.Context) error {
	slog.Info("Pulling image (this may take a minute on first run)", "image", executor.image)
	out, err := executor.cli.ImagePull(ctx, executor.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", executor.image, err)
	}
	defer out.Close()
	if _, err := io.Copy(io.Discard, out); err != nil {
		slog.Warn("Error reading image pull stream", "error", err)
	}
	slog.Info("Image ready", "image", executor.image)
	return nil
}

// prepareRuntime switches the executor to an image with packages installed,
// building and tagging it on first use. The build container is the only one
// that gets network access.
func (executor *DockerJobExecutor) prepareRuntime(ctx context.Context, packages []string) error {
	tag := runtimeTag(executor.image, packages)
	_, _, err := executor.cli.ImageInspectWithRaw(ctx, tag)
	if err == nil {
		slog.Info("Runtime image ready", "image", tag)
		executor.image = tag
		return nil
	}
	if !client.IsErrNotFound(err) {
		return fmt.Errorf("inspect runtime image %s: %w", tag, err)
	}

	slog.Info("Building runtime image", "base", executor.image, "packages", packages, "image", tag)
	resp, err := executor.cli.ContainerCreate(ctx, &container.Config{
		Image: executor.image,
		Cmd:   installCmd(executor.interpreter, packages),
	}, nil, nil, nil, "")
	if err != nil {
		return fmt.Errorf("failed to create build container: %w", err)
	}
	defer func() {
		if err := executor.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true}); err != nil {
			slog.Warn("Failed to remove build container", "id", resp.ID, "error", err)
		}
	}()

	if err := executor.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start build container: %w", err)
	}
	okChan, errChan := executor.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case data := <-okChan:
		if data.StatusCode != 0 {
			return fmt.Errorf("package install exited with code %d: %s", data.StatusCode, executor.buildLogs(resp.ID))
		}
	case err := <-errChan:
		return fmt.Errorf("build container wait error: %w", err)
	}

	if _, err := executor.cli.ContainerCommit(ctx, resp.ID, container.CommitOptions{Reference: tag}); err != nil {
		return fmt.Errorf("failed to commit runtime image %s: %w", tag, err)
	}
	slog.Info("Runtime image built", "image", tag)
	executor.image = tag
	return nil
}

func (executor *DockerJobExecutor) buildLogs(id string) string {
	logs, err := executor.cli.ContainerLogs(context.Background(), id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return err.Error()
	}
	defer logs.Close()
	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		slog.Debug("Build log stream ended", "id", id, "error", err)
	}
	return job_executor.Diagnostic(job_executor.DecodeOutput(stderr.Bytes()), job_executor.DecodeOutput(stdout.Bytes()), 1000)
}

// runtimeTag is stable for a given base image and package list.
func runtimeTag(base string, packages []string) string {
	sum := sha256.Sum256([]byte(base + "\n" + strings.Join(packages, "\n")))
	return runtimeRepo + ":" + hex.EncodeToString(sum[:])[:12]
}

func installCmd(interpreter string, packages []string) []string {
	return append([]string{interpreter, "-m", "pip", "install", "--no-cache-dir", "--disable-pip-version-check"}, packages...)
}

func launchError(err error) job_executor.JobExecutorOutput {
	return job_executor.JobExecutorOutput{Status: model.LaunchError, ExitCode: -1, Err: err}
}
