package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/namnv2496/gameforge/internal/executor/worker/job_executor"
	local_job_executor "github.com/namnv2496/gameforge/internal/executor/worker/local_worker"
	"github.com/namnv2496/gameforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "generated_app.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newRunner(timeout time.Duration) *ProcessRunner {
	return NewProcessRunner(local_job_executor.NewLocalJobExecutor("sh"), timeout, 1000)
}

func TestRun_CleanExit(t *testing.T) {
	res := newRunner(5*time.Second).Run(context.Background(), writeScript(t, "exit 0\n"))
	assert.True(t, res.Succeeded)
	assert.Empty(t, res.Diagnostic)
	assert.Equal(t, model.Successful, res.Status)
}

func TestRun_RunningForeverIsSurvival(t *testing.T) {
	res := newRunner(300*time.Millisecond).Run(context.Background(), writeScript(t, "while :; do :; done\n"))
	assert.True(t, res.Succeeded)
	assert.Empty(t, res.Diagnostic)
	assert.Equal(t, model.RuntimeTimeout, res.Status)
}

func TestRun_CrashReportsStderr(t *testing.T) {
	body := "echo 'Traceback (most recent call last):' >&2\necho 'NameError: name x is not defined' >&2\nexit 1\n"
	res := newRunner(5*time.Second).Run(context.Background(), writeScript(t, body))
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Diagnostic, "NameError")
	assert.Equal(t, 1, res.ExitCode)
}

func TestRun_CrashFallsBackToStdoutTail(t *testing.T) {
	body := "i=0\nwhile [ $i -lt 500 ]; do printf 'line%d\\n' $i; i=$((i+1)); done\necho 'fatal: last words'\nexit 2\n"
	res := NewProcessRunner(local_job_executor.NewLocalJobExecutor("sh"), 5*time.Second, 40).
		Run(context.Background(), writeScript(t, body))
	assert.False(t, res.Succeeded)
	assert.LessOrEqual(t, len(res.Diagnostic), 40)
	assert.True(t, strings.HasSuffix(res.Diagnostic, "fatal: last words\n"))
}

func TestRun_SilentCrash(t *testing.T) {
	res := newRunner(5*time.Second).Run(context.Background(), writeScript(t, "exit 7\n"))
	assert.False(t, res.Succeeded)
	assert.Equal(t, job_executor.SilentCrash, res.Diagnostic)
}

func TestRun_MissingScript(t *testing.T) {
	res := newRunner(time.Second).Run(context.Background(), filepath.Join(t.TempDir(), "generated_app.py"))
	assert.False(t, res.Succeeded)
	assert.Contains(t, res.Diagnostic, "generated_app.py")
	assert.Equal(t, model.LaunchError, res.Status)
}

func TestClassify_FailureAlwaysHasDiagnostic(t *testing.T) {
	outputs := []job_executor.JobExecutorOutput{
		{Status: model.RuntimeError, ExitCode: 1},
		{Status: model.LaunchError},
		{Status: model.LaunchError, Err: errors.New("exec: \"python3\": executable file not found in $PATH")},
		{Status: model.Cancelled, Err: context.Canceled},
		{Status: model.NotExecuted},
	}
	for _, out := range outputs {
		res := Classify(out, 100)
		require.False(t, res.Succeeded, out.Status.String())
		assert.NotEmpty(t, strings.TrimSpace(res.Diagnostic), out.Status.String())
	}
}
