package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/namnv2496/gameforge/internal/artifact"
	"github.com/namnv2496/gameforge/internal/config"
	"github.com/namnv2496/gameforge/internal/executor/fuzz"
	"github.com/namnv2496/gameforge/internal/executor/runner"
	local_job_executor "github.com/namnv2496/gameforge/internal/executor/worker/local_worker"
	"github.com/namnv2496/gameforge/internal/repair"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queuedGenerator answers repair requests from a fixed queue.
type queuedGenerator struct {
	replies []string
	calls   int
}

func (q *queuedGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	reply := q.replies[q.calls%len(q.replies)]
	q.calls++
	return reply, nil
}

type harness struct {
	dir   string
	store *artifact.Store
	gen   *queuedGenerator
	loop  *Loop
}

// newHarness wires the real runner, fuzz orchestrator and repair service
// around shell programs. The fuzz payload prints the sentinel unless the
// program exits or hangs first.
func newHarness(t *testing.T, fuzzTimeout time.Duration, replies ...string) *harness {
	t.Helper()
	dir := t.TempDir()
	store := artifact.NewStore(filepath.Join(dir, "dest", "generated_app.sh"))
	executor := local_job_executor.NewLocalJobExecutor("sh")
	basic := runner.NewProcessRunner(executor, 300*time.Millisecond, 1000)
	payload := "( sleep 0.2; echo '[FUZZ] SUCCESS: survived'; kill -9 $$ ) &\n"
	orchestrator, err := fuzz.NewOrchestrator(executor, fuzz.NewHarness(config.DefaultConfig().Fuzz),
		fuzz.WithWorkDir(dir),
		fuzz.WithLauncher(""),
		fuzz.WithPayload(payload),
		fuzz.WithTimeout(fuzzTimeout),
	)
	require.NoError(t, err)
	gen := &queuedGenerator{replies: replies}
	return &harness{
		dir:   dir,
		store: store,
		gen:   gen,
		loop:  NewLoop(basic, orchestrator, repair.NewService(gen, store, 1), nil, DefaultMaxAttempts),
	}
}

func (h *harness) write(t *testing.T, source string) {
	t.Helper()
	_, err := h.store.Write(source)
	require.NoError(t, err)
}

func (h *harness) run(t *testing.T, source string) Report {
	t.Helper()
	h.write(t, source)
	art, err := h.store.Read()
	require.NoError(t, err)
	report, err := h.loop.Run(context.Background(), "e2e", art)
	require.NoError(t, err)
	return report
}

const interactive = "while :; do sleep 0.05; done\n"

func TestEndToEnd_ImmediateSuccess(t *testing.T) {
	h := newHarness(t, 5*time.Second, "unused")

	report := h.run(t, interactive)

	assert.Equal(t, Success, report.Outcome)
	assert.Len(t, report.Attempts, 1)
	assert.Zero(t, h.gen.calls)
}

func TestEndToEnd_CrashRepairedOnce(t *testing.T) {
	crashing := "a=1\nb=2\nc=3\nd=4\necho 'Traceback (most recent call last):' >&2; echo 'line 5: ValueError' >&2; exit 1\n"
	h := newHarness(t, 5*time.Second, "```sh\n"+interactive+"```")

	report := h.run(t, crashing)

	assert.Equal(t, Success, report.Outcome)
	require.Len(t, report.Attempts, 2)
	assert.Contains(t, report.Attempts[0].Diagnostic, "ValueError")
	assert.Equal(t, 1, h.gen.calls)

	data, err := os.ReadFile(h.store.Path())
	require.NoError(t, err)
	assert.Equal(t, interactive, string(data))
}

func TestEndToEnd_HangUnderFuzzExhaustsBudget(t *testing.T) {
	// Exits cleanly when run directly, hangs when run inside the fuzz wrapper.
	hang := func(tag string) string {
		return "# " + tag + "\ncase \"$0\" in *temp_fuzz_wrapper*) exec sleep 5;; esac\nexit 0\n"
	}
	h := newHarness(t, 300*time.Millisecond, hang("repair 1"), hang("repair 2"))
	// the payload must not rescue the hang
	orchestrator, err := fuzz.NewOrchestrator(local_job_executor.NewLocalJobExecutor("sh"),
		fuzz.NewHarness(config.DefaultConfig().Fuzz),
		fuzz.WithWorkDir(h.dir), fuzz.WithLauncher(""), fuzz.WithPayload(":\n"),
		fuzz.WithTimeout(300*time.Millisecond))
	require.NoError(t, err)
	h.loop.fuzz = orchestrator

	report := h.run(t, hang("initial"))

	assert.Equal(t, ExhaustedFailure, report.Outcome)
	assert.Len(t, report.Attempts, DefaultMaxAttempts)
	assert.Equal(t, DefaultMaxAttempts-1, h.gen.calls)
	for _, a := range report.Attempts {
		assert.Contains(t, a.Diagnostic, "Timeout")
	}

	data, err := os.ReadFile(h.store.Path())
	require.NoError(t, err)
	assert.Equal(t, hang("repair 2"), string(data))

	matches, err := filepath.Glob(filepath.Join(h.dir, "*temp_fuzz_wrapper*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
