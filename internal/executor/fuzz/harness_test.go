package fuzz

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/namnv2496/gameforge/internal/config"
	local_job_executor "github.com/namnv2496/gameforge/internal/executor/worker/local_worker"
	"github.com/namnv2496/gameforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHarness_Render(t *testing.T) {
	payload, err := NewHarness(config.DefaultConfig().Fuzz).Render()
	require.NoError(t, err)

	assert.Contains(t, payload, `SENTINEL = "[FUZZ] SUCCESS"`)
	assert.Contains(t, payload, "DURATION = 10\n")
	assert.Contains(t, payload, "INTERVAL = 0.03\n")
	assert.Contains(t, payload, "PROBABILITY = 0.2\n")
	assert.Contains(t, payload, "BOTTOM_MARGIN = 0.15\n")
	assert.Contains(t, payload, "_fz_os._exit(0)")
	assert.Contains(t, payload, "daemon=True")
	assert.Contains(t, payload, "_fz_harness_installed")
}

func TestHarness_RenderQuotesSentinel(t *testing.T) {
	h := Harness{Duration: time.Second, Interval: time.Millisecond, Sentinel: `DONE "ok" \o/`}
	payload, err := h.Render()
	require.NoError(t, err)
	assert.Contains(t, payload, `SENTINEL = "DONE \"ok\" \\o/"`)
}

func TestHarness_RenderRejectsZeroDuration(t *testing.T) {
	_, err := Harness{Interval: time.Millisecond, Sentinel: "x"}.Render()
	assert.Error(t, err)
}

// stubPygame is just enough of pygame for the harness: a display that comes
// up on set_mode, an event queue that rejects every other post and a mouse
// that always fails.
const stubPygame = `KEYDOWN, KEYUP, MOUSEBUTTONDOWN, MOUSEBUTTONUP = 2, 3, 5, 6
K_LEFT, K_RIGHT, K_UP, K_DOWN, K_w, K_a, K_s, K_d, K_SPACE, K_r, K_e = range(100, 111)


class _Surface(object):
    def get_size(self):
        return (320, 240)


class _Display(object):
    surface = None

    def get_init(self):
        return self.surface is not None

    def get_surface(self):
        return self.surface

    def set_mode(self, size):
        self.surface = _Surface()
        return self.surface


class _Events(object):
    posted = 0

    def Event(self, kind, **attrs):
        return (kind, attrs)

    def post(self, ev):
        self.posted += 1
        if self.posted % 2:
            raise RuntimeError("event queue full")


class _Mouse(object):
    def set_pos(self, pos):
        raise RuntimeError("no mouse")


display = _Display()
event = _Events()
mouse = _Mouse()
`

func TestHarness_RunsUnderPython(t *testing.T) {
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}

	h := NewHarness(config.DefaultConfig().Fuzz)
	h.Duration = 500 * time.Millisecond
	h.Interval = 5 * time.Millisecond
	h.Probability = 1

	const opensDisplay = "import pygame\nimport time\npygame.display.set_mode((320, 240))\n"
	tests := []struct {
		name      string
		program   string
		succeeded bool
		verdict   model.FuzzVerdict
		diagHas   string
	}{
		{
			name:      "looping program survives",
			program:   opensDisplay + "while True:\n    time.sleep(0.01)\n",
			succeeded: true,
			verdict:   model.Survived,
		},
		{
			name:    "crash before the deadline",
			program: opensDisplay + "time.sleep(0.1)\nraise ValueError('bad state')\n",
			verdict: model.Crashed,
			diagHas: "ValueError: bad state",
		},
		{
			name:    "no display means no sentinel",
			program: "import time\nwhile True:\n    time.sleep(0.01)\n",
			verdict: model.TimedOut,
			diagHas: "Timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "pygame.py"), []byte(stubPygame), 0o644))
			target := filepath.Join(dir, "generated_app.py")
			require.NoError(t, os.WriteFile(target, []byte(tt.program), 0o644))

			o, err := NewOrchestrator(local_job_executor.NewLocalJobExecutor(python), h,
				WithWorkDir(dir), WithLauncher(""), WithTimeout(3*time.Second))
			require.NoError(t, err)

			outcome := o.RunFuzz(context.Background(), target)
			assert.Equal(t, tt.succeeded, outcome.Succeeded, outcome.Diagnostic)
			assert.Equal(t, tt.verdict, outcome.Verdict)
			if tt.succeeded {
				assert.Equal(t, 0, outcome.ExitCode)
			} else {
				assert.NotZero(t, outcome.ExitCode)
				assert.Contains(t, outcome.Diagnostic, tt.diagHas)
			}
			assertNoWrapper(t, dir)
		})
	}
}
