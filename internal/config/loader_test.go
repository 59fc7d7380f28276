package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Loop.MaxAttempts)
	assert.Equal(t, "[FUZZ] SUCCESS", cfg.Fuzz.Sentinel)
	assert.Equal(t, 10*time.Second, cfg.Runner.Timeout)
	assert.Equal(t, TimeoutVerdictFail, cfg.Fuzz.TimeoutVerdict)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameforge.yaml")
	data := `
runner:
  backend: docker
  timeout: 3s
fuzz:
  duration: 2s
  timeout_verdict: pass
loop:
  max_attempts: 5
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "docker", cfg.Runner.Backend)
	assert.Equal(t, 3*time.Second, cfg.Runner.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Fuzz.Duration)
	assert.Equal(t, TimeoutVerdictPass, cfg.Fuzz.TimeoutVerdict)
	assert.Equal(t, 5, cfg.Loop.MaxAttempts)
	// untouched keys keep their defaults
	assert.Equal(t, "python3", cfg.Runner.Interpreter)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loop:\n  max_attempts: 0\nfuzz:\n  timeout_verdict: maybe\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loop.max_attempts")
	assert.Contains(t, err.Error(), "fuzz.timeout_verdict")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_MODEL", "local-model")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "local-model", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
}
