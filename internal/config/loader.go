package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path on top of DefaultConfig. A missing file is
// not an error: the defaults are returned.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read the config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("GAMEFORGE_RUNNER_BACKEND"); v != "" {
		cfg.Runner.Backend = v
	}
}

func (c Config) Validate() error {
	var problems []string
	if c.Artifact.Path == "" {
		problems = append(problems, "artifact.path is required")
	}
	switch c.Runner.Backend {
	case "local", "docker":
	default:
		problems = append(problems, fmt.Sprintf("runner.backend %q must be local or docker", c.Runner.Backend))
	}
	if c.Runner.Interpreter == "" {
		problems = append(problems, "runner.interpreter is required")
	}
	if c.Runner.Timeout <= 0 {
		problems = append(problems, "runner.timeout must be positive")
	}
	if c.Fuzz.Duration <= 0 {
		problems = append(problems, "fuzz.duration must be positive")
	}
	if c.Fuzz.Slack <= 0 {
		problems = append(problems, "fuzz.slack must be positive")
	}
	if c.Fuzz.Probability < 0 || c.Fuzz.Probability > 1 {
		problems = append(problems, "fuzz.probability must be within [0, 1]")
	}
	if c.Fuzz.Sentinel == "" {
		problems = append(problems, "fuzz.sentinel is required")
	}
	switch c.Fuzz.TimeoutVerdict {
	case TimeoutVerdictPass, TimeoutVerdictFail:
	default:
		problems = append(problems, fmt.Sprintf("fuzz.timeout_verdict %q must be pass or fail", c.Fuzz.TimeoutVerdict))
	}
	if c.Loop.MaxAttempts < 1 {
		problems = append(problems, "loop.max_attempts must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// APIKey resolves the LLM API key from the configured environment variable,
// falling back to a mounted secret.
func (c LLMConfig) APIKey() string {
	if v := os.Getenv(c.APIKeyEnv); v != "" {
		return v
	}
	data, err := os.ReadFile("/run/secrets/openai_api_key")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
