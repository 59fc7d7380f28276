package config

import "time"

type Config struct {
	Artifact ArtifactConfig `yaml:"artifact"`
	Runner   RunnerConfig   `yaml:"runner"`
	Fuzz     FuzzConfig     `yaml:"fuzz"`
	Loop     LoopConfig     `yaml:"loop"`
	LLM      LLMConfig      `yaml:"llm"`
	Planner  PlannerConfig  `yaml:"planner"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Journal  JournalConfig  `yaml:"journal"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

type ArtifactConfig struct {
	Path      string `yaml:"path"`
	DesignDoc string `yaml:"design_doc"`
}

type RunnerConfig struct {
	// Backend is "local" or "docker".
	Backend     string        `yaml:"backend"`
	Interpreter string        `yaml:"interpreter"`
	Timeout     time.Duration `yaml:"timeout"`
	// TailChars bounds the stdout slice used when stderr is empty.
	TailChars int          `yaml:"tail_chars"`
	Docker    DockerConfig `yaml:"docker"`
}

type DockerConfig struct {
	Image    string `yaml:"image"`
	Memory   int64  `yaml:"memory"`
	CPUQuota int64  `yaml:"cpu_quota"`
	Pull     bool   `yaml:"pull"`
	// Packages are pip-installed into a derived image that programs run in.
	Packages []string `yaml:"packages"`
}

type FuzzConfig struct {
	Duration    time.Duration `yaml:"duration"`
	Slack       time.Duration `yaml:"slack"`
	Interval    time.Duration `yaml:"interval"`
	Probability float64       `yaml:"probability"`
	// DangerZoneX/Y are the fractions of width/height forming the top-right
	// corner where clicks are never sent.
	DangerZoneX float64 `yaml:"danger_zone_x"`
	DangerZoneY float64 `yaml:"danger_zone_y"`
	// BottomMargin is the fraction of height at the bottom kept click-free.
	BottomMargin float64 `yaml:"bottom_margin"`
	Sentinel     string  `yaml:"sentinel"`
	WorkDir      string  `yaml:"work_dir"`
	Launcher     string  `yaml:"launcher"`
	// AutoLauncher regenerates the launcher for the artifact before each run.
	AutoLauncher     bool     `yaml:"auto_launcher"`
	WrapperPrefix    string   `yaml:"wrapper_prefix"`
	TimeoutVerdict   string   `yaml:"timeout_verdict"`
	TracebackMarkers []string `yaml:"traceback_markers"`
}

type LoopConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

type LLMConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	APIKeyEnv      string        `yaml:"api_key_env"`
	Temperature    float32       `yaml:"temperature"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MinSourceChars int           `yaml:"min_source_chars"`
}

type PlannerConfig struct {
	Review bool `yaml:"review"`
}

type CatalogConfig struct {
	Dir      string `yaml:"dir"`
	MaxBytes int    `yaml:"max_bytes"`
}

type JournalConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

const (
	TimeoutVerdictPass = "pass"
	TimeoutVerdictFail = "fail"
)

func DefaultConfig() Config {
	return Config{
		Artifact: ArtifactConfig{
			Path:      "dest/generated_app.py",
			DesignDoc: "dest/game_design_document.txt",
		},
		Runner: RunnerConfig{
			Backend:     "local",
			Interpreter: "python3",
			Timeout:     10 * time.Second,
			TailChars:   1000,
			Docker: DockerConfig{
				Image:    "python:3.11-slim",
				Memory:   1073741824, // 1 GB of RAM
				CPUQuota: 100000,     // 1 CPU core
				Pull:     true,
				Packages: []string{"pygame"},
			},
		},
		Fuzz: FuzzConfig{
			Duration:         10 * time.Second,
			Slack:            10 * time.Second,
			Interval:         30 * time.Millisecond,
			Probability:      0.2,
			DangerZoneX:      0.05,
			DangerZoneY:      0.05,
			BottomMargin:     0.15,
			Sentinel:         "[FUZZ] SUCCESS",
			WorkDir:          ".",
			Launcher:         "Debug/debug_launcher.py",
			AutoLauncher:     true,
			WrapperPrefix:    "temp_fuzz_wrapper",
			TimeoutVerdict:   TimeoutVerdictFail,
			TracebackMarkers: []string{"Traceback (most recent call last)"},
		},
		Loop: LoopConfig{MaxAttempts: 3},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			Temperature:    0.2,
			RequestTimeout: 5 * time.Minute,
			MinSourceChars: 100,
		},
		Planner: PlannerConfig{Review: true},
		Catalog: CatalogConfig{
			Dir:      "reference_modules",
			MaxBytes: 64 * 1024,
		},
		Journal: JournalConfig{Path: "dest/gameforge.db"},
		Server:  ServerConfig{Addr: ":8080"},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}
