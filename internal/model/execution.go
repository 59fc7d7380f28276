package model

import "time"

type ExecutionStatus int

const (
	NotExecuted ExecutionStatus = iota
	LaunchError
	RuntimeError
	RuntimeTimeout
	Cancelled
	Successful
)

func (s ExecutionStatus) String() string {
	switch s {
	case LaunchError:
		return "launch_error"
	case RuntimeError:
		return "runtime_error"
	case RuntimeTimeout:
		return "runtime_timeout"
	case Cancelled:
		return "cancelled"
	case Successful:
		return "successful"
	default:
		return "not_executed"
	}
}

// ExecutionResult is the outcome of one basic execution check.
// Diagnostic is empty exactly when Succeeded is true.
type ExecutionResult struct {
	Succeeded  bool            `json:"succeeded"`
	Diagnostic string          `json:"diagnostic,omitempty"`
	Status     ExecutionStatus `json:"status"`
	ExitCode   int             `json:"exitCode"`
	RunTime    time.Duration   `json:"runTime"`
}

type FuzzVerdict string

const (
	// Survived means the harness printed the success sentinel.
	Survived FuzzVerdict = "survived"
	// ExitedClean means exit 0 with neither sentinel nor traceback.
	ExitedClean  FuzzVerdict = "exited_clean"
	TimedOut     FuzzVerdict = "timed_out"
	Crashed      FuzzVerdict = "crashed"
	HarnessError FuzzVerdict = "harness_error"
)

// FuzzOutcome is the outcome of a harness-wrapped run.
type FuzzOutcome struct {
	Succeeded  bool          `json:"succeeded"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Verdict    FuzzVerdict   `json:"verdict"`
	ExitCode   int           `json:"exitCode"`
	RunTime    time.Duration `json:"runTime"`
}
