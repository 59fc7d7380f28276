package model

import "time"

type EventKind string

const (
	EventRunStarted     EventKind = "run_started"
	EventGenerated      EventKind = "generated"
	EventAttemptStarted EventKind = "attempt_started"
	EventCheckPassed    EventKind = "check_passed"
	EventCheckFailed    EventKind = "check_failed"
	EventRepairing      EventKind = "repairing"
	EventRepairFailed   EventKind = "repair_failed"
	EventSucceeded      EventKind = "succeeded"
	EventExhausted      EventKind = "exhausted"
	EventAborted        EventKind = "aborted"
)

// Event is a progress notification emitted by the pipeline.
type Event struct {
	RunID       string        `json:"runId"`
	Kind        EventKind     `json:"kind"`
	Attempt     int           `json:"attempt,omitempty"`
	MaxAttempts int           `json:"maxAttempts,omitempty"`
	Stage       Stage         `json:"stage,omitempty"`
	Message     string        `json:"message,omitempty"`
	Diagnostic  string        `json:"diagnostic,omitempty"`
	Prompt      string        `json:"prompt,omitempty"`
	Artifact    string        `json:"artifact,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Time        time.Time     `json:"time"`
}

// Terminal reports whether no further events follow for the run.
func (e Event) Terminal() bool {
	switch e.Kind {
	case EventSucceeded, EventExhausted, EventAborted:
		return true
	}
	return false
}
