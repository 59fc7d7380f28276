package model

// SourceArtifact is the current generated program and where it lives on disk.
// There is one per pipeline run and it is overwritten in place.
type SourceArtifact struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type Stage string

const (
	StageBasic Stage = "basic"
	StageFuzz  Stage = "fuzz"
)

// RepairAttempt is one iteration of the generation/repair loop.
type RepairAttempt struct {
	Index      int    `json:"index"`
	Stage      Stage  `json:"stage,omitempty"`
	Passed     bool   `json:"passed"`
	Diagnostic string `json:"diagnostic,omitempty"`
	Source     string `json:"-"`
	RepairErr  string `json:"repairError,omitempty"`
}
