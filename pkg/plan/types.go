// Package plan implements the Plan Orchestrator: it executes a
// dependency-ordered set of steps, gating each on classification and
// confirmation, and journals every side effect under a shared transaction.
package plan

import "github.com/alantheprice/angela/pkg/risk"

// StepType distinguishes how a step is carried out.
type StepType string

const (
	StepCommand        StepType = "command"
	StepFileOp         StepType = "file_op"
	StepAPICall        StepType = "api_call"
	StepCodeGeneration StepType = "code_generation"
	StepDecision       StepType = "decision"
)

// FileOp names one of the Filesystem Executor's operations (§4.4), used
// when Step.Type is StepFileOp.
type FileOp struct {
	Kind       string // create_file, write_file, delete_file, create_dir, delete_dir, copy_file, move_file
	Path       string
	SecondPath string // src for move/copy
	Content    string
	Overwrite  bool
	Parents    bool
}

// Step is one unit of work in a plan (§3 "Plan step" / "Advanced plan").
type Step struct {
	ID                   string
	Type                 StepType
	Command              string
	FileOp               FileOp
	Explanation          string
	EstimatedRisk        risk.Level
	Dependencies         []string
	Optional             bool
	RequiresConfirmation bool
	// Condition, if non-empty, is evaluated against accumulated plan
	// context before the step runs. Supported forms: "<id>.success",
	// "<id>.failure". With an empty condition the step runs unless one of
	// its dependencies failed, in which case it is skipped.
	Condition string
}

// Plan is a goal plus its ordered, dependency-annotated steps.
type Plan struct {
	Goal  string
	Steps []Step
}

// StepStatus mirrors the statuses named in §3/§4.5.
type StepStatus string

const (
	StatusPending   StepStatus = "pending"
	StatusSkipped   StepStatus = "skipped"
	StatusRunning   StepStatus = "running"
	StatusCommitted StepStatus = "committed"
	StatusFailed    StepStatus = "failed"
)

// StepResult is recorded in plan context keyed by step id, per §4.5 step 5.
type StepResult struct {
	Status       StepStatus
	Stdout       string
	Stderr       string
	ExitCode     int
	ProducedPath string
	Err          error
}

func (r StepResult) success() bool {
	return r.Status == StatusCommitted
}
