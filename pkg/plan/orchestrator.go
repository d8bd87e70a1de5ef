package plan

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alantheprice/angela/pkg/classifier"
	"github.com/alantheprice/angela/pkg/confirm"
	"github.com/alantheprice/angela/pkg/errs"
	"github.com/alantheprice/angela/pkg/executor"
	"github.com/alantheprice/angela/pkg/fsexec"
	"github.com/alantheprice/angela/pkg/journal"
	"github.com/alantheprice/angela/pkg/risk"
	"github.com/alantheprice/angela/pkg/rollback"
)

// Orchestrator executes plans (§4.5). It composes the other subsystems as
// an explicit capability struct rather than through a global registry.
type Orchestrator struct {
	Classifier *classifier.Classifier
	Gate       *confirm.Gate
	Formatter  confirm.Formatter
	Shell      *executor.Executor
	FS         *fsexec.Executor
	Journal    *journal.Store
}

// New builds an Orchestrator from its constituent subsystems.
func New(c *classifier.Classifier, gate *confirm.Gate, formatter confirm.Formatter, shell *executor.Executor, fs *fsexec.Executor, j *journal.Store) *Orchestrator {
	return &Orchestrator{Classifier: c, Gate: gate, Formatter: formatter, Shell: shell, FS: fs, Journal: j}
}

// Flags mirror the Confirmation Gate's per-invocation overrides plus
// orchestrator-specific behavior.
type Flags struct {
	confirm.Flags
	KeepOnFailure bool
}

// Result is what Execute returns once a plan has run to completion,
// halted on failure, or been cancelled.
type Result struct {
	TransactionID int64
	StepResults   map[string]StepResult
	Failed        bool
	FailedStepID  string
}

// planContext accumulates step results, guarded for concurrent writers
// within a level (§4.5 "Concurrency contract").
type planContext struct {
	mu      sync.Mutex
	results map[string]StepResult
}

func newPlanContext() *planContext {
	return &planContext{results: map[string]StepResult{}}
}

func (c *planContext) get(id string) (StepResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[id]
	return r, ok
}

func (c *planContext) set(id string, r StepResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[id] = r
}

func (c *planContext) snapshot() map[string]StepResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]StepResult, len(c.results))
	for k, v := range c.results {
		out[k] = v
	}
	return out
}

// Execute runs p to completion, halting on the first non-optional failure
// and rolling back the partial transaction through the Rollback Manager,
// which closes it with its final status. With KeepOnFailure set, the
// partial transaction is left open instead.
func (o *Orchestrator) Execute(ctx context.Context, p Plan, flags Flags) (Result, error) {
	groups, err := levels(p.Steps)
	if err != nil {
		return Result{}, fmt.Errorf("plan %q: %w", p.Goal, err)
	}

	byID := make(map[string]*Step, len(p.Steps))
	for i := range p.Steps {
		byID[p.Steps[i].ID] = &p.Steps[i]
	}

	txID, err := o.Journal.Begin(ctx, p.Goal)
	if err != nil {
		return Result{}, err
	}

	pctx := newPlanContext()
	result := Result{TransactionID: txID, StepResults: map[string]StepResult{}}

	for _, group := range groups {
		if ctx.Err() != nil {
			result.Failed = true
			break
		}

		lowRisk, highRisk := partitionByRisk(group, byID)

		if failedID, ok := o.runConcurrent(ctx, lowRisk, byID, pctx, txID, flags); !ok {
			result.Failed = true
			result.FailedStepID = failedID
			break
		}

		var haltedID string
		halted := false
		for _, id := range highRisk {
			if ctx.Err() != nil {
				halted = true
				break
			}
			if !o.runStep(ctx, byID[id], pctx, txID, flags) {
				haltedID = id
				halted = true
				break
			}
		}
		if halted {
			result.Failed = true
			if haltedID != "" {
				result.FailedStepID = haltedID
			}
			break
		}
	}

	result.StepResults = pctx.snapshot()

	finalStatus := journal.TxCommitted
	if result.Failed {
		if !flags.KeepOnFailure {
			// Rollback runs even when ctx was cancelled: cancellation stops
			// new steps, not the undoing of those already committed.
			_, err := rollback.New(o.Journal, o.FS).RollbackTransaction(context.WithoutCancel(ctx), txID)
			return result, err
		}
		finalStatus = journal.TxOpen
	}

	if err := o.Journal.CloseTransaction(ctx, txID, finalStatus); err != nil {
		return result, err
	}

	return result, nil
}

// partitionByRisk splits one level's step ids into low-risk (parallel
// eligible, §4.5 "≤ MEDIUM") and high-risk (serialized) groups.
func partitionByRisk(ids []string, byID map[string]*Step) (low, high []string) {
	for _, id := range ids {
		if byID[id].EstimatedRisk.AtLeast(risk.High) {
			high = append(high, id)
		} else {
			low = append(low, id)
		}
	}
	return low, high
}

// runConcurrent runs every step in ids in its own goroutine and waits for
// all to finish. It returns (failedStepID, ok): ok is false if any
// non-optional step failed.
func (o *Orchestrator) runConcurrent(ctx context.Context, ids []string, byID map[string]*Step, pctx *planContext, txID int64, flags Flags) (string, bool) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	failedID := ""
	ok := true

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if !o.runStep(ctx, byID[id], pctx, txID, flags) {
				mu.Lock()
				if ok {
					ok = false
					failedID = id
				}
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	return failedID, ok
}

// runStep implements the per-step protocol of §4.5. It returns false only
// when a non-optional step's failure should halt the plan.
func (o *Orchestrator) runStep(ctx context.Context, step *Step, pctx *planContext, txID int64, flags Flags) bool {
	if !dependenciesReached(step, pctx) {
		pctx.set(step.ID, StepResult{Status: StatusSkipped})
		return true
	}

	if step.Condition != "" {
		if !evaluateCondition(step.Condition, pctx) {
			pctx.set(step.ID, StepResult{Status: StatusSkipped})
			return true
		}
	} else if anyDependencyFailed(step, pctx) {
		// Default cascade: a step with no explicit condition is skipped
		// once any of its dependencies failed.
		pctx.set(step.ID, StepResult{Status: StatusSkipped})
		return true
	}

	if step.Type == StepDecision {
		pctx.set(step.ID, StepResult{Status: StatusCommitted})
		return true
	}

	if step.Type == StepAPICall || step.Type == StepCodeGeneration {
		return o.fail(step, pctx, errs.NewNotImplementedError(string(step.Type), step.ID))
	}

	env := classifier.Environment{}
	command := step.Command
	if step.Type == StepFileOp {
		command = syntheticFileOpCommand(step.FileOp)
	}

	verdict := o.Classifier.Classify(command, env)
	if verdict.Refused {
		return o.fail(step, pctx, errs.NewRefusalError(command, verdict.Reason))
	}

	decision := o.Gate.Decide(command, verdict, flags.Flags)
	if step.RequiresConfirmation && decision == confirm.Allow {
		decision = confirm.Prompt
	}

	if decision == confirm.Deny {
		return o.fail(step, pctx, errs.NewConfirmationDeniedError(command))
	}
	if decision == confirm.PresentOnly {
		pctx.set(step.ID, StepResult{Status: StatusSkipped})
		return true
	}
	if decision == confirm.Prompt {
		req := confirm.PromptRequest{Command: command, Result: verdict, Explanation: step.Explanation}
		if step.Type == StepFileOp && (step.FileOp.Kind == "write_file" || step.FileOp.Kind == "create_file") {
			req.Preview = fsexec.Preview(step.FileOp.Path, step.FileOp.Content)
		}
		if o.Formatter == nil || !o.Formatter.Confirm(req) {
			return o.fail(step, pctx, errs.NewConfirmationDeniedError(command))
		}
	}

	switch step.Type {
	case StepFileOp:
		return o.runFileOp(ctx, step, pctx, txID)
	default:
		return o.runCommand(ctx, step, pctx, txID)
	}
}

// runFileOp carries out a StepFileOp step via the Filesystem Executor and
// journals the resulting operation (and its inverse, when any) under txID,
// using the {path, src, dst} forward-params convention the Rollback
// Manager's decoder expects.
func (o *Orchestrator) runFileOp(ctx context.Context, step *Step, pctx *planContext, txID int64) bool {
	op := step.FileOp

	var inv fsexec.Inverse
	var err error
	var kind journal.OperationKind
	params := map[string]string{}

	switch op.Kind {
	case "create_file":
		kind = journal.KindCreateFile
		inv, err = o.FS.CreateFile(op.Path, op.Content, op.Overwrite)
		params["path"] = op.Path
	case "write_file":
		kind = journal.KindWriteFile
		inv, err = o.FS.WriteFile(op.Path, op.Content)
		params["path"] = op.Path
	case "delete_file":
		kind = journal.KindDeleteFile
		inv, err = o.FS.DeleteFile(op.Path)
		params["path"] = op.Path
	case "create_dir":
		kind = journal.KindCreateDir
		inv, err = o.FS.CreateDirectory(op.Path, op.Parents)
		params["path"] = op.Path
	case "delete_dir":
		kind = journal.KindDeleteDir
		inv, err = o.FS.DeleteDirectory(op.Path)
		params["path"] = op.Path
	case "copy_file":
		kind = journal.KindCopyFile
		inv, err = o.FS.CopyFile(op.SecondPath, op.Path, op.Overwrite)
		params["dst"] = op.Path
		params["src"] = op.SecondPath
	case "move_file":
		kind = journal.KindMoveFile
		inv, err = o.FS.MoveFile(op.SecondPath, op.Path, op.Overwrite)
		params["dst"] = op.Path
		params["src"] = op.SecondPath
	default:
		return o.fail(step, pctx, fmt.Errorf("unknown file op kind %q", op.Kind))
	}

	if err != nil {
		return o.fail(step, pctx, err)
	}

	var journalInverse *journal.Inverse
	if inv.BackupPath != "" || inv.Type != "" {
		journalInverse = &journal.Inverse{Kind: kind, BackupPath: inv.BackupPath}
	}

	opID, jerr := o.Journal.AddOperation(ctx, &txID, kind, step.Explanation, params, journalInverse)
	if jerr != nil {
		return o.fail(step, pctx, jerr)
	}
	if cerr := o.Journal.CommitOperation(ctx, opID); cerr != nil {
		return o.fail(step, pctx, cerr)
	}

	pctx.set(step.ID, StepResult{Status: StatusCommitted, ProducedPath: op.Path})
	return true
}

// runCommand carries out a command-bearing step via the Command Executor
// and journals it as a (generally non-reversible) shell_command operation.
func (o *Orchestrator) runCommand(ctx context.Context, step *Step, pctx *planContext, txID int64) bool {
	res, err := o.Shell.Run(ctx, executor.Request{Command: step.Command})
	if err != nil {
		return o.fail(step, pctx, err)
	}

	opID, jerr := o.Journal.AddOperation(ctx, &txID, journal.KindShellCommand, step.Explanation,
		map[string]string{"command": step.Command}, nil)
	if jerr != nil {
		return o.fail(step, pctx, jerr)
	}

	if res.ExitCode != 0 {
		_ = o.Journal.FailOperation(ctx, opID, fmt.Errorf("exit %d", res.ExitCode))
		return o.fail(step, pctx, fmt.Errorf("command %q exited %d", step.Command, res.ExitCode))
	}

	if cerr := o.Journal.CommitOperation(ctx, opID); cerr != nil {
		return o.fail(step, pctx, cerr)
	}

	pctx.set(step.ID, StepResult{Status: StatusCommitted, Stdout: res.Stdout, Stderr: res.Stderr, ExitCode: res.ExitCode})
	return true
}

func (o *Orchestrator) fail(step *Step, pctx *planContext, err error) bool {
	pctx.set(step.ID, StepResult{Status: StatusFailed, Err: err})
	return step.Optional
}

// dependenciesReached reports whether every dependency has reached a
// terminal status. Level scheduling already guarantees this in practice;
// this is a defensive check against malformed plans.
func dependenciesReached(step *Step, pctx *planContext) bool {
	for _, dep := range step.Dependencies {
		r, ok := pctx.get(dep)
		if !ok {
			return false
		}
		if r.Status != StatusCommitted && r.Status != StatusSkipped && r.Status != StatusFailed {
			return false
		}
	}
	return true
}

func anyDependencyFailed(step *Step, pctx *planContext) bool {
	for _, dep := range step.Dependencies {
		if r, ok := pctx.get(dep); ok && r.Status == StatusFailed {
			return true
		}
	}
	return false
}

func syntheticFileOpCommand(op FileOp) string {
	switch op.Kind {
	case "delete_file":
		return "rm " + op.Path
	case "delete_dir":
		return "rm -r " + op.Path
	case "create_dir":
		return "mkdir " + op.Path
	case "move_file":
		return "mv " + op.SecondPath + " " + op.Path
	case "copy_file":
		return "cp " + op.SecondPath + " " + op.Path
	default:
		return "touch " + op.Path
	}
}

// evaluateCondition supports the minimal condition language described in
// Step.Condition's doc comment.
func evaluateCondition(condition string, pctx *planContext) bool {
	if strings.HasSuffix(condition, ".success") {
		id := strings.TrimSuffix(condition, ".success")
		r, ok := pctx.get(id)
		return ok && r.success()
	}
	if strings.HasSuffix(condition, ".failure") {
		id := strings.TrimSuffix(condition, ".failure")
		r, ok := pctx.get(id)
		return ok && !r.success()
	}
	return true
}
