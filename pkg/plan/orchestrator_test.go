package plan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alantheprice/angela/pkg/classifier"
	"github.com/alantheprice/angela/pkg/confirm"
	"github.com/alantheprice/angela/pkg/errs"
	"github.com/alantheprice/angela/pkg/executor"
	"github.com/alantheprice/angela/pkg/fsexec"
	"github.com/alantheprice/angela/pkg/journal"
	"github.com/alantheprice/angela/pkg/risk"
	"github.com/alantheprice/angela/pkg/rollback"
)

type harness struct {
	orch *Orchestrator
	j    *journal.Store
	fs   *fsexec.Executor
	dir  string
}

func newHarness(t *testing.T) harness {
	t.Helper()
	dir := t.TempDir()

	j, err := journal.Open(filepath.Join(dir, "journal"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	fs := fsexec.New(filepath.Join(dir, "backups"))
	c := classifier.New()
	gate := confirm.New(confirm.NewPreferences())
	shell := executor.New()

	orch := New(c, gate, nil, shell, fs, j)
	return harness{orch: orch, j: j, fs: fs, dir: dir}
}

func TestExecute_ReversibleWritePlanCommitsBothSteps(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	path := filepath.Join(h.dir, "out.txt")

	p := Plan{
		Goal: "write a file in two steps",
		Steps: []Step{
			{ID: "s1", Type: StepFileOp, FileOp: FileOp{Kind: "create_file", Path: path, Content: "A"}, EstimatedRisk: risk.Low},
			{ID: "s2", Type: StepFileOp, FileOp: FileOp{Kind: "write_file", Path: path, Content: "B"}, EstimatedRisk: risk.Low, Dependencies: []string{"s1"}},
		},
	}

	result, err := h.orch.Execute(ctx, p, Flags{})
	require.NoError(t, err)
	assert.False(t, result.Failed)
	assert.Equal(t, StatusCommitted, result.StepResults["s1"].Status)
	assert.Equal(t, StatusCommitted, result.StepResults["s2"].Status)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "B", string(content))

	mgr := rollback.New(h.j, h.fs)
	summary, err := mgr.RollbackTransaction(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, journal.TxRolledBack, summary.FinalStatus)
	assert.NoFileExists(t, path)
}

func TestExecute_NonOptionalFailureHaltsPlanAndLeavesPriorStepsCommitted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pathA := filepath.Join(h.dir, "a.txt")

	p := Plan{
		Goal: "create then refuse",
		Steps: []Step{
			{ID: "s1", Type: StepFileOp, FileOp: FileOp{Kind: "create_file", Path: pathA, Content: "hi"}, EstimatedRisk: risk.Low},
			{ID: "s2", Type: StepCommand, Command: "rm -rf /", EstimatedRisk: risk.Critical, Dependencies: []string{"s1"}},
			{ID: "s3", Type: StepFileOp, FileOp: FileOp{Kind: "create_file", Path: filepath.Join(h.dir, "never.txt")}, Dependencies: []string{"s2"}},
		},
	}

	result, err := h.orch.Execute(ctx, p, Flags{KeepOnFailure: true})
	require.NoError(t, err)
	assert.True(t, result.Failed)
	assert.Equal(t, "s2", result.FailedStepID)
	assert.Equal(t, StatusCommitted, result.StepResults["s1"].Status)
	assert.Equal(t, StatusFailed, result.StepResults["s2"].Status)
	assert.FileExists(t, pathA)

	tx, err := h.j.LookupTransaction(ctx, result.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, journal.TxOpen, tx.Status)
}

func TestExecute_IndependentSiblingsAllCommit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := Plan{
		Goal: "three independent reads",
		Steps: []Step{
			{ID: "r1", Type: StepCommand, Command: "echo one", EstimatedRisk: risk.Safe},
			{ID: "r2", Type: StepCommand, Command: "echo two", EstimatedRisk: risk.Safe},
			{ID: "r3", Type: StepCommand, Command: "echo three", EstimatedRisk: risk.Safe},
		},
	}

	result, err := h.orch.Execute(ctx, p, Flags{})
	require.NoError(t, err)
	assert.False(t, result.Failed)
	for _, id := range []string{"r1", "r2", "r3"} {
		assert.Equal(t, StatusCommitted, result.StepResults[id].Status, id)
	}

	ops, err := h.j.OperationsByTransaction(ctx, result.TransactionID, journal.StatusCommitted)
	require.NoError(t, err)
	assert.Len(t, ops, 3)
}

func TestExecute_CancelledContextNeverStartsATransaction(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Plan{
		Goal: "cancelled",
		Steps: []Step{
			{ID: "s1", Type: StepCommand, Command: "echo one", EstimatedRisk: risk.Safe},
		},
	}

	_, err := h.orch.Execute(ctx, p, Flags{KeepOnFailure: true})
	assert.Error(t, err)
}

func TestExecute_APICallStepFailsNotImplementedWithoutRunningAnyCommand(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sentinel := filepath.Join(h.dir, "never-created.txt")

	p := Plan{
		Goal: "call an api",
		Steps: []Step{
			{ID: "s1", Type: StepAPICall, Command: "touch " + sentinel, EstimatedRisk: risk.Safe},
		},
	}

	result, err := h.orch.Execute(ctx, p, Flags{KeepOnFailure: true})
	require.NoError(t, err)
	assert.True(t, result.Failed)
	assert.Equal(t, "s1", result.FailedStepID)
	assert.Equal(t, StatusFailed, result.StepResults["s1"].Status)
	assert.True(t, errs.IsNotImplemented(result.StepResults["s1"].Err))
	assert.NoFileExists(t, sentinel)
}

func TestExecute_CodeGenerationStepFailsNotImplemented(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p := Plan{
		Goal: "generate code",
		Steps: []Step{
			{ID: "s1", Type: StepCodeGeneration, EstimatedRisk: risk.Safe},
		},
	}

	result, err := h.orch.Execute(ctx, p, Flags{KeepOnFailure: true})
	require.NoError(t, err)
	assert.True(t, result.Failed)
	assert.Equal(t, StatusFailed, result.StepResults["s1"].Status)
	assert.True(t, errs.IsNotImplemented(result.StepResults["s1"].Err))
}

func TestExecute_ConditionSkipsStepOnDependencyFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pathB := filepath.Join(h.dir, "b.txt")

	p := Plan{
		Goal: "conditional cleanup",
		Steps: []Step{
			{ID: "s1", Type: StepCommand, Command: "rm -rf /", EstimatedRisk: risk.Critical, Optional: true},
			{ID: "s2", Type: StepFileOp, FileOp: FileOp{Kind: "create_file", Path: pathB, Content: "x"},
				Dependencies: []string{"s1"}, Condition: "s1.failure"},
		},
	}

	result, err := h.orch.Execute(ctx, p, Flags{})
	require.NoError(t, err)
	assert.False(t, result.Failed)
	assert.Equal(t, StatusFailed, result.StepResults["s1"].Status)
	assert.Equal(t, StatusCommitted, result.StepResults["s2"].Status)
	assert.FileExists(t, pathB)
}
