// Package rollback implements the Rollback Manager: it reverses
// already-committed journal operations, individually or transactionally,
// by replaying their recorded inverses through the Filesystem Executor.
package rollback

import (
	"context"
	"fmt"

	"github.com/alantheprice/angela/pkg/errs"
	"github.com/alantheprice/angela/pkg/fsexec"
	"github.com/alantheprice/angela/pkg/journal"
)

// Manager reverses journaled operations.
type Manager struct {
	Journal *journal.Store
	FS      *fsexec.Executor
}

// New creates a Manager bound to a journal store and filesystem executor.
func New(j *journal.Store, fs *fsexec.Executor) *Manager {
	return &Manager{Journal: j, FS: fs}
}

// TransactionSummary reports how a transaction rollback went.
type TransactionSummary struct {
	TransactionID int64
	FinalStatus   journal.TransactionStatus
	Succeeded     []int64
	Failed        []int64
	Skipped       []int64
}

// RollbackOperation implements §4.6's operation rollback: refuse if the
// record cannot be rolled back or is not committed; otherwise apply its
// inverse and flip status.
func (m *Manager) RollbackOperation(ctx context.Context, operationID int64) error {
	op, err := m.Journal.Lookup(ctx, operationID)
	if err != nil {
		return err
	}

	if !op.CanRollback || op.Inverse == nil {
		return errs.NewRollbackError(operationID, fmt.Errorf("operation has no recorded inverse"))
	}
	if op.Status != journal.StatusCommitted {
		return errs.NewRollbackError(operationID, fmt.Errorf("operation status is %q, not committed", op.Status))
	}

	inv := toFSInverse(op)
	if err := m.FS.Apply(inv); err != nil {
		_ = m.Journal.FailOperation(ctx, operationID, err)
		return errs.NewRollbackError(operationID, err)
	}

	return m.Journal.MarkRolledBack(ctx, operationID)
}

// RollbackTransaction implements §4.6's transaction rollback: committed
// operations are reversed in strict reverse order of commit.
func (m *Manager) RollbackTransaction(ctx context.Context, transactionID int64) (TransactionSummary, error) {
	ops, err := m.Journal.OperationsByTransaction(ctx, transactionID, journal.StatusCommitted)
	if err != nil {
		return TransactionSummary{}, err
	}

	summary := TransactionSummary{TransactionID: transactionID}

	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		if !op.CanRollback || op.Inverse == nil {
			summary.Skipped = append(summary.Skipped, op.ID)
			continue
		}

		inv := toFSInverse(op)
		if err := m.FS.Apply(inv); err != nil {
			_ = m.Journal.FailOperation(ctx, op.ID, err)
			summary.Failed = append(summary.Failed, op.ID)
			continue
		}
		if err := m.Journal.MarkRolledBack(ctx, op.ID); err != nil {
			summary.Failed = append(summary.Failed, op.ID)
			continue
		}
		summary.Succeeded = append(summary.Succeeded, op.ID)
	}

	switch {
	case len(summary.Failed) == 0 && len(summary.Skipped) == 0 && len(summary.Succeeded) > 0:
		summary.FinalStatus = journal.TxRolledBack
	case len(summary.Succeeded) > 0:
		summary.FinalStatus = journal.TxPartiallyRolledBack
	default:
		summary.FinalStatus = journal.TxFailed
	}

	if err := m.Journal.CloseTransaction(ctx, transactionID, summary.FinalStatus); err != nil {
		return summary, err
	}

	return summary, nil
}

func toFSInverse(op *journal.Operation) fsexec.Inverse {
	params := decodeForwardPath(op)
	inv := fsexec.Inverse{
		Type:       fsexec.OperationType(op.Inverse.Kind),
		Path:       params.path,
		SecondPath: params.secondPath,
		BackupPath: op.Inverse.BackupPath,
	}
	return inv
}
