package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alantheprice/angela/pkg/errs"
)

// ErrNotFound is returned by Lookup-style queries when no record matches.
var ErrNotFound = errors.New("journal: record not found")

// Begin opens a new transaction and returns its id.
func (s *Store) Begin(ctx context.Context, description string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`INSERT INTO transactions (description, started_at, status) VALUES (?, ?, ?)`,
		description, now, string(TxOpen),
	)
	if err != nil {
		return 0, errs.NewJournalError("begin_transaction", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.NewJournalError("begin_transaction", err)
	}
	return id, nil
}

// AddOperation journals a forward operation in status pending, under the
// given transaction (or standalone if transactionID is nil), and returns
// its operation id. forwardParams is marshaled to JSON.
func (s *Store) AddOperation(ctx context.Context, transactionID *int64, kind OperationKind, description string, forwardParams any, inverse *Inverse) (int64, error) {
	paramsJSON, err := json.Marshal(forwardParams)
	if err != nil {
		return 0, errs.NewJournalError("add_operation", fmt.Errorf("marshal forward_params: %w", err))
	}

	var inverseKind sql.NullString
	var backupPath sql.NullString
	canRollback := inverse != nil
	if inverse != nil {
		inverseKind = sql.NullString{String: string(inverse.Kind), Valid: true}
		backupPath = sql.NullString{String: inverse.BackupPath, Valid: inverse.BackupPath != ""}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		`INSERT INTO operations (
			transaction_id, kind, timestamp, description, forward_params,
			inverse_kind, backup_path, can_rollback, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableInt64(transactionID), string(kind), now, description, string(paramsJSON),
		inverseKind, backupPath, boolToInt(canRollback), string(StatusPending),
	)
	if err != nil {
		return 0, errs.NewJournalError("add_operation", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errs.NewJournalError("add_operation", err)
	}
	return id, nil
}

// CommitOperation flips an operation's status to committed. This call
// must complete (flush) before the caller reports success (§5
// "must flush before returning committed").
func (s *Store) CommitOperation(ctx context.Context, operationID int64) error {
	return s.setOperationStatus(ctx, operationID, StatusCommitted)
}

// FailOperation flips an operation's status to failed.
func (s *Store) FailOperation(ctx context.Context, operationID int64, cause error) error {
	_ = cause // recorded by the caller's surfaced structured error, not persisted verbatim
	return s.setOperationStatus(ctx, operationID, StatusFailed)
}

func (s *Store) setOperationStatus(ctx context.Context, operationID int64, status OperationStatus) error {
	res, err := s.execWithRetry(ctx, `UPDATE operations SET status = ? WHERE id = ?`, string(status), operationID)
	if err != nil {
		return errs.NewJournalError("set_operation_status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.NewJournalError("set_operation_status", err)
	}
	if n == 0 {
		return errs.NewJournalError("set_operation_status", fmt.Errorf("operation %d not found", operationID))
	}
	return nil
}

// CloseTransaction sets a transaction's final status.
func (s *Store) CloseTransaction(ctx context.Context, transactionID int64, final TransactionStatus) error {
	res, err := s.execWithRetry(ctx, `UPDATE transactions SET status = ? WHERE id = ?`, string(final), transactionID)
	if err != nil {
		return errs.NewJournalError("close_transaction", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.NewJournalError("close_transaction", err)
	}
	if n == 0 {
		return errs.NewJournalError("close_transaction", fmt.Errorf("transaction %d not found", transactionID))
	}
	return nil
}

// MarkRolledBack flips an operation's status after a successful inverse
// application (§4.6).
func (s *Store) MarkRolledBack(ctx context.Context, operationID int64) error {
	return s.setOperationStatus(ctx, operationID, StatusRolledBack)
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
