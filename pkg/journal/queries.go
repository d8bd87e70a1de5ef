package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/alantheprice/angela/pkg/errs"
)

// Lookup retrieves one operation record by id.
func (s *Store) Lookup(ctx context.Context, id int64) (*Operation, error) {
	row := s.db.QueryRowContext(ctx, operationSelectColumns+` WHERE id = ?`, id)
	op, err := scanOperation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.NewJournalError("lookup", err)
	}
	return op, nil
}

// LookupTransaction retrieves one transaction header by id.
func (s *Store) LookupTransaction(ctx context.Context, id int64) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, description, started_at, status FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errs.NewJournalError("lookup_transaction", err)
	}
	return tx, nil
}

// RecentOperations returns up to limit operations, most recent first.
func (s *Store) RecentOperations(ctx context.Context, limit int) ([]*Operation, error) {
	rows, err := s.db.QueryContext(ctx, operationSelectColumns+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errs.NewJournalError("recent_operations", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, errs.NewJournalError("recent_operations", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// RecentTransactions returns up to limit transactions, most recent first.
func (s *Store) RecentTransactions(ctx context.Context, limit int) ([]*Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, description, started_at, status FROM transactions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errs.NewJournalError("recent_transactions", err)
	}
	defer rows.Close()

	var txs []*Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, errs.NewJournalError("recent_transactions", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// OperationsByTransaction returns every operation in a transaction whose
// status matches status, ordered by id ascending (commit order).
func (s *Store) OperationsByTransaction(ctx context.Context, transactionID int64, status OperationStatus) ([]*Operation, error) {
	rows, err := s.db.QueryContext(ctx,
		operationSelectColumns+` WHERE transaction_id = ? AND status = ? ORDER BY id ASC`,
		transactionID, string(status),
	)
	if err != nil {
		return nil, errs.NewJournalError("operations_by_transaction", err)
	}
	defer rows.Close()

	var ops []*Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, errs.NewJournalError("operations_by_transaction", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

const operationSelectColumns = `SELECT
	id, transaction_id, kind, timestamp, description, forward_params,
	inverse_kind, backup_path, can_rollback, status
	FROM operations`

type scanner interface {
	Scan(dest ...any) error
}

func scanOperation(row scanner) (*Operation, error) {
	var (
		op            Operation
		transactionID sql.NullInt64
		timestamp     string
		inverseKind   sql.NullString
		backupPath    sql.NullString
		canRollback   int
		status        string
	)

	if err := row.Scan(
		&op.ID, &transactionID, &op.Kind, &timestamp, &op.Description, &op.ForwardParams,
		&inverseKind, &backupPath, &canRollback, &status,
	); err != nil {
		return nil, err
	}

	if transactionID.Valid {
		id := transactionID.Int64
		op.TransactionID = &id
	}
	if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		op.Timestamp = ts
	}
	op.CanRollback = canRollback != 0
	op.Status = OperationStatus(status)
	if inverseKind.Valid {
		op.Inverse = &Inverse{Kind: OperationKind(inverseKind.String), BackupPath: backupPath.String}
	}

	return &op, nil
}

func scanTransaction(row scanner) (*Transaction, error) {
	var (
		tx        Transaction
		startedAt string
		status    string
	)
	if err := row.Scan(&tx.ID, &tx.Description, &startedAt, &status); err != nil {
		return nil, err
	}
	if ts, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
		tx.StartedAt = ts
	}
	tx.Status = TransactionStatus(status)
	return &tx, nil
}
