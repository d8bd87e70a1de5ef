package journal

import "time"

// OperationKind matches the closed set in §3 "Operation record".
type OperationKind string

const (
	KindCreateFile   OperationKind = "create_file"
	KindWriteFile    OperationKind = "write_file"
	KindDeleteFile   OperationKind = "delete_file"
	KindCreateDir    OperationKind = "create_dir"
	KindDeleteDir    OperationKind = "delete_dir"
	KindCopyFile     OperationKind = "copy_file"
	KindMoveFile     OperationKind = "move_file"
	KindShellCommand OperationKind = "shell_command"
)

// OperationStatus is the lifecycle of one journal record (§3 "Lifecycles").
type OperationStatus string

const (
	StatusPending    OperationStatus = "pending"
	StatusCommitted  OperationStatus = "committed"
	StatusRolledBack OperationStatus = "rolled_back"
	StatusFailed     OperationStatus = "failed"
)

// TransactionStatus is the lifecycle of a transaction header.
type TransactionStatus string

const (
	TxOpen                TransactionStatus = "open"
	TxCommitted           TransactionStatus = "committed"
	TxRolledBack          TransactionStatus = "rolled_back"
	TxPartiallyRolledBack TransactionStatus = "partially_rolled_back"
	TxFailed              TransactionStatus = "failed"
)

// Inverse is the journaled record of how to undo an operation: a backup
// reference (empty when none was taken) plus the kind of the forward
// operation it undoes, which the Rollback Manager maps onto the matching
// fsexec inverse. A non-reversible operation has a nil Inverse.
type Inverse struct {
	Kind       OperationKind
	BackupPath string
}

// Operation is one journal entry.
type Operation struct {
	ID            int64
	TransactionID *int64
	Kind          OperationKind
	Timestamp     time.Time
	Description   string
	ForwardParams string // JSON-encoded
	Inverse       *Inverse
	CanRollback   bool
	Status        OperationStatus
}

// Transaction is a transaction header plus nothing else; its operations
// are fetched separately via OperationsByTransaction.
type Transaction struct {
	ID          int64
	Description string
	StartedAt   time.Time
	Status      TransactionStatus
}
