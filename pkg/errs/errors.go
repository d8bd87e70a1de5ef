// Package errs defines the structured error taxonomy used across the
// execution core. Refusals, denied confirmations, filesystem, journal,
// rollback and not-implemented failures are *StructuredError values, so
// executors and the orchestrator can inspect severity, category, and
// recoverability without type-switching on error strings. A few paths
// return plain errors instead: journal opening and its ErrNotFound lookups,
// configuration loading, the executor's interactive-command recommendation,
// and the orchestrator's non-zero-exit and unknown-file-op step failures.
package errs

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorSeverity represents the severity level of an error.
type ErrorSeverity int

const (
	SeverityLow ErrorSeverity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// ErrorCategory represents the category of an error. The first block
// mirrors general-purpose categories; the second block names the error
// kinds of the execution core's error handling design: Refusal,
// ConfirmationDenied, ExecutionFailure, Timeout, Cancelled, JournalError,
// RollbackError.
type ErrorCategory int

const (
	CategorySystem ErrorCategory = iota
	CategoryNetwork
	CategoryFileSystem
	CategoryConfiguration
	CategoryValidation
	CategoryExecution
	CategoryUser

	CategoryRefusal
	CategoryConfirmationDenied
	CategoryExecutionFailure
	CategoryTimeout
	CategoryCancelled
	CategoryJournal
	CategoryRollback
	CategoryNotImplemented
)

// ErrorContext provides additional context for errors.
type ErrorContext struct {
	Component string
	Operation string
	Resource  string
	Metadata  map[string]interface{}
}

// StructuredError represents a standardized error with rich context.
type StructuredError struct {
	Code        string
	Message     string
	Severity    ErrorSeverity
	Category    ErrorCategory
	Context     *ErrorContext
	RootCause   error
	StackTrace  string
	Timestamp   int64
	Recoverable bool
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.RootCause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.RootCause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for compatibility with errors.Is and errors.As.
func (e *StructuredError) Unwrap() error {
	return e.RootCause
}

// NewStructuredError creates a new structured error.
func NewStructuredError(code, message string, severity ErrorSeverity, category ErrorCategory, rootCause error) *StructuredError {
	err := &StructuredError{
		Code:        code,
		Message:     message,
		Severity:    severity,
		Category:    category,
		RootCause:   rootCause,
		Timestamp:   time.Now().Unix(),
		Recoverable: true,
	}
	if severity >= SeverityMedium {
		err.StackTrace = captureStackTrace()
	}
	return err
}

// NewFileSystemError creates a filesystem-related error.
func NewFileSystemError(operation, path string, rootCause error) *StructuredError {
	return NewStructuredError(
		"FS_ERROR",
		fmt.Sprintf("filesystem error during %s", operation),
		SeverityMedium,
		CategoryFileSystem,
		rootCause,
	).WithContext(&ErrorContext{Operation: operation, Resource: path})
}

// NewValidationError creates a validation error.
func NewValidationError(field, reason string) *StructuredError {
	return NewStructuredError(
		"VAL_ERROR",
		fmt.Sprintf("validation failed for %s: %s", field, reason),
		SeverityLow,
		CategoryValidation,
		nil,
	).WithContext(&ErrorContext{Resource: field})
}

// NewRefusalError creates a classifier refusal error (§7 Refusal). Refusals
// are never retried and carry the reason as the message.
func NewRefusalError(command, reason string) *StructuredError {
	return NewStructuredError(
		"REFUSAL",
		reason,
		SeverityHigh,
		CategoryRefusal,
		nil,
	).WithContext(&ErrorContext{Resource: command}).MakeUnrecoverable()
}

// NewConfirmationDeniedError creates a ConfirmationDenied error. Whether it
// is fatal to the enclosing plan step depends on the step's `optional` flag,
// decided by the caller, not by this constructor.
func NewConfirmationDeniedError(command string) *StructuredError {
	return NewStructuredError(
		"CONFIRMATION_DENIED",
		"user declined to confirm execution",
		SeverityMedium,
		CategoryConfirmationDenied,
		nil,
	).WithContext(&ErrorContext{Resource: command})
}

// NewExecutionFailureError creates an ExecutionFailure error (§7): a child
// process exited non-zero, or a filesystem operation raised an error.
func NewExecutionFailureError(operation string, rootCause error) *StructuredError {
	return NewStructuredError(
		"EXECUTION_FAILURE",
		fmt.Sprintf("execution failed during %s", operation),
		SeverityHigh,
		CategoryExecutionFailure,
		rootCause,
	).WithContext(&ErrorContext{Operation: operation})
}

// NewTimeoutError creates a Timeout error. Per §7, Timeout and Cancelled are
// indistinguishable to rollback policy; callers treat both as execution
// failures.
func NewTimeoutError(command string) *StructuredError {
	return NewStructuredError(
		"TIMEOUT",
		"command exceeded its timeout",
		SeverityMedium,
		CategoryTimeout,
		nil,
	).WithContext(&ErrorContext{Resource: command})
}

// NewCancelledError creates a Cancelled error.
func NewCancelledError(command string) *StructuredError {
	return NewStructuredError(
		"CANCELLED",
		"command was cancelled",
		SeverityMedium,
		CategoryCancelled,
		nil,
	).WithContext(&ErrorContext{Resource: command})
}

// NewJournalError creates a JournalError. Per §7 this is always fatal to
// the current transaction.
func NewJournalError(operation string, rootCause error) *StructuredError {
	return NewStructuredError(
		"JOURNAL_ERROR",
		fmt.Sprintf("journal persistence failed during %s", operation),
		SeverityCritical,
		CategoryJournal,
		rootCause,
	).WithContext(&ErrorContext{Operation: operation}).MakeUnrecoverable()
}

// NewRollbackError creates a RollbackError: an inverse operation failed.
func NewRollbackError(operationID int64, rootCause error) *StructuredError {
	return NewStructuredError(
		"ROLLBACK_ERROR",
		fmt.Sprintf("failed to roll back operation %d", operationID),
		SeverityHigh,
		CategoryRollback,
		rootCause,
	).WithContext(&ErrorContext{Metadata: map[string]interface{}{"operation_id": operationID}})
}

// NewNotImplementedError creates a NotImplemented error for a plan step type
// the orchestrator recognizes but has no runner for (§"Data model additions
// [DOMAIN]": code_generation and api_call steps fail this way rather than
// falling through to command execution).
func NewNotImplementedError(stepType, stepID string) *StructuredError {
	return NewStructuredError(
		"NOT_IMPLEMENTED",
		fmt.Sprintf("step type %q has no runner", stepType),
		SeverityMedium,
		CategoryNotImplemented,
		nil,
	).WithContext(&ErrorContext{Operation: stepType, Resource: stepID}).MakeUnrecoverable()
}

// WithContext replaces the error's context.
func (e *StructuredError) WithContext(ctx *ErrorContext) *StructuredError {
	e.Context = ctx
	return e
}

// WithComponent sets component context.
func (e *StructuredError) WithComponent(component string) *StructuredError {
	if e.Context == nil {
		e.Context = &ErrorContext{}
	}
	e.Context.Component = component
	return e
}

// WithResource sets resource context.
func (e *StructuredError) WithResource(resource string) *StructuredError {
	if e.Context == nil {
		e.Context = &ErrorContext{}
	}
	e.Context.Resource = resource
	return e
}

// WithMetadata attaches a metadata key/value pair.
func (e *StructuredError) WithMetadata(key string, value interface{}) *StructuredError {
	if e.Context == nil {
		e.Context = &ErrorContext{}
	}
	if e.Context.Metadata == nil {
		e.Context.Metadata = make(map[string]interface{})
	}
	e.Context.Metadata[key] = value
	return e
}

// MakeUnrecoverable marks the error as unrecoverable.
func (e *StructuredError) MakeUnrecoverable() *StructuredError {
	e.Recoverable = false
	return e
}

// IsRecoverable reports whether the error can be recovered from.
func (e *StructuredError) IsRecoverable() bool {
	return e.Recoverable
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// IsRefusal reports whether err is a classifier refusal.
func IsRefusal(err error) bool {
	se, ok := err.(*StructuredError)
	return ok && se.Category == CategoryRefusal
}

// IsConfirmationDenied reports whether err is a ConfirmationDenied error.
func IsConfirmationDenied(err error) bool {
	se, ok := err.(*StructuredError)
	return ok && se.Category == CategoryConfirmationDenied
}

// IsJournalError reports whether err is a JournalError; callers must treat
// this as fatal to the enclosing transaction.
func IsJournalError(err error) bool {
	se, ok := err.(*StructuredError)
	return ok && se.Category == CategoryJournal
}

// IsRollbackError reports whether err is a RollbackError.
func IsRollbackError(err error) bool {
	se, ok := err.(*StructuredError)
	return ok && se.Category == CategoryRollback
}

// IsNotImplemented reports whether err is a NotImplemented error.
func IsNotImplemented(err error) bool {
	se, ok := err.(*StructuredError)
	return ok && se.Category == CategoryNotImplemented
}

// FormatError formats an error for display, including its context chain.
func FormatError(err error) string {
	se, ok := err.(*StructuredError)
	if !ok {
		return err.Error()
	}
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", se.Code, se.Message))
	if se.Context != nil {
		if se.Context.Operation != "" {
			parts = append(parts, fmt.Sprintf("operation: %s", se.Context.Operation))
		}
		if se.Context.Resource != "" {
			parts = append(parts, fmt.Sprintf("resource: %s", se.Context.Resource))
		}
	}
	if se.RootCause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", se.RootCause))
	}
	return strings.Join(parts, " | ")
}
