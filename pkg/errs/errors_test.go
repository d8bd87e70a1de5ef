package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefusalError_IsUnrecoverable(t *testing.T) {
	err := NewRefusalError("rm -rf /", "removing critical system directories is not allowed")
	require.False(t, err.IsRecoverable())
	assert.True(t, IsRefusal(err))
	assert.False(t, IsJournalError(err))
}

func TestJournalError_WrapsRootCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewJournalError("commit_operation", cause)

	assert.True(t, IsJournalError(err))
	assert.False(t, err.IsRecoverable())
	assert.ErrorIs(t, err, cause)
}

func TestFormatError_IncludesResourceAndCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewFileSystemError("write_file", "/tmp/x.txt", cause)

	msg := FormatError(err)
	assert.Contains(t, msg, "/tmp/x.txt")
	assert.Contains(t, msg, "permission denied")
}
