package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "journal"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBegin_ReturnsOpenTransaction(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.Begin(ctx, "test plan")
	require.NoError(t, err)

	tx, err := s.LookupTransaction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, TxOpen, tx.Status)
	assert.Equal(t, "test plan", tx.Description)
}

func TestAddOperation_StartsPendingThenCommits(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	txID, err := s.Begin(ctx, "plan")
	require.NoError(t, err)

	opID, err := s.AddOperation(ctx, &txID, KindCreateFile, "create x.txt",
		map[string]string{"path": "x.txt"}, &Inverse{Kind: KindDeleteFile, BackupPath: ""})
	require.NoError(t, err)

	op, err := s.Lookup(ctx, opID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, op.Status)
	assert.True(t, op.CanRollback)

	require.NoError(t, s.CommitOperation(ctx, opID))

	op, err = s.Lookup(ctx, opID)
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, op.Status)
}

func TestOperationsByTransaction_OrderedAscending(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	txID, err := s.Begin(ctx, "plan")
	require.NoError(t, err)

	var ids []int64
	for i := 0; i < 3; i++ {
		id, err := s.AddOperation(ctx, &txID, KindCreateFile, "step", nil, nil)
		require.NoError(t, err)
		require.NoError(t, s.CommitOperation(ctx, id))
		ids = append(ids, id)
	}

	ops, err := s.OperationsByTransaction(ctx, txID, StatusCommitted)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	for i, op := range ops {
		assert.Equal(t, ids[i], op.ID)
	}
}

func TestLookup_MissingOperationReturnsNotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.Lookup(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCloseTransaction_SetsFinalStatus(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	txID, err := s.Begin(ctx, "plan")
	require.NoError(t, err)

	require.NoError(t, s.CloseTransaction(ctx, txID, TxCommitted))

	tx, err := s.LookupTransaction(ctx, txID)
	require.NoError(t, err)
	assert.Equal(t, TxCommitted, tx.Status)
}

func TestRecentOperations_MostRecentFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 3; i++ {
		id, err := s.AddOperation(ctx, nil, KindShellCommand, "cmd", nil, nil)
		require.NoError(t, err)
		last = id
	}

	ops, err := s.RecentOperations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, last, ops[0].ID)
}

func TestSecondOpenIsRejectedWhileLocked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal")

	s1, err := Open(path)
	require.NoError(t, err)
	defer s1.Close()

	_, err = Open(path)
	assert.Error(t, err)
}
