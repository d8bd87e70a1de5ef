package fsexec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(t *testing.T) (*Executor, string) {
	t.Helper()
	dir := t.TempDir()
	backupDir := filepath.Join(dir, ".backups")
	return New(backupDir), dir
}

func TestCreateFile_FailsWhenExistsWithoutOverwrite(t *testing.T) {
	e, dir := newExecutor(t)
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	_, err := e.CreateFile(path, "new", false)

	assert.Error(t, err)
}

func TestCreateFile_ThenUndoRemovesIt(t *testing.T) {
	e, dir := newExecutor(t)
	path := filepath.Join(dir, "a.txt")

	inv, err := e.CreateFile(path, "hello", false)
	require.NoError(t, err)
	assert.FileExists(t, path)

	require.NoError(t, e.Apply(inv))
	assert.NoFileExists(t, path)
}

func TestWriteFile_UndoRestoresPreviousContent(t *testing.T) {
	e, dir := newExecutor(t)
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	inv, err := e.WriteFile(path, "overwritten")
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "overwritten", string(got))

	require.NoError(t, e.Apply(inv))
	got, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
}

func TestDeleteFile_UndoRestoresFile(t *testing.T) {
	e, dir := newExecutor(t)
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	inv, err := e.DeleteFile(path)
	require.NoError(t, err)
	assert.NoFileExists(t, path)

	require.NoError(t, e.Apply(inv))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(got))
}

func TestCreateDirectory_UndoRemovesIfEmpty(t *testing.T) {
	e, dir := newExecutor(t)
	path := filepath.Join(dir, "sub")

	inv, err := e.CreateDirectory(path, false)
	require.NoError(t, err)
	assert.DirExists(t, path)

	require.NoError(t, e.Apply(inv))
	assert.NoDirExists(t, path)
}

func TestCreateDirectory_UndoFailsIfNotEmpty(t *testing.T) {
	e, dir := newExecutor(t)
	path := filepath.Join(dir, "sub")

	inv, err := e.CreateDirectory(path, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(path, "f.txt"), []byte("x"), 0o644))

	err = e.Apply(inv)
	assert.Error(t, err)
}

func TestMoveFile_UndoMovesBack(t *testing.T) {
	e, dir := newExecutor(t)
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	inv, err := e.MoveFile(src, dst, false)
	require.NoError(t, err)
	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)

	require.NoError(t, e.Apply(inv))
	assert.FileExists(t, src)
	assert.NoFileExists(t, dst)
}

func TestMoveFile_UndoRestoresOverwrittenDestinationAndMovesSrcBack(t *testing.T) {
	e, dir := newExecutor(t)
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("moved"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("preexisting"), 0o644))

	inv, err := e.MoveFile(src, dst, true)
	require.NoError(t, err)
	assert.NoFileExists(t, src)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "moved", string(got))

	require.NoError(t, e.Apply(inv))

	got, err = os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "moved", string(got), "src must come back with the content that was moved out of it")

	got, err = os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "preexisting", string(got), "dst must be restored to what it held before the move")
}

func TestDeleteDirectory_UndoRestoresTree(t *testing.T) {
	e, dir := newExecutor(t)
	tree := filepath.Join(dir, "tree")
	require.NoError(t, os.MkdirAll(filepath.Join(tree, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tree, "nested", "f.txt"), []byte("v"), 0o644))

	inv, err := e.DeleteDirectory(tree)
	require.NoError(t, err)
	assert.NoDirExists(t, tree)

	require.NoError(t, e.Apply(inv))
	got, err := os.ReadFile(filepath.Join(tree, "nested", "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestDeleteDirectory_RefusedUnderSystemDirectory(t *testing.T) {
	e, _ := newExecutor(t)

	_, err := e.DeleteDirectory("/etc")

	assert.Error(t, err)
}
