package queue

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestExecuteAppliesMovesInOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dst := filepath.Join(dir, "bin", "app")
	writeFile(t, dst, "old")
	writeFile(t, dst+".tmp1", "first")
	writeFile(t, dst+".tmp2", "second")

	q := New()
	assert.True(t, q.IsEmpty())
	q.Add(Move{Src: dst + ".tmp1", Dst: dst, Overwrite: true})
	q.Add(Move{Src: dst + ".tmp2", Dst: dst, Overwrite: true})
	assert.False(t, q.IsEmpty())

	require.NoError(t, q.Execute(context.Background()))
	assert.Equal(t, "second", readFile(t, dst))
	assert.False(t, q.IsRebootNecessary())
	assert.NoFileExists(t, dst+".tmp1")

	require.ErrorIs(t, q.Execute(context.Background()), ErrExecuted)
}

func TestExecuteWithoutOverwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dst := filepath.Join(dir, "keep.txt")
	writeFile(t, dst, "original")
	writeFile(t, dst+".new", "replacement")

	q := New()
	q.Add(Move{Src: dst + ".new", Dst: dst})
	err := q.Execute(context.Background())
	require.ErrorIs(t, err, ErrTargetExists)
	assert.Equal(t, "original", readFile(t, dst))
	assert.NoFileExists(t, dst+".new")
}

func TestExecuteDefersLockedTargets(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pendingPath := filepath.Join(dir, "state", "pending.toml")
	locked := filepath.Join(dir, "locked.dll")
	free := filepath.Join(dir, "free.txt")
	writeFile(t, locked+".tmp", "new dll")
	writeFile(t, free+".tmp", "new text")

	q := New(WithPendingFile(pendingPath))
	q.rename = func(src, dst string) error {
		if dst == locked {
			return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrPermission}
		}
		return os.Rename(src, dst)
	}
	q.Add(Move{Src: locked + ".tmp", Dst: locked, Overwrite: true, ForceInUse: true})
	q.Add(Move{Src: free + ".tmp", Dst: free, Overwrite: true})

	require.NoError(t, q.Execute(context.Background()))
	assert.True(t, q.IsRebootNecessary())
	assert.Equal(t, "new text", readFile(t, free))
	assert.FileExists(t, locked+".tmp", "deferred source stays for the reboot")

	pending, err := ReadPending(pendingPath)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, Move{Src: locked + ".tmp", Dst: locked, Overwrite: true, ForceInUse: true}, pending[0])
	assert.Equal(t, pending, q.Pending())

	// A second installation appends to the same file.
	writeFile(t, locked+".tmp2", "newer dll")
	q2 := New(WithPendingFile(pendingPath))
	q2.rename = q.rename
	q2.Add(Move{Src: locked + ".tmp2", Dst: locked, Overwrite: true})
	require.NoError(t, q2.Execute(context.Background()))

	pending, err = ReadPending(pendingPath)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestExecuteReportsHardFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	q := New()
	q.Add(Move{Src: filepath.Join(dir, "missing.tmp"), Dst: filepath.Join(dir, "x"), Overwrite: true})
	err := q.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.False(t, q.IsRebootNecessary())
}

func TestExecuteCancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := New()
	q.Add(Move{Src: "a", Dst: "b"})
	require.ErrorIs(t, q.Execute(ctx), context.Canceled)
}

func TestReadPendingMissingFile(t *testing.T) {
	t.Parallel()

	moves, err := ReadPending(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestClear(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dst := filepath.Join(dir, "app")
	writeFile(t, dst+".tmp", "new")

	q := New()
	q.Add(Move{Src: dst + ".tmp", Dst: dst, Overwrite: true})
	q.Clear()
	assert.True(t, q.IsEmpty())
	require.NoError(t, q.Execute(context.Background()))
	assert.NoFileExists(t, dst)

	executed := New()
	executed.Add(Move{Src: dst + ".tmp", Dst: dst, Overwrite: true})
	require.NoError(t, executed.Execute(context.Background()))
	executed.Clear()
	assert.Len(t, executed.Moves(), 1, "executed moves are kept")
}
