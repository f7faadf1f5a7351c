package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFileNoFollow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.txt"), []byte("x"), 0o644))

	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	defer root.Close()

	f, err := OpenFileNoFollow(root, "real.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	if runtime.GOOS == "windows" {
		return
	}
	require.NoError(t, os.Symlink("real.txt", filepath.Join(dir, "link.txt")))
	_, err = OpenFileNoFollow(root, "link.txt")
	require.ErrorIs(t, err, ErrSymlink)
}

func TestIsDeferrable(t *testing.T) {
	t.Parallel()

	perm := &fs.PathError{Op: "rename", Path: "x", Err: fs.ErrPermission}
	assert.True(t, IsDeferrable(fmt.Errorf("move: %w", perm)))
	assert.False(t, IsDeferrable(errors.New("disk full")))
	assert.False(t, IsInUse(errors.New("disk full")))
}
