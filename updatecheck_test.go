package unpack

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/unpack/internal/testutil"
	"github.com/meigma/unpack/pack"
)

func TestRunUpdateCheckRemovesObsolete(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{"A.txt": "a", "B.txt": "b"})
	info := fx.pack(pack.NewPack("core", pack.WithRequired(true)), []string{"A.txt", "B.txt"}, pack.WithOverride(pack.OverrideTrue))
	info.AddUpdateCheck(pack.UpdateCheck{
		Includes:      []string{"**/*.txt", "emptyDir", "data"},
		CaseSensitive: true,
	})
	mem := fx.build()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"A.txt":         "old a",
		"C.txt":         "obsolete",
		"emptyDir/":     "",
		"data/keep.bin": "kept",
	})

	res, err := New(mem).Run(context.Background(), &InstallData{InstallPath: dir})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"C.txt", "emptyDir"}, res.Removed)

	got := testutil.ReadTree(t, dir)
	assert.Equal(t, "a", got["A.txt"])
	assert.Equal(t, "b", got["B.txt"])
	assert.Equal(t, "kept", got["data/keep.bin"])
	assert.NotContains(t, got, "C.txt")
	assert.Contains(t, got, DefaultRecordName)
	_, err = os.Stat(filepath.Join(dir, "emptyDir"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunUpdateCheckVariablesAndExcludes(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{"lib/new.jar": "new"})
	info := fx.pack(pack.NewPack("core", pack.WithRequired(true)), []string{"lib", "lib/new.jar"})
	info.AddUpdateCheck(pack.UpdateCheck{
		Includes: []string{"$INSTALL_PATH/LIB/*.JAR"},
		Excludes: []string{"lib/keep-*.jar"},
	})
	mem := fx.build()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"lib/old.jar":     "old",
		"lib/keep-me.jar": "keep",
		"lib/notes.txt":   "notes",
		"other/stale.jar": "outside",
	})

	res, err := New(mem).Run(context.Background(), &InstallData{InstallPath: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/old.jar"}, res.Removed)

	got := testutil.ReadTree(t, dir)
	assert.Contains(t, got, "lib/new.jar")
	assert.Contains(t, got, "lib/keep-me.jar")
	assert.Contains(t, got, "lib/notes.txt")
	assert.Contains(t, got, "other/stale.jar")
}

func TestScanObsolete(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"a.txt":           {Data: []byte("a")},
		"b.txt":           {Data: []byte("b")},
		"sub/c.txt":       {Data: []byte("c")},
		".record":         {Data: []byte("r")},
		"sub/.c.txt.tmp1": {Data: []byte("t")},
	}
	m := updateMatcher{includes: []string{"**"}, caseSensitive: true}
	installed := map[string]struct{}{"a.txt": {}}
	skip := map[string]struct{}{".record": {}, "sub/.c.txt.tmp1": {}}

	files, dirs, err := scanObsolete(context.Background(), fsys, []updateMatcher{m}, installed, skip)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b.txt", "sub/c.txt"}, files)
	assert.Equal(t, []string{"sub"}, dirs)
}

func TestScanObsoleteCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := scanObsolete(ctx, fstest.MapFS{"a": {}}, nil, nil, nil)
	require.ErrorIs(t, err, context.Canceled)
}
