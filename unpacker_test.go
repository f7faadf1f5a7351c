package unpack

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/unpack/internal/testutil"
	"github.com/meigma/unpack/pack"
	"github.com/meigma/unpack/payload"
	"github.com/meigma/unpack/source"
)

func TestRunInstallsDefaultSelection(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{
		"bin/app":      "binary",
		"etc/app.conf": "conf",
		"opt/extra":    "extra",
		"docs/":        "",
	})
	fx.pack(pack.NewPack("core", pack.WithRequired(true)), []string{"bin", "bin/app", "etc", "etc/app.conf", "docs"})
	fx.pack(pack.NewPack("extras"), []string{"opt", "opt/extra"})
	mem := fx.build()

	dir := t.TempDir()
	u := New(mem)
	res, err := u.Run(context.Background(), &InstallData{InstallPath: dir})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"core"}, res.InstalledPacks)
	assert.Equal(t, []string{"bin", "bin/app", "etc", "etc/app.conf", "docs"}, res.InstalledFiles)
	assert.Equal(t, StateReady, u.State())

	got := testutil.ReadTree(t, dir)
	assert.Equal(t, "binary", got["bin/app"])
	assert.Equal(t, "conf", got["etc/app.conf"])
	assert.NotContains(t, got, "opt/extra")
	assert.Contains(t, got, DefaultRecordName)
	info, err := os.Stat(filepath.Join(dir, "docs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	info, err = os.Stat(filepath.Join(dir, "bin", "app"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(fixedTime))

	rec, err := ReadRecord(dir)
	require.NoError(t, err)
	require.Len(t, rec.Packs, 1)
	assert.Equal(t, "core", rec.Packs[0].Name)
	assert.Equal(t, dir, rec.Variables["INSTALL_PATH"])
}

func TestRunCodecsAndBackreferences(t *testing.T) {
	t.Parallel()

	big := make([]byte, 0, 64*1024)
	for i := range cap(big) {
		big = append(big, byte('a'+i%7))
	}
	files := map[string]string{
		"a/data.bin":  string(big),
		"a/small.txt": "small",
		"b/copy.bin":  string(big),
		"b/logo.png":  string(big[:2048]),
	}

	for _, compression := range []string{"none", "zstd", "gzip", "deflate", "lz4", "s2", "snappy"} {
		t.Run(compression, func(t *testing.T) {
			t.Parallel()

			fx := newFixture(t, files, payload.WithCompression(compression))
			fx.pack(pack.NewPack("first", pack.WithRequired(true)), []string{"a", "a/data.bin", "a/small.txt"})
			fx.pack(pack.NewPack("second", pack.WithRequired(true)), []string{"b", "b/copy.bin", "b/logo.png"})
			mem := fx.build()

			for _, p := range []source.Provider{mem, testutil.Sequential{P: mem}} {
				dir := t.TempDir()
				res, err := New(p).Run(context.Background(), &InstallData{InstallPath: dir})
				require.NoError(t, err)
				assert.True(t, res.Success)

				got := testutil.ReadTree(t, dir)
				for name, want := range files {
					assert.Equal(t, want, got[name], name)
				}
				noTempFiles(t, dir)
			}
		})
	}
}

func TestRunSkipsKeepStreamAligned(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{
		"one":   "first file",
		"two":   "second file is longer",
		"three": "third",
		"four":  "fourth file",
	}, payload.WithCompression("zstd"), payload.WithSkip(func(string, int64) bool { return false }))
	fx.packFiles(pack.NewPack("core", pack.WithRequired(true)),
		fx.file("one", "one"),
		fx.file("two", "two", pack.WithFileCondition("never")),
		fx.file("three", "three", pack.WithFileOsConstraints(pack.OsModel{Family: "no-such-os"})),
		fx.file("four", "four"),
	)
	mem := fx.build()

	dir := t.TempDir()
	_, err := New(mem, WithRules(ruleSet{})).Run(context.Background(), &InstallData{InstallPath: dir})
	require.NoError(t, err)

	got := testutil.ReadTree(t, dir)
	assert.Equal(t, "first file", got["one"])
	assert.Equal(t, "fourth file", got["four"])
	assert.NotContains(t, got, "two")
	assert.NotContains(t, got, "three")
}

func TestRunOverridePolicies(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{
		"keep":    "new keep",
		"replace": "new replace",
		"older":   "new older",
		"newer":   "new newer",
		"renamed": "new renamed",
		"tail":    "tail",
	})
	fx.packFiles(pack.NewPack("core", pack.WithRequired(true)),
		fx.file("keep", "keep", pack.WithOverride(pack.OverrideFalse)),
		fx.file("replace", "replace", pack.WithOverride(pack.OverrideTrue)),
		fx.file("older", "older", pack.WithOverride(pack.OverrideUpdate)),
		fx.file("newer", "newer", pack.WithOverride(pack.OverrideUpdate)),
		fx.file("renamed", "renamed", pack.WithOverride(pack.OverrideTrue), pack.WithOverrideRenameTo("*.bak")),
		fx.file("tail", "tail"),
	)
	mem := fx.build()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"keep":    "old keep",
		"replace": "old replace",
		"older":   "old older",
		"newer":   "old newer",
		"renamed": "old renamed",
	})
	require.NoError(t, os.Chtimes(filepath.Join(dir, "older"), fixedTime.Add(-time.Hour), fixedTime.Add(-time.Hour)))
	require.NoError(t, os.Chtimes(filepath.Join(dir, "newer"), fixedTime.Add(time.Hour), fixedTime.Add(time.Hour)))

	_, err := New(mem).Run(context.Background(), &InstallData{InstallPath: dir})
	require.NoError(t, err)

	got := testutil.ReadTree(t, dir)
	assert.Equal(t, "old keep", got["keep"])
	assert.Equal(t, "new replace", got["replace"])
	assert.Equal(t, "new older", got["older"])
	assert.Equal(t, "old newer", got["newer"])
	assert.Equal(t, "new renamed", got["renamed"])
	assert.Equal(t, "old renamed", got["renamed.bak"])
	assert.Equal(t, "tail", got["tail"])
}

func TestRunAskOverride(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{"a": "new a", "b": "new b"})
	fx.packFiles(pack.NewPack("core", pack.WithRequired(true)),
		fx.file("a", "a", pack.WithOverride(pack.OverrideAskTrue)),
		fx.file("b", "b", pack.WithOverride(pack.OverrideAskFalse)),
	)
	mem := fx.build()

	t.Run("interactive", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		testutil.WriteTree(t, dir, map[string]string{"a": "old a", "b": "old b"})
		pr := &scriptedPrompter{answers: []bool{false, true}}
		_, err := New(mem, WithPrompter(pr)).Run(context.Background(), &InstallData{InstallPath: dir})
		require.NoError(t, err)
		got := testutil.ReadTree(t, dir)
		assert.Equal(t, "old a", got["a"])
		assert.Equal(t, "new b", got["b"])
		assert.Len(t, pr.questions, 2)
	})

	t.Run("unattended", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		testutil.WriteTree(t, dir, map[string]string{"a": "old a", "b": "old b"})
		pr := &scriptedPrompter{answers: []bool{false, true}}
		_, err := New(mem, WithPrompter(pr)).Run(context.Background(), &InstallData{InstallPath: dir, Unattended: true})
		require.NoError(t, err)
		got := testutil.ReadTree(t, dir)
		assert.Equal(t, "new a", got["a"])
		assert.Equal(t, "old b", got["b"])
		assert.Empty(t, pr.questions)
	})
}

func TestRunStreamAccounting(t *testing.T) {
	t.Parallel()

	for _, compression := range []string{"none", "zstd"} {
		t.Run(compression, func(t *testing.T) {
			t.Parallel()

			fx := newFixture(t, map[string]string{
				"a": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
				"b": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			}, payload.WithCompression(compression), payload.WithSkip(func(string, int64) bool { return false }))
			fx.pack(pack.NewPack("core", pack.WithRequired(true)), []string{"a", "b"})
			mem := fx.build()

			name := source.PackStreamName("core")
			data, ok := mem.Get(name)
			require.True(t, ok)
			mem.Put(name, data[:len(data)-3])

			dir := t.TempDir()
			rec := &recorder{}
			u := New(mem, WithListeners(rec))
			res, err := u.Run(context.Background(), &InstallData{InstallPath: dir})
			require.ErrorIs(t, err, ErrStreamAccounting)
			assert.False(t, res.Success)
			assert.Equal(t, StateReady, u.State())
			require.Len(t, rec.failures, 1)

			got := testutil.ReadTree(t, dir)
			assert.NotContains(t, got, "b")
			noTempFiles(t, dir)
		})
	}
}

func TestRunUnknownPack(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{"a": "a"})
	fx.pack(pack.NewPack("core"), []string{"a"})
	mem := fx.build()

	u := New(mem)
	_, err := u.Run(context.Background(), &InstallData{InstallPath: t.TempDir(), SelectedPacks: []string{"missing"}})
	require.ErrorIs(t, err, ErrUnknownPack)
	assert.Equal(t, StateReady, u.State())

	_, err = u.Run(context.Background(), &InstallData{})
	require.ErrorIs(t, err, ErrNoInstallPath)
}

func TestRunExplicitSelectionKeepsCatalogOrder(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{"a": "a", "b": "b", "c": "c"})
	fx.pack(pack.NewPack("pa"), []string{"a"})
	fx.pack(pack.NewPack("pb", pack.WithRequired(true)), []string{"b"})
	fx.pack(pack.NewPack("pc"), []string{"c"})
	mem := fx.build()

	res, err := New(mem).Run(context.Background(), &InstallData{
		InstallPath:   t.TempDir(),
		SelectedPacks: []string{"pc", "pa"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pa", "pc"}, res.InstalledPacks)
}

func TestRunLoosePackFromSeparateProvider(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{"docs/guide.txt": "guide", "bin/app": "app"})
	loose := pack.NewPack("docs", pack.WithRequired(true))
	loose.SetLoose(true)
	fx.pack(loose, []string{"docs/guide.txt"})
	fx.pack(pack.NewPack("core", pack.WithRequired(true)), []string{"bin/app"})
	mem := fx.build()

	media := testutil.NewMemoryPayload()
	data, ok := mem.Get("docs/guide.txt")
	require.True(t, ok)
	media.Put("docs/guide.txt", append(data, []byte(" from media")...))

	dir := t.TempDir()
	_, err := New(mem, WithLooseProvider(media)).Run(context.Background(), &InstallData{InstallPath: dir})
	require.NoError(t, err)
	got := testutil.ReadTree(t, dir)
	assert.Equal(t, "guide from media", got["docs/guide.txt"])
	assert.Equal(t, "app", got["bin/app"])
	assert.Zero(t, mem.Opens(source.PackStreamName("docs")))
}

func TestRunListenersAndProgress(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{"bin/app": "app"})
	fx.pack(pack.NewPack("core", pack.WithRequired(true)), []string{"bin/app"})
	mem := fx.build()

	rec := &recorder{}
	var stages []ProgressStage
	u := New(mem, WithListeners(rec), WithProgress(func(ev ProgressEvent) {
		if len(stages) == 0 || stages[len(stages)-1] != ev.Stage {
			stages = append(stages, ev.Stage)
		}
	}))
	_, err := u.Run(context.Background(), &InstallData{InstallPath: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"before-packs",
		"before-pack:core",
		"before-dir:bin",
		"after-dir:bin",
		"before-file:bin/app",
		"after-file:bin/app",
		"after-pack:core",
		"after-packs",
	}, rec.Events())
	assert.Equal(t, []ProgressStage{
		StageReadingCatalog, StageExtracting, StageParsing, StageExecuting, StageUpdateCheck, StageCommitting,
	}, stages)
}

func TestRunListenerErrorFailsAndRollsBack(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{"a": "a", "b": "b"})
	fx.pack(pack.NewPack("core", pack.WithRequired(true)), []string{"a", "b"})
	mem := fx.build()

	rec := &recorder{failOn: "before-file:b"}
	u := New(mem, WithListeners(rec))
	var order []int
	u.AddRollback(func(context.Context) error { order = append(order, 1); return nil })
	u.AddRollback(func(context.Context) error { order = append(order, 2); return nil })

	dir := t.TempDir()
	_, err := u.Run(context.Background(), &InstallData{InstallPath: dir})
	require.Error(t, err)
	assert.Equal(t, []int{2, 1}, order)
	require.Len(t, rec.failures, 1)
	assert.Equal(t, StateReady, u.State())

	_, err = ReadRecord(dir)
	require.NoError(t, err)
	_, statErr := os.Stat(filepath.Join(dir, DefaultRecordName))
	assert.ErrorIs(t, statErr, os.ErrNotExist, "no record after a failed run")
}

func TestRunTargetVariables(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{"app": "app", "conf": "conf"})
	fx.packFiles(pack.NewPack("core", pack.WithRequired(true)),
		fx.file("app", "$APP_DIR/bin/app"),
		fx.file("conf", "$INSTALL_PATH/etc/conf"),
	)
	mem := fx.build()

	dir := t.TempDir()
	_, err := New(mem).Run(context.Background(), &InstallData{
		InstallPath: dir,
		Variables:   map[string]string{"APP_DIR": "myapp"},
	})
	require.NoError(t, err)
	got := testutil.ReadTree(t, dir)
	assert.Equal(t, "app", got["myapp/bin/app"])
	assert.Equal(t, "conf", got["etc/conf"])
}

func TestRunRejectsEscapingTarget(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, map[string]string{"evil": "evil"})
	fx.packFiles(pack.NewPack("core", pack.WithRequired(true)), fx.file("evil", "../evil"))
	mem := fx.build()

	_, err := New(mem).Run(context.Background(), &InstallData{InstallPath: t.TempDir()})
	var ie *InstallerError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, SeverityError, ie.Severity)
}
