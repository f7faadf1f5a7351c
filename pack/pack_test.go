package pack

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.bin"), []byte("0123456789"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "lib"), 0o755))

	f, err := NewFile(dir, "app.bin", `bin\app.bin`, WithOverride(OverrideUpdate), WithBlockable(BlockableForce))
	require.NoError(t, err)
	assert.Equal(t, "bin/app.bin", f.TargetPath())
	assert.Equal(t, int64(10), f.Length())
	assert.Equal(t, int64(10), f.Size())
	assert.Equal(t, OverrideUpdate, f.Override())
	assert.Equal(t, BlockableForce, f.Blockable())
	assert.False(t, f.IsDirectory())
	assert.True(t, f.OccupiesPackStream())

	d, err := NewFile(dir, "lib", "lib/", WithBlockable(BlockableAuto))
	require.NoError(t, err)
	assert.True(t, d.IsDirectory())
	assert.Equal(t, "lib", d.TargetPath())
	assert.Equal(t, int64(0), d.Length())
	assert.Equal(t, BlockableNone, d.Blockable(), "directories are never blockable")

	assert.NotEqual(t, f.ID(), d.ID())
	assert.Less(t, f.ID(), d.ID())
}

func TestNewFileMissingSource(t *testing.T) {
	t.Parallel()

	_, err := NewFile(t.TempDir(), "nope.txt", "nope.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDirectoryLengthAlwaysZero(t *testing.T) {
	t.Parallel()

	f := NewFileFromSpec(FileSpec{TargetPath: "data", IsDirectory: true, Length: 4096, Size: 4096})
	assert.Equal(t, int64(0), f.Length())
	assert.Equal(t, int64(4096), f.Spec().Length, "stored value is kept, only the accessor is clamped")
}

func TestNormalizeTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"a/b/c.txt", "a/b/c.txt"},
		{`a\b\c.txt`, "a/b/c.txt"},
		{"a/b/", "a/b"},
		{`a\b\\`, "a/b"},
		{"/", "/"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, NormalizeTarget(tc.in))
		})
	}
}

func TestSpecRoundTripAssignsFreshID(t *testing.T) {
	t.Parallel()

	mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := NewFileFromSpec(FileSpec{
		SourcePath:        "lib/x.jar",
		TargetPath:        "lib/x.jar",
		Length:            100,
		Size:              40,
		ModTime:           mod,
		Override:          OverrideAskTrue,
		OverrideRenameTo:  "*.bak",
		Pack200:           true,
		Pack200Properties: map[string]string{"pack.deflate.hint": "true"},
		Additionals:       map[string]string{"k": "v"},
	})
	copied := NewFileFromSpec(orig.Spec())

	assert.NotEqual(t, orig.ID(), copied.ID())
	assert.Equal(t, orig.Spec(), copied.Spec())
	assert.False(t, copied.OccupiesPackStream())

	// The spec holds copies of the maps.
	s := orig.Spec()
	s.Additionals["k"] = "changed"
	assert.Equal(t, "v", orig.Additionals()["k"])
}

func TestBackReferenceNeverOccupiesPackStream(t *testing.T) {
	t.Parallel()

	target := NewFileFromSpec(FileSpec{TargetPath: "a.txt", Length: 3, Size: 3})
	ref := NewFileFromSpec(FileSpec{TargetPath: "b.txt", Length: 3, Size: 3, Linked: target})

	assert.True(t, ref.IsBackReference())
	assert.Same(t, target, ref.LinkedFile())
	assert.False(t, ref.OccupiesPackStream())
	assert.True(t, target.OccupiesPackStream())
}

func TestPackInfoDeduplicatesFiles(t *testing.T) {
	t.Parallel()

	pi := NewPackInfo(NewPack("core"))
	a := NewFileFromSpec(FileSpec{TargetPath: "a"})
	b := NewFileFromSpec(FileSpec{TargetPath: "b"})

	pi.AddFile(a)
	pi.AddFile(b)
	pi.AddFile(a)

	require.Len(t, pi.Files(), 2)
	assert.Same(t, a, pi.Files()[0])
	assert.Same(t, b, pi.Files()[1])
	assert.Equal(t, 1, pi.FileIndex(b))
	assert.Equal(t, -1, pi.FileIndex(NewFileFromSpec(FileSpec{TargetPath: "a"})))
}

func TestPackInfoLoosePackMarksFiles(t *testing.T) {
	t.Parallel()

	p := NewPack("docs")
	p.SetLoose(true)
	pi := NewPackInfo(p)
	f := NewFileFromSpec(FileSpec{TargetPath: "README", Length: 5, Size: 5})
	pi.AddFile(f)

	assert.True(t, f.IsLoosePack())
	assert.False(t, f.OccupiesPackStream())
}

func TestPackMutators(t *testing.T) {
	t.Parallel()

	p := NewPack("core", WithRequired(true), WithDescription("Core files"), WithUninstall(true))
	p.AddDependency("base")
	p.AddDependency("base")
	p.SetOsConstraints([]OsModel{{Family: "unix"}})

	assert.True(t, p.Required)
	assert.True(t, p.Uninstall)
	assert.Equal(t, []string{"base"}, p.Dependencies)
	assert.Len(t, p.OsConstraints, 1)

	c := p.Clone()
	c.AddDependency("extra")
	assert.Equal(t, []string{"base"}, p.Dependencies)
}

func TestOsConstraints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		constraints []OsModel
		goos        string
		goarch      string
		want        bool
	}{
		{"empty matches", nil, "linux", "amd64", true},
		{"unix on linux", []OsModel{{Family: "unix"}}, "linux", "amd64", true},
		{"unix on windows", []OsModel{{Family: "unix"}}, "windows", "amd64", false},
		{"mac family", []OsModel{{Family: "mac"}}, "darwin", "arm64", true},
		{"windows name prefix", []OsModel{{Name: "Windows 10"}}, "windows", "amd64", true},
		{"arch alias", []OsModel{{Family: "linux", Arch: "x86_64"}}, "linux", "amd64", true},
		{"arch mismatch", []OsModel{{Family: "linux", Arch: "aarch64"}}, "linux", "amd64", false},
		{"any entry", []OsModel{{Family: "windows"}, {Family: "linux"}}, "linux", "arm64", true},
		{"bsd", []OsModel{{Family: "bsd"}}, "freebsd", "amd64", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MatchesPlatform(tc.constraints, tc.goos, tc.goarch))
		})
	}
}

func TestParseOverride(t *testing.T) {
	t.Parallel()

	for _, o := range []Override{OverrideFalse, OverrideTrue, OverrideAskFalse, OverrideAskTrue, OverrideUpdate} {
		got, ok := ParseOverride(o.String())
		require.True(t, ok, o.String())
		assert.Equal(t, o, got)
	}
	_, ok := ParseOverride("sometimes")
	assert.False(t, ok)
	assert.True(t, OverrideAskFalse.IsAsk())
	assert.False(t, OverrideUpdate.IsAsk())
}

func TestParseStageAndFailurePolicy(t *testing.T) {
	t.Parallel()

	for _, s := range []ExecutionStage{StagePostInstall, StageNever, StageUninstall} {
		got, ok := ParseStage(s.String())
		require.True(t, ok, s.String())
		assert.Equal(t, s, got)
	}
	got, ok := ParseStage("")
	require.True(t, ok)
	assert.Equal(t, StagePostInstall, got)
	_, ok = ParseStage("reboot")
	assert.False(t, ok)

	for _, p := range []FailurePolicy{FailureAbort, FailureWarn, FailureAsk, FailureIgnore} {
		got, ok := ParseFailurePolicy(p.String())
		require.True(t, ok, p.String())
		assert.Equal(t, p, got)
	}
	_, ok = ParseFailurePolicy("retry")
	assert.False(t, ok)
}
