package catalog

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/unpack/pack"
	"github.com/meigma/unpack/source"
)

func sampleCatalog() *Catalog {
	mod := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

	core := pack.NewPackInfo(pack.NewPack("core", pack.WithRequired(true), pack.WithUninstall(true)))
	core.Pack().AddDependency("base")
	core.Pack().SetOsConstraints([]pack.OsModel{{Family: "unix", Arch: "amd64"}})
	core.Pack().OnSelect = map[string]string{"docs": "always"}

	app := pack.NewFileFromSpec(pack.FileSpec{
		SourcePath:         "bin/app",
		TargetPath:         "bin/app",
		Length:             12,
		Size:               12,
		ModTime:            mod,
		Override:           pack.OverrideUpdate,
		OverrideRenameTo:   "*.old",
		Blockable:          pack.BlockableForce,
		Additionals:        map[string]string{"mode": "0755"},
		StreamResourceName: "pack-core",
		StreamOffset:       0,
		Condition:          "isLinux",
		Stored:             true,
	})
	dir := pack.NewFileFromSpec(pack.FileSpec{TargetPath: "share", IsDirectory: true, ModTime: mod})
	jar := pack.NewFileFromSpec(pack.FileSpec{
		TargetPath:         "lib/x.jar",
		Length:             300,
		Size:               120,
		Pack200:            true,
		Pack200Properties:  map[string]string{"pack.deflate.hint": "true"},
		StreamResourceName: "lib-x.pack",
	})
	core.AddFile(app)
	core.AddFile(dir)
	core.AddFile(jar)
	core.AddParsable(pack.ParsableFile{Path: "etc/app.conf", Type: "javaprop", Encoding: "UTF-8"})
	core.AddExecutable(pack.ExecutableFile{
		Path:      "bin/setup.sh",
		Type:      "shell",
		Stage:     pack.StagePostInstall,
		OnFailure: pack.FailureWarn,
		Args:      []string{"--quiet", "$INSTALL_PATH"},
	})
	core.AddUpdateCheck(pack.UpdateCheck{Includes: []string{"lib/**"}, Excludes: []string{"lib/keep/**"}})

	extra := pack.NewPackInfo(pack.NewPack("extra"))
	extra.AddFile(pack.NewFileFromSpec(pack.FileSpec{TargetPath: "bin/app-copy", Length: 12, Size: 12, Linked: app}))
	extra.AddFile(pack.NewFileFromSpec(pack.FileSpec{TargetPath: "lib/x-copy.jar", Length: 300, Size: 120, Linked: jar}))

	return &Catalog{Compression: "zstd", Packs: []*pack.PackInfo{core, extra}}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	orig := sampleCatalog()
	data, err := Encode(orig)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, uint32(Version), got.Version)
	assert.Equal(t, "zstd", got.Compression)
	require.Len(t, got.Packs, 2)

	core := got.Packs[0]
	assert.Equal(t, "core", core.Pack().Name)
	assert.True(t, core.Pack().Required)
	assert.True(t, core.Pack().Uninstall)
	assert.Equal(t, []string{"base"}, core.Pack().Dependencies)
	assert.Equal(t, []pack.OsModel{{Family: "unix", Arch: "amd64"}}, core.Pack().OsConstraints)
	assert.Equal(t, map[string]string{"docs": "always"}, core.Pack().OnSelect)

	require.Len(t, core.Files(), 3)
	for i, f := range core.Files() {
		want := orig.Packs[0].Files()[i].Spec()
		have := f.Spec()
		assert.True(t, want.ModTime.Equal(have.ModTime), f.TargetPath())
		want.ModTime, have.ModTime = time.Time{}, time.Time{}
		assert.Equal(t, want, have, f.TargetPath())
	}
	assert.Equal(t, int64(0), core.Files()[1].Length())

	require.Len(t, core.Parsables(), 1)
	assert.Equal(t, "javaprop", core.Parsables()[0].Type)
	require.Len(t, core.Executables(), 1)
	assert.Equal(t, []string{"--quiet", "$INSTALL_PATH"}, core.Executables()[0].Args)
	assert.Equal(t, pack.FailureWarn, core.Executables()[0].OnFailure)
	require.Len(t, core.UpdateChecks(), 1)
	assert.Equal(t, []string{"lib/keep/**"}, core.UpdateChecks()[0].Excludes)
}

func TestDecodeRelinksBackReferences(t *testing.T) {
	t.Parallel()

	data, err := Encode(sampleCatalog())
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	copies := got.Packs[1].Files()
	require.Len(t, copies, 2)
	assert.Same(t, got.Packs[0].Files()[0], copies[0].LinkedFile())
	assert.Same(t, got.Packs[0].Files()[2], copies[1].LinkedFile())
	assert.False(t, copies[0].OccupiesPackStream())
}

func TestEncodeDanglingLink(t *testing.T) {
	t.Parallel()

	outside := pack.NewFileFromSpec(pack.FileSpec{TargetPath: "elsewhere"})
	pi := pack.NewPackInfo(pack.NewPack("p"))
	pi.AddFile(pack.NewFileFromSpec(pack.FileSpec{TargetPath: "ref", Linked: outside}))

	_, err := Encode(&Catalog{Packs: []*pack.PackInfo{pi}})
	require.ErrorIs(t, err, ErrDanglingLink)
}

func TestDecodeMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte{1, 2, 3}},
		{"garbage", bytes.Repeat([]byte{0xff}, 64)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(tc.data)
			require.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestDecodeAssignsFreshIDs(t *testing.T) {
	t.Parallel()

	orig := sampleCatalog()
	data, err := Encode(orig)
	require.NoError(t, err)

	a, err := Decode(data)
	require.NoError(t, err)
	b, err := Decode(data)
	require.NoError(t, err)

	assert.NotEqual(t, a.Packs[0].Files()[0].ID(), b.Packs[0].Files()[0].ID())
	assert.NotEqual(t, orig.Packs[0].Files()[0].ID(), a.Packs[0].Files()[0].ID())
}

type mapProvider map[string][]byte

func (m mapProvider) PackStream(ctx context.Context, name string) (io.ReadCloser, error) {
	return m.InputStream(ctx, source.PackStreamName(name))
}

func (m mapProvider) InputStream(_ context.Context, name string) (io.ReadCloser, error) {
	data, ok := m[name]
	if !ok {
		return nil, source.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestRead(t *testing.T) {
	t.Parallel()

	data, err := Encode(sampleCatalog())
	require.NoError(t, err)

	c, err := Read(context.Background(), mapProvider{source.CatalogResource: data})
	require.NoError(t, err)
	info, ok := c.Pack("extra")
	require.True(t, ok)
	assert.Len(t, info.Files(), 2)

	_, err = Read(context.Background(), mapProvider{})
	require.ErrorIs(t, err, source.ErrNotFound)
}
