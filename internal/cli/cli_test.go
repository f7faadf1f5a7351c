package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/unpack"
	"github.com/meigma/unpack/internal/testutil"
)

const cliManifest = `
compression = "zstd"

[[packs]]
name = "core"
description = "Application core"
required = true
dir = "core"

[[packs.parsables]]
path = "etc/app.conf"

[[packs]]
name = "docs"
dir = "docs"
target = "share/doc"
`

// runCLI executes the command tree with isolated configuration.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLIContext(t, context.Background(), args...)
}

func runCLIContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func buildPayload(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"installer.toml":    cliManifest,
		"core/bin/run.sh":   "exit 0\n",
		"core/etc/app.conf": "port=${PORT}\n",
		"docs/README":       "read me",
	})
	out := filepath.Join(dir, "payload")
	stdout, _, err := runCLI(t, "build", filepath.Join(dir, "installer.toml"), "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Built 2 pack(s)")
	return out
}

func TestBuildInspectInstall(t *testing.T) {
	payload := buildPayload(t)

	stdout, _, err := runCLI(t, "inspect", payload, "--files")
	require.NoError(t, err)
	assert.Contains(t, stdout, "compression zstd, 2 pack(s)")
	assert.Contains(t, stdout, "[required]")
	assert.Contains(t, stdout, "Application core")
	assert.Contains(t, stdout, "share/doc/README")

	target := t.TempDir()
	stdout, stderr, err := runCLI(t, "install", payload, "-t", target, "--unattended", "--var", "PORT=8080")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Installed 1 pack(s)")
	assert.Contains(t, stderr, "extracting")

	got := testutil.ReadTree(t, target)
	assert.Equal(t, "port=8080\n", got["etc/app.conf"])
	assert.Equal(t, "exit 0\n", got["bin/run.sh"])
	assert.NotContains(t, got, "share/doc/README")

	stdout, _, err = runCLI(t, "install", payload, "-t", target, "--pack", "docs", "--unattended")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Installed 1 pack(s)")
	assert.Equal(t, "read me", testutil.ReadTree(t, target)["share/doc/README"])

	stdout, _, err = runCLI(t, "record", target)
	require.NoError(t, err)
	assert.Contains(t, stdout, "core")
	assert.Contains(t, stdout, "docs")
	assert.Contains(t, stdout, "INSTALL_PATH="+target)
	assert.NotContains(t, stdout, "PORT=8080", "variables come from the latest run")
}

func TestInstallErrors(t *testing.T) {
	payload := buildPayload(t)

	_, _, err := runCLI(t, "install", payload, "-t", t.TempDir(), "--pack", "missing")
	require.ErrorIs(t, err, unpack.ErrUnknownPack)

	_, _, err = runCLI(t, "install", payload)
	require.Error(t, err, "--target is required")

	_, _, err = runCLI(t, "install", filepath.Join(t.TempDir(), "nowhere"), "-t", t.TempDir())
	require.Error(t, err)
}

func TestInstallInterrupted(t *testing.T) {
	payload := buildPayload(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, stderr, err := runCLIContext(t, ctx, "install", payload, "-t", t.TempDir(), "--unattended")
	require.ErrorIs(t, err, unpack.ErrInterrupted)
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 130, exitErr.Code)
	assert.Contains(t, stderr, "files already extracted were kept")
	assert.NotContains(t, stderr, "were removed")
}

func TestRecordEmpty(t *testing.T) {
	stdout, _, err := runCLI(t, "record", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "nothing installed")
}

func TestPendingListAndApply(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "staged")
	dst := filepath.Join(dir, "app.bin")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))

	file := filepath.Join(dir, "pending.toml")
	doc := "[[move]]\nsrc = " + quote(src) + "\ndst = " + quote(dst) + "\noverwrite = true\nforce_in_use = false\n"
	require.NoError(t, os.WriteFile(file, []byte(doc), 0o644))

	stdout, _, err := runCLI(t, "pending", file)
	require.NoError(t, err)
	assert.Contains(t, stdout, src+" -> "+dst)

	stdout, _, err = runCLI(t, "pending", file, "--apply")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Applied 1 of 1 move(s)")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	_, err = os.Stat(file)
	assert.ErrorIs(t, err, os.ErrNotExist)

	stdout, _, err = runCLI(t, "pending", file)
	require.NoError(t, err)
	assert.Contains(t, stdout, "no pending moves")
}

func TestCacheCommands(t *testing.T) {
	_, _, err := runCLI(t, "cache", "info")
	require.ErrorIs(t, err, errNoCacheDir)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "entry"), make([]byte, 2048), 0o644))

	stdout, _, err := runCLI(t, "cache", "info", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "2.0 KiB")

	stdout, _, err = runCLI(t, "cache", "prune", "--cache-dir", dir, "--size", "0")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Freed 2.0 KiB")
}

func TestConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "unpack.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[cache]
dir = "/var/cache/unpack"

[install]
unattended = true
`), 0o644))

	v, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", v.GetString(keyLogLevel))
	assert.Equal(t, "/var/cache/unpack", v.GetString(keyCacheDir))
	assert.True(t, v.GetBool(keyUnattended))
	assert.False(t, v.GetBool(keyAcceptWarnings))

	t.Setenv("UNPACK_CACHE_DIR", "/tmp/override")
	v, err = loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override", v.GetString(keyCacheDir))

	_, err = loadConfig(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unpack.toml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "chatty"`), 0o644))

	_, _, err := runCLI(t, "--config", path, "record", t.TempDir())
	require.ErrorContains(t, err, keyLogLevel)
}

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
		{3 << 30, "3.0 GiB"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, humanBytes(tc.n))
	}
}

func TestConditionSet(t *testing.T) {
	c := newConditionSet([]string{"linux.x64", "pro"})
	assert.True(t, c.IsConditionTrue("pro"))
	assert.False(t, c.IsConditionTrue("trial"))
}

func quote(s string) string {
	return "'" + s + "'"
}
