package disk

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) []byte {
	sum := sha256.Sum256([]byte(s))
	return sum[:]
}

func TestStorePutGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	k := key("packs/lib.pack")
	require.NoError(t, s.Put(k, bytes.NewReader([]byte("hello"))))

	f, ok := s.Get(k)
	require.True(t, ok)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
	assert.Equal(t, int64(5), s.SizeBytes())

	hexKey := hex.EncodeToString(k)
	_, err = os.Stat(filepath.Join(dir, hexKey[:defaultShardPrefixLen], hexKey))
	require.NoError(t, err)

	_, ok = s.Get(key("other"))
	assert.False(t, ok)
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), WithShardPrefixLen(0))
	require.NoError(t, err)

	k := key("a")
	require.NoError(t, s.Put(k, bytes.NewReader([]byte("abc"))))
	require.NoError(t, s.Delete(k))
	require.NoError(t, s.Delete(k))
	_, ok := s.Get(k)
	assert.False(t, ok)
	assert.Equal(t, int64(0), s.SizeBytes())
}

func TestStoreMaxBytesEvictsOldest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, WithMaxBytes(10), WithShardPrefixLen(0))
	require.NoError(t, err)

	require.NoError(t, s.Put(key("old"), bytes.NewReader(bytes.Repeat([]byte("o"), 6))))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, hex.EncodeToString(key("old"))), past, past))

	require.NoError(t, s.Put(key("new"), bytes.NewReader(bytes.Repeat([]byte("n"), 6))))

	_, ok := s.Get(key("old"))
	assert.False(t, ok)
	_, ok = s.Get(key("new"))
	assert.True(t, ok)
	assert.LessOrEqual(t, s.SizeBytes(), int64(10))
}

func TestStoreDeclinesOversized(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), WithMaxBytes(4))
	require.NoError(t, err)

	require.NoError(t, s.Put(key("big"), bytes.NewReader([]byte("too large"))))
	_, ok := s.Get(key("big"))
	assert.False(t, ok)
}

func TestNewCountsExistingEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.Put(key("x"), bytes.NewReader([]byte("12345"))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, tempPrefix+"stale"), []byte("ignored"), 0o600))

	reopened, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(5), reopened.SizeBytes())
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	_, err := New("")
	require.Error(t, err)
	_, err = New(t.TempDir(), WithMaxBytes(-1))
	require.Error(t, err)
}
