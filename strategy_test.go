package unpack

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/unpack/codec"
	"github.com/meigma/unpack/internal/testutil"
	"github.com/meigma/unpack/pack"
	"github.com/meigma/unpack/queue"
)

func newTestCopier(t *testing.T, q queue.Queue) (*copier, string, map[string]string) {
	t.Helper()
	dir := t.TempDir()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { root.Close() })
	staged := make(map[string]string)
	return &copier{root: root, dir: dir, queue: q, stage: func(rel, tmp string) { staged[rel] = tmp }}, dir, staged
}

func specFile(length, size int64, opts ...func(*pack.FileSpec)) *pack.PackFile {
	spec := pack.FileSpec{TargetPath: "out", Length: length, Size: size, ModTime: fixedTime}
	for _, o := range opts {
		o(&spec)
	}
	return pack.NewFileFromSpec(spec)
}

func encode(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	cd, err := codec.Lookup(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	w, err := cd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDefaultUnpackerAdvancesExactlySize(t *testing.T) {
	t.Parallel()

	c, dir, _ := newTestCopier(t, nil)
	src := strings.NewReader("helloworld")
	queued, err := (&defaultUnpacker{c: c}).Unpack(context.Background(), specFile(5, 5), src, "out")
	require.NoError(t, err)
	assert.False(t, queued)
	assert.Equal(t, 5, src.Len(), "the next entry starts right after this one")

	data, err := os.ReadFile(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	info, err := os.Stat(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(fixedTime))
}

func TestDefaultUnpackerShortStream(t *testing.T) {
	t.Parallel()

	c, dir, _ := newTestCopier(t, nil)
	_, err := (&defaultUnpacker{c: c}).Unpack(context.Background(), specFile(10, 10), strings.NewReader("short"), "out")
	require.ErrorIs(t, err, ErrStreamAccounting)
	assert.Empty(t, testutil.ReadTree(t, dir))
}

func TestCompressedUnpacker(t *testing.T) {
	t.Parallel()

	cd, err := codec.Lookup("zstd")
	require.NoError(t, err)
	plain := []byte(strings.Repeat("payload ", 100))
	packed := encode(t, "zstd", plain)
	next := []byte("NEXT")

	tests := []struct {
		name    string
		length  int64
		size    int64
		stream  []byte
		wantErr error
	}{
		{"exact", int64(len(plain)), int64(len(packed)), append(append([]byte(nil), packed...), next...), nil},
		{"packed stream too short", int64(len(plain)), int64(len(packed)) + 10, packed, ErrStreamAccounting},
		{"declared length too long", int64(len(plain)) + 1, int64(len(packed)), packed, ErrStreamAccounting},
		{"declared length too short", int64(len(plain)) - 1, int64(len(packed)), packed, ErrStreamAccounting},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, dir, _ := newTestCopier(t, nil)
			cu := &compressedUnpacker{c: c, codec: cd, tempDir: t.TempDir()}
			src := bytes.NewReader(tc.stream)
			_, err := cu.Unpack(context.Background(), specFile(tc.length, tc.size), src, "out")
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Empty(t, testutil.ReadTree(t, dir))
				return
			}
			require.NoError(t, err)
			rest, err := io.ReadAll(src)
			require.NoError(t, err)
			assert.Equal(t, next, rest)
			data, err := os.ReadFile(filepath.Join(dir, "out"))
			require.NoError(t, err)
			assert.Equal(t, plain, data)
		})
	}
}

func TestCopierQueuesBlockableFiles(t *testing.T) {
	t.Parallel()

	for _, blockable := range []pack.Blockable{pack.BlockableAuto, pack.BlockableForce} {
		t.Run(blockable.String(), func(t *testing.T) {
			t.Parallel()

			q := queue.New()
			c, dir, staged := newTestCopier(t, q)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "out"), []byte("old"), 0o644))

			f := specFile(3, 3, func(s *pack.FileSpec) { s.Blockable = blockable })
			queued, err := (&defaultUnpacker{c: c}).Unpack(context.Background(), f, strings.NewReader("new"), "out")
			require.NoError(t, err)
			assert.True(t, queued)

			data, err := os.ReadFile(filepath.Join(dir, "out"))
			require.NoError(t, err)
			assert.Equal(t, "old", string(data), "the target is untouched until the queue runs")

			moves := q.Moves()
			require.Len(t, moves, 1)
			assert.Equal(t, filepath.Join(dir, "out"), moves[0].Dst)
			assert.Equal(t, filepath.Join(dir, staged["out"]), moves[0].Src)
			assert.True(t, moves[0].Overwrite)
			assert.True(t, moves[0].ForceInUse, "the move replaces the target even while it is open")

			require.NoError(t, q.Execute(context.Background()))
			data, err = os.ReadFile(filepath.Join(dir, "out"))
			require.NoError(t, err)
			assert.Equal(t, "new", string(data))
		})
	}
}

func TestCopierCancelledLeavesNothing(t *testing.T) {
	t.Parallel()

	c, dir, _ := newTestCopier(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	_, err := c.write(ctx, specFile(1, 1), "out", func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		cancel()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, testutil.ReadTree(t, dir))
}

func TestLooseUnpackerCopiesWholeSource(t *testing.T) {
	t.Parallel()

	c, dir, _ := newTestCopier(t, nil)
	_, err := (&looseUnpacker{c: c}).Unpack(context.Background(), specFile(2, 2), strings.NewReader("larger than declared"), "out")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.Equal(t, "larger than declared", string(data))
}
