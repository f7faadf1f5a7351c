// Package testutil holds in-memory payload helpers for tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meigma/unpack/source"
)

// MemoryPayload is a concurrency-safe in-memory payload. It is both a
// payload sink and a source.Provider with offset support.
type MemoryPayload struct {
	mu    sync.Mutex
	data  map[string][]byte
	opens map[string]int
}

// NewMemoryPayload returns an empty payload.
func NewMemoryPayload() *MemoryPayload {
	return &MemoryPayload{
		data:  make(map[string][]byte),
		opens: make(map[string]int),
	}
}

// Put stores a resource.
func (m *MemoryPayload) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = bytes.Clone(data)
}

// Get returns a copy of a resource.
func (m *MemoryPayload) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[name]
	return bytes.Clone(data), ok
}

// Names returns the stored resource names, sorted.
func (m *MemoryPayload) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.data))
}

// Opens reports how often a resource was opened.
func (m *MemoryPayload) Opens(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens[name]
}

// Create implements the payload sink. The resource is stored on Close.
func (m *MemoryPayload) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryWriter{m: m, name: name}, nil
}

type memoryWriter struct {
	m    *MemoryPayload
	name string
	buf  bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memoryWriter) Close() error {
	w.m.Put(w.name, w.buf.Bytes())
	return nil
}

// PackStream implements source.Provider.
func (m *MemoryPayload) PackStream(ctx context.Context, packName string) (io.ReadCloser, error) {
	return m.InputStream(ctx, source.PackStreamName(packName))
}

// InputStream implements source.Provider.
func (m *MemoryPayload) InputStream(ctx context.Context, name string) (io.ReadCloser, error) {
	return m.InputStreamAt(ctx, name, 0)
}

// InputStreamAt implements source.OffsetOpener.
func (m *MemoryPayload) InputStreamAt(ctx context.Context, name string, offset int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[name]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: source.ErrNotFound}
	}
	m.opens[name]++
	offset = min(offset, int64(len(data)))
	return io.NopCloser(bytes.NewReader(data[offset:])), nil
}

// Sequential hides the offset support of a provider so callers fall back to
// reading and discarding.
type Sequential struct {
	P source.Provider
}

// PackStream implements source.Provider.
func (s Sequential) PackStream(ctx context.Context, packName string) (io.ReadCloser, error) {
	return s.P.PackStream(ctx, packName)
}

// InputStream implements source.Provider.
func (s Sequential) InputStream(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.P.InputStream(ctx, name)
}

// WriteTree creates files below dir. Keys are slash-separated relative
// paths; a key ending in "/" creates an empty directory.
func WriteTree(tb testing.TB, dir string, files map[string]string) {
	tb.Helper()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if name[len(name)-1] == '/' {
			require.NoError(tb, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(tb, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(tb, os.WriteFile(full, []byte(content), 0o644))
	}
}

// ReadTree returns the regular files below dir keyed by slash-separated
// relative path.
func ReadTree(tb testing.TB, dir string) map[string]string {
	tb.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(tb, err)
	return out
}
