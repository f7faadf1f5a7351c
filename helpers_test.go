package unpack

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meigma/unpack/internal/testutil"
	"github.com/meigma/unpack/pack"
	"github.com/meigma/unpack/payload"
)

// fixedTime is the modification time given to every source file so
// installed files can be compared against it.
var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fixture builds payloads from files written to a source directory.
type fixture struct {
	t    *testing.T
	src  string
	opts []payload.Option
	b    *payload.Builder
}

func newFixture(t *testing.T, files map[string]string, opts ...payload.Option) *fixture {
	t.Helper()
	src := t.TempDir()
	testutil.WriteTree(t, src, files)
	for name := range files {
		require.NoError(t, os.Chtimes(filepath.Join(src, filepath.FromSlash(strings.TrimSuffix(name, "/"))), fixedTime, fixedTime))
	}
	return &fixture{t: t, src: src, opts: opts, b: payload.New(opts...)}
}

// pack adds a pack holding the named source paths. Each path is installed
// under the same relative target.
func (fx *fixture) pack(p *pack.Pack, paths []string, opts ...pack.FileOption) *pack.PackInfo {
	fx.t.Helper()
	info := pack.NewPackInfo(p)
	for _, rel := range paths {
		f, err := pack.NewFile(fx.src, filepath.FromSlash(rel), rel, opts...)
		require.NoError(fx.t, err)
		info.AddFile(f)
	}
	fx.b.AddPack(info, fx.src)
	return info
}

// packFiles adds a pack with prepared files.
func (fx *fixture) packFiles(p *pack.Pack, files ...*pack.PackFile) *pack.PackInfo {
	info := pack.NewPackInfo(p)
	for _, f := range files {
		info.AddFile(f)
	}
	fx.b.AddPack(info, fx.src)
	return info
}

func (fx *fixture) file(rel, target string, opts ...pack.FileOption) *pack.PackFile {
	fx.t.Helper()
	f, err := pack.NewFile(fx.src, filepath.FromSlash(rel), target, opts...)
	require.NoError(fx.t, err)
	return f
}

func (fx *fixture) build() *testutil.MemoryPayload {
	fx.t.Helper()
	mem := testutil.NewMemoryPayload()
	_, err := fx.b.Build(context.Background(), mem)
	require.NoError(fx.t, err)
	return mem
}

// noTempFiles fails when unpack temporaries remain below dir.
func noTempFiles(t *testing.T, dir string) {
	t.Helper()
	for name := range testutil.ReadTree(t, dir) {
		require.NotContains(t, filepath.Base(name), ".unpack-", "temporary file %s left behind", name)
	}
}

// recorder records listener callbacks in order.
type recorder struct {
	mu       sync.Mutex
	events   []string
	failures []error
	failOn   string
}

func (r *recorder) add(ev string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if r.failOn != "" && ev == r.failOn {
		return io.ErrClosedPipe
	}
	return nil
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) BeforePacks(_ context.Context, packs []*pack.Pack, total int) error {
	return r.add("before-packs")
}

func (r *recorder) BeforePack(_ context.Context, p *pack.Pack, _ int) error {
	return r.add("before-pack:" + p.Name)
}

func (r *recorder) AfterPack(_ context.Context, p *pack.Pack, _ int) error {
	return r.add("after-pack:" + p.Name)
}

func (r *recorder) AfterPacks(context.Context, *Result) error {
	return r.add("after-packs")
}

func (r *recorder) BeforeDir(_ context.Context, path string, _ *pack.PackFile) error {
	return r.add("before-dir:" + path)
}

func (r *recorder) AfterDir(_ context.Context, path string, _ *pack.PackFile) error {
	return r.add("after-dir:" + path)
}

func (r *recorder) BeforeFile(_ context.Context, path string, _ *pack.PackFile) error {
	return r.add("before-file:" + path)
}

func (r *recorder) AfterFile(_ context.Context, path string, _ *pack.PackFile) error {
	return r.add("after-file:" + path)
}

func (r *recorder) OnFailure(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

// scriptedPrompter answers questions from a fixed list and records them.
type scriptedPrompter struct {
	mu        sync.Mutex
	answers   []bool
	questions []string
}

func (p *scriptedPrompter) Confirm(_ context.Context, q string, def bool) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.questions = append(p.questions, q)
	if len(p.answers) == 0 {
		return def, nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

type ruleSet map[string]bool

func (r ruleSet) IsConditionTrue(id string) bool { return r[id] }
