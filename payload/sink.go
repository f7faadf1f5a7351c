package payload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DirSink writes payload resources below a directory with atomic writes.
//
// Each resource is written to a temporary file beside its final path and
// renamed on Close. A resource that fails mid-write is never visible.
type DirSink struct {
	dir string
}

// NewDirSink creates a DirSink rooted at dir. Parent directories are
// created as needed.
func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

// Dir returns the sink's root directory.
func (s *DirSink) Dir() string { return s.dir }

// Create returns a writer for the named resource.
func (s *DirSink) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("payload: resource name %q escapes the sink", name)
	}
	dest := filepath.Join(s.dir, clean)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".payload-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &fileCommitter{dest: dest, tmp: tmp}, nil
}

// fileCommitter writes to a temp file and renames on Close.
type fileCommitter struct {
	dest string
	tmp  *os.File
	done bool
}

func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tmp.Write(p)
}

// Close commits the resource.
func (c *fileCommitter) Close() error {
	if c.done {
		return nil
	}
	c.done = true
	name := c.tmp.Name()
	if err := c.tmp.Close(); err != nil {
		_ = os.Remove(name) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(name, c.dest); err != nil {
		_ = os.Remove(name) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.dest, err)
	}
	return nil
}

// Discard drops the resource.
func (c *fileCommitter) Discard() error {
	if c.done {
		return nil
	}
	c.done = true
	name := c.tmp.Name()
	_ = c.tmp.Close() //nolint:errcheck // we're cleaning up
	return os.Remove(name)
}

// discard abandons w. Writers that cannot discard are closed.
func discard(w io.WriteCloser) {
	if d, ok := w.(interface{ Discard() error }); ok {
		_ = d.Discard() //nolint:errcheck // reporting the original error
		return
	}
	_ = w.Close() //nolint:errcheck // reporting the original error
}
