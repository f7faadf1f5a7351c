// Package local serves installer resources from a directory.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meigma/unpack/internal/platform"
	"github.com/meigma/unpack/source"
)

// Provider opens resources below a root directory. Symbolic links are not
// followed and names cannot escape the root.
type Provider struct {
	root   *os.Root
	dir    string
	logger *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New opens dir as a resource root.
func New(dir string, opts ...Option) (*Provider, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open resource root: %w", err)
	}
	p := &Provider{root: root, dir: dir}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// Dir returns the root directory.
func (p *Provider) Dir() string { return p.dir }

// Close releases the root directory handle.
func (p *Provider) Close() error {
	return p.root.Close()
}

// PackStream implements source.Provider.
func (p *Provider) PackStream(ctx context.Context, packName string) (io.ReadCloser, error) {
	return p.InputStream(ctx, source.PackStreamName(packName))
}

// InputStream implements source.Provider.
func (p *Provider) InputStream(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := p.open(ctx, name)
	if err != nil {
		return nil, err
	}
	return source.WithContext(ctx, f), nil
}

// InputStreamAt implements source.OffsetOpener by seeking the opened file.
func (p *Provider) InputStreamAt(ctx context.Context, name string, offset int64) (io.ReadCloser, error) {
	f, err := p.open(ctx, name)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek %s: %w", name, err)
	}
	return source.WithContext(ctx, f), nil
}

func (p *Provider) open(ctx context.Context, name string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrInterrupted, err)
	}
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}

	f, err := platform.OpenFileNoFollow(p.root, filepath.FromSlash(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, source.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	p.log().Debug("opened resource", "name", name)
	return f, nil
}
