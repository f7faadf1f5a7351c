// Package cache keeps payload resources from slow providers on local storage.
//
// Provider decorates a source.Provider: side-streams and other named
// resources are stored on first use and served from the Store afterwards.
// Concurrent requests for the same resource share a single download. Pack
// streams are read once per installation and pass through uncached.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/meigma/unpack/source"
)

// Store provides keyed file storage.
//
// Implementations should handle their own size limits and eviction policies.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns an fs.File for reading cached content.
	// Returns nil, false if content is not cached.
	Get(key []byte) (fs.File, bool)

	// Put stores content read from r to completion. A store may decline
	// content that does not fit; Get then reports a miss.
	Put(key []byte, r io.Reader) error

	// Delete removes cached content. Missing entries are a no-op.
	Delete(key []byte) error
}

// Identifier is implemented by providers whose content can be told apart
// across payloads. Without it the cache cannot key entries safely.
type Identifier interface {
	SourceID() string
}

// Provider implements source.Provider and source.OffsetOpener on top of a
// Store.
type Provider struct {
	inner    source.Provider
	store    Store
	sourceID string
	group    singleflight.Group
	logger   *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithSourceID overrides the identifier reported by the inner provider.
func WithSourceID(id string) Option {
	return func(p *Provider) {
		p.sourceID = id
	}
}

// ErrNoSourceID is returned by New when the inner provider has no stable
// identifier and none was configured.
var ErrNoSourceID = errors.New("cache: provider has no source id")

// New wraps inner with store.
func New(inner source.Provider, store Store, opts ...Option) (*Provider, error) {
	p := &Provider{inner: inner, store: store}
	if id, ok := inner.(Identifier); ok {
		p.sourceID = id.SourceID()
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.sourceID == "" {
		return nil, ErrNoSourceID
	}
	return p, nil
}

func (p *Provider) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// SourceID implements Identifier.
func (p *Provider) SourceID() string { return p.sourceID }

// PackStream implements source.Provider without caching.
func (p *Provider) PackStream(ctx context.Context, packName string) (io.ReadCloser, error) {
	return p.inner.PackStream(ctx, packName)
}

// InputStream implements source.Provider. The catalog is never cached.
func (p *Provider) InputStream(ctx context.Context, name string) (io.ReadCloser, error) {
	if name == source.CatalogResource {
		return p.inner.InputStream(ctx, name)
	}
	f, err := p.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return p.inner.InputStream(ctx, name)
	}
	return source.WithContext(ctx, f), nil
}

// InputStreamAt implements source.OffsetOpener. Cached files are seeked;
// otherwise the inner provider positions the stream.
func (p *Provider) InputStreamAt(ctx context.Context, name string, offset int64) (io.ReadCloser, error) {
	f, err := p.fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return source.OpenAt(ctx, p.inner, name, offset)
	}
	if seeker, ok := f.(io.Seeker); ok {
		if _, err := seeker.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("seek %s: %w", name, err)
		}
		return source.WithContext(ctx, f), nil
	}
	rc := source.WithContext(ctx, f)
	if _, err := io.CopyN(io.Discard, rc, offset); err != nil {
		rc.Close()
		return nil, err
	}
	return rc, nil
}

// fetch returns the cached file for name, downloading it on a miss. A nil
// file without error means the store declined the content.
func (p *Provider) fetch(ctx context.Context, name string) (fs.File, error) {
	key := p.key(name)
	if f, ok := p.store.Get(key); ok {
		p.log().Debug("cache hit", "name", name)
		return f, nil
	}

	_, err, shared := p.group.Do(hex.EncodeToString(key), func() (any, error) {
		if f, ok := p.store.Get(key); ok {
			f.Close()
			return nil, nil
		}
		rc, err := p.inner.InputStream(ctx, name)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		if err := p.store.Put(key, source.WithContext(ctx, rc)); err != nil {
			return nil, fmt.Errorf("cache %s: %w", name, err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	p.log().Debug("cache fill", "name", name, "shared", shared)

	f, ok := p.store.Get(key)
	if !ok {
		return nil, nil
	}
	return f, nil
}

func (p *Provider) key(name string) []byte {
	sum := sha256.Sum256([]byte(p.sourceID + "\x00" + name))
	return sum[:]
}
