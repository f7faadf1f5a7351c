// Package source defines how the installer engine reaches its payload.
//
// A Provider serves three kinds of named resources: the catalog
// (CatalogResource), one concatenated pack stream per pack
// (PackStreamName) and per-file side-streams (SideStreamName). Providers
// exist for local directories, HTTP servers and OCI registries, and a
// caching decorator keeps remote side-streams on disk.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// CatalogResource is the name of the serialized catalog.
const CatalogResource = "packs.info"

var (
	// ErrNotFound is returned when a named resource does not exist.
	ErrNotFound = errors.New("source: resource not found")

	// ErrInterrupted is returned when opening or reading a resource was
	// stopped because the installation was interrupted.
	ErrInterrupted = errors.New("source: interrupted")
)

// Provider opens payload resources.
//
// Returned readers must be closed by the caller.
type Provider interface {
	// PackStream opens the concatenated content stream of the named pack.
	PackStream(ctx context.Context, packName string) (io.ReadCloser, error)

	// InputStream opens an arbitrary named resource.
	InputStream(ctx context.Context, name string) (io.ReadCloser, error)
}

// OffsetOpener is implemented by providers that can start reading a
// resource at an offset without transferring the preceding bytes.
type OffsetOpener interface {
	InputStreamAt(ctx context.Context, name string, offset int64) (io.ReadCloser, error)
}

// PackStreamName returns the resource name of a pack's content stream.
func PackStreamName(packName string) string {
	return "packs/pack-" + packName
}

// SideStreamName returns the resource name of a file side-stream.
func SideStreamName(resource string) string {
	return "packs/" + resource
}

// OpenAt opens name positioned at offset. Providers implementing
// OffsetOpener seek directly; otherwise the prefix is read and discarded.
func OpenAt(ctx context.Context, p Provider, name string, offset int64) (io.ReadCloser, error) {
	if offset > 0 {
		if oo, ok := p.(OffsetOpener); ok {
			return oo.InputStreamAt(ctx, name, offset)
		}
	}
	rc, err := p.InputStream(ctx, name)
	if err != nil {
		return nil, err
	}
	if offset <= 0 {
		return rc, nil
	}
	n, err := io.CopyN(io.Discard, rc, offset)
	if err != nil {
		rc.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("source: %s shorter than offset %d (got %d): %w", name, offset, n, io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	return rc, nil
}

// Interrupted maps context cancellation to ErrInterrupted and returns other
// errors unchanged.
func Interrupted(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return err
}

// WithContext wraps rc so reads fail with ErrInterrupted once ctx is done.
func WithContext(ctx context.Context, rc io.ReadCloser) io.ReadCloser {
	return &ctxReadCloser{ctx: ctx, rc: rc}
}

type ctxReadCloser struct {
	ctx context.Context //nolint:containedctx // reader lifetime is bound to the open call
	rc  io.ReadCloser
}

func (c *ctxReadCloser) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return c.rc.Read(p)
}

func (c *ctxReadCloser) Close() error {
	return c.rc.Close()
}
