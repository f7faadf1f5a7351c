// Package oci serves installer resources from an OCI artifact.
//
// A payload artifact is a manifest whose layers are the payload resources,
// each named by its org.opencontainers.image.title annotation (for example
// "packs.info" or "packs/pack-core"). Publish creates such an artifact from
// a payload directory.
package oci

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/errdef"
	"oras.land/oras-go/v2/registry/remote/errcode"

	"github.com/meigma/unpack/source"
)

// Media types of payload artifacts.
const (
	ArtifactType      = "application/vnd.meigma.unpack.payload.v1"
	ResourceMediaType = "application/vnd.meigma.unpack.resource.v1"
)

// ErrNotPayload is returned when a manifest does not describe a payload.
var ErrNotPayload = errors.New("oci: manifest is not an installer payload")

// Provider implements source.Provider over the layers of one manifest.
type Provider struct {
	target    oras.ReadOnlyTarget
	manifest  ocispec.Descriptor
	resources map[string]ocispec.Descriptor
	logger    *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New resolves ref in target and indexes the manifest's layers by title.
func New(ctx context.Context, target oras.ReadOnlyTarget, ref string, opts ...Option) (*Provider, error) {
	p := &Provider{target: target}
	for _, opt := range opts {
		opt(p)
	}

	desc, err := target.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, mapError(err))
	}
	data, err := content.FetchAll(ctx, target, desc)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", mapError(err))
	}

	var manifest ocispec.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotPayload, err)
	}
	if manifest.ArtifactType != ArtifactType && manifest.Config.MediaType != ArtifactType {
		return nil, fmt.Errorf("%w: artifact type %q", ErrNotPayload, manifest.ArtifactType)
	}

	p.manifest = desc
	p.resources = make(map[string]ocispec.Descriptor, len(manifest.Layers))
	for _, layer := range manifest.Layers {
		title := layer.Annotations[ocispec.AnnotationTitle]
		if title == "" {
			continue
		}
		p.resources[title] = layer
	}
	p.log().Debug("indexed payload", "ref", ref, "digest", desc.Digest, "resources", len(p.resources))
	return p, nil
}

func (p *Provider) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// SourceID returns the manifest digest, which identifies the payload content.
func (p *Provider) SourceID() string {
	return "oci:" + p.manifest.Digest.String()
}

// Manifest returns the resolved manifest descriptor.
func (p *Provider) Manifest() ocispec.Descriptor {
	return p.manifest
}

// Resource returns the layer descriptor for name.
func (p *Provider) Resource(name string) (ocispec.Descriptor, bool) {
	desc, ok := p.resources[name]
	return desc, ok
}

// PackStream implements source.Provider.
func (p *Provider) PackStream(ctx context.Context, packName string) (io.ReadCloser, error) {
	return p.InputStream(ctx, source.PackStreamName(packName))
}

// InputStream implements source.Provider. The content digest is verified
// when the stream is read to the end.
func (p *Provider) InputStream(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrInterrupted, err)
	}
	desc, ok := p.resources[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, source.ErrNotFound)
	}
	rc, err := p.target.Fetch(ctx, desc)
	if err != nil {
		return nil, source.Interrupted(ctx, fmt.Errorf("fetch %s: %w", name, mapError(err)))
	}
	return &verifyingReadCloser{
		ctx:    ctx,
		rc:     rc,
		verify: content.NewVerifyReader(rc, desc),
	}, nil
}

type verifyingReadCloser struct {
	ctx    context.Context //nolint:containedctx // reader lifetime is bound to the fetch
	rc     io.ReadCloser
	verify *content.VerifyReader
}

func (v *verifyingReadCloser) Read(b []byte) (int, error) {
	if err := v.ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", source.ErrInterrupted, err)
	}
	n, err := v.verify.Read(b)
	if errors.Is(err, io.EOF) {
		if verr := v.verify.Verify(); verr != nil {
			return n, verr
		}
	}
	return n, err
}

func (v *verifyingReadCloser) Close() error {
	return v.rc.Close()
}

// mapError maps ORAS not-found errors to source.ErrNotFound.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, errdef.ErrNotFound) {
		return fmt.Errorf("%w: %w", source.ErrNotFound, err)
	}
	var errResp *errcode.ErrorResponse
	if errors.As(err, &errResp) && errResp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %w", source.ErrNotFound, err)
	}
	return err
}
