// Package http serves installer resources from a web server.
//
// Resources are addressed relative to a base URL. Offset reads use HTTP
// range requests so backreferences do not transfer the bytes before them.
package http //nolint:revive // intentional naming for domain clarity

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/url"
	"strings"

	"github.com/meigma/unpack/internal/copyio"
	"github.com/meigma/unpack/source"
)

// Provider implements source.Provider and source.OffsetOpener over HTTP.
type Provider struct {
	base    *url.URL
	client  *nethttp.Client
	headers nethttp.Header
	logger  *slog.Logger
}

// Option configures a Provider.
type Option func(*Provider)

// WithClient sets the HTTP client used for requests.
func WithClient(client *nethttp.Client) Option {
	return func(p *Provider) {
		p.client = client
	}
}

// WithHeaders sets additional headers on each request.
func WithHeaders(headers nethttp.Header) Option {
	return func(p *Provider) {
		if headers == nil {
			return
		}
		p.headers = headers.Clone()
	}
}

// WithHeader sets a single header on each request.
func WithHeader(key, value string) Option {
	return func(p *Provider) {
		if p.headers == nil {
			p.headers = make(nethttp.Header)
		}
		p.headers.Set(key, value)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// New creates a Provider for resources below baseURL.
func New(baseURL string, opts ...Option) (*Provider, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: unsupported scheme", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	p := &Provider{base: u, client: nethttp.DefaultClient}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = nethttp.DefaultClient
	}
	return p, nil
}

func (p *Provider) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// SourceID returns a stable identifier for cache keys.
func (p *Provider) SourceID() string {
	return "url:" + p.base.String()
}

// PackStream implements source.Provider.
func (p *Provider) PackStream(ctx context.Context, packName string) (io.ReadCloser, error) {
	return p.InputStream(ctx, source.PackStreamName(packName))
}

// InputStream implements source.Provider.
func (p *Provider) InputStream(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := p.get(ctx, name, -1)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != nethttp.StatusOK {
		return nil, p.statusError(resp, name)
	}
	return &bodyReadCloser{ctx: ctx, body: resp.Body}, nil
}

// InputStreamAt implements source.OffsetOpener with a range request.
// Servers that ignore the range header are handled by discarding the prefix.
func (p *Provider) InputStreamAt(ctx context.Context, name string, offset int64) (io.ReadCloser, error) {
	if offset <= 0 {
		return p.InputStream(ctx, name)
	}
	resp, err := p.get(ctx, name, offset)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
		return &bodyReadCloser{ctx: ctx, body: resp.Body}, nil
	case nethttp.StatusRequestedRangeNotSatisfiable:
		resp.Body.Close()
		return io.NopCloser(bytes.NewReader(nil)), nil
	case nethttp.StatusOK:
		p.log().Debug("range ignored by server, discarding prefix", "name", name, "offset", offset)
		body := &bodyReadCloser{ctx: ctx, body: resp.Body}
		n, err := copyio.Discard(ctx, body, offset)
		if err != nil {
			body.Close()
			return nil, source.Interrupted(ctx, err)
		}
		if n != offset {
			body.Close()
			return nil, fmt.Errorf("%s shorter than offset %d: %w", name, offset, io.ErrUnexpectedEOF)
		}
		return body, nil
	default:
		return nil, p.statusError(resp, name)
	}
}

func (p *Provider) get(ctx context.Context, name string, offset int64) (*nethttp.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", source.ErrInterrupted, err)
	}
	ref, err := url.Parse(strings.TrimPrefix(name, "/"))
	if err != nil {
		return nil, fmt.Errorf("resource name %q: %w", name, err)
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, p.base.ResolveReference(ref).String(), nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range p.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, source.Interrupted(ctx, fmt.Errorf("get %s: %w", name, err))
	}
	p.log().Debug("fetched resource", "name", name, "status", resp.StatusCode, "offset", offset)
	return resp, nil
}

func (p *Provider) statusError(resp *nethttp.Response, name string) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10)) //nolint:errcheck // best-effort drain for connection reuse
	resp.Body.Close()
	if resp.StatusCode == nethttp.StatusNotFound {
		return fmt.Errorf("%s: %w", name, source.ErrNotFound)
	}
	return fmt.Errorf("get %s: %s", name, resp.Status)
}

// bodyReadCloser maps cancellation during reads to source.ErrInterrupted and
// drains the body on close to enable connection reuse.
type bodyReadCloser struct {
	ctx  context.Context //nolint:containedctx // reader lifetime is bound to the request
	body io.ReadCloser
}

func (r *bodyReadCloser) Read(p []byte) (int, error) {
	n, err := r.body.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, source.Interrupted(r.ctx, err)
	}
	return n, err
}

func (r *bodyReadCloser) Close() error {
	if r.ctx.Err() == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(r.body, 64<<10)) //nolint:errcheck // best-effort drain for connection reuse
	}
	return r.body.Close()
}
