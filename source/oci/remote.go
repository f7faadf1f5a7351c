package oci

import (
	"context"
	"fmt"
	"net/http"

	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"
	"oras.land/oras-go/v2/registry/remote/retry"
)

// RemoteOption configures registry access for NewRemote and Repository.
type RemoteOption func(*remoteConfig)

type remoteConfig struct {
	plainHTTP bool
	anonymous bool
	userAgent string
	opts      []Option
}

// WithPlainHTTP enables plain HTTP (no TLS) for local registries.
func WithPlainHTTP(enabled bool) RemoteOption {
	return func(c *remoteConfig) {
		c.plainHTTP = enabled
	}
}

// WithAnonymous skips credential lookups.
func WithAnonymous() RemoteOption {
	return func(c *remoteConfig) {
		c.anonymous = true
	}
}

// WithUserAgent sets the User-Agent header for registry requests.
func WithUserAgent(ua string) RemoteOption {
	return func(c *remoteConfig) {
		c.userAgent = ua
	}
}

// WithProviderOptions passes options through to the Provider.
func WithProviderOptions(opts ...Option) RemoteOption {
	return func(c *remoteConfig) {
		c.opts = append(c.opts, opts...)
	}
}

// Repository opens the repository named by ref ("host/repo:tag").
// Credentials come from the Docker configuration unless WithAnonymous is set.
func Repository(ref string, opts ...RemoteOption) (*remote.Repository, error) {
	cfg := remoteConfig{userAgent: "unpack/1.0"}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo, err := remote.NewRepository(ref)
	if err != nil {
		return nil, fmt.Errorf("parse reference %q: %w", ref, err)
	}

	var store credentials.Store
	if !cfg.anonymous {
		// Missing docker configuration falls back to anonymous access.
		if s, err := credentials.NewStoreFromDocker(credentials.StoreOptions{}); err == nil {
			store = s
		}
	}

	repo.PlainHTTP = cfg.plainHTTP
	repo.Client = &auth.Client{
		Client: retry.DefaultClient,
		Cache:  auth.NewCache(),
		Credential: func(ctx context.Context, hostport string) (auth.Credential, error) {
			if store == nil {
				return auth.EmptyCredential, nil
			}
			return store.Get(ctx, hostport)
		},
		Header: http.Header{"User-Agent": []string{cfg.userAgent}},
	}
	return repo, nil
}

// NewRemote opens the payload artifact at ref in a remote registry.
func NewRemote(ctx context.Context, ref string, opts ...RemoteOption) (*Provider, error) {
	repo, err := Repository(ref, opts...)
	if err != nil {
		return nil, err
	}
	cfg := remoteConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	tag := repo.Reference.Reference
	if tag == "" {
		tag = "latest"
	}
	return New(ctx, repo, tag, cfg.opts...)
}
