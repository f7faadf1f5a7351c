package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/meigma/unpack/source"
	"github.com/meigma/unpack/source/cache"
	"github.com/meigma/unpack/source/cache/disk"
	httpsrc "github.com/meigma/unpack/source/http"
	"github.com/meigma/unpack/source/local"
	"github.com/meigma/unpack/source/oci"
)

const ociScheme = "oci://"

// openSource resolves a payload location. oci:// references name registry
// artifacts, http(s) URLs name a payload directory on a web server and
// anything else is a local directory. Remote providers are wrapped with the
// disk cache when one is configured.
func (a *app) openSource(ctx context.Context, loc string) (source.Provider, func(), error) {
	noop := func() {}
	switch {
	case strings.HasPrefix(loc, ociScheme):
		opts := []oci.RemoteOption{
			oci.WithPlainHTTP(a.v.GetBool(keyPlainHTTP)),
			oci.WithUserAgent("unpack/" + Version),
			oci.WithProviderOptions(oci.WithLogger(a.logger)),
		}
		if a.v.GetBool(keyAnonymous) {
			opts = append(opts, oci.WithAnonymous())
		}
		p, err := oci.NewRemote(ctx, strings.TrimPrefix(loc, ociScheme), opts...)
		if err != nil {
			return nil, nil, err
		}
		cached, err := a.withCache(p)
		return cached, noop, err
	case strings.HasPrefix(loc, "http://"), strings.HasPrefix(loc, "https://"):
		p, err := httpsrc.New(loc, httpsrc.WithLogger(a.logger), httpsrc.WithHeader("User-Agent", "unpack/"+Version))
		if err != nil {
			return nil, nil, err
		}
		cached, err := a.withCache(p)
		return cached, noop, err
	default:
		p, err := local.New(loc, local.WithLogger(a.logger))
		if err != nil {
			return nil, nil, err
		}
		return p, func() { p.Close() }, nil
	}
}

func (a *app) withCache(p source.Provider) (source.Provider, error) {
	dir := a.v.GetString(keyCacheDir)
	if dir == "" {
		return p, nil
	}
	store, err := disk.New(dir, disk.WithMaxBytes(a.v.GetInt64(keyCacheMaxBytes)))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return cache.New(p, store, cache.WithLogger(a.logger))
}
