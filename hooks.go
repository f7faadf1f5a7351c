package unpack

import (
	"context"

	"github.com/meigma/unpack/pack"
)

// PackListener is notified around pack boundaries. A returned error stops
// the installation.
type PackListener interface {
	BeforePacks(ctx context.Context, packs []*pack.Pack, total int) error
	BeforePack(ctx context.Context, p *pack.Pack, index int) error
	AfterPack(ctx context.Context, p *pack.Pack, index int) error
	AfterPacks(ctx context.Context, result *Result) error
}

// DirListener is implemented by listeners that want to observe directories
// created during extraction. Paths are slash-separated and relative to the
// install path.
type DirListener interface {
	BeforeDir(ctx context.Context, path string, f *pack.PackFile) error
	AfterDir(ctx context.Context, path string, f *pack.PackFile) error
}

// FileListener is implemented by listeners that want to observe every
// extracted file.
type FileListener interface {
	BeforeFile(ctx context.Context, path string, f *pack.PackFile) error
	AfterFile(ctx context.Context, path string, f *pack.PackFile) error
}

// FailureListener is implemented by listeners that want to know about fatal
// errors. It is not called for interrupted runs.
type FailureListener interface {
	OnFailure(ctx context.Context, err error)
}

// Prompter asks the user yes/no questions. It is never consulted for
// unattended installations.
type Prompter interface {
	Confirm(ctx context.Context, question string, def bool) (bool, error)
}

// Rules evaluates condition identifiers. The empty identifier is always
// true and never passed to IsConditionTrue.
type Rules interface {
	IsConditionTrue(id string) bool
}

// Substitutor rewrites variable references in text. typ selects the
// escaping of substituted values (see package subst).
type Substitutor interface {
	Substitute(s, typ string) (string, error)
}

// NopListener implements PackListener with no-ops. Embed it to implement only
// some of the hooks.
type NopListener struct{}

// BeforePacks implements PackListener.
func (NopListener) BeforePacks(context.Context, []*pack.Pack, int) error { return nil }

// BeforePack implements PackListener.
func (NopListener) BeforePack(context.Context, *pack.Pack, int) error { return nil }

// AfterPack implements PackListener.
func (NopListener) AfterPack(context.Context, *pack.Pack, int) error { return nil }

// AfterPacks implements PackListener.
func (NopListener) AfterPacks(context.Context, *Result) error { return nil }
