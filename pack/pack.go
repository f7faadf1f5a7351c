package pack

import (
	"maps"
	"slices"
)

// Pack is a named group of files with installation metadata.
type Pack struct {
	// Name is the unique pack name. Pack streams are addressed by it.
	Name string

	// ID is an optional language-independent identifier.
	ID string

	Description string

	// Required packs cannot be deselected.
	Required bool

	// Preselected packs are selected by default.
	Preselected bool

	// Loose packs keep their files outside the installer payload.
	Loose bool

	// ExcludeGroup names a group of mutually exclusive packs.
	ExcludeGroup string

	// Uninstall marks the pack's installed paths for the uninstall list.
	Uninstall bool

	// Size is the declared installed size in bytes.
	Size int64

	Dependencies []string
	Parent       string

	// OnSelect and OnDeselect map pack names to the condition under which
	// they follow this pack's selection.
	OnSelect   map[string]string
	OnDeselect map[string]string

	InstallGroups []string
	Hidden        bool

	// Condition is a rules identifier; empty means always true.
	Condition string

	OsConstraints []OsModel
}

// PackOption configures a Pack created with NewPack.
type PackOption func(*Pack)

// WithDescription sets the description.
func WithDescription(desc string) PackOption {
	return func(p *Pack) {
		p.Description = desc
	}
}

// WithRequired marks the pack as required.
func WithRequired(required bool) PackOption {
	return func(p *Pack) {
		p.Required = required
	}
}

// WithPreselected marks the pack as selected by default.
func WithPreselected(preselected bool) PackOption {
	return func(p *Pack) {
		p.Preselected = preselected
	}
}

// WithUninstall marks the pack's files for the uninstall list.
func WithUninstall(uninstall bool) PackOption {
	return func(p *Pack) {
		p.Uninstall = uninstall
	}
}

// WithPackCondition gates the pack with a rules identifier.
func WithPackCondition(id string) PackOption {
	return func(p *Pack) {
		p.Condition = id
	}
}

// WithPackID sets the pack identifier.
func WithPackID(id string) PackOption {
	return func(p *Pack) {
		p.ID = id
	}
}

// NewPack creates a pack.
func NewPack(name string, opts ...PackOption) *Pack {
	p := &Pack{Name: name}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddDependency records a dependency on another pack. Duplicates are ignored.
func (p *Pack) AddDependency(name string) {
	if slices.Contains(p.Dependencies, name) {
		return
	}
	p.Dependencies = append(p.Dependencies, name)
}

// SetOsConstraints replaces the pack's platform constraints.
func (p *Pack) SetOsConstraints(models []OsModel) {
	p.OsConstraints = slices.Clone(models)
}

// SetLoose marks the pack as loose.
func (p *Pack) SetLoose(loose bool) {
	p.Loose = loose
}

// Clone returns a deep copy of the pack.
func (p *Pack) Clone() *Pack {
	c := *p
	c.Dependencies = slices.Clone(p.Dependencies)
	c.OnSelect = maps.Clone(p.OnSelect)
	c.OnDeselect = maps.Clone(p.OnDeselect)
	c.InstallGroups = slices.Clone(p.InstallGroups)
	c.OsConstraints = slices.Clone(p.OsConstraints)
	return &c
}

// String returns the pack name.
func (p *Pack) String() string { return p.Name }
