package payload

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pelletier/go-toml/v2"

	"github.com/meigma/unpack/pack"
)

// Manifest describes a payload to build. It is usually read from a TOML
// file with LoadManifest.
//
//	compression = "zstd"
//
//	[[packs]]
//	name = "core"
//	required = true
//	dir = "dist/core"
//	target = "lib"
//	exclude = ["**/*.tmp"]
//	blockable = ["bin/*.dll"]
//
//	[[packs.executables]]
//	path = "$INSTALL_PATH/bin/setup.sh"
//	type = "shell"
type Manifest struct {
	Compression string `toml:"compression"`

	// Deduplicate defaults to true.
	Deduplicate *bool `toml:"deduplicate"`

	Packs []PackManifest `toml:"packs"`

	// BaseDir resolves relative pack directories. LoadManifest sets it to
	// the manifest's directory.
	BaseDir string `toml:"-"`
}

// PackManifest describes one pack and where its files come from.
type PackManifest struct {
	Name        string   `toml:"name"`
	ID          string   `toml:"id"`
	Description string   `toml:"description"`
	Required    bool     `toml:"required"`
	Preselected bool     `toml:"preselected"`
	Uninstall   bool     `toml:"uninstall"`
	Loose       bool     `toml:"loose"`
	Hidden      bool     `toml:"hidden"`
	Condition   string   `toml:"condition"`
	Depends     []string `toml:"depends"`
	OS          []OSSpec `toml:"os"`

	// Dir holds the pack's files. Target prefixes their install paths.
	Dir    string `toml:"dir"`
	Target string `toml:"target"`

	// Include and Exclude are doublestar globs over paths relative to Dir.
	// Include defaults to every file.
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`

	Override       string   `toml:"override"`
	RenameTo       string   `toml:"rename_to"`
	Blockable      []string `toml:"blockable"`
	ForceBlockable []string `toml:"force_blockable"`
	Pack200        []string `toml:"pack200"`

	Parsables    []ParsableSpec    `toml:"parsables"`
	Executables  []ExecutableSpec  `toml:"executables"`
	UpdateChecks []UpdateCheckSpec `toml:"update_checks"`
}

// OSSpec is the manifest form of pack.OsModel.
type OSSpec struct {
	Family  string `toml:"family"`
	Name    string `toml:"name"`
	Arch    string `toml:"arch"`
	Version string `toml:"version"`
}

// ParsableSpec is the manifest form of pack.ParsableFile.
type ParsableSpec struct {
	Path      string   `toml:"path"`
	Type      string   `toml:"type"`
	Encoding  string   `toml:"encoding"`
	Condition string   `toml:"condition"`
	OS        []OSSpec `toml:"os"`
}

// ExecutableSpec is the manifest form of pack.ExecutableFile.
type ExecutableSpec struct {
	Path      string   `toml:"path"`
	Type      string   `toml:"type"`
	Stage     string   `toml:"stage"`
	OnFailure string   `toml:"on_failure"`
	Args      []string `toml:"args"`
	Keep      bool     `toml:"keep"`
	Condition string   `toml:"condition"`
	OS        []OSSpec `toml:"os"`
}

// UpdateCheckSpec is the manifest form of pack.UpdateCheck.
type UpdateCheckSpec struct {
	Includes      []string `toml:"includes"`
	Excludes      []string `toml:"excludes"`
	CaseSensitive bool     `toml:"case_sensitive"`
}

// LoadManifest reads a TOML manifest. Unknown keys are rejected.
func LoadManifest(name string) (*Manifest, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m Manifest
	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", name, err)
	}
	m.BaseDir = filepath.Dir(name)
	return &m, nil
}

// NewBuilder walks the pack directories and returns a Builder holding every
// pack. Manifest settings apply first; opts override them.
func (m *Manifest) NewBuilder(opts ...Option) (*Builder, error) {
	base := []Option{WithCompression(m.Compression)}
	if m.Deduplicate != nil {
		base = append(base, WithDeduplication(*m.Deduplicate))
	}
	b := New(append(base, opts...)...)

	seen := make(map[string]bool, len(m.Packs))
	for i := range m.Packs {
		pm := &m.Packs[i]
		if pm.Name == "" {
			return nil, fmt.Errorf("manifest: pack %d has no name", i)
		}
		if seen[pm.Name] {
			return nil, fmt.Errorf("manifest: duplicate pack %q", pm.Name)
		}
		seen[pm.Name] = true

		dir := pm.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(m.BaseDir, dir)
		}
		info, err := pm.packInfo(b, dir)
		if err != nil {
			return nil, fmt.Errorf("manifest: pack %s: %w", pm.Name, err)
		}
		b.AddPack(info, dir)
	}
	return b, nil
}

func (pm *PackManifest) packInfo(b *Builder, dir string) (*pack.PackInfo, error) {
	p := pack.NewPack(pm.Name,
		pack.WithPackID(pm.ID),
		pack.WithDescription(pm.Description),
		pack.WithRequired(pm.Required),
		pack.WithPreselected(pm.Preselected),
		pack.WithUninstall(pm.Uninstall),
		pack.WithPackCondition(pm.Condition),
	)
	p.Hidden = pm.Hidden
	p.SetLoose(pm.Loose)
	p.SetOsConstraints(osModels(pm.OS))
	for _, d := range pm.Depends {
		p.AddDependency(d)
	}
	info := pack.NewPackInfo(p)

	override := pack.OverrideUpdate
	if pm.Override != "" {
		o, ok := pack.ParseOverride(pm.Override)
		if !ok {
			return nil, fmt.Errorf("unknown override policy %q", pm.Override)
		}
		override = o
	}
	includes := pm.Include
	if len(includes) == 0 {
		includes = []string{"**"}
	}
	for _, group := range [][]string{includes, pm.Exclude, pm.Blockable, pm.ForceBlockable, pm.Pack200} {
		for _, g := range group {
			if !doublestar.ValidatePattern(g) {
				return nil, fmt.Errorf("pattern %q: %w", g, doublestar.ErrBadPattern)
			}
		}
	}

	err := filepath.WalkDir(dir, func(full string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, full)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matchAny(pm.Exclude, rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			b.log().Warn("skipping symlink", "pack", pm.Name, "path", rel)
			return nil
		}
		if !d.IsDir() && !d.Type().IsRegular() {
			return nil
		}
		if !d.IsDir() && !matchAny(includes, rel) {
			return nil
		}

		fopts := []pack.FileOption{pack.WithOverride(override)}
		if pm.RenameTo != "" {
			fopts = append(fopts, pack.WithOverrideRenameTo(pm.RenameTo))
		}
		switch {
		case matchAny(pm.ForceBlockable, rel):
			fopts = append(fopts, pack.WithBlockable(pack.BlockableForce))
		case matchAny(pm.Blockable, rel):
			fopts = append(fopts, pack.WithBlockable(pack.BlockableAuto))
		}
		if !d.IsDir() && !pm.Loose && matchAny(pm.Pack200, rel) {
			fopts = append(fopts, pack.WithPack200(nil))
		}
		f, err := pack.NewFile(dir, filepath.FromSlash(rel), path.Join(pm.Target, rel), fopts...)
		if err != nil {
			return err
		}
		info.AddFile(f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, ps := range pm.Parsables {
		info.AddParsable(pack.ParsableFile{
			Path:          ps.Path,
			Type:          ps.Type,
			Encoding:      ps.Encoding,
			Condition:     ps.Condition,
			OsConstraints: osModels(ps.OS),
		})
	}
	for _, es := range pm.Executables {
		stage, ok := pack.ParseStage(es.Stage)
		if !ok {
			return nil, fmt.Errorf("executable %s: unknown stage %q", es.Path, es.Stage)
		}
		policy, ok := pack.ParseFailurePolicy(es.OnFailure)
		if !ok {
			return nil, fmt.Errorf("executable %s: unknown failure policy %q", es.Path, es.OnFailure)
		}
		info.AddExecutable(pack.ExecutableFile{
			Path:          es.Path,
			Type:          es.Type,
			Stage:         stage,
			OnFailure:     policy,
			Args:          es.Args,
			KeepFile:      es.Keep,
			Condition:     es.Condition,
			OsConstraints: osModels(es.OS),
		})
	}
	for _, uc := range pm.UpdateChecks {
		info.AddUpdateCheck(pack.UpdateCheck{
			Includes:      uc.Includes,
			Excludes:      uc.Excludes,
			CaseSensitive: uc.CaseSensitive,
		})
	}
	return info, nil
}

func osModels(specs []OSSpec) []pack.OsModel {
	if len(specs) == 0 {
		return nil
	}
	out := make([]pack.OsModel, len(specs))
	for i, s := range specs {
		out[i] = pack.OsModel{Family: s.Family, Name: s.Name, Arch: s.Arch, Version: s.Version}
	}
	return out
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
