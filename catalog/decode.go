package catalog

import (
	"fmt"

	"github.com/meigma/unpack/internal/fb"
	"github.com/meigma/unpack/pack"
)

type pendingFile struct {
	spec       pack.FileSpec
	linkedPack int32
	linkedFile int32
	file       *pack.PackFile
	resolving  bool
}

// Decode parses a catalog produced by Encode.
//
// Malformed buffers return an error wrapping ErrInvalidCatalog. Files receive
// fresh process-local IDs.
func Decode(data []byte) (c *Catalog, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = fmt.Errorf("%w: %v", ErrInvalidCatalog, r)
		}
	}()
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: buffer too short", ErrInvalidCatalog)
	}

	root := fb.GetRootAsCatalog(data, 0)
	c = &Catalog{
		Version:     root.Version(),
		Compression: string(root.Compression()),
	}
	if c.Version > Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidCatalog, c.Version)
	}

	pending := make([][]*pendingFile, root.PacksLength())
	infos := make([]*pack.PackInfo, root.PacksLength())

	var fbPack fb.Pack
	for i := range root.PacksLength() {
		if !root.Packs(&fbPack, i) {
			return nil, fmt.Errorf("%w: pack %d", ErrInvalidCatalog, i)
		}
		infos[i] = decodePackInfo(&fbPack)

		var fbFile fb.File
		pending[i] = make([]*pendingFile, fbPack.FilesLength())
		for j := range fbPack.FilesLength() {
			if !fbPack.Files(&fbFile, j) {
				return nil, fmt.Errorf("%w: pack %d file %d", ErrInvalidCatalog, i, j)
			}
			pending[i][j] = &pendingFile{
				spec:       decodeFileSpec(&fbFile),
				linkedPack: fbFile.LinkedPack(),
				linkedFile: fbFile.LinkedFile(),
			}
		}
	}

	for i, files := range pending {
		for _, pf := range files {
			f, err := resolve(pending, pf)
			if err != nil {
				return nil, err
			}
			infos[i].AddFile(f)
		}
	}

	c.Packs = infos
	return c, nil
}

// resolve creates the PackFile for pf after its link target.
func resolve(pending [][]*pendingFile, pf *pendingFile) (*pack.PackFile, error) {
	if pf.file != nil {
		return pf.file, nil
	}
	if pf.linkedPack >= 0 || pf.linkedFile >= 0 {
		if pf.resolving {
			return nil, fmt.Errorf("%w: cycle at %s", ErrInvalidCatalog, pf.spec.TargetPath)
		}
		pi, fi := int(pf.linkedPack), int(pf.linkedFile)
		if pi < 0 || pi >= len(pending) || fi < 0 || fi >= len(pending[pi]) {
			return nil, fmt.Errorf("%s -> (%d, %d): %w", pf.spec.TargetPath, pi, fi, ErrDanglingLink)
		}
		pf.resolving = true
		linked, err := resolve(pending, pending[pi][fi])
		pf.resolving = false
		if err != nil {
			return nil, err
		}
		pf.spec.Linked = linked
	}
	pf.file = pack.NewFileFromSpec(pf.spec)
	return pf.file, nil
}

func decodePackInfo(p *fb.Pack) *pack.PackInfo {
	pk := &pack.Pack{
		Name:          string(p.Name()),
		ID:            string(p.Id()),
		Description:   string(p.Description()),
		Required:      p.Required(),
		Preselected:   p.Preselected(),
		Loose:         p.Loose(),
		ExcludeGroup:  string(p.ExcludeGroup()),
		Uninstall:     p.Uninstall(),
		Size:          p.Size(),
		Dependencies:  stringVector(p.DependenciesLength(), p.Dependencies),
		Parent:        string(p.Parent()),
		OnSelect:      keyValues(p.OnSelectLength(), p.OnSelect),
		OnDeselect:    keyValues(p.OnDeselectLength(), p.OnDeselect),
		InstallGroups: stringVector(p.InstallGroupsLength(), p.InstallGroups),
		Hidden:        p.Hidden(),
		Condition:     string(p.Condition()),
		OsConstraints: osModels(p.OsLength(), p.Os),
	}
	info := pack.NewPackInfo(pk)

	var fp fb.Parsable
	for i := range p.ParsablesLength() {
		if p.Parsables(&fp, i) {
			info.AddParsable(pack.ParsableFile{
				Path:          string(fp.Path()),
				Type:          string(fp.Type()),
				Encoding:      string(fp.Encoding()),
				Condition:     string(fp.Condition()),
				OsConstraints: osModels(fp.OsLength(), fp.Os),
			})
		}
	}

	var fe fb.Executable
	for i := range p.ExecutablesLength() {
		if p.Executables(&fe, i) {
			info.AddExecutable(pack.ExecutableFile{
				Path:          string(fe.Path()),
				Type:          string(fe.Type()),
				Stage:         pack.ExecutionStage(fe.Stage()),
				OnFailure:     pack.FailurePolicy(fe.OnFailure()),
				Args:          stringVector(fe.ArgsLength(), fe.Args),
				KeepFile:      fe.Keep(),
				Condition:     string(fe.Condition()),
				OsConstraints: osModels(fe.OsLength(), fe.Os),
			})
		}
	}

	var fu fb.UpdateCheck
	for i := range p.UpdateChecksLength() {
		if p.UpdateChecks(&fu, i) {
			info.AddUpdateCheck(pack.UpdateCheck{
				Includes:      stringVector(fu.IncludesLength(), fu.Includes),
				Excludes:      stringVector(fu.ExcludesLength(), fu.Excludes),
				CaseSensitive: fu.CaseSensitive(),
			})
		}
	}
	return info
}

func decodeFileSpec(f *fb.File) pack.FileSpec {
	return pack.FileSpec{
		SourcePath:         string(f.SourcePath()),
		TargetPath:         string(f.TargetPath()),
		OsConstraints:      osModels(f.OsLength(), f.Os),
		Length:             f.Length(),
		Size:               f.Size(),
		ModTime:            fromUnixNano(f.MtimeNs()),
		IsDirectory:        f.IsDirectory(),
		Override:           pack.Override(f.Override()),
		OverrideRenameTo:   string(f.OverrideRenameTo()),
		Blockable:          pack.Blockable(f.Blockable()),
		Additionals:        keyValues(f.AdditionalsLength(), f.Additionals),
		StreamResourceName: string(f.StreamResourceName()),
		StreamOffset:       f.StreamOffset(),
		Pack200:            f.Pack200(),
		Pack200Properties:  keyValues(f.Pack200PropertiesLength(), f.Pack200Properties),
		Condition:          string(f.Condition()),
		LoosePack:          f.Loose(),
		Stored:             f.Stored(),
	}
}

func stringVector(n int, at func(int) []byte) []string {
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range n {
		out[i] = string(at(i))
	}
	return out
}

func keyValues(n int, at func(*fb.KeyValue, int) bool) map[string]string {
	if n == 0 {
		return nil
	}
	out := make(map[string]string, n)
	var kv fb.KeyValue
	for i := range n {
		if at(&kv, i) {
			out[string(kv.Key())] = string(kv.Value())
		}
	}
	return out
}

func osModels(n int, at func(*fb.OsModel, int) bool) []pack.OsModel {
	if n == 0 {
		return nil
	}
	out := make([]pack.OsModel, 0, n)
	var m fb.OsModel
	for i := range n {
		if at(&m, i) {
			out = append(out, pack.OsModel{
				Family:  string(m.Family()),
				Name:    string(m.Name()),
				Arch:    string(m.Arch()),
				Version: string(m.Version()),
			})
		}
	}
	return out
}
