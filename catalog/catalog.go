// Package catalog serializes the pack catalog to and from FlatBuffers.
//
// A catalog lists every pack with its files and post-install artifacts. It is
// stored as the source.CatalogResource resource next to the pack streams.
// Backreferences are stored as (pack index, file index) pairs and re-linked
// after all packs are decoded.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/meigma/unpack/internal/fb"
	"github.com/meigma/unpack/pack"
	"github.com/meigma/unpack/source"
)

// Version is the catalog format version written by Encode.
const Version = 1

var (
	// ErrInvalidCatalog is returned when a catalog buffer cannot be parsed.
	ErrInvalidCatalog = errors.New("catalog: invalid catalog")

	// ErrDanglingLink is returned when a backreference points to a file
	// that is not part of the catalog.
	ErrDanglingLink = errors.New("catalog: dangling backreference")
)

// Catalog is the decoded pack catalog.
type Catalog struct {
	// Version is the format version.
	Version uint32

	// Compression names the codec applied to every pack-stream entry.
	// Empty or "none" means entries are stored verbatim.
	Compression string

	// Packs lists the packs in installation order.
	Packs []*pack.PackInfo
}

// Pack returns the pack with the given name.
func (c *Catalog) Pack(name string) (*pack.PackInfo, bool) {
	for _, pi := range c.Packs {
		if pi.Pack().Name == name {
			return pi, true
		}
	}
	return nil, false
}

// Read loads the catalog resource from p.
func Read(ctx context.Context, p source.Provider) (*Catalog, error) {
	rc, err := p.InputStream(ctx, source.CatalogResource)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", source.Interrupted(ctx, err))
	}
	return Decode(data)
}

type fileRef struct {
	pack, file int
}

// Encode serializes c.
func Encode(c *Catalog) ([]byte, error) {
	refs := make(map[*pack.PackFile]fileRef)
	for pi, info := range c.Packs {
		for fi, f := range info.Files() {
			refs[f] = fileRef{pack: pi, file: fi}
		}
	}

	builder := flatbuffers.NewBuilder(4096)

	packOffsets := make([]flatbuffers.UOffsetT, len(c.Packs))
	for i := len(c.Packs) - 1; i >= 0; i-- {
		off, err := buildPack(builder, c.Packs[i], refs)
		if err != nil {
			return nil, err
		}
		packOffsets[i] = off
	}
	packsOffset := buildOffsetVector(builder, fb.CatalogStartPacksVector, packOffsets)
	compression := builder.CreateString(c.Compression)

	version := c.Version
	if version == 0 {
		version = Version
	}

	fb.CatalogStart(builder)
	fb.CatalogAddVersion(builder, version)
	fb.CatalogAddCompression(builder, compression)
	fb.CatalogAddPacks(builder, packsOffset)
	builder.Finish(fb.CatalogEnd(builder))
	return builder.FinishedBytes(), nil
}

func buildPack(b *flatbuffers.Builder, info *pack.PackInfo, refs map[*pack.PackFile]fileRef) (flatbuffers.UOffsetT, error) {
	p := info.Pack()

	files := info.Files()
	fileOffsets := make([]flatbuffers.UOffsetT, len(files))
	for i := len(files) - 1; i >= 0; i-- {
		off, err := buildFile(b, files[i], refs)
		if err != nil {
			return 0, fmt.Errorf("pack %s: %w", p.Name, err)
		}
		fileOffsets[i] = off
	}
	filesOffset := buildOffsetVector(b, fb.PackStartFilesVector, fileOffsets)

	parsables := info.Parsables()
	parsableOffsets := make([]flatbuffers.UOffsetT, len(parsables))
	for i := len(parsables) - 1; i >= 0; i-- {
		parsableOffsets[i] = buildParsable(b, parsables[i])
	}
	parsablesOffset := buildOffsetVector(b, fb.PackStartParsablesVector, parsableOffsets)

	executables := info.Executables()
	executableOffsets := make([]flatbuffers.UOffsetT, len(executables))
	for i := len(executables) - 1; i >= 0; i-- {
		executableOffsets[i] = buildExecutable(b, executables[i])
	}
	executablesOffset := buildOffsetVector(b, fb.PackStartExecutablesVector, executableOffsets)

	updates := info.UpdateChecks()
	updateOffsets := make([]flatbuffers.UOffsetT, len(updates))
	for i := len(updates) - 1; i >= 0; i-- {
		updateOffsets[i] = buildUpdateCheck(b, updates[i])
	}
	updatesOffset := buildOffsetVector(b, fb.PackStartUpdateChecksVector, updateOffsets)

	name := b.CreateString(p.Name)
	id := b.CreateString(p.ID)
	desc := b.CreateString(p.Description)
	excludeGroup := b.CreateString(p.ExcludeGroup)
	parent := b.CreateString(p.Parent)
	condition := b.CreateString(p.Condition)
	deps := buildStringVector(b, fb.PackStartDependenciesVector, p.Dependencies)
	groups := buildStringVector(b, fb.PackStartInstallGroupsVector, p.InstallGroups)
	onSelect := buildKeyValues(b, fb.PackStartOnSelectVector, p.OnSelect)
	onDeselect := buildKeyValues(b, fb.PackStartOnDeselectVector, p.OnDeselect)
	osOffset := buildOsModels(b, fb.PackStartOsVector, p.OsConstraints)

	fb.PackStart(b)
	fb.PackAddName(b, name)
	fb.PackAddId(b, id)
	fb.PackAddDescription(b, desc)
	fb.PackAddRequired(b, p.Required)
	fb.PackAddPreselected(b, p.Preselected)
	fb.PackAddLoose(b, p.Loose)
	fb.PackAddExcludeGroup(b, excludeGroup)
	fb.PackAddUninstall(b, p.Uninstall)
	fb.PackAddSize(b, p.Size)
	fb.PackAddDependencies(b, deps)
	fb.PackAddParent(b, parent)
	fb.PackAddOnSelect(b, onSelect)
	fb.PackAddOnDeselect(b, onDeselect)
	fb.PackAddInstallGroups(b, groups)
	fb.PackAddHidden(b, p.Hidden)
	fb.PackAddCondition(b, condition)
	fb.PackAddOs(b, osOffset)
	fb.PackAddFiles(b, filesOffset)
	fb.PackAddParsables(b, parsablesOffset)
	fb.PackAddExecutables(b, executablesOffset)
	fb.PackAddUpdateChecks(b, updatesOffset)
	return fb.PackEnd(b), nil
}

func buildFile(b *flatbuffers.Builder, f *pack.PackFile, refs map[*pack.PackFile]fileRef) (flatbuffers.UOffsetT, error) {
	s := f.Spec()

	linkedPack, linkedFile := int32(-1), int32(-1)
	if s.Linked != nil {
		ref, ok := refs[s.Linked]
		if !ok {
			return 0, fmt.Errorf("%s -> %s: %w", s.TargetPath, s.Linked.TargetPath(), ErrDanglingLink)
		}
		linkedPack, linkedFile = int32(ref.pack), int32(ref.file) //nolint:gosec // catalog sizes fit int32
	}

	sourcePath := b.CreateString(s.SourcePath)
	targetPath := b.CreateString(s.TargetPath)
	renameTo := b.CreateString(s.OverrideRenameTo)
	streamName := b.CreateString(s.StreamResourceName)
	condition := b.CreateString(s.Condition)
	osOffset := buildOsModels(b, fb.FileStartOsVector, s.OsConstraints)
	additionals := buildKeyValues(b, fb.FileStartAdditionalsVector, s.Additionals)
	props := buildKeyValues(b, fb.FileStartPack200PropertiesVector, s.Pack200Properties)

	fb.FileStart(b)
	fb.FileAddSourcePath(b, sourcePath)
	fb.FileAddTargetPath(b, targetPath)
	fb.FileAddOs(b, osOffset)
	fb.FileAddLength(b, s.Length)
	fb.FileAddSize(b, s.Size)
	fb.FileAddMtimeNs(b, unixNano(s.ModTime))
	fb.FileAddIsDirectory(b, s.IsDirectory)
	fb.FileAddOverride(b, byte(s.Override))
	fb.FileAddOverrideRenameTo(b, renameTo)
	fb.FileAddBlockable(b, byte(s.Blockable))
	fb.FileAddAdditionals(b, additionals)
	fb.FileAddStreamResourceName(b, streamName)
	fb.FileAddStreamOffset(b, s.StreamOffset)
	fb.FileAddLinkedPack(b, linkedPack)
	fb.FileAddLinkedFile(b, linkedFile)
	fb.FileAddPack200(b, s.Pack200)
	fb.FileAddPack200Properties(b, props)
	fb.FileAddCondition(b, condition)
	fb.FileAddLoose(b, s.LoosePack)
	fb.FileAddStored(b, s.Stored)
	return fb.FileEnd(b), nil
}

func buildParsable(b *flatbuffers.Builder, p pack.ParsableFile) flatbuffers.UOffsetT {
	path := b.CreateString(p.Path)
	typ := b.CreateString(p.Type)
	encoding := b.CreateString(p.Encoding)
	condition := b.CreateString(p.Condition)
	osOffset := buildOsModels(b, fb.ParsableStartOsVector, p.OsConstraints)

	fb.ParsableStart(b)
	fb.ParsableAddPath(b, path)
	fb.ParsableAddType(b, typ)
	fb.ParsableAddEncoding(b, encoding)
	fb.ParsableAddCondition(b, condition)
	fb.ParsableAddOs(b, osOffset)
	return fb.ParsableEnd(b)
}

func buildExecutable(b *flatbuffers.Builder, e pack.ExecutableFile) flatbuffers.UOffsetT {
	path := b.CreateString(e.Path)
	typ := b.CreateString(e.Type)
	args := buildStringVector(b, fb.ExecutableStartArgsVector, e.Args)
	condition := b.CreateString(e.Condition)
	osOffset := buildOsModels(b, fb.ExecutableStartOsVector, e.OsConstraints)

	fb.ExecutableStart(b)
	fb.ExecutableAddPath(b, path)
	fb.ExecutableAddType(b, typ)
	fb.ExecutableAddStage(b, byte(e.Stage))
	fb.ExecutableAddOnFailure(b, byte(e.OnFailure))
	fb.ExecutableAddArgs(b, args)
	fb.ExecutableAddKeep(b, e.KeepFile)
	fb.ExecutableAddCondition(b, condition)
	fb.ExecutableAddOs(b, osOffset)
	return fb.ExecutableEnd(b)
}

func buildUpdateCheck(b *flatbuffers.Builder, u pack.UpdateCheck) flatbuffers.UOffsetT {
	includes := buildStringVector(b, fb.UpdateCheckStartIncludesVector, u.Includes)
	excludes := buildStringVector(b, fb.UpdateCheckStartExcludesVector, u.Excludes)

	fb.UpdateCheckStart(b)
	fb.UpdateCheckAddIncludes(b, includes)
	fb.UpdateCheckAddExcludes(b, excludes)
	fb.UpdateCheckAddCaseSensitive(b, u.CaseSensitive)
	return fb.UpdateCheckEnd(b)
}

func buildOsModels(b *flatbuffers.Builder, start func(*flatbuffers.Builder, int) flatbuffers.UOffsetT, models []pack.OsModel) flatbuffers.UOffsetT {
	if len(models) == 0 {
		return 0
	}
	offsets := make([]flatbuffers.UOffsetT, len(models))
	for i := len(models) - 1; i >= 0; i-- {
		m := models[i]
		family := b.CreateString(m.Family)
		name := b.CreateString(m.Name)
		arch := b.CreateString(m.Arch)
		version := b.CreateString(m.Version)
		fb.OsModelStart(b)
		fb.OsModelAddFamily(b, family)
		fb.OsModelAddName(b, name)
		fb.OsModelAddArch(b, arch)
		fb.OsModelAddVersion(b, version)
		offsets[i] = fb.OsModelEnd(b)
	}
	return buildOffsetVector(b, start, offsets)
}

// buildKeyValues writes m sorted by key so identical catalogs encode
// identically.
func buildKeyValues(b *flatbuffers.Builder, start func(*flatbuffers.Builder, int) flatbuffers.UOffsetT, m map[string]string) flatbuffers.UOffsetT {
	if len(m) == 0 {
		return 0
	}
	keys := slices.Sorted(maps.Keys(m))
	offsets := make([]flatbuffers.UOffsetT, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		key := b.CreateString(keys[i])
		value := b.CreateString(m[keys[i]])
		fb.KeyValueStart(b)
		fb.KeyValueAddKey(b, key)
		fb.KeyValueAddValue(b, value)
		offsets[i] = fb.KeyValueEnd(b)
	}
	return buildOffsetVector(b, start, offsets)
}

func buildStringVector(b *flatbuffers.Builder, start func(*flatbuffers.Builder, int) flatbuffers.UOffsetT, values []string) flatbuffers.UOffsetT {
	if len(values) == 0 {
		return 0
	}
	offsets := make([]flatbuffers.UOffsetT, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		offsets[i] = b.CreateString(values[i])
	}
	return buildOffsetVector(b, start, offsets)
}

func buildOffsetVector(b *flatbuffers.Builder, start func(*flatbuffers.Builder, int) flatbuffers.UOffsetT, offsets []flatbuffers.UOffsetT) flatbuffers.UOffsetT {
	start(b, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		b.PrependUOffsetT(offsets[i])
	}
	return b.EndVector(len(offsets))
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
