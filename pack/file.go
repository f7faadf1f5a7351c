package pack

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

// nextFileID hands out process-local identifiers. They are never persisted.
var nextFileID atomic.Uint64

// PackFile describes one file or directory destined for the target system.
type PackFile struct {
	id                 uint64
	sourcePath         string
	targetPath         string
	osConstraints      []OsModel
	length             int64
	size               int64
	modTime            time.Time
	isDir              bool
	override           Override
	overrideRenameTo   string
	blockable          Blockable
	additionals        map[string]string
	streamResourceName string
	streamOffset       int64
	linked             *PackFile
	pack200            bool
	pack200Props       map[string]string
	condition          string
	loosePack          bool
	stored             bool
}

// FileSpec carries every persisted attribute of a PackFile.
// It is used to rebuild files from a serialized catalog.
type FileSpec struct {
	// SourcePath is the build-time path relative to the pack's base dir.
	// Loose packs also resolve their content through it at install time.
	SourcePath string

	// TargetPath is where the file is installed. It is normalized to forward
	// slashes without a trailing slash.
	TargetPath string

	OsConstraints []OsModel

	// Length is the number of bytes written to disk.
	Length int64

	// Size is the number of bytes the file occupies in the packed artifact.
	// It differs from Length when a compression format is in effect.
	Size int64

	ModTime     time.Time
	IsDirectory bool

	Override         Override
	OverrideRenameTo string
	Blockable        Blockable
	Additionals      map[string]string

	// StreamResourceName names the side-stream holding this file's content
	// (pack200 entries) or the stream that holds it at StreamOffset.
	StreamResourceName string
	StreamOffset       int64

	// Linked makes this file a backreference to another file's bytes.
	Linked *PackFile

	Pack200           bool
	Pack200Properties map[string]string

	Condition string
	LoosePack bool

	// Stored marks pack-stream bytes that bypass the catalog codec.
	Stored bool
}

// FileOption configures a PackFile created with NewFile.
type FileOption func(*PackFile)

// WithOverride sets the policy for existing targets.
func WithOverride(o Override) FileOption {
	return func(f *PackFile) {
		f.override = o
	}
}

// WithOverrideRenameTo sets the glob used to rename an existing target
// before it is replaced (for example "*.bak").
func WithOverrideRenameTo(pattern string) FileOption {
	return func(f *PackFile) {
		f.overrideRenameTo = pattern
	}
}

// WithBlockable sets the in-use classification.
func WithBlockable(b Blockable) FileOption {
	return func(f *PackFile) {
		f.blockable = b
	}
}

// WithFileOsConstraints restricts the file to the given platforms.
func WithFileOsConstraints(models ...OsModel) FileOption {
	return func(f *PackFile) {
		f.osConstraints = append([]OsModel(nil), models...)
	}
}

// WithAdditionals attaches free-form attributes.
func WithAdditionals(attrs map[string]string) FileOption {
	return func(f *PackFile) {
		f.additionals = maps.Clone(attrs)
	}
}

// WithFileCondition sets the rules identifier that gates installation.
func WithFileCondition(id string) FileOption {
	return func(f *PackFile) {
		f.condition = id
	}
}

// WithPack200 marks the file as a repackaged archive with its packing
// properties.
func WithPack200(props map[string]string) FileOption {
	return func(f *PackFile) {
		f.pack200 = true
		f.pack200Props = maps.Clone(props)
	}
}

// WithStream records the stream resource and offset holding the file bytes.
func WithStream(name string, offset int64) FileOption {
	return func(f *PackFile) {
		f.streamResourceName = name
		f.streamOffset = offset
	}
}

// WithStored keeps the file verbatim in the pack stream even when the
// catalog names a codec.
func WithStored(stored bool) FileOption {
	return func(f *PackFile) {
		f.stored = stored
	}
}

// WithPackedSize overrides the packed size (defaults to the length).
func WithPackedSize(n int64) FileOption {
	return func(f *PackFile) {
		f.size = n
	}
}

// NewFile creates a PackFile from a file on disk.
//
// The source must exist; a missing source returns an error wrapping
// fs.ErrNotExist. Length, size and modification time come from the source.
func NewFile(baseDir, sourcePath, targetPath string, opts ...FileOption) (*PackFile, error) {
	full := filepath.Join(baseDir, sourcePath)
	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("pack file %s: %w", full, err)
	}

	f := &PackFile{
		id:         nextFileID.Add(1),
		sourcePath: filepath.ToSlash(sourcePath),
		targetPath: NormalizeTarget(targetPath),
		modTime:    info.ModTime(),
		isDir:      info.IsDir(),
	}
	if !f.isDir {
		f.length = info.Size()
		f.size = info.Size()
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// NewFileFromSpec rebuilds a PackFile from persisted attributes.
// The file receives a fresh process-local ID.
func NewFileFromSpec(spec FileSpec) *PackFile {
	return &PackFile{
		id:                 nextFileID.Add(1),
		sourcePath:         spec.SourcePath,
		targetPath:         NormalizeTarget(spec.TargetPath),
		osConstraints:      append([]OsModel(nil), spec.OsConstraints...),
		length:             spec.Length,
		size:               spec.Size,
		modTime:            spec.ModTime,
		isDir:              spec.IsDirectory,
		override:           spec.Override,
		overrideRenameTo:   spec.OverrideRenameTo,
		blockable:          spec.Blockable,
		additionals:        maps.Clone(spec.Additionals),
		streamResourceName: spec.StreamResourceName,
		streamOffset:       spec.StreamOffset,
		linked:             spec.Linked,
		pack200:            spec.Pack200,
		pack200Props:       maps.Clone(spec.Pack200Properties),
		condition:          spec.Condition,
		loosePack:          spec.LoosePack,
		stored:             spec.Stored,
	}
}

// Spec returns the persisted attributes of the file.
func (f *PackFile) Spec() FileSpec {
	return FileSpec{
		SourcePath:         f.sourcePath,
		TargetPath:         f.targetPath,
		OsConstraints:      append([]OsModel(nil), f.osConstraints...),
		Length:             f.length,
		Size:               f.size,
		ModTime:            f.modTime,
		IsDirectory:        f.isDir,
		Override:           f.override,
		OverrideRenameTo:   f.overrideRenameTo,
		Blockable:          f.blockable,
		Additionals:        maps.Clone(f.additionals),
		StreamResourceName: f.streamResourceName,
		StreamOffset:       f.streamOffset,
		Linked:             f.linked,
		Pack200:            f.pack200,
		Pack200Properties:  maps.Clone(f.pack200Props),
		Condition:          f.condition,
		LoosePack:          f.loosePack,
		Stored:             f.stored,
	}
}

// NormalizeTarget converts separators to forward slashes and strips
// trailing slashes.
func NormalizeTarget(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" && p != "" {
		return "/"
	}
	return trimmed
}

// ID returns the process-local identifier. It is only meaningful within one
// run and must not be compared across runs.
func (f *PackFile) ID() uint64 { return f.id }

// SourcePath returns the build-time source path.
func (f *PackFile) SourcePath() string { return f.sourcePath }

// TargetPath returns the normalized installation path.
func (f *PackFile) TargetPath() string { return f.targetPath }

// OsConstraints returns the platforms the file applies to.
func (f *PackFile) OsConstraints() []OsModel { return f.osConstraints }

// Length returns the number of bytes written to disk. Directories always
// report zero.
func (f *PackFile) Length() int64 {
	if f.isDir {
		return 0
	}
	return f.length
}

// Size returns the number of bytes the file occupies in the packed artifact.
func (f *PackFile) Size() int64 { return f.size }

// ModTime returns the declared modification time.
func (f *PackFile) ModTime() time.Time { return f.modTime }

// IsDirectory reports whether the entry is a directory.
func (f *PackFile) IsDirectory() bool { return f.isDir }

// Override returns the policy for existing targets.
func (f *PackFile) Override() Override { return f.override }

// OverrideRenameTo returns the rename glob applied to existing targets.
func (f *PackFile) OverrideRenameTo() string { return f.overrideRenameTo }

// Blockable returns the in-use classification. Directories are never
// blockable.
func (f *PackFile) Blockable() Blockable {
	if f.isDir {
		return BlockableNone
	}
	return f.blockable
}

// Additionals returns the free-form attributes. The map must not be modified.
func (f *PackFile) Additionals() map[string]string { return f.additionals }

// StreamResourceName returns the side-stream name for this file's content.
func (f *PackFile) StreamResourceName() string { return f.streamResourceName }

// StreamOffset returns the offset of this file's bytes within its stream.
func (f *PackFile) StreamOffset() int64 { return f.streamOffset }

// LinkedFile returns the file whose bytes this entry reuses, or nil.
func (f *PackFile) LinkedFile() *PackFile { return f.linked }

// IsBackReference reports whether the content lives in another file's stream.
func (f *PackFile) IsBackReference() bool { return f.linked != nil }

// IsPack200 reports whether the file is a repackaged archive.
func (f *PackFile) IsPack200() bool { return f.pack200 }

// Pack200Properties returns the packing properties captured at build time.
func (f *PackFile) Pack200Properties() map[string]string { return f.pack200Props }

// Condition returns the rules identifier gating installation.
func (f *PackFile) Condition() string { return f.condition }

// IsLoosePack reports whether the file belongs to a loose pack.
func (f *PackFile) IsLoosePack() bool { return f.loosePack }

// IsStored reports whether the pack-stream bytes are verbatim regardless of
// the catalog codec.
func (f *PackFile) IsStored() bool { return f.stored }

// SetLoosePackInfo records loose-pack membership. It is only called while the
// catalog is built.
func (f *PackFile) SetLoosePackInfo(loose bool) { f.loosePack = loose }

// OccupiesPackStream reports whether the file's bytes are part of the
// concatenated pack stream. Skipping such a file must advance the stream by
// Size bytes.
func (f *PackFile) OccupiesPackStream() bool {
	return !f.loosePack && !f.pack200 && f.linked == nil
}

// String returns the target path.
func (f *PackFile) String() string { return f.targetPath }
