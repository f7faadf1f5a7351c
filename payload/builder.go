// Package payload builds installer payloads.
//
// A Builder reads the files of each pack from disk and writes the catalog,
// one content stream per pack and the side-streams of repackaged archives to
// a Sink. Identical file content is stored once; later copies become
// backreferences to the first.
package payload

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meigma/unpack/catalog"
	"github.com/meigma/unpack/codec"
	"github.com/meigma/unpack/codec/repack"
	"github.com/meigma/unpack/internal/copyio"
	"github.com/meigma/unpack/internal/platform"
	"github.com/meigma/unpack/pack"
	"github.com/meigma/unpack/source"
)

// Sink receives the named resources of a payload.
type Sink interface {
	Create(ctx context.Context, name string) (io.WriteCloser, error)
}

// Builder assembles a payload.
type Builder struct {
	compression string
	skip        codec.SkipFunc
	dedupe      bool
	logger      *slog.Logger
	packs       []packSource
}

type packSource struct {
	info    *pack.PackInfo
	baseDir string
}

// Option configures a Builder.
type Option func(*Builder)

// WithCompression sets the codec applied to pack-stream entries.
// The default stores entries verbatim.
func WithCompression(name string) Option {
	return func(b *Builder) {
		b.compression = name
	}
}

// WithSkip sets which files are stored verbatim despite the codec.
// The default is codec.DefaultSkip(512).
func WithSkip(fn codec.SkipFunc) Option {
	return func(b *Builder) {
		b.skip = fn
	}
}

// WithDeduplication enables or disables backreferences for identical
// content. Enabled by default.
func WithDeduplication(enabled bool) Option {
	return func(b *Builder) {
		b.dedupe = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// New creates an empty Builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		compression: codec.None,
		skip:        codec.DefaultSkip(512),
		dedupe:      true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) log() *slog.Logger {
	if b.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.logger
}

// AddPack adds a pack whose file source paths are relative to baseDir.
// Packs are installed in the order they are added.
func (b *Builder) AddPack(info *pack.PackInfo, baseDir string) {
	b.packs = append(b.packs, packSource{info: info, baseDir: baseDir})
}

type contentKey struct {
	sum     [sha256.Size]byte
	length  int64
	pack200 bool
}

// build holds the state of one Build call.
type build struct {
	sink       Sink
	codec      codec.Codec
	compressed bool
	seen       map[contentKey]*pack.PackFile
	files      map[*pack.PackFile]*pack.PackFile
}

// Build writes the payload to sink and returns the catalog it wrote.
func (b *Builder) Build(ctx context.Context, sink Sink) (*catalog.Catalog, error) {
	st := &build{
		sink:  sink,
		seen:  make(map[contentKey]*pack.PackFile),
		files: make(map[*pack.PackFile]*pack.PackFile),
	}
	name := b.compression
	if codec.IsNone(name) {
		name = codec.None
	} else {
		cd, err := codec.Lookup(name)
		if err != nil {
			return nil, err
		}
		if !cd.CanEncode() {
			return nil, fmt.Errorf("payload: %s: %w", cd.Name, codec.ErrDecodeOnly)
		}
		st.codec, st.compressed = cd, true
		name = cd.Name
	}

	out := &catalog.Catalog{Compression: name}
	for _, ps := range b.packs {
		info, err := b.buildPack(ctx, st, ps)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", ps.info.Pack().Name, err)
		}
		out.Packs = append(out.Packs, info)
	}

	data, err := catalog.Encode(out)
	if err != nil {
		return nil, err
	}
	if err := writeResource(ctx, sink, source.CatalogResource, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return nil, err
	}
	out.Version = catalog.Version
	b.log().Info("payload built", "packs", len(out.Packs), "compression", name, "catalog_bytes", len(data))
	return out, nil
}

func (b *Builder) buildPack(ctx context.Context, st *build, ps packSource) (*pack.PackInfo, error) {
	p := ps.info.Pack().Clone()
	out := pack.NewPackInfo(p)

	root, err := os.OpenRoot(ps.baseDir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	var stream *packStream
	defer func() {
		if stream != nil {
			discard(stream.w)
		}
	}()

	for i, f := range ps.info.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		spec := f.Spec()
		if f.IsBackReference() {
			linked, ok := st.files[f.LinkedFile()]
			if !ok {
				return nil, fmt.Errorf("%s: %w", f.TargetPath(), catalog.ErrDanglingLink)
			}
			spec = linkTo(spec, linked)
			nf := pack.NewFileFromSpec(spec)
			st.files[f] = nf
			out.AddFile(nf)
			continue
		}

		var (
			key    contentKey
			hashed bool
		)
		switch {
		case f.IsDirectory():
			spec.Size, spec.Length = 0, 0

		case p.Loose:
			if err := b.copyLoose(ctx, st, root, f); err != nil {
				return nil, err
			}
			spec.Size = f.Length()

		default:
			if key, err = b.contentKey(root, f); err != nil {
				return nil, err
			}
			hashed = true
			if linked, ok := st.seen[key]; ok && b.dedupe {
				b.log().Debug("deduplicated file", "path", f.TargetPath(), "linked", linked.TargetPath())
				spec = linkTo(spec, linked)
				break
			}
			if f.IsPack200() {
				resource := fmt.Sprintf("%s-%d.pack", p.Name, i)
				n, err := b.writePack200(ctx, st, root, f, resource)
				if err != nil {
					return nil, err
				}
				spec.StreamResourceName, spec.StreamOffset, spec.Size = resource, 0, n
				break
			}
			if stream == nil {
				if stream, err = openPackStream(ctx, st.sink, p.Name); err != nil {
					return nil, err
				}
			}
			stored := !st.compressed || b.skip(f.SourcePath(), f.Length())
			offset, n, err := stream.add(ctx, root, f, st.codec, stored)
			if err != nil {
				return nil, err
			}
			spec.StreamResourceName = "pack-" + p.Name
			spec.StreamOffset, spec.Size = offset, n
			spec.Stored = st.compressed && stored
		}

		nf := pack.NewFileFromSpec(spec)
		st.files[f] = nf
		if hashed && !nf.IsBackReference() {
			st.seen[key] = nf
		}
		out.AddFile(nf)
	}

	if stream != nil {
		err := stream.close()
		stream = nil
		if err != nil {
			return nil, err
		}
	}

	for _, pf := range ps.info.Parsables() {
		out.AddParsable(pf)
	}
	for _, ef := range ps.info.Executables() {
		out.AddExecutable(ef)
	}
	for _, uc := range ps.info.UpdateChecks() {
		out.AddUpdateCheck(uc)
	}
	b.log().Info("pack built", "pack", p.Name, "files", len(out.Files()))
	return out, nil
}

// linkTo turns spec into a backreference to linked.
func linkTo(spec pack.FileSpec, linked *pack.PackFile) pack.FileSpec {
	spec.Linked = linked
	spec.Size = linked.Size()
	spec.Length = linked.Length()
	spec.StreamResourceName = ""
	spec.StreamOffset = 0
	spec.Stored = false
	spec.Pack200 = false
	spec.Pack200Properties = nil
	return spec
}

func (b *Builder) contentKey(root *os.Root, f *pack.PackFile) (contentKey, error) {
	file, err := platform.OpenFileNoFollow(root, filepath.FromSlash(f.SourcePath()))
	if err != nil {
		return contentKey{}, err
	}
	defer file.Close()
	h := sha256.New()
	n, err := io.Copy(h, file)
	if err != nil {
		return contentKey{}, fmt.Errorf("hash %s: %w", f.SourcePath(), err)
	}
	key := contentKey{length: n, pack200: f.IsPack200()}
	copy(key.sum[:], h.Sum(nil))
	return key, nil
}

func (b *Builder) copyLoose(ctx context.Context, st *build, root *os.Root, f *pack.PackFile) error {
	file, err := platform.OpenFileNoFollow(root, filepath.FromSlash(f.SourcePath()))
	if err != nil {
		return err
	}
	defer file.Close()
	return writeResource(ctx, st.sink, f.SourcePath(), func(w io.Writer) error {
		n, err := copyio.Copy(ctx, w, file)
		if err != nil {
			return err
		}
		if n != f.Length() {
			return fmt.Errorf("payload: %s changed during build", f.SourcePath())
		}
		return nil
	})
}

func (b *Builder) writePack200(ctx context.Context, st *build, root *os.Root, f *pack.PackFile, resource string) (int64, error) {
	file, err := platform.OpenFileNoFollow(root, filepath.FromSlash(f.SourcePath()))
	if err != nil {
		return 0, err
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return 0, err
	}
	var n int64
	err = writeResource(ctx, st.sink, source.SideStreamName(resource), func(w io.Writer) error {
		cw := &copyio.CountingWriter{W: w}
		if err := repack.Pack(ctx, file, info.Size(), cw); err != nil {
			return err
		}
		n = cw.N
		return nil
	})
	return n, err
}

func writeResource(ctx context.Context, sink Sink, name string, fill func(w io.Writer) error) error {
	w, err := sink.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := fill(w); err != nil {
		discard(w)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}

// packStream appends entries to one pack's content stream.
type packStream struct {
	w  io.WriteCloser
	cw *copyio.CountingWriter
}

func openPackStream(ctx context.Context, sink Sink, packName string) (*packStream, error) {
	name := source.PackStreamName(packName)
	w, err := sink.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return &packStream{w: w, cw: &copyio.CountingWriter{W: w}}, nil
}

// add appends f and returns its offset and packed size.
func (s *packStream) add(ctx context.Context, root *os.Root, f *pack.PackFile, cd codec.Codec, stored bool) (offset, size int64, err error) {
	file, err := platform.OpenFileNoFollow(root, filepath.FromSlash(f.SourcePath()))
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	offset = s.cw.N
	var n int64
	if stored {
		n, err = copyio.Copy(ctx, s.cw, file)
	} else {
		var enc io.WriteCloser
		if enc, err = cd.NewWriter(s.cw); err != nil {
			return 0, 0, err
		}
		n, err = copyio.Copy(ctx, enc, file)
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return 0, 0, fmt.Errorf("write %s: %w", f.SourcePath(), err)
	}
	if n != f.Length() {
		return 0, 0, fmt.Errorf("payload: %s changed during build", f.SourcePath())
	}
	return offset, s.cw.N - offset, nil
}

func (s *packStream) close() error {
	return s.w.Close()
}
