// Package repack rebuilds zip archives from their packed side-stream form.
//
// A packed archive is an lz4 frame holding a tar stream: one global header
// carrying archive-wide records, then one entry per zip member in the
// original order. Unpack writes a new zip whose member contents equal the
// original ones; the compressed bytes are regenerated and may differ.
package repack

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/pierrec/lz4/v4"

	"github.com/meigma/unpack/internal/copyio"
)

// Property names understood by Unpacker.
const (
	// PropDeflateHint forces every member to be deflated ("true") or stored
	// ("false"). Any other value keeps each member's original method.
	PropDeflateHint = "pack.deflate.hint"

	// PropModificationTime set to "latest" stamps every member with the
	// newest modification time in the archive. "keep" preserves each one.
	PropModificationTime = "pack.modification.time"
)

const (
	recordMethod = "UNPACK.method"
	recordLatest = "UNPACK.latest"
	recordCount  = "UNPACK.count"

	methodDeflate = "deflate"
	methodStore   = "store"
)

// ErrInvalidStream is returned when a side-stream is not a packed archive.
var ErrInvalidStream = errors.New("repack: invalid packed stream")

// Unpacker rebuilds archives with a fixed set of properties.
type Unpacker struct {
	props  map[string]string
	logger *slog.Logger
}

// Option configures an Unpacker.
type Option func(*Unpacker)

// WithLogger sets the logger for repack diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Unpacker) {
		u.logger = logger
	}
}

// NewUnpacker returns an Unpacker applying props, the packing properties
// captured when the archive was packed.
func NewUnpacker(props map[string]string, opts ...Option) *Unpacker {
	u := &Unpacker{props: props}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Unpacker) log() *slog.Logger {
	if u.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return u.logger
}

// Unpack reads a packed archive from src and writes the rebuilt zip to dst.
// ctx is checked between members and once per copied chunk.
func (u *Unpacker) Unpack(ctx context.Context, src io.Reader, dst io.Writer) error {
	tr := tar.NewReader(lz4.NewReader(src))

	global, err := tr.Next()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStream, err)
	}
	if global.Typeflag != tar.TypeXGlobalHeader {
		return fmt.Errorf("%w: missing archive header", ErrInvalidStream)
	}

	var latest time.Time
	if ns, err := strconv.ParseInt(global.PAXRecords[recordLatest], 10, 64); err == nil && ns != 0 {
		latest = time.Unix(0, ns)
	}
	useLatest := strings.EqualFold(u.props[PropModificationTime], "latest") && !latest.IsZero()
	hint := strings.ToLower(u.props[PropDeflateHint])

	zw := zip.NewWriter(dst)
	members := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidStream, err)
		}

		fh := &zip.FileHeader{
			Name:     hdr.Name,
			Modified: hdr.ModTime,
			Method:   zip.Store,
		}
		if useLatest {
			fh.Modified = latest
		}
		switch {
		case hdr.Typeflag == tar.TypeDir:
			if !strings.HasSuffix(fh.Name, "/") {
				fh.Name += "/"
			}
		case hint == "true":
			fh.Method = zip.Deflate
		case hint == "false":
		case hdr.PAXRecords[recordMethod] == methodDeflate:
			fh.Method = zip.Deflate
		}
		fh.SetMode(hdr.FileInfo().Mode())

		w, err := zw.CreateHeader(fh)
		if err != nil {
			return fmt.Errorf("repack: create %s: %w", fh.Name, err)
		}
		if hdr.Typeflag != tar.TypeDir {
			n, err := copyio.Copy(ctx, w, tr)
			if err != nil {
				return err
			}
			if n != hdr.Size {
				return fmt.Errorf("%w: %s: got %d bytes, want %d", ErrInvalidStream, hdr.Name, n, hdr.Size)
			}
		}
		members++
	}

	if want, err := strconv.Atoi(global.PAXRecords[recordCount]); err == nil && want != members {
		return fmt.Errorf("%w: got %d members, want %d", ErrInvalidStream, members, want)
	}
	u.log().Debug("rebuilt archive", "members", members, "deflate_hint", hint, "latest", useLatest)
	return zw.Close()
}

// Pack converts the zip archive in src into its packed form.
func Pack(ctx context.Context, src io.ReaderAt, size int64, dst io.Writer) error {
	zr, err := zip.NewReader(src, size)
	if err != nil {
		return fmt.Errorf("repack: open archive: %w", err)
	}

	var latest time.Time
	for _, f := range zr.File {
		if f.Modified.After(latest) {
			latest = f.Modified
		}
	}

	lw := lz4.NewWriter(dst)
	tw := tar.NewWriter(lw)

	records := map[string]string{recordCount: strconv.Itoa(len(zr.File))}
	if !latest.IsZero() {
		records[recordLatest] = strconv.FormatInt(latest.UnixNano(), 10)
	}
	if err := tw.WriteHeader(&tar.Header{
		Typeflag:   tar.TypeXGlobalHeader,
		PAXRecords: records,
		Format:     tar.FormatPAX,
	}); err != nil {
		return fmt.Errorf("repack: %w", err)
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := packMember(ctx, tw, f); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("repack: %w", err)
	}
	return lw.Close()
}

func packMember(ctx context.Context, tw *tar.Writer, f *zip.File) error {
	method := methodStore
	if f.Method == zip.Deflate {
		method = methodDeflate
	}
	hdr := &tar.Header{
		Name:       f.Name,
		ModTime:    f.Modified,
		Mode:       int64(f.Mode().Perm()),
		Typeflag:   tar.TypeReg,
		Size:       int64(f.UncompressedSize64), //nolint:gosec // archive members fit int64
		PAXRecords: map[string]string{recordMethod: method},
		Format:     tar.FormatPAX,
	}
	if hdr.ModTime.IsZero() {
		hdr.ModTime = time.Unix(0, 0)
	}
	if f.FileInfo().IsDir() {
		hdr.Typeflag = tar.TypeDir
		hdr.Size = 0
		if hdr.Mode == 0 {
			hdr.Mode = 0o755
		}
	} else if hdr.Mode == 0 {
		hdr.Mode = 0o644
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("repack: %s: %w", f.Name, err)
	}
	if hdr.Typeflag == tar.TypeDir {
		return nil
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("repack: open %s: %w", f.Name, err)
	}
	defer rc.Close()
	if _, err := copyio.Copy(ctx, tw, rc); err != nil {
		return fmt.Errorf("repack: copy %s: %w", f.Name, err)
	}
	return nil
}
