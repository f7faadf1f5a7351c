package unpack

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/meigma/unpack/codec"
	"github.com/meigma/unpack/codec/repack"
	"github.com/meigma/unpack/internal/copyio"
	"github.com/meigma/unpack/pack"
)

// FileUnpacker writes the content of one file.
//
// src is positioned at the start of the file's content. target is
// slash-separated and relative to the install path. Implementations write the
// final content, apply the declared modification time and report whether the
// write was deferred to the queue.
type FileUnpacker interface {
	Unpack(ctx context.Context, f *pack.PackFile, src io.Reader, target string) (queued bool, err error)
}

// contentOf returns the file whose stored bytes hold f's content.
func contentOf(f *pack.PackFile) *pack.PackFile {
	if f.IsBackReference() {
		return f.LinkedFile()
	}
	return f
}

// loosePath returns the resource name of a loose file.
func loosePath(f *pack.PackFile) string {
	if f.SourcePath() != "" {
		return f.SourcePath()
	}
	return f.TargetPath()
}

// defaultUnpacker copies stored bytes verbatim.
type defaultUnpacker struct {
	c *copier
}

func (d *defaultUnpacker) Unpack(ctx context.Context, f *pack.PackFile, src io.Reader, target string) (bool, error) {
	want := contentOf(f).Size()
	return d.c.write(ctx, f, target, func(w io.Writer) error {
		n, err := copyio.CopyN(ctx, w, src, want)
		if err != nil {
			return fmt.Errorf("copy %s: %w", target, err)
		}
		if n != want {
			return accountingError("copy", target, n, want)
		}
		return nil
	})
}

// compressedUnpacker stages the packed bytes in a private temporary file and
// decodes them into the target.
type compressedUnpacker struct {
	c       *copier
	codec   codec.Codec
	tempDir string
}

func (cu *compressedUnpacker) Unpack(ctx context.Context, f *pack.PackFile, src io.Reader, target string) (bool, error) {
	content := contentOf(f)

	packed, err := os.CreateTemp(cu.tempDir, "unpack-packed-*")
	if err != nil {
		return false, &InstallerError{Severity: SeverityError, Op: "create temp file", Path: target, Err: err}
	}
	defer func() {
		_ = packed.Close()           //nolint:errcheck // best-effort cleanup
		_ = os.Remove(packed.Name()) //nolint:errcheck // best-effort cleanup
	}()

	n, err := copyio.CopyN(ctx, packed, src, content.Size())
	if err != nil {
		return false, fmt.Errorf("copy packed %s: %w", target, err)
	}
	if n != content.Size() {
		return false, accountingError("read packed", target, n, content.Size())
	}
	if _, err := packed.Seek(0, io.SeekStart); err != nil {
		return false, fmt.Errorf("rewind packed %s: %w", target, err)
	}

	return cu.c.write(ctx, f, target, func(w io.Writer) error {
		dec, err := cu.codec.NewReader(bufio.NewReaderSize(packed, copyio.ChunkSize))
		if err != nil {
			return fmt.Errorf("%s decoder for %s: %w", cu.codec.Name, target, err)
		}
		defer dec.Close()

		want := content.Length()
		n, err := copyio.CopyN(ctx, w, dec, want)
		if err != nil {
			return fmt.Errorf("decode %s: %w", target, err)
		}
		if n != want {
			return accountingError("decode", target, n, want)
		}
		trailing, err := copyio.HasTrailingData(dec)
		if err != nil {
			return fmt.Errorf("decode %s: %w", target, err)
		}
		if trailing {
			return fmt.Errorf("%w: decode %s: more than %d bytes", ErrStreamAccounting, target, want)
		}
		return nil
	})
}

// repackUnpacker rebuilds an archive from its packed side-stream.
type repackUnpacker struct {
	c      *copier
	logger *slog.Logger
}

func (ru *repackUnpacker) Unpack(ctx context.Context, f *pack.PackFile, src io.Reader, target string) (bool, error) {
	props := f.Pack200Properties()
	if len(props) == 0 {
		props = contentOf(f).Pack200Properties()
	}
	var opts []repack.Option
	if ru.logger != nil {
		opts = append(opts, repack.WithLogger(ru.logger))
	}
	up := repack.NewUnpacker(props, opts...)
	return ru.c.write(ctx, f, target, func(w io.Writer) error {
		if err := up.Unpack(ctx, src, w); err != nil {
			return fmt.Errorf("repack %s: %w", target, err)
		}
		return nil
	})
}

// looseUnpacker copies a file stored outside the pack streams.
type looseUnpacker struct {
	c *copier
}

func (lu *looseUnpacker) Unpack(ctx context.Context, f *pack.PackFile, src io.Reader, target string) (bool, error) {
	return lu.c.write(ctx, f, target, func(w io.Writer) error {
		if _, err := copyio.Copy(ctx, w, src); err != nil {
			return fmt.Errorf("copy loose %s: %w", target, err)
		}
		return nil
	})
}
