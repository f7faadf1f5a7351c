// Package codec drives the stream compression formats a catalog can name.
//
// Codecs are looked up by name. Every codec decodes; all but bzip2 can also
// encode, which the payload builder uses.
package codec

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/pierrec/lz4/v4"
)

// None is the name of the identity format.
const None = "none"

var (
	// ErrUnknownCodec is returned by Lookup for unregistered names.
	ErrUnknownCodec = errors.New("codec: unknown codec")

	// ErrDecodeOnly is returned by Codec.NewWriter for codecs without an
	// encoder.
	ErrDecodeOnly = errors.New("codec: codec cannot encode")
)

// Codec is a named stream compression format.
type Codec struct {
	Name string

	newReader func(r io.Reader) (io.ReadCloser, error)
	newWriter func(w io.Writer) (io.WriteCloser, error)
}

// NewReader returns a decoding reader over r. Closing it does not close r.
func (c Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return c.newReader(r)
}

// NewWriter returns an encoding writer over w. Close flushes the encoder
// and does not close w.
func (c Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	if c.newWriter == nil {
		return nil, fmt.Errorf("%s: %w", c.Name, ErrDecodeOnly)
	}
	return c.newWriter(w)
}

// CanEncode reports whether NewWriter is supported.
func (c Codec) CanEncode() bool {
	return c.newWriter != nil
}

var registry = map[string]Codec{
	"zstd": {
		Name:      "zstd",
		newReader: newZstdReader,
		newWriter: newZstdWriter,
	},
	"gzip": {
		Name: "gzip",
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		},
	},
	"deflate": {
		Name: "deflate",
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return flate.NewReader(r), nil
		},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, flate.DefaultCompression)
		},
	},
	"s2": {
		Name: "s2",
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(s2.NewReader(r)), nil
		},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return s2.NewWriter(w), nil
		},
	},
	"snappy": {
		Name: "snappy",
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(snappy.NewReader(r)), nil
		},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return snappy.NewBufferedWriter(w), nil
		},
	},
	"lz4": {
		Name: "lz4",
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(lz4.NewReader(r)), nil
		},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return lz4.NewWriter(w), nil
		},
	},
	"bzip2": {
		Name: "bzip2",
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(bzip2.NewReader(r)), nil
		},
	},
}

// IsNone reports whether name selects verbatim storage.
func IsNone(name string) bool {
	return name == "" || strings.EqualFold(name, None)
}

// Lookup returns the codec registered under name (case-insensitive).
func Lookup(name string) (Codec, error) {
	c, ok := registry[strings.ToLower(name)]
	if !ok {
		return Codec{}, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	return c, nil
}

// Names returns the registered codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
