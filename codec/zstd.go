package codec

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// maxDecoderMemory bounds the window a catalog entry may ask for.
const maxDecoderMemory = 256 << 20

var decoders = &decoderPool{maxMemory: maxDecoderMemory}

// decoderPool reuses zstd decoders across files. Installing a pack decodes
// one entry after another, so a decoder is rarely needed concurrently.
type decoderPool struct {
	pool      sync.Pool
	maxMemory uint64
}

// get returns a decoder reading from r and its release function.
func (p *decoderPool) get(r io.Reader) (*zstd.Decoder, func(), error) {
	if dec, ok := p.pool.Get().(*zstd.Decoder); ok {
		if err := dec.Reset(r); err == nil {
			return dec, func() {
				_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
				p.pool.Put(dec)
			}, nil
		}
		dec.Close()
	}

	dec, err := zstd.NewReader(r,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(false),
		zstd.WithDecoderMaxMemory(p.maxMemory),
	)
	if err != nil {
		return nil, nil, err
	}
	return dec, func() {
		_ = dec.Reset(nil) //nolint:errcheck // clearing state before pool return
		p.pool.Put(dec)
	}, nil
}

type zstdReader struct {
	*zstd.Decoder
	release func()
	once    sync.Once
}

func (z *zstdReader) Close() error {
	z.once.Do(z.release)
	return nil
}

func newZstdReader(r io.Reader) (io.ReadCloser, error) {
	dec, release, err := decoders.get(r)
	if err != nil {
		return nil, err
	}
	return &zstdReader{Decoder: dec, release: release}, nil
}

func newZstdWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
}
