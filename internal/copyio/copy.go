// Package copyio provides cancellable copy loops and byte counters.
package copyio

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ChunkSize is the copy buffer size. Cancellation is observed once per chunk.
const ChunkSize = 32 << 10

// ErrOverflow indicates a counter exceeded its maximum value.
var ErrOverflow = errors.New("copyio: counter overflow")

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, ChunkSize)
		return &b
	},
}

// Copy copies from src to dst until EOF or error, checking ctx before every
// read. It returns the number of bytes written.
func Copy(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	return CopyN(ctx, dst, src, -1)
}

// CopyN copies at most n bytes (all bytes when n < 0) from src to dst,
// checking ctx before every read. A short source is not an error: callers
// compare the returned count against what they expected.
func CopyN(ctx context.Context, dst io.Writer, src io.Reader, n int64) (int64, error) {
	bp := bufPool.Get().(*[]byte) //nolint:errcheck // pool only holds *[]byte
	defer bufPool.Put(bp)
	buf := *bp

	var written int64
	for n < 0 || written < n {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		chunk := buf
		if n >= 0 && n-written < int64(len(chunk)) {
			chunk = chunk[:n-written]
		}
		nr, er := src.Read(chunk)
		if nr > 0 {
			nw, ew := dst.Write(chunk[:nr])
			if nw > 0 {
				written += int64(nw)
			}
			if ew != nil {
				return written, ew
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if er != nil {
			if er == io.EOF {
				return written, nil
			}
			return written, er
		}
	}
	return written, nil
}

// Discard reads and drops n bytes from src, checking ctx once per chunk.
func Discard(ctx context.Context, src io.Reader, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	return CopyN(ctx, io.Discard, src, n)
}

// HasTrailingData reports whether r still yields bytes.
func HasTrailingData(r io.Reader) (bool, error) {
	var one [1]byte
	for {
		n, err := r.Read(one[:])
		if n > 0 {
			return true, nil
		}
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
}
