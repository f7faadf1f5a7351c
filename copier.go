package unpack

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/meigma/unpack/pack"
	"github.com/meigma/unpack/queue"
)

// copier writes file content below the install root.
//
// Content is written to a temporary file next to the target. Once complete
// the temporary file gets the declared modification time and is either
// renamed over the target or, for blockable files, handed to the queue.
type copier struct {
	root  *os.Root
	dir   string
	queue queue.Queue
	stage func(rel, tmpRel string)
}

// write fills a temporary file through fill and commits it to target.
// target is slash-separated and relative to the install root.
func (c *copier) write(ctx context.Context, f *pack.PackFile, target string, fill func(w io.Writer) error) (queued bool, err error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	rel := filepath.FromSlash(target)
	tmp, tmpRel, err := createTempFile(c.root, filepath.Dir(rel), "."+path.Base(target)+".unpack-")
	if err != nil {
		return false, &InstallerError{Severity: SeverityError, Op: "create temp file", Path: target, Err: err}
	}
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			_ = tmp.Close() //nolint:errcheck // best-effort cleanup
		}
		_ = c.root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
	}()

	if err = fill(tmp); err != nil {
		return false, err
	}
	closed = true
	if err = tmp.Close(); err != nil {
		return false, &InstallerError{Severity: SeverityError, Op: "close", Path: target, Err: err}
	}
	if mod := f.ModTime(); !mod.IsZero() {
		if err = c.root.Chtimes(tmpRel, mod, mod); err != nil {
			return false, &InstallerError{Severity: SeverityError, Op: "chtimes", Path: target, Err: err}
		}
	}

	if c.queue != nil && f.Blockable() != pack.BlockableNone {
		c.queue.Add(queue.Move{
			Src:        filepath.Join(c.dir, tmpRel),
			Dst:        filepath.Join(c.dir, rel),
			Overwrite:  true,
			ForceInUse: true,
		})
		c.stage(target, tmpRel)
		return true, nil
	}

	if err = c.root.Rename(tmpRel, rel); err != nil {
		return false, &InstallerError{Severity: SeverityError, Op: "rename", Path: target, Err: err}
	}
	return false, nil
}

// writeFile atomically replaces rel with data.
func writeFile(root *os.Root, rel string, data []byte, perm os.FileMode) error {
	tmp, tmpRel, err := createTempFile(root, filepath.Dir(rel), "."+filepath.Base(rel)+".unpack-")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()           //nolint:errcheck // best-effort cleanup
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := root.Chmod(tmpRel, perm); err != nil {
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return err
	}
	if err := root.Rename(tmpRel, rel); err != nil {
		_ = root.Remove(tmpRel) //nolint:errcheck // best-effort cleanup
		return err
	}
	return nil
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", fmt.Errorf("create temp file in %s: exhausted retries", dir)
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
