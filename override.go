package unpack

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/meigma/unpack/pack"
)

// decideOverride reports whether f should be written over whatever exists at
// rel.
func (u *Unpacker) decideOverride(ctx context.Context, r *run, f *pack.PackFile, rel string) (bool, error) {
	info, err := r.root.Lstat(filepath.FromSlash(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, &InstallerError{Severity: SeverityError, Op: "stat", Path: rel, Err: err}
	}
	ask := func(def bool) (bool, error) {
		if r.data.Unattended || u.prompter == nil {
			return def, nil
		}
		ok, err := u.prompter.Confirm(ctx, fmt.Sprintf("The file %s already exists. Overwrite it?", rel), def)
		if err != nil {
			return false, fmt.Errorf("prompt: %w", err)
		}
		return ok, nil
	}
	return overrideDecision(f.Override(), info.ModTime(), f.ModTime(), ask)
}

// overrideDecision applies an override policy to an existing target.
// ask is called with the default answer of ask-style policies.
func overrideDecision(o pack.Override, existing, declared time.Time, ask func(def bool) (bool, error)) (bool, error) {
	switch o {
	case pack.OverrideTrue:
		return true, nil
	case pack.OverrideFalse:
		return false, nil
	case pack.OverrideUpdate:
		return existing.Before(declared), nil
	case pack.OverrideAskTrue:
		return ask(true)
	case pack.OverrideAskFalse:
		return ask(false)
	default:
		return false, nil
	}
}

// mapRename applies a rename pattern to the base name of an existing file.
// The pattern holds at most one '*', which is replaced with base. The result
// must be a plain file name.
func mapRename(pattern, base string) (string, error) {
	if strings.Count(pattern, "*") > 1 {
		return "", fmt.Errorf("%w: %q has more than one wildcard", ErrRenameMapping, pattern)
	}
	name := strings.Replace(pattern, "*", base, 1)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q maps %s to %q", ErrRenameMapping, pattern, base, name)
	}
	return name, nil
}

// renameExisting moves an existing target out of the way according to the
// file's rename pattern. A file already at the renamed path is deleted.
func renameExisting(root *os.Root, f *pack.PackFile, rel string) error {
	pattern := f.OverrideRenameTo()
	if pattern == "" {
		return nil
	}
	if _, err := root.Lstat(filepath.FromSlash(rel)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &InstallerError{Severity: SeverityError, Op: "stat", Path: rel, Err: err}
	}
	name, err := mapRename(pattern, path.Base(rel))
	if err != nil {
		return fmt.Errorf("rename %s: %w", rel, err)
	}
	renamed := path.Join(path.Dir(rel), name)
	if renamed == rel {
		return nil
	}
	if err := root.Remove(filepath.FromSlash(renamed)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &InstallerError{Severity: SeverityError, Op: "remove", Path: renamed, Err: err}
	}
	if err := root.Rename(filepath.FromSlash(rel), filepath.FromSlash(renamed)); err != nil {
		return &InstallerError{Severity: SeverityError, Op: "rename", Path: rel, Err: err}
	}
	return nil
}
