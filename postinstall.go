package unpack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/meigma/unpack/pack"
	"github.com/meigma/unpack/queue"
	"github.com/meigma/unpack/subst"
)

// parseFiles substitutes variables in the collected parsable files.
func (u *Unpacker) parseFiles(ctx context.Context, r *run) error {
	for _, pf := range r.parsables {
		rel, err := r.relPath(pf.Path)
		if err == nil {
			err = u.parseFile(r, rel, pf)
		}
		if err != nil {
			if werr := u.warn(ctx, r, &InstallerError{Op: "parse", Path: pf.Path, Err: err}); werr != nil {
				return werr
			}
			continue
		}
		u.log().Debug("parsed file", "path", rel, "type", pf.Type)
	}
	return nil
}

func (u *Unpacker) parseFile(r *run, rel string, pf pack.ParsableFile) error {
	switch strings.ToLower(pf.Encoding) {
	case "", "utf-8", "utf8":
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedEncoding, pf.Encoding)
	}
	name := r.resolve(rel)
	info, err := r.root.Stat(name)
	if err != nil {
		return err
	}
	data, err := r.root.ReadFile(name)
	if err != nil {
		return err
	}
	out, err := r.subst.Substitute(string(data), pf.Type)
	if err != nil {
		return err
	}
	if err := writeFile(r.root, name, []byte(out), info.Mode().Perm()); err != nil {
		return err
	}
	if mod := info.ModTime(); !mod.IsZero() {
		return r.root.Chtimes(name, mod, mod)
	}
	return nil
}

// runExecutables marks the collected executables executable and runs those
// of the post-install stage.
func (u *Unpacker) runExecutables(ctx context.Context, r *run) error {
	for _, ef := range r.executables {
		if ef.Stage == pack.StageUninstall {
			u.log().Debug("executable deferred to uninstall", "path", ef.Path)
			continue
		}
		rel, err := r.relPath(ef.Path)
		if err != nil {
			return &InstallerError{Severity: SeverityError, Op: "resolve executable", Path: ef.Path, Err: err}
		}
		name := r.resolve(rel)
		if err := r.root.Chmod(name, 0o755); err != nil {
			if werr := u.warn(ctx, r, &InstallerError{Op: "chmod", Path: rel, Err: err}); werr != nil {
				return werr
			}
		}
		if ef.Stage == pack.StageNever {
			continue
		}

		u.log().Info("running executable", "path", rel, "type", ef.Type)
		out, err := u.execute(ctx, r, ef, filepath.Join(r.dir, name))
		if len(out) > 0 {
			u.log().Debug("executable output", "path", rel, "output", string(out))
		}
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			if ferr := u.executableFailed(ctx, r, ef, rel, err); ferr != nil {
				return ferr
			}
		}
		if !ef.KeepFile {
			u.removeExecutable(r, rel, name)
		}
	}
	return nil
}

// removeExecutable deletes an executable after it ran. A staged file is only
// moved into place by the queue, so its removal is queued behind that move.
func (u *Unpacker) removeExecutable(r *run, rel, name string) {
	if _, staged := r.staged[rel]; staged && u.queue != nil {
		u.queue.Add(queue.Move{Src: filepath.Join(r.dir, filepath.FromSlash(rel))})
		u.log().Debug("queued executable removal", "path", rel)
		return
	}
	if err := r.root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		u.log().Warn("remove executable", "path", rel, "error", err)
	}
}

// execute runs one executable with substituted arguments and returns its
// combined output.
func (u *Unpacker) execute(ctx context.Context, r *run, ef pack.ExecutableFile, abs string) ([]byte, error) {
	args := make([]string, len(ef.Args))
	for i, a := range ef.Args {
		s, err := r.subst.Substitute(a, subst.TypePlain)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = s
	}
	env := append(os.Environ(), r.environ()...)

	switch strings.ToLower(ef.Type) {
	case "shell", "sh":
		return runShell(ctx, abs, r.dir, args, env)
	case "", "bin":
		cmd := exec.CommandContext(ctx, abs, args...)
		cmd.Dir = r.dir
		cmd.Env = env
		return cmd.CombinedOutput()
	default:
		return nil, fmt.Errorf("unknown executable type %q", ef.Type)
	}
}

// runShell interprets a POSIX shell script without requiring a system shell.
func runShell(ctx context.Context, script, dir string, args, env []string) ([]byte, error) {
	f, err := os.Open(script)
	if err != nil {
		return nil, err
	}
	prog, err := syntax.NewParser().Parse(f, script)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", script, err)
	}

	var out bytes.Buffer
	opts := []interp.RunnerOption{
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, &out, &out),
	}
	if len(args) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, args...)...))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create interpreter: %w", err)
	}
	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return out.Bytes(), fmt.Errorf("exit status %d", uint8(status))
		}
		return out.Bytes(), err
	}
	return out.Bytes(), nil
}

// executableFailed applies the failure policy of ef.
func (u *Unpacker) executableFailed(ctx context.Context, r *run, ef pack.ExecutableFile, rel string, err error) error {
	ie := &InstallerError{Op: "execute", Path: rel, Err: err}
	switch ef.OnFailure {
	case pack.FailureIgnore:
		u.log().Warn("executable failed", "path", rel, "error", err)
		return nil
	case pack.FailureWarn:
		return u.warn(ctx, r, ie)
	case pack.FailureAsk:
		if r.data.Unattended || u.prompter == nil {
			return u.warn(ctx, r, ie)
		}
		ok, perr := u.prompter.Confirm(ctx, fmt.Sprintf("%s failed: %v\nContinue the installation?", rel, err), false)
		if perr != nil {
			return fmt.Errorf("prompt: %w", perr)
		}
		if ok {
			ie.Severity = SeverityWarning
			r.result.Warnings = append(r.result.Warnings, ie)
			return nil
		}
		ie.Severity = SeverityError
		return ie
	default:
		ie.Severity = SeverityError
		return ie
	}
}
