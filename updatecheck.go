package unpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/meigma/unpack/pack"
	"github.com/meigma/unpack/subst"
)

// updateCheck removes files and empty directories matched by the update
// checks of installed packs that were not installed by this run.
func (u *Unpacker) updateCheck(ctx context.Context, r *run) ([]string, error) {
	if len(r.updates) == 0 {
		return nil, nil
	}
	matchers := make([]updateMatcher, 0, len(r.updates))
	for _, uc := range r.updates {
		m, err := u.newUpdateMatcher(r, uc)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}

	skip := make(map[string]struct{}, len(r.staged)+1)
	skip[u.recordName] = struct{}{}
	for _, tmp := range r.staged {
		skip[filepath.ToSlash(tmp)] = struct{}{}
	}

	files, dirs, err := scanObsolete(ctx, r.root.FS(), matchers, r.installed, skip)
	if err != nil {
		return nil, err
	}
	return u.removeObsolete(r, files, dirs), nil
}

type updateMatcher struct {
	includes      []string
	excludes      []string
	caseSensitive bool
}

func (u *Unpacker) newUpdateMatcher(r *run, uc pack.UpdateCheck) (updateMatcher, error) {
	m := updateMatcher{caseSensitive: uc.CaseSensitive}
	includes := uc.Includes
	if len(includes) == 0 {
		includes = []string{"**"}
	}
	var err error
	if m.includes, err = r.patterns(includes, uc.CaseSensitive); err != nil {
		return m, err
	}
	if m.excludes, err = r.patterns(uc.Excludes, uc.CaseSensitive); err != nil {
		return m, err
	}
	return m, nil
}

// patterns substitutes variables and makes the patterns relative to the
// install path.
func (r *run) patterns(in []string, caseSensitive bool) ([]string, error) {
	out := make([]string, 0, len(in))
	for _, p := range in {
		s, err := r.subst.Substitute(p, subst.TypePlain)
		if err != nil {
			return nil, fmt.Errorf("update check pattern %q: %w", p, err)
		}
		s = filepath.ToSlash(s)
		if prefix := filepath.ToSlash(r.dir) + "/"; strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
		}
		if !caseSensitive {
			s = strings.ToLower(s)
		}
		if !doublestar.ValidatePattern(s) {
			return nil, fmt.Errorf("update check pattern %q: %w", p, doublestar.ErrBadPattern)
		}
		out = append(out, s)
	}
	return out, nil
}

func (m updateMatcher) match(rel string) bool {
	if !m.caseSensitive {
		rel = strings.ToLower(rel)
	}
	return matchAny(m.includes, rel) && !matchAny(m.excludes, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// scanObsolete walks fsys and returns matched paths that are not installed.
func scanObsolete(ctx context.Context, fsys fs.FS, matchers []updateMatcher, installed, skip map[string]struct{}) (files, dirs []string, err error) {
	err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if _, ok := skip[p]; ok {
			return nil
		}
		if _, ok := installed[p]; ok {
			return nil
		}
		if !slices.ContainsFunc(matchers, func(m updateMatcher) bool { return m.match(p) }) {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, p)
		} else {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("update check scan: %w", err)
	}
	return files, dirs, nil
}

// removeObsolete deletes files best-effort, then directories deepest first
// if they are empty at that point.
func (u *Unpacker) removeObsolete(r *run, files, dirs []string) []string {
	var removed []string
	for _, f := range files {
		if err := r.root.Remove(filepath.FromSlash(f)); err != nil {
			u.log().Warn("update check: remove file", "path", f, "error", err)
			continue
		}
		u.log().Debug("update check: removed file", "path", f)
		removed = append(removed, f)
	}

	slices.SortStableFunc(dirs, func(a, b string) int {
		return strings.Count(b, "/") - strings.Count(a, "/")
	})
	for _, d := range dirs {
		empty, err := isEmptyDir(r, d)
		if err != nil {
			u.log().Warn("update check: read directory", "path", d, "error", err)
			continue
		}
		if !empty {
			continue
		}
		if err := r.root.Remove(filepath.FromSlash(d)); err != nil {
			u.log().Warn("update check: remove directory", "path", d, "error", err)
			continue
		}
		u.log().Debug("update check: removed directory", "path", d)
		removed = append(removed, d)
	}
	return removed
}

func isEmptyDir(r *run, rel string) (bool, error) {
	f, err := r.root.Open(filepath.FromSlash(rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	_, err = f.ReadDir(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}
