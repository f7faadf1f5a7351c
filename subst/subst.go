// Package subst replaces installer variables in text.
//
// References take the forms $NAME and ${NAME}; the ant type uses @NAME@
// instead. Values are escaped for the target format before insertion.
// References to unknown variables are left as written.
package subst

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"unicode/utf8"

	"mvdan.cc/sh/v3/syntax"
)

// Substitution types.
const (
	TypePlain    = "plain"
	TypeShell    = "shell"
	TypeJavaProp = "javaprop"
	TypeXML      = "xml"
	TypeAnt      = "ant"
)

var (
	// ErrUnknownType is returned for unsupported substitution types.
	ErrUnknownType = errors.New("subst: unknown type")

	// ErrNotUTF8 is returned when content is not valid UTF-8.
	ErrNotUTF8 = errors.New("subst: content is not valid UTF-8")
)

// Substitutor holds a variable set. It is safe for concurrent use.
type Substitutor struct {
	mu   sync.RWMutex
	vars map[string]string
}

// New returns a Substitutor over a copy of vars.
func New(vars map[string]string) *Substitutor {
	s := &Substitutor{vars: maps.Clone(vars)}
	if s.vars == nil {
		s.vars = make(map[string]string)
	}
	return s
}

// Set defines or replaces a variable.
func (s *Substitutor) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[name] = value
}

// Lookup returns a variable's value.
func (s *Substitutor) Lookup(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

// Variables returns a copy of the variable set.
func (s *Substitutor) Variables() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.vars)
}

// Environ returns the variables as NAME=value pairs.
func (s *Substitutor) Environ() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.vars))
	for k, v := range s.vars {
		out = append(out, k+"="+v)
	}
	return out
}

// Substitute replaces variable references in in. An empty typ means plain.
func (s *Substitutor) Substitute(in, typ string) (string, error) {
	if !utf8.ValidString(in) {
		return "", ErrNotUTF8
	}
	typ = strings.ToLower(typ)
	if typ == "" {
		typ = TypePlain
	}
	escape, err := escaper(typ)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if typ == TypeAnt {
		return s.replaceAnt(in, escape)
	}
	return s.replaceDollar(in, escape)
}

func escaper(typ string) (func(string) (string, error), error) {
	switch typ {
	case TypePlain:
		return func(v string) (string, error) { return v, nil }, nil
	case TypeShell:
		return func(v string) (string, error) { return syntax.Quote(v, syntax.LangPOSIX) }, nil
	case TypeJavaProp:
		return func(v string) (string, error) { return javaPropEscaper.Replace(v), nil }, nil
	case TypeXML:
		return func(v string) (string, error) { return xmlEscaper.Replace(v), nil }, nil
	case TypeAnt:
		return func(v string) (string, error) { return v, nil }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
}

var (
	javaPropEscaper = strings.NewReplacer(`\`, `\\`, `=`, `\=`, `:`, `\:`)
	xmlEscaper      = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
)

func (s *Substitutor) replaceDollar(in string, escape func(string) (string, error)) (string, error) {
	var b strings.Builder
	b.Grow(len(in))
	for i := 0; i < len(in); {
		if in[i] != '$' || i+1 >= len(in) {
			b.WriteByte(in[i])
			i++
			continue
		}

		var name string
		var end int
		if in[i+1] == '{' {
			closing := strings.IndexByte(in[i+2:], '}')
			if closing < 0 {
				b.WriteByte(in[i])
				i++
				continue
			}
			name = in[i+2 : i+2+closing]
			end = i + 3 + closing
		} else {
			j := i + 1
			for j < len(in) && isNameByte(in[j], j == i+1) {
				j++
			}
			name = in[i+1 : j]
			end = j
		}

		value, ok := s.vars[name]
		if name == "" || !ok {
			b.WriteString(in[i:end])
			i = end
			continue
		}
		escaped, err := escape(value)
		if err != nil {
			return "", fmt.Errorf("escape %s: %w", name, err)
		}
		b.WriteString(escaped)
		i = end
	}
	return b.String(), nil
}

func (s *Substitutor) replaceAnt(in string, escape func(string) (string, error)) (string, error) {
	var b strings.Builder
	b.Grow(len(in))
	for {
		start := strings.IndexByte(in, '@')
		if start < 0 {
			b.WriteString(in)
			return b.String(), nil
		}
		stop := strings.IndexByte(in[start+1:], '@')
		if stop < 0 {
			b.WriteString(in)
			return b.String(), nil
		}
		name := in[start+1 : start+1+stop]
		value, ok := s.vars[name]
		if !ok || name == "" {
			// Keep the first '@' and retry from the second one.
			b.WriteString(in[:start+1])
			in = in[start+1:]
			continue
		}
		escaped, err := escape(value)
		if err != nil {
			return "", fmt.Errorf("escape %s: %w", name, err)
		}
		b.WriteString(in[:start])
		b.WriteString(escaped)
		in = in[start+2+stop:]
	}
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return !first
	default:
		return false
	}
}
