package descriptor

import (
	"fmt"
	"sort"
)

// Lines groups parsed Lines by name, preserving the original line-number
// order within each group, per spec §4.2 "grouping".
//
// The extractor methods below (Uniq/Opt/Multi/Cert) are this module's
// runtime interpretation of the declarative uniq/opt/multi/cert vocabulary
// spec §4.3 and §9 describe as a compile-time macro in the original
// implementation. Go has no such macro facility, so each kind parser calls
// these methods directly instead of building a schema value dispatched
// through a shared interpreter loop — the same extraction semantics with
// less indirection, and no reflection.
type Lines map[string][]Line

// Group partitions parsed Lines into a Lines map, per spec §4.2. The two
// names "accept" and "reject" are deliberately never merged here (each
// keeps its own slot), so that a multi-keyword extractor can recombine them
// in original order — spec §4.2's named special case for exit policies.
func Group(lines []Line) Lines {
	g := make(Lines)
	for _, l := range lines {
		g[l.Name] = append(g[l.Name], l)
	}
	return g
}

// Uniq requires exactly one line named key, per spec §4.3's uniq(k)
// extractor. Fails MalformedDesc if the key is missing or duplicated.
func (g Lines) Uniq(key string) (*Line, error) {
	ls := g[key]
	switch len(ls) {
	case 0:
		return nil, malformed(fmt.Sprintf("missing required line %q", key))
	case 1:
		return &ls[0], nil
	default:
		return nil, malformed(fmt.Sprintf("line %q appears %d times, expected exactly one", key, len(ls)))
	}
}

// UniqValues is Uniq plus a minimum-value-count check, for the common case
// of a line that positionally destructures into n named fields with the
// remainder exposed as "rest".
func (g Lines) UniqValues(key string, n int) (values, rest []string, err error) {
	l, err := g.Uniq(key)
	if err != nil {
		return nil, nil, err
	}
	if len(l.Values) < n {
		return nil, nil, malformed(fmt.Sprintf("line %q has %d values, expected at least %d", key, len(l.Values), n))
	}
	return l.Values[:n], l.Values[n:], nil
}

// Opt returns the line named key if present, or nil if absent, per spec
// §4.3's opt(k) extractor. More than one occurrence is MalformedDesc.
func (g Lines) Opt(key string) (*Line, error) {
	ls := g[key]
	switch len(ls) {
	case 0:
		return nil, nil
	case 1:
		return &ls[0], nil
	default:
		return nil, malformed(fmt.Sprintf("line %q appears %d times, expected at most one", key, len(ls)))
	}
}

// OptValues is Opt plus positional destructuring: ok is false when the key
// is absent (values and rest are then unusable), mirroring spec §4.3's "rest is
// Some(tail) when present, else None".
func (g Lines) OptValues(key string, n int) (values, rest []string, ok bool, err error) {
	l, err := g.Opt(key)
	if err != nil {
		return nil, nil, false, err
	}
	if l == nil {
		return nil, nil, false, nil
	}
	if len(l.Values) < n {
		return nil, nil, false, malformed(fmt.Sprintf("line %q has %d values, expected at least %d", key, len(l.Values), n))
	}
	return l.Values[:n], l.Values[n:], true, nil
}

// Multi merges every line named any of keys into one sequence ordered by
// original line number, per spec §4.3's multi(k1,k2,...) extractor — the
// vocabulary that lets BridgeServerDescriptor recombine interleaved
// "accept"/"reject" lines into one ordered policy list.
func (g Lines) Multi(keys ...string) []Line {
	var out []Line
	for _, k := range keys {
		out = append(out, g[k]...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineNo < out[j].LineNo })
	return out
}

// Cert requires a single line named key with an attached certificate block,
// returning the verbatim block (including BEGIN/END framing), per spec
// §4.3's cert(k) extractor.
func (g Lines) Cert(key string) (string, error) {
	l, err := g.Uniq(key)
	if err != nil {
		return "", err
	}
	if l.Cert == "" {
		return "", malformed(fmt.Sprintf("line %q has no attached certificate block", key))
	}
	return l.Cert, nil
}
