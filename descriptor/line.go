// Package descriptor implements the line-oriented descriptor body parser
// (spec §4.2) and the per-kind decoders built on top of it (spec §4.3).
package descriptor

import (
	"fmt"
	"regexp"
	"strings"
)

// Line is one descriptor line: a name, its space-delimited values, an
// optional attached certificate block, and the line number it was found at
// (used to order multi-keyword fields after grouping).
type Line struct {
	Name   string
	Values []string
	Cert   string
	LineNo int
}

// certBegin matches a PEM-like certificate block's opening fence, e.g.
// "-----BEGIN ED25519 CERT-----".
var certBegin = regexp.MustCompile(`^-----BEGIN ([^-]+)-----$`)

// ParseBody tokenizes a descriptor body into an ordered sequence of Lines.
//
// It must consume the entire input; any trailing, non-newline-terminated
// residue is a MalformedDesc error (spec §4.2: "Any residual input is a
// MalformedDesc error").
func ParseBody(body string) ([]Line, error) {
	if body == "" {
		return nil, nil
	}
	if !strings.HasSuffix(body, "\n") {
		return nil, malformed("descriptor body does not end with a newline")
	}
	raw := strings.Split(body, "\n")
	raw = raw[:len(raw)-1] // drop the trailing "" from the final newline

	lines := make([]Line, 0, len(raw))
	lineNo := 0
	for i := 0; i < len(raw); i++ {
		text := raw[i]
		lineNo++
		name, values := splitLine(text)
		if name == "opt" && len(values) > 0 {
			name, values = values[0], values[1:]
		}

		l := Line{Name: name, Values: values, LineNo: lineNo}

		if i+1 < len(raw) {
			if m := certBegin.FindStringSubmatch(raw[i+1]); m != nil {
				label := m[1]
				end := fmt.Sprintf("-----END %s-----", label)
				start := i + 1
				j := start
				for j < len(raw) && raw[j] != end {
					j++
				}
				if j >= len(raw) {
					return nil, malformed(fmt.Sprintf("unterminated certificate block %q starting at line %d", label, lineNo))
				}
				l.Cert = strings.Join(raw[start:j+1], "\n")
				i = j
				lineNo = j + 1
			}
		}

		lines = append(lines, l)
	}
	return lines, nil
}

// splitLine splits a single descriptor line into its name (first token)
// and remaining space-delimited values.
func splitLine(text string) (name string, values []string) {
	fields := strings.Split(text, " ")
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], fields[1:]
}

// malformed is the local shorthand for building a MalformedDesc-kind error
// without the descriptor package depending on the root package (which
// would be a cycle); it returns a plain *ParseError that the root package's
// decode dispatch wraps into a collector.Error of kind ErrMalformedDesc.
func malformed(reason string) error { return &ParseError{Kind: "malformed", Reason: reason} }

func unsupported(reason string) error { return &ParseError{Kind: "unsupported", Reason: reason} }

// ParseError is the concrete error type every parser in this package
// returns. Kind is either "malformed" or "unsupported", mirroring spec
// §4.3's MalformedDesc/UnsupportedDesc distinction.
type ParseError struct {
	Kind   string
	Reason string
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Reason) }
