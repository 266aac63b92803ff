package collector

import (
	"errors"
	"strings"
)

// Error is this module's error domain type.
//
// Errors coming from this module's components should be inspectable
// ([errors.As]) as an *Error at some point in the error chain.
//
// Components should create an Error at the system boundary (network, local
// I/O, a parser) and intermediate layers should not wrap in another Error
// except to add additional [ErrorKind] information; prefer [fmt.Errorf]
// with a "%w" verb over nesting Errors.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string
}

// Assert this implements all the cool features.
var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	switch e.Kind {
	case ErrIO, ErrNetwork, ErrHTTPStatus, ErrSerialization, ErrHashMismatch,
		ErrUnsupportedDesc, ErrMalformedDesc, ErrNetworkStatus, ErrNotFound:
		b.WriteString(string(e.Kind))
	default:
		b.WriteString("???")
	}
	b.WriteString("]: ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Op == "" && e.Message == "" {
		b.Reset()
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is].
//
// It compares the error kind. Callers should compare against a declared
// [ErrorKind] over a specific error.
func (e *Error) Is(kind error) bool {
	return errors.Is(e.Kind, kind)
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error {
	return e.Inner
}

// ErrorKind represents a class of failure produced by this module.
//
// The set mirrors the archive client's error domain: local I/O, transport,
// manifest decoding, content-hash verification, and the descriptor parser's
// own failure modes.
type ErrorKind string

// Defined error kinds.
var (
	ErrIO              = ErrorKind("io")              // filesystem or local I/O
	ErrNetwork         = ErrorKind("network")         // transport-level HTTP failure
	ErrHTTPStatus      = ErrorKind("http-status")      // server returned a non-200 status
	ErrSerialization   = ErrorKind("serialization")   // manifest JSON malformed
	ErrHashMismatch    = ErrorKind("hash-mismatch")    // declared size, or final sha256, disagreed
	ErrUnsupportedDesc = ErrorKind("unsupported-desc") // recognized type/version has no parser, or window rejected it
	ErrMalformedDesc   = ErrorKind("malformed-desc")   // parser violation: missing/duplicate/short line, residue
	ErrNetworkStatus   = ErrorKind("network-status")   // bridge-network-status record builder failed to commit
	ErrNotFound        = ErrorKind("not-found")        // offline mode cache miss
)

// Error implements error.
func (e ErrorKind) Error() string {
	return string(e)
}

// newError is the constructor every component should funnel through when it
// first observes a failure at a system boundary.
func newError(op string, kind ErrorKind, inner error, msg string) *Error {
	return &Error{Op: op, Kind: kind, Message: msg, Inner: inner}
}
