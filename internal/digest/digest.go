// Package digest provides the fixed-width SHA-256 content hash type shared
// by the index (manifest File entries) and the fetch/verification pipeline.
//
// It lives in its own leaf package, rather than on the root Collector type
// the way claircore keeps its Digest, because both the index package and
// the root package need it and neither may import the other.
package digest

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"hash"
)

// Digest is a SHA-256 content hash.
//
// Unlike claircore's own [Digest] type, this one is intentionally narrowed
// to a single algorithm: the archive manifest never names one, and the spec
// requires no algorithm agility, only a fixed-width content hash suitable
// for comparison and for keying the on-disk cache.
type Digest [sha256.Size]byte

// Hash returns a fresh hash.Hash appropriate for computing a Digest.
func Hash() hash.Hash { return sha256.New() }

// String renders the digest as lowercase hex, e.g. for log fields and error
// messages.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Equal reports whether sum (a raw, not hex or base64, byte slice) matches
// this digest.
func (d Digest) Equal(sum []byte) bool {
	if len(sum) != len(d) {
		return false
	}
	return hex.EncodeToString(d[:]) == hex.EncodeToString(sum)
}

// Sum computes the Digest of b.
func Sum(b []byte) Digest {
	return Digest(sha256.Sum256(b))
}

// MarshalText implements encoding.TextMarshaler, rendering as lowercase hex.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, accepting lowercase hex.
func (d *Digest) UnmarshalText(t []byte) error {
	if len(t) != hex.EncodedLen(len(d)) {
		return &DigestError{msg: fmt.Sprintf("bad digest length: %d", len(t))}
	}
	b := make([]byte, len(d))
	if _, err := hex.Decode(b, t); err != nil {
		return &DigestError{msg: "unable to decode digest as hex", inner: err}
	}
	copy(d[:], b)
	return nil
}

// MarshalJSON implements json.Marshaler so manifest round-tripping (which
// transports the digest as base64, per the CollecTor manifest schema) is
// the caller's choice: see [DecodeManifestSHA256] for the base64 form used
// when reading the index.json wire format.
func (d Digest) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler, mirroring MarshalJSON.
func (d *Digest) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return &DigestError{msg: "digest must be a JSON string"}
	}
	return d.UnmarshalText(b[1 : len(b)-1])
}

// DecodeManifestSHA256 decodes the base64 form the manifest JSON transports
// ("sha256" field of a file entry) into a Digest.
func DecodeManifestSHA256(b64 string) (Digest, error) {
	var d Digest
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return d, &DigestError{msg: "unable to decode sha256 as base64", inner: err}
	}
	if len(raw) != len(d) {
		return d, &DigestError{msg: fmt.Sprintf("bad checksum length: %d", len(raw))}
	}
	copy(d[:], raw)
	return d, nil
}

// DigestError is the concrete type backing errors returned from Digest's
// methods.
type DigestError struct {
	msg   string
	inner error
}

// Error implements error.
func (e *DigestError) Error() string { return e.msg }

// Unwrap enables errors.Unwrap.
func (e *DigestError) Unwrap() error { return e.inner }
