package collector

import "github.com/trinity-1686a/collector/internal/digest"

// Digest is a SHA-256 content hash, re-exported at the module root for
// callers that want to compare a fetched file's digest without reaching
// into an internal package. See [digest.Digest] for the implementation.
type Digest = digest.Digest

// Sum computes the Digest of b.
func Sum(b []byte) Digest { return digest.Sum(b) }
