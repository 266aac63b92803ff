package test

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/trinity-1686a/collector/internal/digest"
)

// CompareDigests allows cmp.Diff to compare digest.Digest values (which
// collector.Digest aliases) by their hex string form, matching how they
// appear in logs and errors.
var CompareDigests = cmp.Options{
	cmp.Transformer("MarshalDigest", marshalDigest),
	cmp.Transformer("MarshalDigestPointer", marshalDigestPointer),
}

// CmpOptions is the bundle of cmp.Option this module's own tests reach for
// by default when comparing decoded descriptors and index entries.
var CmpOptions = cmp.Options{
	CompareDigests,
	cmpopts.EquateEmpty(),
}

func marshalDigest(d digest.Digest) string         { return marshalDigestPointer(&d) }
func marshalDigestPointer(d *digest.Digest) string { return d.String() }
