package index

import (
	"strings"
	"time"

	"github.com/trinity-1686a/collector/internal/digest"
)

// File is one entry in a loaded [Index]: a single descriptor file living
// somewhere under the archive's base path.
type File struct {
	// Path is relative to the Index's Path (the archive's base URL).
	Path string
	// Size is the file's byte length, as declared by the manifest.
	Size uint64
	// LastModified, FirstPublished and LastPublished are as declared by the
	// manifest. Per spec, a manifest entry silent on first/last published
	// defaults to the Unix epoch, not to the zero time.Time.
	LastModified   time.Time
	FirstPublished time.Time
	LastPublished  time.Time
	// Types is the ordered sequence of VersionedType this file contains.
	// Every entry shares one major.minor convention (spec invariant ii).
	Types []VersionedType
	// SHA256 is the file's expected content hash.
	SHA256 digest.Digest
}

// Archive reports whether this File belongs to the long-term, tar-bundled
// layout, as opposed to the short-term "recent" plain-file layout. Per
// spec §3: a path ending in ".tar" or containing ".tar." is an archive.
func (f *File) Archive() bool {
	return strings.HasSuffix(f.Path, ".tar") || strings.Contains(f.Path, ".tar.")
}

// TypeMatches reports whether t appears among f.Types, satisfying
// spec invariant 2.
func (f *File) TypeMatches(t Type) bool {
	for _, vt := range f.Types {
		if vt.Type == t {
			return true
		}
	}
	return false
}

// timeRange is the subset of the root package's TimeRange that the overlap
// predicate needs. The root package can't be imported here (it imports
// index), so any TimeRange-shaped value — in practice always
// collector.TimeRange — satisfies this via its exported Contains and
// ContainedIn methods.
type timeRange interface {
	Contains(t time.Time) bool
	ContainedIn(a, b time.Time) bool
}

// Overlaps reports whether f overlaps the query range r, per spec §4.4 /
// §8 invariant 3: R contains any of {first_published, last_published,
// last_modified}, or R is strictly contained inside
// [first_published,last_published].
func (f *File) Overlaps(r timeRange) bool {
	return r.Contains(f.FirstPublished) || r.Contains(f.LastPublished) || r.Contains(f.LastModified) ||
		r.ContainedIn(f.FirstPublished, f.LastPublished)
}
