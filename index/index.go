package index

import "time"

// Index is an immutable snapshot of the archive manifest: every known File,
// in lexicographic path order, plus the manifest's creation time and the
// archive's base path (spec §3).
type Index struct {
	CreationTime time.Time
	Path         string
	Files        []File
}

// Equal reports whether two Index snapshots describe the same files, used
// by Collector.ReloadIndex to decide "unchanged" vs "changed" (spec §4.5).
func (ix *Index) Equal(other *Index) bool {
	if other == nil {
		return false
	}
	if ix.Path != other.Path || len(ix.Files) != len(other.Files) {
		return false
	}
	for i := range ix.Files {
		a, b := &ix.Files[i], &other.Files[i]
		if a.Path != b.Path || a.Size != b.Size || a.SHA256 != b.SHA256 {
			return false
		}
	}
	return true
}

// Filter returns, in the Index's natural (lexicographic-path) order, every
// File whose Types intersects want and whose publication window overlaps r,
// per spec §4.4.
//
// want may be empty, in which case only the range predicate applies.
func (ix *Index) Filter(want []Type, r timeRange) []File {
	var out []File
	for i := range ix.Files {
		f := &ix.Files[i]
		if len(want) > 0 && !matchesAny(f, want) {
			continue
		}
		if !f.Overlaps(r) {
			continue
		}
		out = append(out, *f)
	}
	return out
}

func matchesAny(f *File, want []Type) bool {
	for _, t := range want {
		if f.TypeMatches(t) {
			return true
		}
	}
	return false
}

// Dedup applies the streaming deduplication rule of spec §4.4 / §8
// invariant 4 to an already-filtered, naturally-ordered file list: iterate
// in order, admit archive files unconditionally (extending the running
// cover with their [FirstPublished,LastPublished] window), and admit a
// recent file only if its window is disjoint from everything covered so
// far (an admitted recent file's window is added to the cover as well).
// Because archive paths sort lexicographically before "recent" paths
// (CollecTor's own layout convention), a single forward pass suffices.
func Dedup(files []File) []File {
	var cover Cover
	out := make([]File, 0, len(files))
	for _, f := range files {
		if f.Archive() {
			cover.Add(f.FirstPublished, f.LastPublished)
			out = append(out, f)
			continue
		}
		if cover.Disjoint(f.FirstPublished, f.LastPublished) {
			cover.Add(f.FirstPublished, f.LastPublished)
			out = append(out, f)
		}
	}
	return out
}

// Cover tracks a running union of time ranges already claimed by an earlier
// admitted file in the streaming deduplication combinator (spec §4.4, §8
// invariant 4). Exported so the root package can expose it under its own
// name (see timerange.go) without a second implementation: index can't
// import the root package, so the type has to live on this side of the
// dependency and be re-exported, the same pattern digest.Digest uses.
type Cover struct {
	intervals []coverInterval
}

type coverInterval struct{ start, end time.Time }

// Add records [start,end] as now covered.
func (c *Cover) Add(start, end time.Time) {
	c.intervals = append(c.intervals, coverInterval{start, end})
}

// Disjoint reports whether [start,end] shares no instant with any interval
// already recorded in the cover.
func (c *Cover) Disjoint(start, end time.Time) bool {
	for _, iv := range c.intervals {
		if !end.Before(iv.start) && !start.After(iv.end) {
			return false
		}
	}
	return true
}
