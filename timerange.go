package collector

import (
	"time"

	"github.com/trinity-1686a/collector/index"
)

// TimeRange is a (possibly half-open, possibly unbounded) interval of time,
// used for querying the archive. Set bounds are inclusive.
//
// A nil Start means "since the beginning of time"; a nil End means no
// upper bound. Both nil means "all time".
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

// Range constructs a closed TimeRange.
func Range(start, end time.Time) TimeRange {
	return TimeRange{Start: &start, End: &end}
}

// Since constructs a TimeRange with no upper bound.
func Since(start time.Time) TimeRange {
	return TimeRange{Start: &start}
}

// Until constructs a TimeRange with no lower bound.
func Until(end time.Time) TimeRange {
	return TimeRange{End: &end}
}

// Contains reports whether t falls within r, treating a nil bound as
// unbounded on that side.
func (r TimeRange) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// ContainedIn reports whether r is strictly contained inside the closed
// interval [a,b]. Used by the overlap predicate in spec §4.4: a file whose
// publication window strictly swallows a narrow query range still overlaps
// it.
func (r TimeRange) ContainedIn(a, b time.Time) bool {
	if r.Start == nil || r.End == nil {
		return false
	}
	return !r.Start.Before(a) && !r.End.After(b)
}

// Cover tracks a running union of time ranges already claimed by an earlier
// admitted file in the streaming deduplication combinator (spec §4.4, §8
// invariant 4); re-exported from the index package, which implements it
// (see index.Cover) since that's the side of the import boundary Dedup
// actually runs on.
type Cover = index.Cover
