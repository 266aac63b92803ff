package index

import (
	"testing"
	"time"
)

// fakeRange is a minimal timeRange fixture for this package's tests; the
// root package's TimeRange satisfies the same interface in production. It
// is the closed interval [containedFrom, containedTo], or the single
// instant at when at is set.
type fakeRange struct {
	at            time.Time
	containedFrom time.Time
	containedTo   time.Time
}

func (r fakeRange) bounds() (time.Time, time.Time) {
	if !r.at.IsZero() {
		return r.at, r.at
	}
	return r.containedFrom, r.containedTo
}

func (r fakeRange) Contains(t time.Time) bool {
	from, to := r.bounds()
	return !t.Before(from) && !t.After(to)
}

func (r fakeRange) ContainedIn(a, b time.Time) bool {
	from, to := r.bounds()
	return !from.Before(a) && !to.After(b)
}

func day(n int) time.Time { return time.Date(2022, 2, n, 0, 0, 0, 0, time.UTC) }

func TestFileArchive(t *testing.T) {
	tt := []struct {
		path string
		want bool
	}{
		{"bridge-descriptors.tar", true},
		{"bridge-descriptors.tar.xz", true},
		{"2022-02-20-10-00-00-bridge-extra-info", false},
	}
	for _, tc := range tt {
		f := File{Path: tc.path}
		if got := f.Archive(); got != tc.want {
			t.Errorf("File{Path: %q}.Archive() = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestFileTypeMatches(t *testing.T) {
	f := File{Types: []VersionedType{{Type: Microdescriptor, Major: 1}, {Type: ServerDescriptor, Major: 1}}}
	if !f.TypeMatches(Microdescriptor) {
		t.Error("expected TypeMatches(Microdescriptor) == true")
	}
	if f.TypeMatches(BridgeExtraInfo) {
		t.Error("expected TypeMatches(BridgeExtraInfo) == false")
	}
}

func TestFileOverlaps(t *testing.T) {
	f := File{
		FirstPublished: day(10),
		LastPublished:  day(12),
		LastModified:   day(13),
	}

	if !f.Overlaps(fakeRange{at: day(11)}) {
		t.Error("range inside the file's published window should overlap")
	}
	if !f.Overlaps(fakeRange{at: day(12)}) {
		t.Error("range containing LastPublished should overlap")
	}
	if f.Overlaps(fakeRange{at: day(20)}) {
		t.Error("range containing none of the instants and not surrounding the window should not overlap")
	}
	if !f.Overlaps(fakeRange{containedFrom: day(9), containedTo: day(14)}) {
		t.Error("range strictly containing the file's window should overlap")
	}
}
