package index

import (
	"testing"
	"time"
)

func TestIndexFilterByTypeAndRange(t *testing.T) {
	ix := &Index{
		Files: []File{
			{Path: "a", Types: []VersionedType{{Type: Microdescriptor}}, FirstPublished: day(1), LastPublished: day(1)},
			{Path: "b", Types: []VersionedType{{Type: ServerDescriptor}}, FirstPublished: day(5), LastPublished: day(5)},
			{Path: "c", Types: []VersionedType{{Type: Microdescriptor}}, FirstPublished: day(20), LastPublished: day(20)},
		},
	}

	got := ix.Filter([]Type{Microdescriptor}, fakeRange{at: day(1)})
	if len(got) != 1 || got[0].Path != "a" {
		t.Errorf("got %+v, want just file a", got)
	}

	gotAll := ix.Filter(nil, fakeRange{containedFrom: day(0), containedTo: day(30)})
	if len(gotAll) != 3 {
		t.Errorf("got %d files with no type filter, want 3", len(gotAll))
	}
}

func TestIndexEqual(t *testing.T) {
	a := &Index{Path: "p", Files: []File{{Path: "a", Size: 1}}}
	b := &Index{Path: "p", Files: []File{{Path: "a", Size: 1}}}
	c := &Index{Path: "p", Files: []File{{Path: "a", Size: 2}}}

	if !a.Equal(b) {
		t.Error("identical indexes should compare equal")
	}
	if a.Equal(c) {
		t.Error("indexes differing in file size should not compare equal")
	}
	if a.Equal(nil) {
		t.Error("Equal(nil) should be false")
	}
}

func TestDedupArchiveAlwaysAdmitted(t *testing.T) {
	files := []File{
		{Path: "archive/bundle.tar", FirstPublished: day(1), LastPublished: day(10)},
		{Path: "recent/overlapping", FirstPublished: day(5), LastPublished: day(5)},
		{Path: "recent/disjoint", FirstPublished: day(20), LastPublished: day(20)},
	}
	got := Dedup(files)
	if len(got) != 2 {
		t.Fatalf("got %d files, want 2 (archive file admitted, overlapping recent file dropped)", len(got))
	}
	if got[0].Path != "archive/bundle.tar" || got[1].Path != "recent/disjoint" {
		t.Errorf("got %+v", got)
	}
}

func TestDedupNoArchiveKeepsAllDisjointRecent(t *testing.T) {
	files := []File{
		{Path: "recent/a", FirstPublished: day(1), LastPublished: day(1)},
		{Path: "recent/b", FirstPublished: day(2), LastPublished: day(2)},
	}
	got := Dedup(files)
	if len(got) != 2 {
		t.Errorf("got %d files, want 2", len(got))
	}
}

func TestCoverAddAndDisjoint(t *testing.T) {
	var c Cover
	if !c.Disjoint(day(1), day(2)) {
		t.Error("empty cover should report everything disjoint")
	}
	c.Add(day(1), day(5))
	if c.Disjoint(day(3), day(4)) {
		t.Error("interval inside a covered range should not be disjoint")
	}
	if !c.Disjoint(day(6), day(7)) {
		t.Error("interval strictly after the covered range should be disjoint")
	}
	if c.Disjoint(day(5), day(6)) {
		t.Error("interval sharing only the boundary instant should not be disjoint")
	}
}

func TestFakeRangeSanity(t *testing.T) {
	// Guards against the fixture itself drifting: day() must produce
	// strictly increasing, UTC timestamps.
	if !day(2).After(day(1)) {
		t.Fatal("day() fixture is not monotonically increasing")
	}
	if day(1).Location() != time.UTC {
		t.Fatal("day() fixture must be UTC")
	}
}
