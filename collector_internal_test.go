package collector

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/trinity-1686a/collector/index"
)

func buildTarArchive(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, body := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(body); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func mustParseBPATime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		t.Fatal(err)
	}
	return ts.UTC()
}

func mustWrite(t *testing.T, path string, body []byte) {
	t.Helper()
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestStreamDescriptorsDedupesArchiveAgainstRecent constructs a Collector
// directly (bypassing ReloadIndex/HTTP entirely) to drive the streaming
// dedup rule against a hand-built archive/recent file layout on disk.
func TestStreamDescriptorsDedupesArchiveAgainstRecent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	bpaBody := func(ts string) []byte {
		return []byte("@type bridge-pool-assignment 1.0\nbridge-pool-assignment " + ts + "\nAAAA https\n")
	}
	archiveBody := bpaBody("2022-02-20 09:00:00")
	recentOverlapping := bpaBody("2022-02-20 09:30:00")
	recentDisjoint := bpaBody("2022-03-01 00:00:00")

	if err := os.MkdirAll(filepath.Join(dir, "archive"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "recent"), 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(dir, "archive", "bundle.tar"), buildTarArchive(t, map[string][]byte{"x": archiveBody}))
	mustWrite(t, filepath.Join(dir, "recent", "overlapping"), recentOverlapping)
	mustWrite(t, filepath.Join(dir, "recent", "disjoint"), recentDisjoint)

	archiveStart := mustParseBPATime(t, "2022-02-20 00:00:00")
	archiveEnd := mustParseBPATime(t, "2022-02-20 23:59:59")
	overlapTime := mustParseBPATime(t, "2022-02-20 09:30:00")
	disjointTime := mustParseBPATime(t, "2022-03-01 00:00:00")

	c := &Collector{
		baseDir: dir,
		current: &index.Index{
			Files: []index.File{
				{
					Path:           "archive/bundle.tar",
					FirstPublished: archiveStart,
					LastPublished:  archiveEnd,
					Types:          []index.VersionedType{{Type: index.BridgePoolAssignment, Major: 1}},
				},
				{
					Path:           "recent/disjoint",
					FirstPublished: disjointTime,
					LastPublished:  disjointTime,
					Types:          []index.VersionedType{{Type: index.BridgePoolAssignment, Major: 1}},
				},
				{
					Path:           "recent/overlapping",
					FirstPublished: overlapTime,
					LastPublished:  overlapTime,
					Types:          []index.VersionedType{{Type: index.BridgePoolAssignment, Major: 1}},
				},
			},
		},
	}

	next, err := c.StreamDescriptors(ctx, index.BridgePoolAssignment, TimeRange{})
	if err != nil {
		t.Fatal(err)
	}

	var seenPaths []string
	for {
		_, f, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		seenPaths = append(seenPaths, f.Path)
	}

	if len(seenPaths) != 2 {
		t.Fatalf("got %d descriptors, want 2 (archive file plus the disjoint recent file); got paths %v", len(seenPaths), seenPaths)
	}
	if seenPaths[0] != "archive/bundle.tar" || seenPaths[1] != "recent/disjoint" {
		t.Errorf("got paths %v, want [archive/bundle.tar recent/disjoint]", seenPaths)
	}
}
