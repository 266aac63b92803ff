package filereader

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"
)

func TestIsArchive(t *testing.T) {
	tt := []struct {
		path string
		want bool
	}{
		{"bridge-descriptors.tar", true},
		{"bridge-descriptors.tar.xz", true},
		{"2022-02-20-10-00-00-bridge-extra-info", false},
		{"index.json", false},
	}
	for _, tc := range tt {
		if got := IsArchive(tc.path); got != tc.want {
			t.Errorf("IsArchive(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func writeTempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenPlainSplitsOnAtTypeBoundary(t *testing.T) {
	content := "@type bridge-pool-assignment 1.0\nbridge-pool-assignment 2022-02-20 10:00:00\nAAAA https\n" +
		"@type bridge-pool-assignment 1.0\nbridge-pool-assignment 2022-02-20 11:00:00\nBBBB email\n"
	path := writeTempFile(t, "descriptors", []byte(content))

	next, closeFn, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	var got []string
	for {
		chunk, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, chunk)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	for i, c := range got {
		if c[:5] != "@type" {
			t.Errorf("chunk %d does not begin with @type: %q", i, c)
		}
	}
	if got[0] != "@type bridge-pool-assignment 1.0\nbridge-pool-assignment 2022-02-20 10:00:00\nAAAA https\n" {
		t.Errorf("unexpected first chunk: %q", got[0])
	}
}

func TestOpenPlainRejectsInvalidUTF8(t *testing.T) {
	path := writeTempFile(t, "descriptors", []byte{0xff, 0xfe, 0xfd})
	if _, _, err := Open(path); err == nil {
		t.Fatal("expected an error opening a non-UTF-8 file")
	}
}

func buildTar(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, body := range entries {
		hdr := &tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOpenTarYieldsEachEntry(t *testing.T) {
	body1 := "@type microdescriptor 1.0\nntor-onion-key abcd==\n"
	body2 := "@type microdescriptor 1.0\nntor-onion-key efgh==\n"
	raw := buildTar(t, map[string]string{"a": body1, "b": body2})
	path := writeTempFile(t, "microdescs.tar", raw)

	next, closeFn, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	var got []string
	for {
		chunk, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, chunk)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
}

func TestOpenTarXzYieldsEntries(t *testing.T) {
	body := "@type microdescriptor 1.0\nntor-onion-key abcd==\n"
	raw := buildTar(t, map[string]string{"a": body})

	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xw.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}

	path := writeTempFile(t, "microdescs.tar.xz", buf.Bytes())
	next, closeFn, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()

	chunk, err := next()
	if err != nil {
		t.Fatal(err)
	}
	if chunk != body {
		t.Errorf("got %q, want %q", chunk, body)
	}
	if _, err := next(); err != io.EOF {
		t.Errorf("got %v, want io.EOF", err)
	}
}
