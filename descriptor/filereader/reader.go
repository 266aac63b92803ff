// Package filereader implements the streaming reader over plain,
// tar, and tar.xz descriptor files (spec §4.1).
package filereader

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ulikunitz/xz"
)

// IsArchive reports whether path names a tar-based file, per the same
// suffix rule the index package uses to classify File entries.
func IsArchive(path string) bool {
	return strings.HasSuffix(path, ".tar") || strings.Contains(path, ".tar.")
}

// Open returns a lazy sequence of descriptor bodies read from path. Each
// returned string begins with an "@type" header line. The returned next
// function yields io.EOF once exhausted; any other error is fatal and
// terminates the sequence.
func Open(path string) (next func() (string, error), closeFn func() error, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("filereader: %w", err)
	}
	if IsArchive(path) {
		return openArchive(f, path)
	}
	return openPlain(f)
}

func openArchive(f *os.File, path string) (func() (string, error), func() error, error) {
	var r io.Reader = f
	closers := []io.Closer{f}
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(bufio.NewReader(f))
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("filereader: xz: %w", err)
		}
		r = xr
	}
	tr := tar.NewReader(r)

	next := func() (string, error) {
		for {
			hdr, err := tr.Next()
			if err != nil {
				return "", err // io.EOF or a real failure, both fatal to the caller
			}
			if hdr.Typeflag != tar.TypeReg {
				continue
			}
			b, err := io.ReadAll(tr)
			if err != nil {
				return "", fmt.Errorf("filereader: reading tar entry %q: %w", hdr.Name, err)
			}
			if !isValidUTF8(b) {
				return "", fmt.Errorf("filereader: tar entry %q is not valid UTF-8", hdr.Name)
			}
			return string(b), nil
		}
	}
	closeFn := func() error {
		var firstErr error
		for _, c := range closers {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	return next, closeFn, nil
}

func openPlain(f *os.File) (func() (string, error), func() error, error) {
	b, err := io.ReadAll(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("filereader: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, nil, fmt.Errorf("filereader: %w", err)
	}
	if !isValidUTF8(b) {
		return nil, nil, fmt.Errorf("filereader: file is not valid UTF-8")
	}

	chunks := splitChunks(string(b))
	i := 0
	next := func() (string, error) {
		if i >= len(chunks) {
			return "", io.EOF
		}
		c := chunks[i]
		i++
		return c, nil
	}
	return next, func() error { return nil }, nil
}

// splitChunks splits s at every newline immediately followed by "@type", so
// every returned chunk (the first included) begins with "@type" and keeps
// the newline that ends its own last line.
func splitChunks(s string) []string {
	const marker = "\n@type"
	var chunks []string
	start := strings.Index(s, "@type")
	if start < 0 {
		return nil
	}
	s = s[start:]
	for {
		idx := strings.Index(s, marker)
		if idx < 0 {
			chunks = append(chunks, s)
			break
		}
		chunks = append(chunks, s[:idx+1]) // the '\n' stays with this chunk
		s = s[idx+1:]                      // next chunk starts at "@type..."
	}
	return chunks
}

func isValidUTF8(b []byte) bool { return utf8.Valid(b) }
