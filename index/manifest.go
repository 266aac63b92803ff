package index

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/trinity-1686a/collector/internal/digest"
)

// manifestTimeLayout is the timestamp format used throughout the manifest
// JSON ("index_created", "last_modified", "first_published",
// "last_published"): no seconds, space-separated date and time, UTC.
const manifestTimeLayout = "2006-01-02 15:04"

// manifestTime decodes a manifest timestamp, treating an empty string as
// the Unix epoch per spec §3/§6.
type manifestTime struct{ time.Time }

func (t *manifestTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Unix(0, 0).UTC()
		return nil
	}
	parsed, err := time.Parse(manifestTimeLayout, s)
	if err != nil {
		return fmt.Errorf("index: malformed timestamp %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

// manifestType is the wire shape of a File's "types" entry.
type manifestType struct {
	TType   string `json:"ttype"`
	Version string `json:"version"`
}

// manifestFile is the wire shape of a "file" node in the manifest tree.
type manifestFile struct {
	Path           string         `json:"path"`
	Size           uint64         `json:"size"`
	LastModified   manifestTime   `json:"last_modified"`
	FirstPublished manifestTime   `json:"first_published"`
	LastPublished  manifestTime   `json:"last_published"`
	Types          []manifestType `json:"types"`
	SHA256         string         `json:"sha256"`
}

// manifestDirectory is the wire shape of a "directory" node: a path
// component plus any number of nested directories and leaf files.
type manifestDirectory struct {
	Path        string              `json:"path"`
	Directories []manifestDirectory `json:"directories"`
	Files       []manifestFile      `json:"files"`
}

// manifestRoot is the top-level manifest document, per spec §6.
type manifestRoot struct {
	IndexCreated  manifestTime        `json:"index_created"`
	BuildRevision string              `json:"build_revision"`
	Path          string              `json:"path"`
	Directories   []manifestDirectory `json:"directories"`
	Files         []manifestFile      `json:"files"`
}

// ParseManifest decodes raw manifest JSON and flattens its directory tree
// into an ordered, lexicographically-sorted Index, per spec §4.4 "Load".
func ParseManifest(raw []byte) (*Index, error) {
	var root manifestRoot
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("index: malformed manifest: %w", err)
	}

	var files []File
	var walk func(prefix string, dir manifestDirectory)
	walk = func(prefix string, dir manifestDirectory) {
		base := joinPath(prefix, dir.Path)
		for _, f := range dir.Files {
			files = append(files, toFile(base, f))
		}
		for _, d := range dir.Directories {
			walk(base, d)
		}
	}
	for _, f := range root.Files {
		files = append(files, toFile("", f))
	}
	for _, d := range root.Directories {
		walk("", d)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return &Index{
		CreationTime: root.IndexCreated.Time,
		Path:         root.Path,
		Files:        files,
	}, nil
}

// joinPath concatenates ancestor directory names with a forward slash, per
// spec §3: "each leaf file inherits the concatenation of its ancestor
// directory names as a forward-slash-joined relative path."
func joinPath(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(name, "/")
	}
}

func toFile(dirPath string, f manifestFile) File {
	types := make([]VersionedType, 0, len(f.Types))
	for _, mt := range f.Types {
		vt, err := ParseVersionedType(mt.TType, mt.Version)
		if err != nil {
			// A malformed version string on one type entry shouldn't sink
			// the whole manifest load; fall back to the named Type at
			// version 0.0, so the file stays selectable by this type.
			vt = VersionedType{Type: ParseType(mt.TType)}
		}
		types = append(types, vt)
	}

	var sum digest.Digest
	if f.SHA256 != "" {
		if d, err := digest.DecodeManifestSHA256(f.SHA256); err == nil {
			sum = d
		}
	}

	// An absent first/last_published field never reaches UnmarshalJSON, so
	// default it to the epoch here, the same as an empty one.
	first, last := f.FirstPublished.Time, f.LastPublished.Time
	if first.IsZero() {
		first = time.Unix(0, 0).UTC()
	}
	if last.IsZero() {
		last = time.Unix(0, 0).UTC()
	}

	return File{
		Path:           joinPath(dirPath, f.Path),
		Size:           f.Size,
		LastModified:   f.LastModified.Time,
		FirstPublished: first,
		LastPublished:  last,
		Types:          types,
		SHA256:         sum,
	}
}
