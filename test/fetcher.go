package test

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
)

// MockFile is one file a MockArchive serves: its manifest-relative path and
// raw content. SHA256 and Size are derived from Body by NewMockArchive.
type MockFile struct {
	Path string
	Body []byte
}

// MockArchive is an in-memory stand-in for a CollecTor archive: an
// index.json manifest plus the file bodies it describes, served over a
// counting http.RoundTripper so tests can assert how many requests were
// actually issued (the fetch-idempotence scenario hinges on that count).
type MockArchive struct {
	t         testing.TB
	basePath  string
	files     map[string]MockFile
	manifest  []byte
	getCounts map[string]*int64
}

// NewMockArchive builds a MockArchive serving the given files under
// basePath (the manifest's "path" field), with a correct sha256/size for
// each.
func NewMockArchive(t testing.TB, basePath string, files ...MockFile) *MockArchive {
	t.Helper()
	a := &MockArchive{
		t:         t,
		basePath:  basePath,
		files:     make(map[string]MockFile, len(files)),
		getCounts: make(map[string]*int64, len(files)),
	}
	var b strings.Builder
	fmt.Fprintf(&b, `{"index_created":"2022-01-01 00:00","path":%q,"files":[`, basePath)
	for i, f := range files {
		a.files[f.Path] = f
		var n int64
		a.getCounts[f.Path] = &n
		sum := sha256.Sum256(f.Body)
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"path":%q,"size":%d,"last_modified":"2022-01-01 00:00","first_published":"2022-01-01 00:00","last_published":"2022-01-01 00:00","sha256":%q}`,
			f.Path, len(f.Body), base64.StdEncoding.EncodeToString(sum[:]))
	}
	b.WriteString(`]}`)
	a.manifest = []byte(b.String())
	return a
}

// ManifestJSON returns the generated index.json document.
func (a *MockArchive) ManifestJSON() []byte { return a.manifest }

// GetCount reports how many GET requests this MockArchive has served for
// path (relative, as it appears in the manifest).
func (a *MockArchive) GetCount(path string) int64 {
	n, ok := a.getCounts[path]
	if !ok {
		return 0
	}
	return atomic.LoadInt64(n)
}

// Client returns an *http.Client whose RoundTripper serves this archive's
// manifest at indexURL and its files at "<basePath>/<file.path>".
func (a *MockArchive) Client(indexURL string) *http.Client {
	return &http.Client{
		Transport: NewRoundTripper(func(req *http.Request) (*http.Response, error) {
			var resp *http.Response
			switch {
			case req.URL.String() == indexURL:
				resp = textResponse(a.manifest)
			case strings.HasPrefix(req.URL.String(), a.basePath+"/"):
				path := strings.TrimPrefix(req.URL.String(), a.basePath+"/")
				f, ok := a.files[path]
				if !ok {
					resp = notFoundResponse()
					break
				}
				atomic.AddInt64(a.getCounts[path], 1)
				resp = textResponse(f.Body)
				resp.Header.Set("Content-Length", strconv.Itoa(len(f.Body)))
				resp.ContentLength = int64(len(f.Body))
			default:
				resp = notFoundResponse()
			}
			resp.Request = req
			return resp, nil
		}),
	}
}

func textResponse(body []byte) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Status:     "200 OK",
		Body:       nopCloser{bytes.NewReader(body)},
		Header:     make(http.Header),
	}
}

func notFoundResponse() *http.Response {
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       nopCloser{bytes.NewReader(nil)},
		Header:     make(http.Header),
	}
}

type nopCloser struct{ *bytes.Reader }

func (nopCloser) Close() error { return nil }
