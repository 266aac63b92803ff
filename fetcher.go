package collector

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/quay/zlog"

	"github.com/trinity-1686a/collector/index"
	"github.com/trinity-1686a/collector/internal/httputil"
)

// verifiedFetch runs the verified fetch task for a single File (spec §4.5):
//
//  1. If a local copy exists at <base>/<file.path> and hashes to file.SHA256,
//     succeed with no network I/O.
//  2. Else, if offline, fail NotFound.
//  3. Else GET <index.path>/<file.path>; a non-200 status is HttpStatus; a
//     present but mismatched Content-Length is HashMismatch without reading
//     the body.
//  4. Stream the response to disk while hashing; a final mismatch is
//     HashMismatch (the bad file may be left in place for the next attempt
//     to re-detect and overwrite).
//
// Grounded on internal/indexer/fetcher/fetcher.fetch and
// libindex/fetcher.fetchFileForCache's TeeReader-based hash-while-copy shape.
func (c *Collector) verifiedFetch(ctx context.Context, f index.File) error {
	const op = "collector.verifiedFetch"
	ctx = zlog.ContextWithValues(ctx, "component", op, "path", f.Path)
	dst := filepath.Join(c.baseDir, filepath.FromSlash(f.Path))

	if ok, err := fileMatchesDigest(dst, f.SHA256); err != nil {
		return newError(op, ErrIO, err, "checking existing file")
	} else if ok {
		zlog.Debug(ctx).Msg("local hash check succeeded, skipping fetch")
		if c.metrics != nil {
			c.metrics.CacheHits.Inc()
			c.metrics.FetchSuccess.Inc()
		}
		return nil
	}

	if c.offline() {
		return newError(op, ErrNotFound, nil, fmt.Sprintf("offline: %s not cached", f.Path))
	}

	url := c.indexPath + "/" + f.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return newError(op, ErrNetwork, err, "building request")
	}
	req.Header.Set("X-Request-Id", uuid.New().String())
	resp, err := c.client().Do(req)
	if err != nil {
		return newError(op, ErrNetwork, err, "issuing request")
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse(resp, http.StatusOK); err != nil {
		return newError(op, ErrHTTPStatus, err, strconv.Itoa(resp.StatusCode))
	}

	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseUint(cl, 10, 64); err == nil && n != f.Size {
			return newError(op, ErrHashMismatch, nil,
				fmt.Sprintf("content-length %d disagrees with declared size %d", n, f.Size))
		}
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return newError(op, ErrIO, err, "creating parent directory")
	}
	out, err := os.Create(dst)
	if err != nil {
		return newError(op, ErrIO, err, "creating destination file")
	}
	defer out.Close()

	h := sha256.New()
	if _, err := io.Copy(out, io.TeeReader(resp.Body, h)); err != nil {
		return newError(op, ErrNetwork, err, "streaming response body")
	}
	if !f.SHA256.Equal(h.Sum(nil)) {
		return newError(op, ErrHashMismatch, nil, "downloaded content does not match declared sha256")
	}
	if c.metrics != nil {
		c.metrics.FetchSuccess.Inc()
	}
	return nil
}

// fileMatchesDigest reports whether path exists and hashes to want. A
// missing file is not an error: it reports (false, nil).
func fileMatchesDigest(path string, want Digest) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}
	return want.Equal(h.Sum(nil)), nil
}
