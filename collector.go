// Package collector implements a client for the Tor Project's CollecTor
// archive: manifest-driven file selection, a concurrent verified fetch
// pipeline, and a descriptor decoding stream built on top of it.
package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/quay/zlog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/trinity-1686a/collector/descriptor"
	"github.com/trinity-1686a/collector/descriptor/filereader"
	"github.com/trinity-1686a/collector/index"
)

// DefaultIndexURL is the manifest URL used when New is not given one
// explicitly (spec §6).
const DefaultIndexURL = "https://collector.torproject.org/index/index.json"

const maxFetchRounds = 3

// Collector is the top-level coordinator: it owns the on-disk base
// directory and the most recently loaded Index, orchestrates concurrent
// verified downloads with retries, and produces descriptor streams from
// range queries (spec §4.5).
//
// A zero Collector is not usable; construct one with New.
type Collector struct {
	baseDir   string
	indexURL  string // empty means offline: no manifest or file may be fetched over HTTP
	indexPath string // Index.Path of the most recently loaded manifest; the base for file GETs

	httpClient *http.Client
	metrics    *Metrics

	current *index.Index
}

// Option configures a Collector constructed by New.
type Option func(*Collector)

// WithHTTPClient overrides the default http.Client used for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Collector) { c.httpClient = hc }
}

// WithMetrics attaches a Metrics value the Collector updates as it runs.
func WithMetrics(m *Metrics) Option {
	return func(c *Collector) { c.metrics = m }
}

// Offline disables all network access: reload_index reads only the cached
// index.json, and a file fetch that misses the local cache fails NotFound
// instead of issuing an HTTP request (spec §4.5).
func Offline() Option {
	return func(c *Collector) { c.indexURL = "" }
}

// New ensures baseDir exists, then performs an initial ReloadIndex. indexURL
// defaults to DefaultIndexURL; pass the Offline option for offline
// construction.
func New(ctx context.Context, baseDir string, indexURL string, opts ...Option) (*Collector, error) {
	const op = "collector.New"
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, newError(op, ErrIO, err, "creating base directory")
	}
	c := &Collector{
		baseDir:    baseDir,
		indexURL:   indexURL,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	if _, err := c.ReloadIndex(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collector) client() *http.Client {
	if c.httpClient == nil {
		return http.DefaultClient
	}
	return c.httpClient
}

func (c *Collector) offline() bool { return c.indexURL == "" }

func (c *Collector) manifestPath() string {
	return filepath.Join(c.baseDir, "index.json")
}

// ReloadResult reports whether ReloadIndex's parsed manifest differed from
// the Collector's previously held one.
type ReloadResult int

const (
	Unchanged ReloadResult = iota
	Changed
)

// ReloadIndex re-fetches the manifest (if online) and reparses the on-disk
// copy, per spec §4.5. Offline, only the cached index.json is reloaded; if
// it does not exist, reload fails.
func (c *Collector) ReloadIndex(ctx context.Context) (ReloadResult, error) {
	const op = "collector.ReloadIndex"
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	ctx = zlog.ContextWithValues(ctx, "component", op)

	if !c.offline() {
		if err := c.fetchManifest(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetching manifest")
			return Unchanged, err
		}
	}

	raw, err := os.ReadFile(c.manifestPath())
	if err != nil {
		err = newError(op, ErrIO, err, "reading cached index.json")
		span.RecordError(err)
		return Unchanged, err
	}
	next, err := index.ParseManifest(raw)
	if err != nil {
		err = newError(op, ErrSerialization, err, "parsing manifest")
		span.RecordError(err)
		return Unchanged, err
	}

	if c.current != nil && c.current.Equal(next) {
		zlog.Debug(ctx).Msg("index unchanged")
		return Unchanged, nil
	}
	c.current = next
	c.indexPath = next.Path
	zlog.Debug(ctx).Str("path", next.Path).Int("files", len(next.Files)).Msg("index changed")
	return Changed, nil
}

func (c *Collector) fetchManifest(ctx context.Context) error {
	const op = "collector.fetchManifest"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.indexURL, nil)
	if err != nil {
		return newError(op, ErrNetwork, err, "building request")
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return newError(op, ErrNetwork, err, "issuing request")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return newError(op, ErrHTTPStatus, nil, fmt.Sprintf("status %d fetching manifest", resp.StatusCode))
	}
	out, err := os.Create(c.manifestPath())
	if err != nil {
		return newError(op, ErrIO, err, "creating index.json")
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return newError(op, ErrIO, err, "writing index.json")
	}
	return nil
}

// FailedFile pairs a selected File with the error its last fetch attempt
// produced.
type FailedFile struct {
	File index.File
	Err  error
}

// DownloadDescriptors selects candidate files via the Index (types/range
// filtering, spec §4.4) and fetches each with up to three concurrent
// retry rounds (spec §4.5/§5). It returns nil iff every file was
// eventually fetched; otherwise it returns the residue that still failed
// after the final round.
func (c *Collector) DownloadDescriptors(ctx context.Context, types []index.Type, r TimeRange) ([]FailedFile, error) {
	const op = "collector.DownloadDescriptors"
	if c.current == nil {
		return nil, newError(op, ErrIO, nil, "no index loaded")
	}
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.Int("type.count", len(types))))
	defer span.End()
	ctx = zlog.ContextWithValues(ctx, "component", op)

	files := c.current.Filter(types, r)
	if len(files) == 0 {
		return nil, nil
	}

	var failed []FailedFile
	for round := 1; round <= maxFetchRounds; round++ {
		if c.metrics != nil {
			c.metrics.FetchRounds.Inc()
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))

		results := make([]error, len(files))
		for i, f := range files {
			i, f := i, f
			g.Go(func() error {
				results[i] = c.verifiedFetch(gctx, f)
				return nil // per-file errors are collected, not fatal to the round
			})
		}
		_ = g.Wait()

		failed = failed[:0]
		var next []index.File
		for i, err := range results {
			if err != nil {
				failed = append(failed, FailedFile{File: files[i], Err: err})
				next = append(next, files[i])
			}
		}
		if len(next) == 0 {
			zlog.Debug(ctx).Int("round", round).Msg("all files fetched")
			return nil, nil
		}
		if round < maxFetchRounds && c.metrics != nil {
			c.metrics.FetchRetries.Add(float64(len(next)))
		}
		files = next
		zlog.Debug(ctx).Int("round", round).Int("remaining", len(files)).Msg("round complete")
	}

	out := make([]FailedFile, len(failed))
	copy(out, failed)
	return out, nil
}

// StreamDescriptors selects files matching types/r (applying the §4.4
// streaming deduplication rule), then lazily reads and decodes each in
// turn. Each call to the returned function yields the next decoded
// Descriptor; io.EOF signals exhaustion. A per-file open, read or decode
// error is delivered in-band as (nil, file, err) so the caller can choose to
// skip it and keep consuming; the pipeline itself never retries (spec §7).
func (c *Collector) StreamDescriptors(ctx context.Context, t index.Type, r TimeRange) (next func() (descriptor.Descriptor, index.File, error), err error) {
	const op = "collector.StreamDescriptors"
	if c.current == nil {
		return nil, newError(op, ErrIO, nil, "no index loaded")
	}
	files := index.Dedup(c.current.Filter([]index.Type{t}, r))

	var (
		fi       int
		curFile  index.File
		curNext  func() (string, error)
		curClose func() error
		pending  []descriptor.Descriptor
		pi       int
	)

	advanceFile := func() error {
		if curClose != nil {
			curClose()
			curClose = nil
		}
		for fi < len(files) {
			curFile = files[fi]
			fi++
			path := filepath.Join(c.baseDir, filepath.FromSlash(curFile.Path))
			n, cl, err := filereader.Open(path)
			if err != nil {
				return err
			}
			curNext, curClose = n, cl
			return nil
		}
		curNext = nil
		return io.EOF
	}

	next = func() (descriptor.Descriptor, index.File, error) {
		for {
			if pi < len(pending) {
				d := pending[pi]
				pi++
				return d, curFile, nil
			}
			if curNext == nil {
				if err := advanceFile(); err == io.EOF {
					return nil, index.File{}, err
				} else if err != nil {
					return nil, curFile, newError(op, ErrIO, err, "opening file")
				}
			}
			body, err := curNext()
			if err == io.EOF {
				curNext = nil
				continue
			}
			if err != nil {
				curNext = nil // a read error ends this file; the next call moves on
				return nil, curFile, newError(op, ErrIO, err, "reading descriptor body")
			}
			ds, err := descriptor.Decode(body)
			if err != nil {
				return nil, curFile, wrapParseError(op, err)
			}
			pending, pi = ds, 0
		}
	}
	return next, nil
}

// FileToDescriptorStream reads f via the filereader package and decodes
// each body in turn, per spec §4.5. It is StreamDescriptors's per-file
// inner loop, exposed standalone for callers that already have a specific
// File in hand (e.g. after a DownloadDescriptors failure was resolved out
// of band).
func (c *Collector) FileToDescriptorStream(f index.File) (next func() (descriptor.Descriptor, error), closeFn func() error, err error) {
	const op = "collector.FileToDescriptorStream"
	path := filepath.Join(c.baseDir, filepath.FromSlash(f.Path))
	rn, rc, err := filereader.Open(path)
	if err != nil {
		return nil, nil, newError(op, ErrIO, err, "opening file")
	}

	var pending []descriptor.Descriptor
	var pi int
	next = func() (descriptor.Descriptor, error) {
		for {
			if pi < len(pending) {
				d := pending[pi]
				pi++
				return d, nil
			}
			body, err := rn()
			if err != nil {
				return nil, err // io.EOF or fatal
			}
			ds, err := descriptor.Decode(body)
			if err != nil {
				return nil, wrapParseError(op, err)
			}
			pending, pi = ds, 0
		}
	}
	return next, rc, nil
}

// wrapParseError converts a *descriptor.ParseError into this module's
// *Error, mapping "unsupported" to ErrUnsupportedDesc and everything else
// to ErrMalformedDesc.
func wrapParseError(op string, err error) error {
	pe, ok := err.(*descriptor.ParseError)
	if !ok {
		return newError(op, ErrMalformedDesc, err, "decoding descriptor")
	}
	kind := ErrMalformedDesc
	if pe.Kind == "unsupported" {
		kind = ErrUnsupportedDesc
	}
	return newError(op, kind, pe, pe.Reason)
}
