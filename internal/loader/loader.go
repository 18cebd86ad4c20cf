package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/gubarz/embedme/internal/parser"
)

var (
	// ErrNotFound means a local target does not exist
	ErrNotFound = errors.New("file does not exist")
	// ErrEmpty means the target resolved to no content
	ErrEmpty = errors.New("target content is empty")
)

// ============================================================================
// Fetcher Interface
// ============================================================================

// Fetcher retrieves remote text by URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// httpFetcher implements Fetcher over HTTP with a per-request timeout
type httpFetcher struct {
	client  *http.Client
	timeout time.Duration
}

// Fetch issues a GET and returns the body as text. There is no retry.
func (f *httpFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(body), nil
}

// ============================================================================
// Loader
// ============================================================================

// Options configures a Loader
type Options struct {
	SourceRoot   string        // base for relative filenames; empty means the document's directory
	FetchTimeout time.Duration // zero disables the timeout
	CacheSize    int           // remote bodies kept per run
}

// Loader resolves references to literal text, from disk or over HTTP.
// It is safe for concurrent use.
type Loader struct {
	sourceRoot string
	fetcher    Fetcher
	cache      *lru.Cache[string, string]
	inflight   singleflight.Group
}

// New creates a loader backed by the filesystem and an HTTP fetcher
func New(opts Options) (*Loader, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create remote cache: %w", err)
	}

	return &Loader{
		sourceRoot: opts.SourceRoot,
		fetcher: &httpFetcher{
			client:  &http.Client{},
			timeout: opts.FetchTimeout,
		},
		cache: cache,
	}, nil
}

// WithFetcher sets a custom fetcher (useful for testing)
func (l *Loader) WithFetcher(f Fetcher) *Loader {
	l.fetcher = f
	return l
}

// Load returns the full text a reference points at. docPath is the path of
// the document holding the fence. An empty result is reported as ErrEmpty.
func (l *Loader) Load(ctx context.Context, docPath string, ref parser.Reference) (string, error) {
	var (
		text string
		err  error
	)
	if ref.IsRemote() {
		text, err = l.loadRemote(ctx, ref.Filename)
	} else {
		text, err = l.loadLocal(docPath, ref.Filename)
	}
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("%s: %w", ref.Filename, ErrEmpty)
	}
	return text, nil
}

// loadRemote fetches each URL at most once per run. Concurrent callers for
// the same URL share one request.
func (l *Loader) loadRemote(ctx context.Context, url string) (string, error) {
	if text, ok := l.cache.Get(url); ok {
		return text, nil
	}
	v, err, _ := l.inflight.Do(url, func() (any, error) {
		if text, ok := l.cache.Get(url); ok {
			return text, nil
		}
		text, err := l.fetcher.Fetch(ctx, url)
		if err != nil {
			return "", err
		}
		l.cache.Add(url, text)
		return text, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (l *Loader) loadLocal(docPath, filename string) (string, error) {
	path, err := l.ResolvePath(docPath, filename)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("found filename %s in comment, but %w at %s", filename, ErrNotFound, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// ResolvePath returns the absolute path of a local filename, relative to the
// source root when one is configured and to the document's directory
// otherwise. Absolute filenames are returned as is.
func (l *Loader) ResolvePath(docPath, filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filepath.Clean(filename), nil
	}

	base := filepath.Dir(docPath)
	if l.sourceRoot != "" {
		base = l.sourceRoot
	}

	path, err := filepath.Abs(filepath.Join(base, filename))
	if err != nil {
		return "", fmt.Errorf("error resolving path: %w", err)
	}
	return path, nil
}
