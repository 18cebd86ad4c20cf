package loader_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/embedme/internal/loader"
	"github.com/gubarz/embedme/internal/parser"
)

type stubFetcher struct {
	calls atomic.Int32
	body  string
	err   error
	delay time.Duration
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (string, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.body, s.err
}

func TestLoader_LoadLocal(t *testing.T) {
	t.Parallel()

	t.Run("resolves relative to the document", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "docs"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "docs", "a.js"), []byte("const a = 1;\n"), 0o644))

		l, err := loader.New(loader.Options{})
		require.NoError(t, err)

		text, err := l.Load(context.Background(), filepath.Join(dir, "docs", "README.md"), parser.Reference{Filename: "a.js"})
		require.NoError(t, err)
		assert.Equal(t, "const a = 1;\n", text)
	})

	t.Run("resolves relative to the source root", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("package b\n"), 0o644))

		l, err := loader.New(loader.Options{SourceRoot: root})
		require.NoError(t, err)

		text, err := l.Load(context.Background(), "/elsewhere/README.md", parser.Reference{Filename: "b.go"})
		require.NoError(t, err)
		assert.Equal(t, "package b\n", text)
	})

	t.Run("missing file reports not found", func(t *testing.T) {
		t.Parallel()

		l, err := loader.New(loader.Options{})
		require.NoError(t, err)

		_, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "README.md"), parser.Reference{Filename: "nope.ts"})
		assert.ErrorIs(t, err, loader.ErrNotFound)
	})

	t.Run("empty file reports empty", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), nil, 0o644))

		l, err := loader.New(loader.Options{})
		require.NoError(t, err)

		_, err = l.Load(context.Background(), filepath.Join(dir, "README.md"), parser.Reference{Filename: "empty.txt"})
		assert.ErrorIs(t, err, loader.ErrEmpty)
	})
}

func TestLoader_LoadRemote(t *testing.T) {
	t.Parallel()

	t.Run("fetches over HTTP", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "remote body\n")
		}))
		defer srv.Close()

		l, err := loader.New(loader.Options{FetchTimeout: time.Second})
		require.NoError(t, err)

		text, err := l.Load(context.Background(), "README.md", parser.Reference{Filename: srv.URL + "/a.txt"})
		require.NoError(t, err)
		assert.Equal(t, "remote body\n", text)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		l, err := loader.New(loader.Options{FetchTimeout: time.Second})
		require.NoError(t, err)

		_, err = l.Load(context.Background(), "README.md", parser.Reference{Filename: srv.URL + "/missing"})
		assert.ErrorContains(t, err, "unexpected status")
	})

	t.Run("times out", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		l, err := loader.New(loader.Options{FetchTimeout: 50 * time.Millisecond})
		require.NoError(t, err)

		_, err = l.Load(context.Background(), "README.md", parser.Reference{Filename: srv.URL})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})

	t.Run("caches bodies by URL", func(t *testing.T) {
		t.Parallel()

		stub := &stubFetcher{body: "cached"}
		l, err := loader.New(loader.Options{})
		require.NoError(t, err)
		l.WithFetcher(stub)

		ref := parser.Reference{Filename: "https://example.com/x.go"}
		for i := 0; i < 3; i++ {
			text, err := l.Load(context.Background(), "README.md", ref)
			require.NoError(t, err)
			assert.Equal(t, "cached", text)
		}
		assert.Equal(t, int32(1), stub.calls.Load())
	})

	t.Run("concurrent loads of one URL share a fetch", func(t *testing.T) {
		t.Parallel()

		stub := &stubFetcher{body: "shared", delay: 50 * time.Millisecond}
		l, err := loader.New(loader.Options{})
		require.NoError(t, err)
		l.WithFetcher(stub)

		ref := parser.Reference{Filename: "https://example.com/a.go"}
		texts := make([]string, 4)
		errs := make([]error, 4)

		var wg sync.WaitGroup
		for i := range texts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				texts[i], errs[i] = l.Load(context.Background(), "README.md", ref)
			}()
		}
		wg.Wait()

		for i := range texts {
			require.NoError(t, errs[i])
			assert.Equal(t, "shared", texts[i])
		}
		assert.Equal(t, int32(1), stub.calls.Load())
	})

	t.Run("empty remote body is a skip", func(t *testing.T) {
		t.Parallel()

		l, err := loader.New(loader.Options{})
		require.NoError(t, err)
		l.WithFetcher(&stubFetcher{})

		_, err = l.Load(context.Background(), "README.md", parser.Reference{Filename: "https://example.com/empty"})
		assert.ErrorIs(t, err, loader.ErrEmpty)
	})
}
