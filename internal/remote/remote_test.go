package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxbase-eu/urlpack/internal/hook"
)

func TestSyntheticID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/pkg/foo.min.js", "foo"},
		{"https://host/lib/util.js", "util"},
		{"http://host/react", "react"},
		{"https://host/a/b/c.d.e.ts", "c"},
		{"https://host/dir/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, SyntheticID(tt.url))
		})
	}
}

func TestIsRemote(t *testing.T) {
	remote, secure := IsRemote("https://host/x.js")
	assert.True(t, remote)
	assert.True(t, secure)

	remote, secure = IsRemote("http://host/x.js")
	assert.True(t, remote)
	assert.False(t, secure)

	for _, s := range []string{"./x.js", "lodash", "ftp://host/x.js", "httpx://host", "HTTPS://host/x.js"} {
		remote, _ = IsRemote(s)
		assert.False(t, remote, s)
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("util", Record{URL: "https://a/util.js", Secure: true}))
	require.NoError(t, r.Register("util", Record{URL: "https://a/util.js", Secure: true}))
	assert.Equal(t, 1, r.Len())

	err := r.Register("util", Record{URL: "https://b/util.js", Secure: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousID))
	assert.Contains(t, err.Error(), "https://a/util.js")
	assert.Contains(t, err.Error(), "https://b/util.js")

	rec, ok := r.Lookup("util")
	require.True(t, ok)
	assert.Equal(t, "https://a/util.js", rec.URL)
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Register("same", Record{URL: "https://host/same.js", Secure: true})
			_, _ = r.Lookup("same")
		}()
	}
	wg.Wait()
	assert.Equal(t, []string{"same"}, r.IDs())
}

func TestPlugin_ResolveIgnoresNonURLs(t *testing.T) {
	p := New()
	for _, s := range []string{"./local.js", "../up.js", "lodash", "node:fs", "/abs/path.js"} {
		id, err := p.Resolve(hook.ResolveArgs{Specifier: s, Importer: "/src/index.js"})
		require.NoError(t, err)
		assert.Empty(t, id, s)
	}
	assert.Equal(t, 0, p.Registry().Len())
}

func TestPlugin_ResolveIsIdempotent(t *testing.T) {
	p := New()
	args := hook.ResolveArgs{Specifier: "https://host/lib/util.js"}

	first, err := p.Resolve(args)
	require.NoError(t, err)
	second, err := p.Resolve(args)
	require.NoError(t, err)

	assert.Equal(t, "util", first)
	assert.Equal(t, first, second)

	rec, ok := p.Registry().Lookup("util")
	require.True(t, ok)
	assert.Equal(t, Record{URL: "https://host/lib/util.js", Secure: true}, rec)
}

func TestPlugin_ResolveCollision(t *testing.T) {
	p := New()
	_, err := p.Resolve(hook.ResolveArgs{Specifier: "https://a.example/util.js"})
	require.NoError(t, err)

	_, err = p.Resolve(hook.ResolveArgs{Specifier: "http://b.example/util.js"})
	assert.ErrorIs(t, err, ErrAmbiguousID)
}

func TestPlugin_ResolveEmptyID(t *testing.T) {
	p := New()
	_, err := p.Resolve(hook.ResolveArgs{Specifier: "https://host/dir/"})
	assert.Error(t, err)
}

func TestPlugin_ResolveRelativeFromRemote(t *testing.T) {
	p := New()
	_, err := p.Resolve(hook.ResolveArgs{Specifier: "https://host/lib/index.js"})
	require.NoError(t, err)

	id, err := p.Resolve(hook.ResolveArgs{
		Specifier:    "./helpers/math.js",
		Importer:     "index",
		ImporterHook: Namespace,
	})
	require.NoError(t, err)
	assert.Equal(t, "math", id)

	rec, ok := p.Registry().Lookup("math")
	require.True(t, ok)
	assert.Equal(t, "https://host/lib/helpers/math.js", rec.URL)

	// The same relative path from a local file is not ours.
	id, err = p.Resolve(hook.ResolveArgs{Specifier: "./helpers/math.js", Importer: "/src/index.js"})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestPlugin_LoadFromFixtureServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lib/util.js", r.URL.Path)
		_, _ = w.Write([]byte("export function connect() {}"))
	}))
	defer ts.Close()

	p := New()
	id, err := p.Resolve(hook.ResolveArgs{Specifier: ts.URL + "/lib/util.js"})
	require.NoError(t, err)

	src, err := p.Load(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, src)
	assert.Equal(t, "export function connect() {}", src.Contents)
	assert.Equal(t, hook.LoaderJS, src.Loader)
}

func TestPlugin_LoadUnknownDefers(t *testing.T) {
	p := New()
	src, err := p.Load(context.Background(), "never-registered")
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestPlugin_LoadFailureNamesURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	p := New()
	url := ts.URL + "/missing.js"
	id, err := p.Resolve(hook.ResolveArgs{Specifier: url})
	require.NoError(t, err)

	_, err = p.Load(context.Background(), id)
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.Contains(t, err.Error(), url)
}

func TestFetcher_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := ts.URL
	ts.Close()

	f := NewFetcher(FetchOptions{AllowHTTP: true, Timeout: 2 * time.Second})
	_, err := f.Fetch(context.Background(), Record{URL: addr + "/x.js"})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Zero(t, fe.Status)
	assert.Equal(t, "request failed", fe.Reason)
}

func TestFetcher_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer ts.Close()

	f := NewFetcher(FetchOptions{AllowHTTP: true, Timeout: 50 * time.Millisecond})
	_, err := f.Fetch(context.Background(), Record{URL: ts.URL + "/slow.js"})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.True(t, fe.Timeout())
}

func TestFetcher_RefusesPlainHTTP(t *testing.T) {
	f := NewFetcher(FetchOptions{AllowHTTP: false})
	_, err := f.Fetch(context.Background(), Record{URL: "http://127.0.0.1:1/x.js", Secure: false})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, errInsecureRefused)
}

func TestFetcher_MaxBytes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789abcdef"))
	}))
	defer ts.Close()

	f := NewFetcher(FetchOptions{AllowHTTP: true, MaxBytes: 8})
	_, err := f.Fetch(context.Background(), Record{URL: ts.URL + "/big.js"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "larger than 8 bytes")

	f = NewFetcher(FetchOptions{AllowHTTP: true, MaxBytes: 16})
	body, err := f.Fetch(context.Background(), Record{URL: ts.URL + "/big.js"})
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", body)
}

func TestFetcher_TooManyRedirects(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, ts.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer ts.Close()

	f := NewFetcher(FetchOptions{AllowHTTP: true, MaxRedirects: 2})
	_, err := f.Fetch(context.Background(), Record{URL: ts.URL + "/loop.js"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errTooManyRedirects)
}

func TestFetcher_CanceledContext(t *testing.T) {
	f := NewFetcher(FetchOptions{AllowHTTP: true, MaxParallel: 1, RateLimit: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, Record{URL: "https://127.0.0.1:1/x.js", Secure: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
