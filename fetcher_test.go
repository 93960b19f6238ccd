package streams

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtletowerz/go-streams/m3u8"
)

func TestHTTPFetcher(t *testing.T) {
	content := strings.Repeat("0123456789", 10)
	var gotRange, gotAgent, gotReferer string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Range")
		gotAgent = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")

		switch r.URL.Path {
		case "/file":
			http.ServeContent(w, r, "file", time.Time{}, strings.NewReader(content))
		case "/norange":
			_, _ = w.Write([]byte(content))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := DefaultConfig().HTTP
	cfg.Headers = map[string]string{"Referer": "https://example.com/"}
	fetcher := NewHTTPFetcher(cfg)

	data, err := fetcher.Fetch(context.Background(), server.URL+"/file", nil)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
	assert.Empty(t, gotRange)
	assert.Equal(t, "go-streams/1.0", gotAgent)
	assert.Equal(t, "https://example.com/", gotReferer)

	br := &m3u8.ByteRange{Length: 5, Offset: 12}
	data, err = fetcher.Fetch(context.Background(), server.URL+"/file", br)
	require.NoError(t, err)
	assert.Equal(t, "bytes=12-16", gotRange)
	assert.Equal(t, "23456", string(data))

	data, err = fetcher.Fetch(context.Background(), server.URL+"/norange", br)
	require.NoError(t, err)
	assert.Equal(t, "23456", string(data), "full body is sliced when Range is ignored")

	_, err = fetcher.Fetch(context.Background(), server.URL+"/norange", &m3u8.ByteRange{Length: 10, Offset: 95})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "past end of 100 byte body")

	_, err = fetcher.Fetch(context.Background(), server.URL+"/missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestHTTPFetcherCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&HTTPFetcher{}).Fetch(ctx, server.URL, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveOverHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/show/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(twoVariantMaster))
	})
	mux.HandleFunc("/show/low/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(lowMedia))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	r := New(nil, WithLogger(quietLogger()))
	ready, err := r.Resolve(context.Background(), server.URL+"/show/master.m3u8", 1000000)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/show/low/seg1.ts", ready.Segments[1].URL)
}
