package streams

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/turtletowerz/go-streams/m3u8"
)

// Fetcher loads the bytes behind a URL, optionally only a byte range of it.
// Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, url string, r *m3u8.ByteRange) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, url string, r *m3u8.ByteRange) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string, r *m3u8.ByteRange) ([]byte, error) {
	return f(ctx, url, r)
}

// HTTPFetcher fetches over HTTP(S) with Range requests for byte ranges
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
	Headers   map[string]string
}

// NewHTTPFetcher builds an HTTPFetcher from cfg
func NewHTTPFetcher(cfg HTTPConfig) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, r *m3u8.ByteRange) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "error creating request for %q", url)
	}

	for k, v := range f.Headers {
		req.Header.Set(k, v)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	if r != nil {
		req.Header.Set("Range", r.HTTPRange())
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "error requesting %q", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, errors.Errorf("unexpected status %d for %q", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading body of %q", url)
	}

	// A server that ignores Range sends the whole resource
	if r != nil && resp.StatusCode == http.StatusOK {
		if int64(len(body)) < r.End() {
			return nil, errors.Errorf("range %s past end of %d byte body for %q", r.HTTPRange(), len(body), url)
		}
		body = body[r.Offset:r.End()]
	}
	return body, nil
}
