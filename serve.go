package streams

import (
	"context"
	"fmt"
	"net/url"

	"github.com/turtletowerz/go-streams/m3u8"
)

// Part is the init or media segment that holds a requested byte offset
type Part struct {
	URL       string          `json:"url" yaml:"url"`
	Init      bool            `json:"init" yaml:"init"`
	Index     int             `json:"index" yaml:"index"` // -1 for the init segment
	ByteRange *m3u8.ByteRange `json:"byte_range,omitempty" yaml:"byte_range,omitempty"`
}

// contains reports whether offset falls inside the part. A part without a
// byte range is the whole resource.
func (p Part) contains(offset int64) bool {
	if p.ByteRange == nil {
		return true
	}
	return offset >= p.ByteRange.Offset && offset < p.ByteRange.End()
}

// Restore maps a rewritten segment or init URL back to its original
// location. Original URLs are returned unchanged.
func (s *Session) Restore(rawURL string) (string, error) {
	ready, err := s.readyOrErr()
	if err != nil {
		return "", err
	}

	match := s.matcher(ready, rawURL)
	if ready.Init != nil && match(ready.Init.URL) {
		return ready.Init.URL, nil
	}
	for _, seg := range ready.Segments {
		if match(seg.URL) {
			return seg.URL, nil
		}
	}
	return "", fmt.Errorf("%q is not part of the playlist", rawURL)
}

// Locate finds the init or media segment behind rawURL whose byte range
// holds offset. rawURL may be the rewritten or the original location.
func (s *Session) Locate(rawURL string, offset int64) (Part, error) {
	ready, err := s.readyOrErr()
	if err != nil {
		return Part{}, err
	}
	if offset < 0 {
		return Part{}, fmt.Errorf("negative offset %d", offset)
	}

	match := s.matcher(ready, rawURL)
	if ready.Init != nil && match(ready.Init.URL) {
		p := Part{URL: ready.Init.URL, Init: true, Index: -1, ByteRange: ready.Init.ByteRange}
		if p.contains(offset) {
			return p, nil
		}
	}
	for _, seg := range ready.Segments {
		if !match(seg.URL) {
			continue
		}
		p := Part{URL: seg.URL, Index: seg.Index, ByteRange: seg.ByteRange}
		if p.contains(offset) {
			return p, nil
		}
	}
	return Part{}, fmt.Errorf("no segment of %q holds offset %d", rawURL, offset)
}

// ReadAt returns the bytes of rawURL from offset to the end of the part
// holding it. Part bytes come from the session cache.
func (s *Session) ReadAt(ctx context.Context, rawURL string, offset int64) ([]byte, Part, error) {
	p, err := s.Locate(rawURL, offset)
	if err != nil {
		return nil, Part{}, err
	}

	var data []byte
	if p.Init {
		data, err = s.FetchInit(ctx)
	} else {
		data, err = s.FetchSegment(ctx, p.Index)
	}
	if err != nil {
		return nil, Part{}, err
	}

	start := offset
	if p.ByteRange != nil {
		start -= p.ByteRange.Offset
	}
	if start > int64(len(data)) {
		return nil, Part{}, fmt.Errorf("offset %d past end of %d byte part", offset, len(data))
	}
	return data[start:], p, nil
}

// matcher compares candidate original URLs against rawURL in both its
// original and rewritten forms
func (s *Session) matcher(ready *Ready, rawURL string) func(string) bool {
	var rewriter *m3u8.Rewriter
	if scheme := s.resolver.cfg.CustomScheme; scheme != "" {
		if base, err := url.Parse(ready.PlaylistURL); err == nil {
			rewriter = &m3u8.Rewriter{Base: base, Scheme: scheme}
		}
	}

	return func(candidate string) bool {
		if candidate == rawURL {
			return true
		}
		if rewriter == nil {
			return false
		}
		u, err := rewriter.URL(candidate)
		return err == nil && u == rawURL
	}
}
