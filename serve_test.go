package streams

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtletowerz/go-streams/m3u8"
)

func readySession(t *testing.T, cfg *Config) (*Session, *fakeFetcher) {
	r, fetcher := newResolver(cfg, byteRangeDocs())
	_, err := r.Resolve(context.Background(), "https://host/v/x.m3u8", 0)
	require.NoError(t, err)
	return r.Session(), fetcher
}

func TestLocate(t *testing.T) {
	s, _ := readySession(t, nil)

	tests := []struct {
		name   string
		url    string
		offset int64
		want   Part
	}{
		{"init", "custom-hls://host/v/main.mp4", 2, Part{URL: "https://host/v/main.mp4", Init: true, Index: -1, ByteRange: &m3u8.ByteRange{Length: 4, OffsetExplicit: true}}},
		{"middle segment", "custom-hls://host/v/main.mp4", 8, Part{URL: "https://host/v/main.mp4", Index: 1, ByteRange: &m3u8.ByteRange{Length: 3, Offset: 7}}},
		{"segment start", "custom-hls://host/v/main.mp4", 10, Part{URL: "https://host/v/main.mp4", Index: 2, ByteRange: &m3u8.ByteRange{Length: 3, Offset: 10}}},
		{"original url", "https://host/v/main.mp4", 4, Part{URL: "https://host/v/main.mp4", Index: 0, ByteRange: &m3u8.ByteRange{Length: 3, Offset: 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Locate(tt.url, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocateOutsideEveryRange(t *testing.T) {
	s, _ := readySession(t, nil)

	_, err := s.Locate("custom-hls://host/v/main.mp4", 13)
	assert.ErrorContains(t, err, "offset 13")
	_, err = s.Locate("custom-hls://host/v/main.mp4", -1)
	assert.Error(t, err)
	_, err = s.Locate("custom-hls://host/v/other.mp4", 0)
	assert.Error(t, err)
}

func TestLocateWithoutRewrite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CustomScheme = ""
	s, _ := readySession(t, cfg)

	_, err := s.Locate("custom-hls://host/v/main.mp4", 8)
	assert.Error(t, err)

	p, err := s.Locate("https://host/v/main.mp4", 8)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Index)
}

func TestRestore(t *testing.T) {
	s, _ := readySession(t, nil)

	u, err := s.Restore("custom-hls://host/v/main.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://host/v/main.mp4", u)

	u, err = s.Restore("https://host/v/main.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://host/v/main.mp4", u)

	_, err = s.Restore("custom-hls://elsewhere/main.mp4")
	assert.Error(t, err)
}

func TestReadAtUsesCache(t *testing.T) {
	s, fetcher := readySession(t, nil)

	data, p, err := s.ReadAt(context.Background(), "custom-hls://host/v/main.mp4", 8)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Index)
	assert.Equal(t, "bb", string(data))

	data, _, err = s.ReadAt(context.Background(), "custom-hls://host/v/main.mp4", 7)
	require.NoError(t, err)
	assert.Equal(t, "bbb", string(data))
	assert.Equal(t, 1, fetcher.count("https://host/v/main.mp4 bytes=7-9"))

	data, p, err = s.ReadAt(context.Background(), "custom-hls://host/v/main.mp4", 0)
	require.NoError(t, err)
	assert.True(t, p.Init)
	assert.Equal(t, "INIT", string(data))

	_, _, err = s.ReadAt(context.Background(), "custom-hls://host/v/main.mp4", 99)
	assert.Error(t, err)
}

func TestLocateBeforeReady(t *testing.T) {
	r, _ := newResolver(nil, map[string]string{})
	_, err := r.Resolve(context.Background(), "https://host/missing.m3u8", 0)
	require.Error(t, err)

	_, err = r.Session().Locate("custom-hls://host/v/main.mp4", 0)
	assert.Error(t, err)
	_, err = r.Session().Restore("custom-hls://host/v/main.mp4")
	assert.Error(t, err)
}
