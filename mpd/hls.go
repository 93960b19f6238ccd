package mpd

import (
	"fmt"
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// formatDuration prints seconds the way EXTINF expects, always with a fraction
func formatDuration(seconds float64) string {
	s := strconv.FormatFloat(seconds, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func writeHeader(b *strings.Builder, segment float64) {
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:6\n")
	fmt.Fprintf(b, "#EXT-X-TARGETDURATION:%d\n", int64(math.Ceil(segment)))
	b.WriteString("#EXT-X-MEDIA-SEQUENCE:0\n")
	b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")
	b.WriteString("#EXT-X-INDEPENDENT-SEGMENTS\n")
}

// MediaPlaylist renders rep as an HLS VOD media playlist. Segment URIs are
// kept relative to the representation's BaseURL chain. It returns an empty
// string when rep cannot be addressed.
func (m *MPD) MediaPlaylist(rep *Representation) string {
	if rep == nil {
		return ""
	}
	if rep.SegmentTemplate != nil {
		return m.templatePlaylist(rep)
	}
	if rep.SegmentList != nil {
		return listPlaylist(rep)
	}
	return ""
}

func (m *MPD) templatePlaylist(rep *Representation) string {
	tmpl := rep.SegmentTemplate
	segment, ok := tmpl.SegmentDuration()
	if !ok || tmpl.Media == "" {
		return ""
	}
	count, ok := m.SegmentCount(rep)
	if !ok || count <= 0 {
		return ""
	}

	var b strings.Builder
	writeHeader(&b, segment)
	if initialization := tmpl.InitializationPattern(rep); initialization != "" {
		fmt.Fprintf(&b, "#EXT-X-MAP:URI=\"%s\"\n", initialization)
	}

	extinf := "#EXTINF:" + formatDuration(segment) + ",\n"
	for i := 0; i < count; i++ {
		b.WriteString(extinf)
		b.WriteString(tmpl.SegmentName(rep, i))
		b.WriteByte('\n')
	}
	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String()
}

func listPlaylist(rep *Representation) string {
	list := rep.SegmentList
	segment, ok := list.SegmentDuration()
	if !ok || len(list.SegmentURLs) == 0 {
		return ""
	}

	// An empty media or sourceURL addresses the representation's own BaseURL.
	// Its directory is already part of the resolved base, so only the file
	// name is written.
	own := ownName(rep.BaseURL)
	name := func(ref string) string {
		if ref != "" {
			return ref
		}
		return own
	}

	var b strings.Builder
	writeHeader(&b, segment)
	if initialization := list.Initialization; initialization != nil && name(initialization.SourceURL) != "" {
		fmt.Fprintf(&b, "#EXT-X-MAP:URI=\"%s\"", name(initialization.SourceURL))
		if length, offset, ok := parseRange(initialization.Range); ok {
			fmt.Fprintf(&b, ",BYTERANGE=\"%d@%d\"", length, offset)
		}
		b.WriteByte('\n')
	}

	extinf := "#EXTINF:" + formatDuration(segment) + ",\n"
	for _, seg := range list.SegmentURLs {
		uri := name(seg.Media)
		if uri == "" {
			return ""
		}

		b.WriteString(extinf)
		if length, offset, ok := parseRange(seg.MediaRange); ok {
			fmt.Fprintf(&b, "#EXT-X-BYTERANGE:%d@%d\n", length, offset)
		}
		b.WriteString(uri)
		b.WriteByte('\n')
	}
	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String()
}

// ownName returns the last path element of a representation BaseURL as a
// reference relative to that same BaseURL, empty when it names a directory
func ownName(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return ""
	}
	ref := &url.URL{Path: path.Base(u.Path), RawQuery: u.RawQuery}
	return ref.String()
}
