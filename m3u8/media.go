package m3u8

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ByteRange is a sub-range of a resource. Decoded ranges always carry a
// concrete Offset, OffsetExplicit records whether it was written out.
type ByteRange struct { // 4.3.2.2
	Length         int64 `json:"length" yaml:"length"`
	Offset         int64 `json:"offset" yaml:"offset"`
	OffsetExplicit bool  `json:"offset_explicit" yaml:"offset_explicit"`
}

// ParseByteRange parses "<n>[@<o>]". The offset is zero when absent.
func ParseByteRange(value string) (*ByteRange, bool) {
	n, o, hasOffset := strings.Cut(strings.TrimSpace(value), "@")
	length, err := strconv.ParseInt(n, 10, 64)
	if err != nil || length <= 0 {
		return nil, false
	}

	br := &ByteRange{Length: length}
	if hasOffset {
		offset, err := strconv.ParseInt(o, 10, 64)
		if err != nil || offset < 0 {
			return nil, false
		}
		br.Offset = offset
		br.OffsetExplicit = true
	}
	return br, true
}

// End returns the offset of the first byte after the range
func (b ByteRange) End() int64 {
	return b.Offset + b.Length
}

// HTTPRange formats the range as an HTTP Range header value
func (b ByteRange) HTTPRange() string {
	return fmt.Sprintf("bytes=%d-%d", b.Offset, b.End()-1)
}

func (b ByteRange) String() string {
	if b.OffsetExplicit {
		return fmt.Sprintf("%d@%d", b.Length, b.Offset)
	}
	return strconv.FormatInt(b.Length, 10)
}

// InitSegment represents EXT-X-MAP
type InitSegment struct { // 4.3.2.5
	URI       string
	ByteRange *ByteRange
}

// Segment represents an individual media segment from a MediaPlaylist.
// Index is the zero based position in the playlist, Sequence adds the
// playlist's media sequence number.
type Segment struct { // 4.3.2
	Index     int
	Sequence  int64
	Duration  float64
	Title     string
	URI       string
	ByteRange *ByteRange
}

// MediaPlaylist represents a MediaPlaylist M3U8 file
type MediaPlaylist struct { // 4.3.3
	BaseURL             *url.URL
	Version             int
	TargetDuration      float64
	MediaSequence       int64
	PlaylistType        string
	IndependentSegments bool
	Ended               bool
	Init                *InitSegment
	Segments            []Segment
}

// Type returns media playlist type
func (m *MediaPlaylist) Type() int {
	return TypeMedia
}

// TotalDuration sums the duration of every segment
func (m *MediaPlaylist) TotalDuration() (total float64) {
	for _, s := range m.Segments {
		total += s.Duration
	}
	return
}

// Segment returns the segment at index
func (m *MediaPlaylist) Segment(index int) (*Segment, bool) {
	if index < 0 || index >= len(m.Segments) {
		return nil, false
	}
	return &m.Segments[index], true
}

// SegmentAt returns the segment playing at t seconds. Times past the end
// return the last segment.
func (m *MediaPlaylist) SegmentAt(t float64) (*Segment, bool) {
	if len(m.Segments) == 0 || t < 0 {
		return nil, false
	}

	var elapsed float64
	for i := range m.Segments {
		elapsed += m.Segments[i].Duration
		if t < elapsed {
			return &m.Segments[i], true
		}
	}
	return &m.Segments[len(m.Segments)-1], true
}

// ContentLength returns the size implied by the byte ranges, the largest
// range end across init and media segments. It returns -1 if any segment
// is not a byte range.
func (m *MediaPlaylist) ContentLength() int64 {
	var length int64
	ranges := make([]*ByteRange, 0, len(m.Segments)+1)
	if m.Init != nil {
		ranges = append(ranges, m.Init.ByteRange)
	}
	for _, s := range m.Segments {
		ranges = append(ranges, s.ByteRange)
	}

	for _, br := range ranges {
		if br == nil {
			return -1
		}
		if br.End() > length {
			length = br.End()
		}
	}
	return length
}

// ResolveURI resolves ref against the playlist's BaseURL
func (m *MediaPlaylist) ResolveURI(ref string) (*url.URL, error) {
	return resolveURI(m.BaseURL, ref)
}

func (d Decoder) decodeMedia(lines []string, base *url.URL) (*MediaPlaylist, error) {
	playlist := &MediaPlaylist{BaseURL: base}

	var (
		lastByteRangeEnd int64
		pending          *ByteRange // EXT-X-BYTERANGE written before its EXTINF
	)

	// Inherited offsets continue from the previous range
	place := func(br *ByteRange) {
		if br == nil {
			return
		}
		if !br.OffsetExplicit {
			br.Offset = lastByteRangeEnd
		}
		lastByteRangeEnd = br.End()
	}

	for i := 0; i < len(lines); i++ {
		name, value, isTag := splitTag(lines[i])
		if !isTag {
			continue
		}

		switch name {
		case "#EXT-X-VERSION": // 4.3.1.2
			if v, err := strconv.Atoi(value); err == nil && playlist.Version == 0 {
				playlist.Version = v
			}
		case "#EXT-X-TARGETDURATION": // 4.3.3.1
			if td, err := strconv.ParseFloat(value, 64); err == nil && td >= 0 {
				playlist.TargetDuration = td
			}
		case "#EXT-X-MEDIA-SEQUENCE": // 4.3.3.2
			if seq, err := strconv.ParseInt(value, 10, 64); err == nil && seq >= 0 {
				playlist.MediaSequence = seq
			}
		case "#EXT-X-PLAYLIST-TYPE": // 4.3.3.5
			if value == PlaylistVOD || value == PlaylistEvent {
				playlist.PlaylistType = value
			}
		case "#EXT-X-INDEPENDENT-SEGMENTS": // 4.3.5.1
			playlist.IndependentSegments = true
		case "#EXT-X-ENDLIST": // 4.3.3.4
			playlist.Ended = true
		case "#EXT-X-MAP": // 4.3.2.5
			attributes := parseAttributes(value)
			if attributes["URI"] == "" {
				if err := d.incomplete(name, "URI"); err != nil {
					return nil, err
				}
				continue
			}

			mapped := &InitSegment{URI: attributes["URI"]}
			if br, ok := ParseByteRange(attributes["BYTERANGE"]); ok {
				mapped.ByteRange = br
				lastByteRangeEnd = br.End()
			}
			playlist.Init = mapped
		case "#EXT-X-BYTERANGE": // 4.3.2.2
			if br, ok := ParseByteRange(value); ok {
				pending = br
			}
		case "#EXTINF": // 4.3.2.1
			durationStr, title, _ := strings.Cut(value, ",")
			duration, err := strconv.ParseFloat(strings.TrimSpace(durationStr), 64)
			if err != nil || duration < 0 {
				duration = 0
			}

			br, uri := pending, ""
			pending = nil
			if i+1 < len(lines) {
				if next := lines[i+1]; strings.HasPrefix(next, "#EXT-X-BYTERANGE:") {
					br, _ = ParseByteRange(strings.TrimPrefix(next, "#EXT-X-BYTERANGE:"))
					i++
					if i+1 < len(lines) && isURILine(lines[i+1]) {
						i++
						uri = lines[i]
					}
				} else if isURILine(next) {
					i++
					uri = next
				}
			}

			place(br)
			if uri == "" {
				continue
			}

			index := len(playlist.Segments)
			playlist.Segments = append(playlist.Segments, Segment{
				Index:     index,
				Sequence:  playlist.MediaSequence + int64(index),
				Duration:  duration,
				Title:     strings.TrimSpace(title),
				URI:       uri,
				ByteRange: br,
			})
		default:
			if d.Strict {
				return nil, fmt.Errorf("%w: %s", ErrUnknownTag, name)
			}
		}
	}
	return playlist, nil
}
