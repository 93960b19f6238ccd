package m3u8

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

const (
	// TypeMaster and TypeMedia are returned by Playlist.Type
	// to tell the two kinds of playlist apart
	TypeMaster = iota
	TypeMedia

	PlaylistVOD   string = "VOD"
	PlaylistEvent string = "EVENT"

	MediaAudio     string = "AUDIO"
	MediaVideo     string = "VIDEO"
	MediaSubtitles string = "SUBTITLES"
	MediaCaptions  string = "CLOSED-CAPTIONS"

	attrYes string = "YES"
	header  string = "#EXTM3U"
)

var (
	// ErrInvalidFormat is returned when the #EXTM3U header is missing
	ErrInvalidFormat = errors.New("invalid m3u8 format")

	// ErrMissingRequired is returned by a strict Decoder for tags lacking required attributes
	ErrMissingRequired = errors.New("missing required tag or attribute")

	// ErrUnknownTag is returned for unrecognized #EXT tags when a Decoder disallows them
	ErrUnknownTag = errors.New("unknown tag")
)

// Playlist represents an interface that
// MasterPlaylist and MediaPlaylist fall under
type Playlist interface {
	Type() int
}

// Decoder decodes playlists. The zero value is lenient: unknown tags and
// tags lacking required attributes are skipped.
type Decoder struct {
	// Strict turns unknown #EXT tags into ErrUnknownTag and
	// incomplete tags into ErrMissingRequired
	Strict bool
}

func (d Decoder) incomplete(tag, attr string) error {
	if !d.Strict {
		return nil
	}
	return fmt.Errorf("%w: %s %s", ErrMissingRequired, tag, attr)
}

// Decode determines the playlist type and decodes content with
// base as the URL the playlist was loaded from
func (d Decoder) Decode(content string, base *url.URL) (Playlist, error) {
	lines, err := splitLines(content)
	if err != nil {
		return nil, err
	}

	// 4.3.3   - "A Media Playlist tag MUST NOT appear in a Master Playlist."
	// 4.3.3.1 - "The EXT-X-TARGETDURATION tag is REQUIRED."
	for _, line := range lines {
		if strings.HasPrefix(line, "#EXT-X-TARGETDURATION") || strings.HasPrefix(line, "#EXTINF") {
			return d.decodeMedia(lines, base)
		}
	}
	return d.decodeMaster(lines, base)
}

// DecodeMaster decodes content as a master playlist
func (d Decoder) DecodeMaster(content string, base *url.URL) (*MasterPlaylist, error) {
	lines, err := splitLines(content)
	if err != nil {
		return nil, err
	}
	return d.decodeMaster(lines, base)
}

// DecodeMedia decodes content as a media playlist
func (d Decoder) DecodeMedia(content string, base *url.URL) (*MediaPlaylist, error) {
	lines, err := splitLines(content)
	if err != nil {
		return nil, err
	}
	return d.decodeMedia(lines, base)
}

// DecodeReader reads the whole reader and decodes it with the default Decoder
func DecodeReader(reader io.Reader, base *url.URL) (Playlist, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading playlist: %w", err)
	}
	return Decoder{}.Decode(string(data), base)
}

// MustDecodeReader implements DecodeReader, but panics if an error occurs
func MustDecodeReader(reader io.Reader, base *url.URL) Playlist {
	playlist, err := DecodeReader(reader, base)
	if err != nil {
		panic(err)
	}
	return playlist
}

// DecodeMaster decodes a master playlist with the default Decoder
func DecodeMaster(content string, base *url.URL) (*MasterPlaylist, error) {
	return Decoder{}.DecodeMaster(content, base)
}

// DecodeMedia decodes a media playlist with the default Decoder
func DecodeMedia(content string, base *url.URL) (*MediaPlaylist, error) {
	return Decoder{}.DecodeMedia(content, base)
}

// splitLines breaks content into trimmed, non-empty lines and checks the
// header. The returned lines do not include the header.
func splitLines(content string) ([]string, error) {
	content = strings.TrimPrefix(content, "\uFEFF")
	var lines []string
	for _, line := range strings.FieldsFunc(content, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 || lines[0] != header {
		return nil, fmt.Errorf(`%w: first line is not "#EXTM3U"`, ErrInvalidFormat)
	}
	return lines[1:], nil
}

// splitTag splits "#EXT-X-NAME:value" into its name and value.
// ok is false for URI lines and plain comments.
func splitTag(line string) (name, value string, ok bool) {
	if !strings.HasPrefix(line, "#EXT") {
		return "", "", false
	}
	name, value, _ = strings.Cut(line, ":")
	return name, value, true
}

func isURILine(line string) bool {
	return line != "" && !strings.HasPrefix(line, "#")
}

func resolveURI(base *url.URL, ref string) (*url.URL, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parsing uri %q: %w", ref, err)
	}
	if base == nil {
		return u, nil
	}
	return base.ResolveReference(u), nil
}
