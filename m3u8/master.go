package m3u8

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/turtletowerz/go-streams/abr"
)

// Resolution contains the width and
// height of a MasterPlaylist stream
type Resolution struct { // 4.3.4.2
	Width  int64
	Height int64
}

// ParseResolution parses a decimal-resolution such as "1920x1080"
func ParseResolution(value string) (*Resolution, bool) {
	w, h, found := strings.Cut(value, "x")
	if !found {
		return nil, false
	}

	width, errW := strconv.ParseInt(w, 10, 64)
	height, errH := strconv.ParseInt(h, 10, 64)
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return nil, false
	}
	return &Resolution{Width: width, Height: height}, true
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// StreamInfo holds the attributes shared by
// EXT-X-STREAM-INF and EXT-X-I-FRAME-STREAM-INF
type StreamInfo struct {
	URI              string
	Bandwidth        int64
	AverageBandwidth int64
	Codecs           string
	Resolution       *Resolution
}

// Variant represents the EXT-X-STREAM-INF type
type Variant struct { // 4.3.4.2
	StreamInfo
	FrameRate      float64
	Audio          string
	Subtitles      string
	ClosedCaptions string
}

// IFrameStream represents the EXT-X-I-FRAME-STREAM-INF type
type IFrameStream struct { // 4.3.4.3
	StreamInfo
	Video string
}

// AlternateMedia contains alternative renditions
// of the same content in the Master Playlist
type AlternateMedia struct { // 4.3.4.1
	Type            string
	GroupID         string
	Name            string
	Language        string
	AutoSelect      bool
	Default         bool
	Forced          bool
	Channels        string
	InstreamID      string
	URI             string
	Characteristics string
}

// LanguageTag parses Language as a BCP 47 tag
func (a AlternateMedia) LanguageTag() (language.Tag, bool) {
	if a.Language == "" {
		return language.Und, false
	}
	tag, err := language.Parse(a.Language)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// MasterPlaylist represents a Master Playlist M3U8 file.
// All lists keep the order they were declared in.
type MasterPlaylist struct { // 4.3.4
	BaseURL             *url.URL
	Version             int
	Variants            []Variant
	IFrameStreams       []IFrameStream
	Media               []AlternateMedia
	IndependentSegments bool
}

// Type returns master playlist type
func (m *MasterPlaylist) Type() int {
	return TypeMaster
}

func variantBandwidth(v Variant) int64 { return v.Bandwidth }

// SortedVariants returns the variants sorted by ascending bandwidth
func (m *MasterPlaylist) SortedVariants() []Variant {
	return abr.Sort(m.Variants, variantBandwidth)
}

// SortedIFrameStreams returns the I-frame streams sorted by ascending bandwidth
func (m *MasterPlaylist) SortedIFrameStreams() []IFrameStream {
	return abr.Sort(m.IFrameStreams, func(s IFrameStream) int64 { return s.Bandwidth })
}

// SelectVariant picks the variant for the target bandwidth in bits per second.
// ok is false only when there are no variants.
func (m *MasterPlaylist) SelectVariant(target int64) (variant Variant, ok bool) {
	return abr.Select(m.Variants, target, variantBandwidth)
}

func (m *MasterPlaylist) mediaOf(kind, group string) (media []AlternateMedia) {
	for _, am := range m.Media {
		if am.Type == kind && am.GroupID == group {
			media = append(media, am)
		}
	}
	return
}

func defaultOf(media []AlternateMedia) (AlternateMedia, bool) {
	for _, am := range media {
		if am.Default {
			return am, true
		}
	}
	return AlternateMedia{}, false
}

// AudioMedia returns the audio renditions of a group
func (m *MasterPlaylist) AudioMedia(group string) []AlternateMedia {
	return m.mediaOf(MediaAudio, group)
}

// SubtitlesMedia returns the subtitle renditions of a group
func (m *MasterPlaylist) SubtitlesMedia(group string) []AlternateMedia {
	return m.mediaOf(MediaSubtitles, group)
}

// DefaultAudioMedia returns the DEFAULT=YES audio rendition of a group
func (m *MasterPlaylist) DefaultAudioMedia(group string) (AlternateMedia, bool) {
	return defaultOf(m.AudioMedia(group))
}

// DefaultSubtitlesMedia returns the DEFAULT=YES subtitle rendition of a group
func (m *MasterPlaylist) DefaultSubtitlesMedia(group string) (AlternateMedia, bool) {
	return defaultOf(m.SubtitlesMedia(group))
}

// ResolveURI resolves ref against the playlist's BaseURL
func (m *MasterPlaylist) ResolveURI(ref string) (*url.URL, error) {
	return resolveURI(m.BaseURL, ref)
}

func parseStreamInfo(attributes map[string]string) (info StreamInfo, ok bool) {
	bandwidth, err := strconv.ParseInt(attributes["BANDWIDTH"], 10, 64)
	if err != nil || bandwidth <= 0 {
		return info, false
	}
	info.Bandwidth = bandwidth

	if avg, err := strconv.ParseInt(attributes["AVERAGE-BANDWIDTH"], 10, 64); err == nil && avg > 0 {
		info.AverageBandwidth = avg
	}
	info.Codecs = attributes["CODECS"]
	if res, ok := ParseResolution(attributes["RESOLUTION"]); ok {
		info.Resolution = res
	}
	return info, true
}

func validMediaType(kind string) bool {
	switch kind {
	case MediaAudio, MediaVideo, MediaSubtitles, MediaCaptions:
		return true
	}
	return false
}

func (d Decoder) decodeMaster(lines []string, base *url.URL) (*MasterPlaylist, error) {
	playlist := &MasterPlaylist{BaseURL: base}

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
		case "#EXT-X-INDEPENDENT-SEGMENTS": // 4.3.5.1
			playlist.IndependentSegments = true
		case "#EXT-X-STREAM-INF": // 4.3.4.2
			// The URI line must follow directly, otherwise the tag is dropped
			if i+1 >= len(lines) || !isURILine(lines[i+1]) {
				continue
			}
			i++

			attributes := parseAttributes(value)
			info, ok := parseStreamInfo(attributes)
			if !ok {
				if err := d.incomplete(name, "BANDWIDTH"); err != nil {
					return nil, err
				}
				continue
			}
			info.URI = lines[i]

			variant := Variant{
				StreamInfo:     info,
				Audio:          attributes["AUDIO"],
				Subtitles:      attributes["SUBTITLES"],
				ClosedCaptions: attributes["CLOSED-CAPTIONS"],
			}
			if fr, err := strconv.ParseFloat(attributes["FRAME-RATE"], 64); err == nil && fr > 0 {
				variant.FrameRate = fr
			}
			playlist.Variants = append(playlist.Variants, variant)
		case "#EXT-X-I-FRAME-STREAM-INF": // 4.3.4.3
			attributes := parseAttributes(value)
			info, ok := parseStreamInfo(attributes)
			if !ok || attributes["URI"] == "" {
				if err := d.incomplete(name, "BANDWIDTH/URI"); err != nil {
					return nil, err
				}
				continue
			}
			info.URI = attributes["URI"]
			playlist.IFrameStreams = append(playlist.IFrameStreams, IFrameStream{StreamInfo: info, Video: attributes["VIDEO"]})
		case "#EXT-X-MEDIA": // 4.3.4.1
			attributes := parseAttributes(value)
			media := AlternateMedia{
				Type:            attributes["TYPE"],
				GroupID:         attributes["GROUP-ID"],
				Name:            attributes["NAME"],
				Language:        attributes["LANGUAGE"],
				AutoSelect:      yesOrNo(attributes["AUTOSELECT"]),
				Default:         yesOrNo(attributes["DEFAULT"]),
				Forced:          yesOrNo(attributes["FORCED"]),
				Channels:        attributes["CHANNELS"],
				InstreamID:      attributes["INSTREAM-ID"],
				URI:             attributes["URI"],
				Characteristics: attributes["CHARACTERISTICS"],
			}
			if !validMediaType(media.Type) || media.GroupID == "" || media.Name == "" {
				if err := d.incomplete(name, "TYPE/GROUP-ID/NAME"); err != nil {
					return nil, err
				}
				continue
			}
			playlist.Media = append(playlist.Media, media)
		default:
			if d.Strict {
				return nil, fmt.Errorf("%w: %s", ErrUnknownTag, name)
			}
		}
	}
	return playlist, nil
}
