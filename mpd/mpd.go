// Package mpd decodes MPEG-DASH presentation descriptions and projects a
// single representation into an HLS media playlist.
package mpd

import (
	"errors"
	"fmt"
	"net/url"
)

// PresentationType is the MPD@type attribute
type PresentationType string

const (
	Static  PresentationType = "static"
	Dynamic PresentationType = "dynamic"
)

var (
	// ErrInvalidXML is returned when the document is not well formed XML
	ErrInvalidXML = errors.New("invalid mpd xml")

	// ErrUnsupportedFormat is returned when a document yields no periods
	ErrUnsupportedFormat = errors.New("unsupported mpd: no periods")

	// ErrMissingRequired is returned when a representation cannot be addressed
	ErrMissingRequired = errors.New("missing required mpd attribute")
)

// MPD is a decoded presentation. Durations are in seconds and are zero when
// absent, so a zero MediaPresentationDuration means none was declared.
type MPD struct {
	URL                       *url.URL
	BaseURL                   string
	Type                      PresentationType
	MediaPresentationDuration float64
	MinBufferTime             float64
	Periods                   []Period
}

type Period struct {
	ID             string
	Duration       float64
	BaseURL        string
	AdaptationSets []AdaptationSet
}

type AdaptationSet struct {
	ID              string
	ContentType     string
	MimeType        string
	Codecs          string
	BaseURL         string
	SegmentTemplate *SegmentTemplate
	SegmentList     *SegmentList
	Representations []Representation
}

type Representation struct {
	ID              string
	Bandwidth       int64
	Width           int64
	Height          int64
	FrameRate       string
	Codecs          string
	MimeType        string
	BaseURL         string
	SegmentTemplate *SegmentTemplate
	SegmentList     *SegmentList
}

// SegmentTemplate addresses segments by number. Timescale and Duration are
// zero when absent, StartNumber defaults to 1.
type SegmentTemplate struct {
	Initialization string
	Media          string
	Timescale      int64
	Duration       int64
	StartNumber    int64
}

// SegmentDuration returns Duration in seconds
func (t *SegmentTemplate) SegmentDuration() (float64, bool) {
	if t == nil || t.Duration <= 0 || t.Timescale <= 0 {
		return 0, false
	}
	return float64(t.Duration) / float64(t.Timescale), true
}

// URLRange is a URL with an optional "first-last" byte range
type URLRange struct {
	SourceURL string
	Range     string
}

// SegmentURL is one entry of a SegmentList
type SegmentURL struct {
	Media      string
	MediaRange string
}

// SegmentList addresses segments explicitly
type SegmentList struct {
	Timescale      int64
	Duration       int64
	Initialization *URLRange
	SegmentURLs    []SegmentURL
}

// SegmentDuration returns Duration in seconds
func (l *SegmentList) SegmentDuration() (float64, bool) {
	if l == nil || l.Duration <= 0 || l.Timescale <= 0 {
		return 0, false
	}
	return float64(l.Duration) / float64(l.Timescale), true
}

// Selection locates a representation inside its presentation
type Selection struct {
	Period         *Period
	AdaptationSet  *AdaptationSet
	Representation *Representation
}

// ResolveBase resolves the BaseURL chain of sel against the document URL
func (m *MPD) ResolveBase(sel Selection) (*url.URL, error) {
	chain := []string{m.BaseURL}
	if sel.Period != nil {
		chain = append(chain, sel.Period.BaseURL)
	}
	if sel.AdaptationSet != nil {
		chain = append(chain, sel.AdaptationSet.BaseURL)
	}
	if sel.Representation != nil {
		chain = append(chain, sel.Representation.BaseURL)
	}

	base := m.URL
	for _, ref := range chain {
		if ref == "" {
			continue
		}

		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parsing base url %q: %w", ref, err)
		}
		if base == nil {
			base = u
		} else {
			base = base.ResolveReference(u)
		}
	}

	if base == nil {
		return nil, fmt.Errorf("%w: no base url", ErrMissingRequired)
	}
	return base, nil
}

// PresentationDuration returns the declared duration, falling back to the
// first period's duration
func (m *MPD) PresentationDuration() (float64, bool) {
	if m.MediaPresentationDuration > 0 {
		return m.MediaPresentationDuration, true
	}
	if len(m.Periods) > 0 && m.Periods[0].Duration > 0 {
		return m.Periods[0].Duration, true
	}
	return 0, false
}
