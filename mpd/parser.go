package mpd

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// builder accumulates elements as the decoder walks the document.
// Each open element is tracked by the innermost pointer of its kind.
type builder struct {
	mpd    MPD
	period *Period
	set    *AdaptationSet
	rep    *Representation
	list   *SegmentList
	stack  []string
	text   strings.Builder
}

// Decode reads a presentation from r. base is the URL the document was
// loaded from and anchors every BaseURL.
func Decode(r io.Reader, base *url.URL) (*MPD, error) {
	b := &builder{mpd: MPD{URL: base, Type: Static}}
	decoder := xml.NewDecoder(r)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			b.start(t)
		case xml.EndElement:
			b.end(t)
		case xml.CharData:
			if b.current() == "BaseURL" {
				b.text.Write(t)
			}
		}
	}

	if len(b.mpd.Periods) == 0 {
		return nil, ErrUnsupportedFormat
	}
	return &b.mpd, nil
}

// DecodeString decodes a presentation held in memory
func DecodeString(content string, base *url.URL) (*MPD, error) {
	return Decode(strings.NewReader(content), base)
}

func (b *builder) current() string {
	if len(b.stack) == 0 {
		return ""
	}
	return b.stack[len(b.stack)-1]
}

func (b *builder) parent() string {
	if len(b.stack) < 2 {
		return ""
	}
	return b.stack[len(b.stack)-2]
}

func attr(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

func intAttr(e xml.StartElement, name string) (int64, bool) {
	n, err := strconv.ParseInt(attr(e, name), 10, 64)
	return n, err == nil
}

func durationAttr(e xml.StartElement, name string) float64 {
	d, _ := ParseDuration(attr(e, name))
	return d
}

func (b *builder) start(e xml.StartElement) {
	b.stack = append(b.stack, e.Name.Local)

	switch e.Name.Local {
	case "MPD":
		if t := attr(e, "type"); t != "" {
			b.mpd.Type = PresentationType(t)
		}
		b.mpd.MediaPresentationDuration = durationAttr(e, "mediaPresentationDuration")
		b.mpd.MinBufferTime = durationAttr(e, "minBufferTime")
	case "Period":
		b.period = &Period{ID: attr(e, "id"), Duration: durationAttr(e, "duration")}
	case "AdaptationSet":
		b.set = &AdaptationSet{
			ID:          attr(e, "id"),
			ContentType: attr(e, "contentType"),
			MimeType:    attr(e, "mimeType"),
			Codecs:      attr(e, "codecs"),
		}
	case "Representation":
		rep := &Representation{
			ID:        attr(e, "id"),
			FrameRate: attr(e, "frameRate"),
			Codecs:    attr(e, "codecs"),
			MimeType:  attr(e, "mimeType"),
		}
		rep.Bandwidth, _ = intAttr(e, "bandwidth")
		rep.Width, _ = intAttr(e, "width")
		rep.Height, _ = intAttr(e, "height")
		b.rep = rep
	case "SegmentTemplate":
		tmpl := &SegmentTemplate{
			Initialization: attr(e, "initialization"),
			Media:          attr(e, "media"),
			StartNumber:    1,
		}
		tmpl.Timescale, _ = intAttr(e, "timescale")
		tmpl.Duration, _ = intAttr(e, "duration")
		if n, ok := intAttr(e, "startNumber"); ok && n >= 0 {
			tmpl.StartNumber = n
		}

		switch {
		case b.rep != nil:
			b.rep.SegmentTemplate = tmpl
		case b.set != nil:
			b.set.SegmentTemplate = tmpl
		}
	case "SegmentList":
		list := &SegmentList{}
		list.Timescale, _ = intAttr(e, "timescale")
		list.Duration, _ = intAttr(e, "duration")

		switch {
		case b.rep != nil:
			b.rep.SegmentList = list
		case b.set != nil:
			b.set.SegmentList = list
		default:
			return
		}
		b.list = list
	case "Initialization":
		if b.list != nil && b.parent() == "SegmentList" {
			b.list.Initialization = &URLRange{SourceURL: attr(e, "sourceURL"), Range: attr(e, "range")}
		}
	case "SegmentURL":
		if b.list != nil && b.parent() == "SegmentList" {
			b.list.SegmentURLs = append(b.list.SegmentURLs, SegmentURL{Media: attr(e, "media"), MediaRange: attr(e, "mediaRange")})
		}
	case "BaseURL":
		b.text.Reset()
	}
}

func (b *builder) end(e xml.EndElement) {
	if len(b.stack) > 0 {
		b.stack = b.stack[:len(b.stack)-1]
	}

	switch e.Name.Local {
	case "BaseURL":
		text := strings.TrimSpace(b.text.String())
		switch {
		case b.rep != nil:
			b.rep.BaseURL = text
		case b.set != nil:
			b.set.BaseURL = text
		case b.period != nil:
			b.period.BaseURL = text
		default:
			b.mpd.BaseURL = text
		}
	case "SegmentList":
		b.list = nil
	case "Representation":
		// Representations without id or bandwidth cannot be selected
		if b.rep != nil && b.set != nil && b.rep.ID != "" && b.rep.Bandwidth > 0 {
			b.set.Representations = append(b.set.Representations, *b.rep)
		}
		b.rep = nil
	case "AdaptationSet":
		if b.set != nil && b.period != nil {
			for i := range b.set.Representations {
				rep := &b.set.Representations[i]
				if rep.SegmentTemplate == nil && rep.SegmentList == nil {
					rep.SegmentTemplate = b.set.SegmentTemplate
					rep.SegmentList = b.set.SegmentList
				}
			}
			b.period.AdaptationSets = append(b.period.AdaptationSets, *b.set)
		}
		b.set = nil
	case "Period":
		if b.period != nil {
			b.mpd.Periods = append(b.mpd.Periods, *b.period)
		}
		b.period = nil
	}
}
