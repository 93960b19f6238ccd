package mpd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// expand substitutes the representation placeholders of pattern.
// $Number$ is left for Number.
func expand(pattern string, rep *Representation) string {
	return strings.NewReplacer(
		"$RepresentationID$", rep.ID,
		"$Bandwidth$", strconv.FormatInt(rep.Bandwidth, 10),
	).Replace(pattern)
}

func number(pattern string, n int64) string {
	return strings.ReplaceAll(pattern, "$Number$", strconv.FormatInt(n, 10))
}

// InitializationPattern returns the template's initialization with the
// representation placeholders filled in
func (t *SegmentTemplate) InitializationPattern(rep *Representation) string {
	return expand(t.Initialization, rep)
}

// MediaPattern returns the template's media pattern with the representation
// placeholders filled in and $Number$ kept
func (t *SegmentTemplate) MediaPattern(rep *Representation) string {
	return expand(t.Media, rep)
}

// SegmentName returns the media name of the i-th segment (zero based)
func (t *SegmentTemplate) SegmentName(rep *Representation, i int) string {
	return number(t.MediaPattern(rep), t.StartNumber+int64(i))
}

// SegmentCount returns how many template segments cover the presentation
func (m *MPD) SegmentCount(rep *Representation) (int, bool) {
	if rep.SegmentList != nil && rep.SegmentTemplate == nil {
		return len(rep.SegmentList.SegmentURLs), len(rep.SegmentList.SegmentURLs) > 0
	}

	segment, ok := rep.SegmentTemplate.SegmentDuration()
	if !ok {
		return 0, false
	}
	total, ok := m.PresentationDuration()
	if !ok {
		return 0, false
	}
	return int(math.Ceil(total / segment)), true
}

// InitializationURL returns the absolute URL of the selection's init segment
func (m *MPD) InitializationURL(sel Selection) (*url.URL, error) {
	rep := sel.Representation
	var ref string
	switch {
	case rep.SegmentTemplate != nil:
		ref = rep.SegmentTemplate.InitializationPattern(rep)
	case rep.SegmentList != nil && rep.SegmentList.Initialization != nil:
		ref = rep.SegmentList.Initialization.SourceURL
	}
	if ref == "" {
		return nil, fmt.Errorf("%w: initialization for representation %q", ErrMissingRequired, rep.ID)
	}
	return m.resolve(sel, ref)
}

// MediaSegmentURL returns the absolute URL of the i-th (zero based) media segment
func (m *MPD) MediaSegmentURL(sel Selection, i int) (*url.URL, error) {
	rep := sel.Representation
	var ref string
	switch {
	case rep.SegmentTemplate != nil && rep.SegmentTemplate.Media != "":
		ref = rep.SegmentTemplate.SegmentName(rep, i)
	case rep.SegmentList != nil && i >= 0 && i < len(rep.SegmentList.SegmentURLs):
		ref = rep.SegmentList.SegmentURLs[i].Media
	default:
		return nil, fmt.Errorf("%w: media segment %d for representation %q", ErrMissingRequired, i, rep.ID)
	}
	return m.resolve(sel, ref)
}

func (m *MPD) resolve(sel Selection, ref string) (*url.URL, error) {
	base, err := m.ResolveBase(sel)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parsing segment url %q: %w", ref, err)
	}
	return base.ResolveReference(u), nil
}

// parseRange converts "first-last" into a length and offset
func parseRange(value string) (length, offset int64, ok bool) {
	first, last, found := strings.Cut(strings.TrimSpace(value), "-")
	if !found {
		return 0, 0, false
	}

	start, errS := strconv.ParseInt(first, 10, 64)
	end, errE := strconv.ParseInt(last, 10, 64)
	if errS != nil || errE != nil || start < 0 || end < start {
		return 0, 0, false
	}
	return end - start + 1, start, true
}
