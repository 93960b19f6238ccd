package mpd

import (
	"strings"

	"github.com/turtletowerz/go-streams/abr"
)

func isVideo(set *AdaptationSet) bool {
	return strings.Contains(set.MimeType, "video") || strings.Contains(set.ContentType, "video")
}

func hasPicture(set *AdaptationSet) bool {
	for _, rep := range set.Representations {
		if rep.Width > 0 && rep.Height > 0 {
			return true
		}
	}
	return false
}

// VideoAdaptationSet returns the first period's video adaptation set. A set
// labelled video wins over one that is recognized only by its dimensions.
func (m *MPD) VideoAdaptationSet() (*Period, *AdaptationSet, bool) {
	if len(m.Periods) == 0 {
		return nil, nil, false
	}

	period := &m.Periods[0]
	for _, match := range []func(*AdaptationSet) bool{isVideo, hasPicture} {
		for i := range period.AdaptationSets {
			if set := &period.AdaptationSets[i]; match(set) {
				return period, set, true
			}
		}
	}
	return period, nil, false
}

func representationBandwidth(r Representation) int64 { return r.Bandwidth }

// SelectRepresentation picks a representation of the video adaptation set
// for the target bandwidth in bits per second
func (m *MPD) SelectRepresentation(target int64) (Selection, bool) {
	period, set, ok := m.VideoAdaptationSet()
	if !ok {
		return Selection{}, false
	}

	i := abr.SelectIndex(set.Representations, target, representationBandwidth)
	if i < 0 {
		return Selection{}, false
	}
	return Selection{Period: period, AdaptationSet: set, Representation: &set.Representations[i]}, true
}
