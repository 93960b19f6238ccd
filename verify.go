package streams

import (
	"fmt"
	"strings"

	grafov "github.com/grafov/m3u8"
)

// verifyPlaylist decodes text with an independent HLS implementation and
// checks it is a media playlist holding want segments
func verifyPlaylist(text string, want int) error {
	playlist, listType, err := grafov.DecodeFrom(strings.NewReader(text), false)
	if err != nil {
		return fmt.Errorf("decoding normalized playlist: %w", err)
	}
	if listType != grafov.MEDIA {
		return fmt.Errorf("normalized playlist is not a media playlist")
	}

	media, ok := playlist.(*grafov.MediaPlaylist)
	if !ok {
		return fmt.Errorf("normalized playlist has type %T", playlist)
	}
	if got := int(media.Count()); got != want {
		return fmt.Errorf("normalized playlist holds %d segments, expected %d", got, want)
	}
	return nil
}
