package mpd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaPlaylistFromTemplate(t *testing.T) {
	m := decode(t, vodMPD)
	sel, ok := m.SelectRepresentation(3000000)
	require.True(t, ok)
	assert.Equal(t, "v1", sel.Representation.ID)

	want := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-VERSION:6",
		"#EXT-X-TARGETDURATION:2",
		"#EXT-X-MEDIA-SEQUENCE:0",
		"#EXT-X-PLAYLIST-TYPE:VOD",
		"#EXT-X-INDEPENDENT-SEGMENTS",
		`#EXT-X-MAP:URI="init.m4s"`,
		"#EXTINF:2.0,", "seg1.m4s",
		"#EXTINF:2.0,", "seg2.m4s",
		"#EXTINF:2.0,", "seg3.m4s",
		"#EXTINF:2.0,", "seg4.m4s",
		"#EXTINF:2.0,", "seg5.m4s",
		"#EXT-X-ENDLIST",
		"",
	}, "\n")
	assert.Equal(t, want, m.MediaPlaylist(sel.Representation))
}

func TestMediaPlaylistRoundsUp(t *testing.T) {
	m := decode(t, `<MPD mediaPresentationDuration="PT9.5S"><Period><AdaptationSet mimeType="video/mp4">
		<Representation id="hd" bandwidth="5000000">
			<SegmentTemplate media="$RepresentationID$-$Bandwidth$-$Number$.m4s" duration="2500" timescale="1000" startNumber="7"/>
		</Representation>
	</AdaptationSet></Period></MPD>`)

	out := m.MediaPlaylist(&m.Periods[0].AdaptationSets[0].Representations[0])
	assert.Contains(t, out, "#EXT-X-TARGETDURATION:3\n")
	assert.Equal(t, 4, strings.Count(out, "#EXTINF:2.5,\n"))
	assert.Contains(t, out, "hd-5000000-7.m4s\n")
	assert.Contains(t, out, "hd-5000000-10.m4s\n")
	assert.NotContains(t, out, "#EXT-X-MAP")
}

func TestMediaPlaylistMissingFields(t *testing.T) {
	docs := map[string]string{
		"no duration": `<MPD mediaPresentationDuration="PT10S"><Period><AdaptationSet mimeType="video/mp4">
			<Representation id="v" bandwidth="1"><SegmentTemplate media="s$Number$" timescale="1"/></Representation>
		</AdaptationSet></Period></MPD>`,
		"no timescale": `<MPD mediaPresentationDuration="PT10S"><Period><AdaptationSet mimeType="video/mp4">
			<Representation id="v" bandwidth="1"><SegmentTemplate media="s$Number$" duration="2"/></Representation>
		</AdaptationSet></Period></MPD>`,
		"no media": `<MPD mediaPresentationDuration="PT10S"><Period><AdaptationSet mimeType="video/mp4">
			<Representation id="v" bandwidth="1"><SegmentTemplate duration="2" timescale="1"/></Representation>
		</AdaptationSet></Period></MPD>`,
		"no presentation duration": `<MPD><Period><AdaptationSet mimeType="video/mp4">
			<Representation id="v" bandwidth="1"><SegmentTemplate media="s$Number$" duration="2" timescale="1"/></Representation>
		</AdaptationSet></Period></MPD>`,
		"no template": `<MPD mediaPresentationDuration="PT10S"><Period><AdaptationSet mimeType="video/mp4">
			<Representation id="v" bandwidth="1"/>
		</AdaptationSet></Period></MPD>`,
	}

	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			m := decode(t, doc)
			assert.Empty(t, m.MediaPlaylist(&m.Periods[0].AdaptationSets[0].Representations[0]))
		})
	}
	assert.Empty(t, (&MPD{}).MediaPlaylist(nil))
}

func TestMediaPlaylistFromSegmentList(t *testing.T) {
	m := decode(t, `<MPD><Period><AdaptationSet mimeType="video/mp4">
		<Representation id="v" bandwidth="500000">
			<BaseURL>video.mp4</BaseURL>
			<SegmentList timescale="1" duration="4">
				<Initialization range="0-999"/>
				<SegmentURL mediaRange="1000-2999"/>
				<SegmentURL mediaRange="3000-4999"/>
			</SegmentList>
		</Representation>
	</AdaptationSet></Period></MPD>`)

	want := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-VERSION:6",
		"#EXT-X-TARGETDURATION:4",
		"#EXT-X-MEDIA-SEQUENCE:0",
		"#EXT-X-PLAYLIST-TYPE:VOD",
		"#EXT-X-INDEPENDENT-SEGMENTS",
		`#EXT-X-MAP:URI="video.mp4",BYTERANGE="1000@0"`,
		"#EXTINF:4.0,", "#EXT-X-BYTERANGE:2000@1000", "video.mp4",
		"#EXTINF:4.0,", "#EXT-X-BYTERANGE:2000@3000", "video.mp4",
		"#EXT-X-ENDLIST",
		"",
	}, "\n")
	assert.Equal(t, want, m.MediaPlaylist(&m.Periods[0].AdaptationSets[0].Representations[0]))
}

func TestMediaPlaylistSegmentListNestedBaseURL(t *testing.T) {
	m := decode(t, `<MPD><Period><AdaptationSet mimeType="video/mp4">
		<Representation id="v" bandwidth="500000">
			<BaseURL>v1/main.mp4</BaseURL>
			<SegmentList timescale="1" duration="4">
				<Initialization range="0-999"/>
				<SegmentURL mediaRange="1000-2999"/>
			</SegmentList>
		</Representation>
	</AdaptationSet></Period></MPD>`)

	out := m.MediaPlaylist(&m.Periods[0].AdaptationSets[0].Representations[0])
	assert.Contains(t, out, `#EXT-X-MAP:URI="main.mp4",BYTERANGE="1000@0"`)
	assert.Contains(t, out, "#EXT-X-BYTERANGE:2000@1000\nmain.mp4\n")
	assert.NotContains(t, out, "v1/")
}

func TestOwnName(t *testing.T) {
	assert.Equal(t, "main.mp4", ownName("v1/main.mp4"))
	assert.Equal(t, "main.mp4", ownName("https://cdn.example/a/main.mp4"))
	assert.Equal(t, "main.mp4?t=1", ownName("v1/main.mp4?t=1"))
	assert.Empty(t, ownName("v1/"))
	assert.Empty(t, ownName(""))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "2.0", formatDuration(2))
	assert.Equal(t, "2.5", formatDuration(2.5))
	assert.Equal(t, "0.04", formatDuration(0.04))
	assert.Equal(t, "6006.0", formatDuration(6006))
}

func TestParseRange(t *testing.T) {
	length, offset, ok := parseRange("1000-2999")
	require.True(t, ok)
	assert.EqualValues(t, 2000, length)
	assert.EqualValues(t, 1000, offset)

	for _, bad := range []string{"", "100", "5-4", "a-b"} {
		_, _, ok := parseRange(bad)
		assert.False(t, ok, bad)
	}
}
