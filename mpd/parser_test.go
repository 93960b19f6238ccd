package mpd

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vodMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT10S" minBufferTime="PT1.5S">
  <Period id="p0">
    <AdaptationSet id="1" contentType="audio" mimeType="audio/mp4" codecs="mp4a.40.2">
      <Representation id="a128" bandwidth="128000">
        <SegmentTemplate initialization="audio-init.m4s" media="audio$Number$.m4s" duration="2" timescale="1"/>
      </Representation>
    </AdaptationSet>
    <AdaptationSet id="2" mimeType="video/mp4">
      <Representation id="v1" bandwidth="800000" width="640" height="360" frameRate="30" codecs="avc1.4d401e">
        <SegmentTemplate initialization="init.m4s" media="seg$Number$.m4s" duration="2" timescale="1" startNumber="1"/>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>`

func mustURL(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func decode(t *testing.T, doc string) *MPD {
	m, err := DecodeString(doc, mustURL(t, "https://cdn.example/show/manifest.mpd"))
	require.NoError(t, err)
	return m
}

func TestDecode(t *testing.T) {
	m := decode(t, vodMPD)

	assert.Equal(t, Static, m.Type)
	assert.EqualValues(t, 10, m.MediaPresentationDuration)
	assert.EqualValues(t, 1.5, m.MinBufferTime)
	require.Len(t, m.Periods, 1)

	period := m.Periods[0]
	assert.Equal(t, "p0", period.ID)
	require.Len(t, period.AdaptationSets, 2)
	assert.Equal(t, "audio", period.AdaptationSets[0].ContentType)

	video := period.AdaptationSets[1]
	assert.Equal(t, "video/mp4", video.MimeType)
	require.Len(t, video.Representations, 1)

	rep := video.Representations[0]
	assert.Equal(t, Representation{
		ID:        "v1",
		Bandwidth: 800000,
		Width:     640,
		Height:    360,
		FrameRate: "30",
		Codecs:    "avc1.4d401e",
		SegmentTemplate: &SegmentTemplate{
			Initialization: "init.m4s",
			Media:          "seg$Number$.m4s",
			Timescale:      1,
			Duration:       2,
			StartNumber:    1,
		},
	}, rep)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeString(`<MPD><Period>`, nil)
	assert.ErrorIs(t, err, ErrInvalidXML)

	_, err = DecodeString(`<MPD type="static"></MPD>`, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = DecodeString(`not xml at all`, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeDropsIncompleteRepresentations(t *testing.T) {
	m := decode(t, `<MPD><Period><AdaptationSet mimeType="video/mp4">
		<Representation bandwidth="100"/>
		<Representation id="no-bw"/>
		<Representation id="ok" bandwidth="200"/>
	</AdaptationSet></Period></MPD>`)

	reps := m.Periods[0].AdaptationSets[0].Representations
	require.Len(t, reps, 1)
	assert.Equal(t, "ok", reps[0].ID)
}

func TestDecodeInheritsAdaptationSetTemplate(t *testing.T) {
	m := decode(t, `<MPD mediaPresentationDuration="PT4S"><Period>
	<AdaptationSet mimeType="video/mp4">
		<SegmentTemplate media="$RepresentationID$/$Number$.m4s" initialization="$RepresentationID$/init.m4s" duration="4000" timescale="1000" startNumber="0"/>
		<Representation id="low" bandwidth="100000"/>
		<Representation id="own" bandwidth="200000">
			<SegmentTemplate media="own-$Number$.m4s" duration="2" timescale="1"/>
		</Representation>
	</AdaptationSet></Period></MPD>`)

	reps := m.Periods[0].AdaptationSets[0].Representations
	require.Len(t, reps, 2)
	require.NotNil(t, reps[0].SegmentTemplate)
	assert.EqualValues(t, 0, reps[0].SegmentTemplate.StartNumber)
	assert.Equal(t, "low/0.m4s", reps[0].SegmentTemplate.SegmentName(&reps[0], 0))
	assert.Equal(t, "own-$Number$.m4s", reps[1].SegmentTemplate.Media)
	assert.EqualValues(t, 1, reps[1].SegmentTemplate.StartNumber)
}

func TestDecodeBaseURLChain(t *testing.T) {
	m := decode(t, `<MPD mediaPresentationDuration="PT4S">
	<BaseURL>https://media.example/root/</BaseURL>
	<Period><BaseURL>period/</BaseURL>
	<AdaptationSet mimeType="video/mp4"><BaseURL>video/</BaseURL>
		<Representation id="v" bandwidth="1">
			<BaseURL> 720p/ </BaseURL>
			<SegmentTemplate media="s$Number$.m4s" initialization="i.m4s" duration="2" timescale="1"/>
		</Representation>
	</AdaptationSet></Period></MPD>`)

	sel, ok := m.SelectRepresentation(1)
	require.True(t, ok)
	assert.Equal(t, "720p/", sel.Representation.BaseURL)

	base, err := m.ResolveBase(sel)
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/root/period/video/720p/", base.String())

	u, err := m.MediaSegmentURL(sel, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/root/period/video/720p/s2.m4s", u.String())

	u, err = m.InitializationURL(sel)
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/root/period/video/720p/i.m4s", u.String())
}

func TestDecodeSegmentList(t *testing.T) {
	m := decode(t, `<MPD><Period duration="PT6S"><AdaptationSet mimeType="video/mp4">
		<Representation id="v" bandwidth="500000">
			<BaseURL>video.mp4</BaseURL>
			<SegmentList timescale="1000" duration="3000">
				<Initialization sourceURL="video.mp4" range="0-999"/>
				<SegmentURL mediaRange="1000-2999"/>
				<SegmentURL media="video.mp4" mediaRange="3000-4999"/>
			</SegmentList>
		</Representation>
	</AdaptationSet></Period></MPD>`)

	rep := m.Periods[0].AdaptationSets[0].Representations[0]
	require.NotNil(t, rep.SegmentList)
	assert.Equal(t, &URLRange{SourceURL: "video.mp4", Range: "0-999"}, rep.SegmentList.Initialization)
	assert.Equal(t, []SegmentURL{{MediaRange: "1000-2999"}, {Media: "video.mp4", MediaRange: "3000-4999"}}, rep.SegmentList.SegmentURLs)

	count, ok := m.SegmentCount(&rep)
	require.True(t, ok)
	assert.Equal(t, 2, count)

	d, ok := m.PresentationDuration()
	require.True(t, ok)
	assert.EqualValues(t, 6, d)
}

func TestSelectRepresentation(t *testing.T) {
	m := decode(t, `<MPD><Period>
	<AdaptationSet contentType="audio"><Representation id="a" bandwidth="64000"/></AdaptationSet>
	<AdaptationSet><Representation id="sized" bandwidth="1" width="10" height="10"/></AdaptationSet>
	<AdaptationSet contentType="video">
		<Representation id="mid" bandwidth="1500000" width="1280" height="720"/>
		<Representation id="low" bandwidth="800000" width="640" height="360"/>
		<Representation id="high" bandwidth="3200000" width="1920" height="1080"/>
	</AdaptationSet></Period></MPD>`)

	tests := []struct {
		target int64
		want   string
	}{
		{3000000, "mid"},
		{3500000, "high"},
		{1000, "low"},
		{800000, "low"},
	}
	for _, tt := range tests {
		sel, ok := m.SelectRepresentation(tt.target)
		require.True(t, ok)
		assert.Equal(t, tt.want, sel.Representation.ID, "target %d", tt.target)
		assert.Equal(t, "video", sel.AdaptationSet.ContentType)
	}
}

func TestVideoAdaptationSetByDimensions(t *testing.T) {
	m := decode(t, `<MPD><Period>
	<AdaptationSet mimeType="audio/mp4"><Representation id="a" bandwidth="64000"/></AdaptationSet>
	<AdaptationSet><Representation id="v" bandwidth="1" width="10" height="10"/></AdaptationSet>
	</Period></MPD>`)

	_, set, ok := m.VideoAdaptationSet()
	require.True(t, ok)
	assert.Equal(t, "v", set.Representations[0].ID)

	m = decode(t, `<MPD><Period><AdaptationSet mimeType="audio/mp4"><Representation id="a" bandwidth="64000"/></AdaptationSet></Period></MPD>`)
	_, ok = m.SelectRepresentation(1)
	assert.False(t, ok)
}
