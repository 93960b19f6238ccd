// Package streams resolves an HLS or DASH manifest into an ordered list of
// fetchable segments and a normalized HLS media playlist.
package streams

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/turtletowerz/go-streams/m3u8"
	"github.com/turtletowerz/go-streams/mpd"
)

// State is the lifecycle position of a Session
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSelecting
	StateFetchingMedia
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSelecting:
		return "selecting"
	case StateFetchingMedia:
		return "fetching-media"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Format names the manifest grammar a resolve went through
type Format string

const (
	FormatHLS  Format = "hls"
	FormatDASH Format = "dash"
)

// Segment is one addressable media segment. URL is the original absolute
// location, not the rewritten one.
type Segment struct {
	Index     int             `json:"index" yaml:"index"`
	Sequence  int64           `json:"sequence" yaml:"sequence"`
	Duration  float64         `json:"duration" yaml:"duration"`
	URL       string          `json:"url" yaml:"url"`
	ByteRange *m3u8.ByteRange `json:"byte_range,omitempty" yaml:"byte_range,omitempty"`
}

// Init describes the initialization segment of an fMP4 stream
type Init struct {
	URL       string          `json:"url" yaml:"url"`
	ByteRange *m3u8.ByteRange `json:"byte_range,omitempty" yaml:"byte_range,omitempty"`
}

// Ready is the result of a successful resolve
type Ready struct {
	Format      Format    `json:"format" yaml:"format"`
	ManifestURL string    `json:"manifest_url" yaml:"manifest_url"`
	PlaylistURL string    `json:"playlist_url" yaml:"playlist_url"`
	Bandwidth   int64     `json:"bandwidth" yaml:"bandwidth"`
	Playlist    string    `json:"playlist" yaml:"playlist"`
	Init        *Init     `json:"init,omitempty" yaml:"init,omitempty"`
	Segments    []Segment `json:"segments" yaml:"segments"`

	Media *m3u8.MediaPlaylist `json:"-" yaml:"-"`
}

// TotalDuration sums the segment durations
func (r *Ready) TotalDuration() (total float64) {
	for _, s := range r.Segments {
		total += s.Duration
	}
	return
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger replaces the default logger
func WithLogger(logger *logrus.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithFetcher replaces the default HTTPFetcher
func WithFetcher(fetcher Fetcher) Option {
	return func(r *Resolver) { r.fetcher = fetcher }
}

// Resolver owns at most one Session at a time. Resolving again discards the
// previous session.
type Resolver struct {
	mu      sync.Mutex
	cfg     *Config
	logger  *logrus.Logger
	fetcher Fetcher
	session *Session
}

// New creates a Resolver. A nil cfg uses DefaultConfig.
func New(cfg *Config, opts ...Option) *Resolver {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	r := &Resolver{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = logrus.New()
		r.logger.SetLevel(cfg.Level())
	}
	if r.fetcher == nil {
		r.fetcher = NewHTTPFetcher(cfg.HTTP)
	}
	return r
}

// Config returns the configuration the resolver was built with
func (r *Resolver) Config() *Config {
	return r.cfg
}

// Session returns the current session, nil before the first Resolve
func (r *Resolver) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Resolve loads rawURL and resolves it for target bits per second.
// A target of zero or less uses the configured target bandwidth.
// The returned error is always an *Error. ctx also bounds the session, so
// cancelling it aborts later segment fetches.
func (r *Resolver) Resolve(ctx context.Context, rawURL string, target int64) (*Ready, error) {
	if target <= 0 {
		target = r.cfg.TargetBandwidth
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ctx:      ctx,
		resolver: r,
		cancel:   cancel,
		log:      r.logger.WithFields(logrus.Fields{"url": rawURL, "bandwidth": target}),
		segments: make(map[int][]byte),
	}

	r.mu.Lock()
	if r.session != nil {
		r.session.Close()
	}
	r.session = s
	r.mu.Unlock()

	ready, err := s.run(ctx, rawURL, target)
	if err != nil {
		cancel()
		return nil, err
	}
	// A ready session keeps its context until Close
	return ready, nil
}

// Close tears down the current session
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session != nil {
		r.session.Close()
		r.session = nil
	}
}

// Session is the state of one Resolve call
type Session struct {
	mu       sync.Mutex
	ctx      context.Context
	resolver *Resolver
	cancel   context.CancelFunc
	log      *logrus.Entry
	state    State
	err      *Error
	ready    *Ready

	segments map[int][]byte
	init     []byte
}

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the failure of a Failed session
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return nil
	}
	return s.err
}

// Ready returns the result of a Ready session
func (s *Session) Ready() (*Ready, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready, s.ready != nil
}

// Close cancels any in-flight work, segment fetches included, and drops
// cached segment bytes. Later fetches fail.
func (s *Session) Close() {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = make(map[int][]byte)
	s.init = nil
}

func (s *Session) transition(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.log.WithField("state", state.String()).Debug("session state")
}

func (s *Session) fail(err *Error) error {
	s.mu.Lock()
	s.state = StateFailed
	s.err = err
	s.mu.Unlock()

	err.LogWith(s.resolver.logger)
	return err
}

func (s *Session) fetch(ctx context.Context, rawURL string, br *m3u8.ByteRange) ([]byte, error) {
	entry := s.log.WithField("fetch", rawURL)
	if br != nil {
		entry = entry.WithField("range", br.HTTPRange())
	}
	entry.Debug("fetching")

	if err := s.ctx.Err(); err != nil {
		return nil, newError(KindNetwork, rawURL, err, "fetch failed")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	data, err := s.resolver.fetcher.Fetch(ctx, rawURL, br)
	if ctxErr := ctx.Err(); ctxErr != nil {
		switch {
		case err == nil:
			err = ctxErr
		case !errors.Is(err, ctxErr):
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
	}
	if err != nil {
		return nil, newError(KindNetwork, rawURL, err, "fetch failed")
	}
	return data, nil
}

func (s *Session) run(ctx context.Context, rawURL string, target int64) (*Ready, error) {
	base, err := url.Parse(rawURL)
	if err != nil || !base.IsAbs() {
		return nil, s.fail(newError(KindInvalidURL, rawURL, err, "manifest url must be absolute"))
	}

	s.transition(StateLoading)
	body, err := s.fetch(ctx, base.String(), nil)
	if err != nil {
		return nil, s.fail(err.(*Error))
	}

	text, ok := decodeText(body)
	if !ok {
		return nil, s.fail(newError(KindInvalidFormat, rawURL, nil, "manifest is not valid UTF-8"))
	}

	var ready *Ready
	var rerr *Error
	switch sniff(text, base) {
	case FormatHLS:
		ready, rerr = s.resolveHLS(ctx, base, text, target)
	default:
		ready, rerr = s.resolveDASH(base, text, target)
	}
	if rerr != nil {
		return nil, s.fail(rerr)
	}

	if s.resolver.cfg.VerifyOutput {
		if err := verifyPlaylist(ready.Playlist, len(ready.Segments)); err != nil {
			return nil, s.fail(newError(KindInvalidFormat, ready.PlaylistURL, err, "normalized playlist failed verification"))
		}
	}

	s.mu.Lock()
	s.state = StateReady
	s.ready = ready
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"state":    StateReady.String(),
		"format":   ready.Format,
		"segments": len(ready.Segments),
	}).Debug("session state")
	return ready, nil
}

// decodeText validates UTF-8, drops a BOM and normalizes line endings
func decodeText(body []byte) (string, bool) {
	if !utf8.Valid(body) {
		return "", false
	}
	text := strings.TrimPrefix(string(body), "\uFEFF")
	return strings.ReplaceAll(text, "\r\n", "\n"), true
}

// sniff routes by content and falls back to the URL extension
func sniff(text string, u *url.URL) Format {
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	switch {
	case strings.HasPrefix(trimmed, "#"):
		return FormatHLS
	case strings.HasPrefix(trimmed, "<"):
		return FormatDASH
	}

	switch strings.ToLower(path.Ext(u.Path)) {
	case ".m3u8", ".m3u":
		return FormatHLS
	}
	return FormatDASH
}

func parseError(err error, rawURL string) *Error {
	kind := KindInvalidFormat
	switch {
	case errors.Is(err, m3u8.ErrMissingRequired), errors.Is(err, mpd.ErrMissingRequired):
		kind = KindMissingRequired
	case errors.Is(err, mpd.ErrUnsupportedFormat):
		kind = KindUnsupportedFormat
	}
	return newError(kind, rawURL, err, "parsing manifest")
}

func (s *Session) decoder() m3u8.Decoder {
	return m3u8.Decoder{Strict: !s.resolver.cfg.AllowUnknownTags}
}

func (s *Session) resolveHLS(ctx context.Context, base *url.URL, text string, target int64) (*Ready, *Error) {
	playlist, err := s.decoder().Decode(text, base)
	if err != nil {
		return nil, parseError(err, base.String())
	}

	media, isMedia := playlist.(*m3u8.MediaPlaylist)
	if isMedia {
		return s.build(FormatHLS, base, base, text, media, 0)
	}

	master := playlist.(*m3u8.MasterPlaylist)
	s.transition(StateSelecting)
	variant, ok := master.SelectVariant(target)
	if !ok {
		return nil, newError(KindNoAvailableStream, base.String(), nil, "master playlist has no usable variants")
	}
	s.log.WithFields(logrus.Fields{"variant": variant.URI, "variant_bandwidth": variant.Bandwidth}).Debug("selected variant")

	mediaURL, err := master.ResolveURI(variant.URI)
	if err != nil || !mediaURL.IsAbs() {
		return nil, newError(KindInvalidURL, variant.URI, err, "cannot resolve variant uri")
	}

	s.transition(StateFetchingMedia)
	body, err := s.fetch(ctx, mediaURL.String(), nil)
	if err != nil {
		return nil, err.(*Error)
	}

	mediaText, ok := decodeText(body)
	if !ok {
		return nil, newError(KindInvalidFormat, mediaURL.String(), nil, "media playlist is not valid UTF-8")
	}

	media, err = s.decoder().DecodeMedia(mediaText, mediaURL)
	if err != nil {
		return nil, parseError(err, mediaURL.String())
	}
	return s.build(FormatHLS, base, mediaURL, mediaText, media, variant.Bandwidth)
}

func (s *Session) resolveDASH(base *url.URL, text string, target int64) (*Ready, *Error) {
	doc, err := mpd.DecodeString(text, base)
	if err != nil {
		return nil, parseError(err, base.String())
	}

	s.transition(StateSelecting)
	sel, ok := doc.SelectRepresentation(target)
	if !ok {
		return nil, newError(KindNoAvailableStream, base.String(), nil, "no video representation")
	}
	rep := sel.Representation
	s.log.WithFields(logrus.Fields{"representation": rep.ID, "representation_bandwidth": rep.Bandwidth}).Debug("selected representation")

	projected := doc.MediaPlaylist(rep)
	if projected == "" {
		return nil, newError(KindMissingRequired, base.String(), nil, "representation %q has no complete segment template or list", rep.ID)
	}

	repBase, err := doc.ResolveBase(sel)
	if err != nil {
		return nil, newError(KindInvalidURL, base.String(), err, "cannot resolve representation base")
	}

	media, err := m3u8.DecodeMedia(projected, repBase)
	if err != nil {
		return nil, parseError(err, repBase.String())
	}
	return s.build(FormatDASH, base, repBase, projected, media, rep.Bandwidth)
}

// build resolves every segment against playlistURL and rewrites the text
func (s *Session) build(format Format, manifest, playlistURL *url.URL, text string, media *m3u8.MediaPlaylist, bandwidth int64) (*Ready, *Error) {
	if len(media.Segments) == 0 {
		return nil, newError(KindMissingRequired, playlistURL.String(), nil, "media playlist has no segments")
	}

	absolute := func(ref string) (string, *Error) {
		u, err := media.ResolveURI(ref)
		if err != nil || !u.IsAbs() {
			return "", newError(KindInvalidURL, ref, err, "cannot resolve segment uri")
		}
		return u.String(), nil
	}

	ready := &Ready{
		Format:      format,
		ManifestURL: manifest.String(),
		PlaylistURL: playlistURL.String(),
		Bandwidth:   bandwidth,
		Segments:    make([]Segment, 0, len(media.Segments)),
		Media:       media,
	}

	if media.Init != nil {
		u, err := absolute(media.Init.URI)
		if err != nil {
			return nil, err
		}
		ready.Init = &Init{URL: u, ByteRange: media.Init.ByteRange}
	}

	for _, seg := range media.Segments {
		u, err := absolute(seg.URI)
		if err != nil {
			return nil, err
		}
		ready.Segments = append(ready.Segments, Segment{
			Index:     seg.Index,
			Sequence:  seg.Sequence,
			Duration:  seg.Duration,
			URL:       u,
			ByteRange: seg.ByteRange,
		})
	}

	ready.Playlist = text
	if scheme := s.resolver.cfg.CustomScheme; scheme != "" {
		ready.Playlist = m3u8.Rewriter{Base: playlistURL, Scheme: scheme}.RewritePlaylist(text, media)
	}
	return ready, nil
}
