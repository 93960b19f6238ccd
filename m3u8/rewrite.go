package m3u8

import (
	"net/url"
	"strings"
)

// Rewriter makes every segment and init URI of a media playlist absolute,
// resolved against the parent directory of Base, and optionally moves them
// to another scheme so a player routes them back to the caller.
type Rewriter struct {
	Base   *url.URL
	Scheme string
}

// URL resolves a playlist reference the way Rewrite does
func (r Rewriter) URL(ref string) (string, error) {
	u, err := resolveURI(r.Base, ref)
	if err != nil {
		return "", err
	}
	if r.Scheme != "" {
		u.Scheme = r.Scheme
	}
	return u.String(), nil
}

// RewritePlaylist rewrites content using the URIs of its decoded form
// as the set of known segment names
func (r Rewriter) RewritePlaylist(content string, playlist *MediaPlaylist) string {
	names := make([]string, 0, len(playlist.Segments)+1)
	if playlist.Init != nil {
		names = append(names, playlist.Init.URI)
	}
	for _, s := range playlist.Segments {
		names = append(names, s.URI)
	}
	return r.Rewrite(content, names)
}

// Rewrite replaces the URI attribute of EXT-X-MAP and every segment line
// holding one of names when it follows an EXTINF or EXT-X-BYTERANGE tag.
// Line endings become LF and the number and order of lines is kept.
// A nil names rewrites every segment line.
func (r Rewriter) Rewrite(content string, names []string) string {
	var known map[string]bool
	if names != nil {
		known = make(map[string]bool, len(names))
		for _, n := range names {
			known[n] = true
		}
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	var previous string // last non-empty line before the current one
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#EXT-X-MAP:"):
			lines[i] = r.rewriteMap(line)
		case isURILine(trimmed) && (known == nil || known[trimmed]) &&
			(strings.HasPrefix(previous, "#EXTINF:") || strings.HasPrefix(previous, "#EXT-X-BYTERANGE:")):
			if u, err := r.URL(trimmed); err == nil {
				lines[i] = u
			}
		}

		if trimmed != "" {
			previous = trimmed
		}
	}
	return strings.Join(lines, "\n")
}

func (r Rewriter) rewriteMap(line string) string {
	const attr = `URI="`

	start := strings.Index(line, attr)
	if start < 0 {
		return line
	}
	start += len(attr)

	end := strings.IndexByte(line[start:], '"')
	if end < 0 {
		return line
	}
	end += start

	u, err := r.URL(line[start:end])
	if err != nil {
		return line
	}
	return line[:start] + u + line[end:]
}
