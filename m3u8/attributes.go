package m3u8

import "strings"

// parseAttributes scans an attribute list (4.2). Quoted values may hold
// commas and '=', and quotes are stripped from the stored value.
func parseAttributes(list string) map[string]string {
	attribs := make(map[string]string)

	var (
		key, value   strings.Builder
		insideQuotes bool
		haveKey      bool
	)

	flush := func() {
		if k := strings.TrimSpace(key.String()); haveKey && k != "" {
			attribs[k] = strings.TrimSpace(value.String())
		}
		key.Reset()
		value.Reset()
		haveKey = false
	}

	for _, char := range list {
		switch {
		case char == '"':
			insideQuotes = !insideQuotes
		case char == '=' && !insideQuotes && !haveKey:
			key.WriteString(value.String())
			value.Reset()
			haveKey = true
		case char == ',' && !insideQuotes:
			flush()
		default:
			value.WriteRune(char)
		}
	}
	flush()
	return attribs
}

// yesOrNo reports whether an enumerated YES/NO value is YES.
// Anything other than YES is false.
func yesOrNo(value string) bool {
	return value == attrYes
}
