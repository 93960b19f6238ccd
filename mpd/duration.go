package mpd

import "strconv"

// ParseDuration parses the ISO-8601 subset P[nD]T[nH][nM][n.nS] into
// seconds. ok is false when no component accumulates or the total is zero.
// Year and month components have no fixed length and are ignored.
func ParseDuration(value string) (seconds float64, ok bool) {
	var (
		number []byte
		inTime bool
	)
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= '0' && c <= '9', c == '.':
			number = append(number, c)
			continue
		case c == 'P', c == 'T':
			inTime = c == 'T'
			number = number[:0]
			continue
		}

		n, err := strconv.ParseFloat(string(number), 64)
		number = number[:0]
		if err != nil {
			continue
		}

		switch c {
		case 'D':
			seconds += n * 86400
		case 'H':
			seconds += n * 3600
		case 'M':
			if inTime {
				seconds += n * 60
			}
		case 'S':
			seconds += n
		}
	}
	return seconds, seconds > 0
}
