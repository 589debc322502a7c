package lyrics

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// [mm:ss], [mm:ss.xx], [mm:ss.xxx] and the [mm:ss:xx] variant
	lrcTimeRegex = regexp.MustCompile(`^\[(\d+):(\d{2})(?:[\.:](\d{1,3}))?\]`)

	// [ar:Artist], [offset:+100], ...
	lrcMetadataRegex = regexp.MustCompile(`^\[([a-zA-Z#]+):([^\]]*)\]$`)
)

// ParseLRC parses LRC text into timed lines in document order. Metadata tags and
// untimed lines are skipped. A line carrying several timestamps yields one Line per timestamp.
func ParseLRC(content string) []Line {
	var lines []Line
	for _, raw := range strings.Split(content, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" || lrcMetadataRegex.MatchString(raw) {
			continue
		}

		var stamps []int64
		text := raw
		for {
			m := lrcTimeRegex.FindStringSubmatch(text)
			if m == nil {
				break
			}
			stamps = append(stamps, lrcMillis(m[1], m[2], m[3]))
			text = text[len(m[0]):]
		}
		if len(stamps) == 0 {
			continue
		}

		text = strings.TrimSpace(text)
		for _, ms := range stamps {
			lines = append(lines, Line{StartMs: ms, Words: text})
		}
	}
	return lines
}

func lrcMillis(min, sec, frac string) int64 {
	m, _ := strconv.ParseInt(min, 10, 64)
	s, _ := strconv.ParseInt(sec, 10, 64)
	total := m*60_000 + s*1000
	if frac == "" {
		return total
	}
	f, _ := strconv.ParseInt(frac, 10, 64)
	switch len(frac) {
	case 1:
		f *= 100
	case 2:
		f *= 10
	}
	return total + f
}
