package domain

import (
	"regexp"
	"strconv"
)

var timestampRe = regexp.MustCompile(`\b(\d{1,2}):(\d{2})(?::(\d{2}))?\b`)

// ParseTimestamp finds the first MM:SS or HH:MM:SS in text and returns it in seconds.
func ParseTimestamp(text string) (int, bool) {
	m := timestampRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	n := func(s string) int {
		v, _ := strconv.Atoi(s)
		return v
	}

	if m[3] != "" {
		return n(m[1])*3600 + n(m[2])*60 + n(m[3]), true
	}

	return n(m[1])*60 + n(m[2]), true
}
