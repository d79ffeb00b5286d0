package segment

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

var timecodeRE = regexp.MustCompile(`^(\d{1,3}):(\d{2})$`)

// ParseTimestamp parses an "MM:SS" timecode into seconds. The seconds part
// must be below 60. Returns ok=false for anything that does not parse.
func ParseTimestamp(ts string) (float64, bool) {
	matches := timecodeRE.FindStringSubmatch(ts)
	if matches == nil {
		return 0, false
	}

	minutes, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(matches[2])
	if err != nil || seconds >= 60 {
		return 0, false
	}

	return float64(minutes*60 + seconds), true
}

// FormatTimestamp renders seconds as a zero-padded "MM:SS" timecode, flooring
// to whole seconds. Negative values render as "00:00".
func FormatTimestamp(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	whole := int(math.Floor(sec))
	return fmt.Sprintf("%02d:%02d", whole/60, whole%60)
}

// IsTimestampValid reports whether ts is a well-formed "MM:SS" timecode whose
// value lies inside [0, duration]. A duration <= 0 skips the range check.
func IsTimestampValid(ts string, duration float64) bool {
	sec, ok := ParseTimestamp(ts)
	if !ok {
		return false
	}
	return InRange(sec, duration)
}
