package duration

import (
	"errors"
	"regexp"
	"strconv"
)

// ErrInvalidDuration is returned for anything that does not match the
// <integer><unit> grammar, e.g. "30s", "5m", "2h", "1d".
var ErrInvalidDuration = errors.New("invalid duration")

var durationRE = regexp.MustCompile(`^(\d+)([smhd])$`)

var unitMillis = map[string]int64{
	"s": 1000,
	"m": 60 * 1000,
	"h": 60 * 60 * 1000,
	"d": 24 * 60 * 60 * 1000,
}

// Parse converts a human-readable duration string into milliseconds.
func Parse(s string) (int64, error) {
	m := durationRE.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalidDuration
	}
	magnitude, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || magnitude <= 0 {
		return 0, ErrInvalidDuration
	}
	return magnitude * unitMillis[m[2]], nil
}
