package crowdsale

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// DisplayLayout is the layout of tier start/end times in the console.
const DisplayLayout = "2006-01-02T15:04"

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

// FormatDate renders a unix timestamp (seconds) for display.
func FormatDate(ts *big.Int, loc *time.Location) string {
	var sec int64
	if ts != nil {
		sec = ts.Int64()
	}
	return time.Unix(sec, 0).In(location(loc)).Format(DisplayLayout)
}

// ParseDate parses a display time (seconds are accepted and dropped).
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DisplayLayout, "2006-01-02T15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, location(loc)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTime, s)
}

// DurationMs is end - start in milliseconds for two display times.
func DurationMs(start, end string, loc *time.Location) (int64, error) {
	st, err := ParseDate(start, loc)
	if err != nil {
		return 0, err
	}
	et, err := ParseDate(end, loc)
	if err != nil {
		return 0, err
	}
	return et.Sub(st).Milliseconds(), nil
}
