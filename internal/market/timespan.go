package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timespan is a same-day "HH:MM-HH:MM" window, inclusive at both ends.
type Timespan struct {
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

// ParseTimespan parses "HH:MM-HH:MM". ok is false for anything malformed.
// A start after the end is not malformed; such a span simply never matches.
func ParseTimespan(s string) (ts Timespan, ok bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Timespan{}, false
	}
	if ts.StartHour, ts.StartMinute, ok = parseClock(parts[0]); !ok {
		return Timespan{}, false
	}
	if ts.EndHour, ts.EndMinute, ok = parseClock(parts[1]); !ok {
		return Timespan{}, false
	}
	return ts, true
}

func parseClock(s string) (hour, minute int, ok bool) {
	hm := strings.Split(strings.TrimSpace(s), ":")
	if len(hm) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hm[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(hm[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// Contains reports whether t's wall clock falls inside the span.
// Seconds are ignored.
func (ts Timespan) Contains(t time.Time) bool {
	hm := t.Hour()*60 + t.Minute()
	return hm >= ts.StartHour*60+ts.StartMinute && hm <= ts.EndHour*60+ts.EndMinute
}

func (ts Timespan) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", ts.StartHour, ts.StartMinute, ts.EndHour, ts.EndMinute)
}

func inTimespan(t time.Time, span string) bool {
	ts, ok := ParseTimespan(span)
	if !ok {
		return false
	}
	return ts.Contains(t)
}
