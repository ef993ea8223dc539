// Package market decides whether a trading venue is closed, from a weekly
// trading-hours schedule and a list of (optionally partial-day) holidays
// evaluated in the venue's timezone.
//
// Malformed schedule strings never produce errors here: a span that cannot be
// parsed simply never matches. Use Validate to surface them up front.
package market

import (
	"strings"
	"time"
)

// Schedule describes when a venue trades.
type Schedule struct {
	// Timezone is an IANA zone name. Empty means closure is never reported.
	Timezone string `yaml:"timezone,omitempty" json:"timezone"`

	// Hours maps lowercase weekday names to "HH:MM-HH:MM" open windows.
	// A weekday missing from the map is closed all day. A nil map means
	// no time is ever inside trading hours.
	Hours map[string][]string `yaml:"hours,omitempty" json:"hours,omitempty"`

	Holidays []Holiday `yaml:"holidays,omitempty" json:"holidays,omitempty"`
}

// Holiday closes a venue on one calendar date. An empty Hours closes the
// whole day; otherwise only that window is closed.
type Holiday struct {
	Year  int    `yaml:"year" json:"year"`
	Month int    `yaml:"month" json:"month"`
	Day   int    `yaml:"day" json:"day"`
	Hours string `yaml:"hours,omitempty" json:"hours,omitempty"`
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
}

func (h Holiday) sameDate(t time.Time) bool {
	return t.Year() == h.Year && int(t.Month()) == h.Month && t.Day() == h.Day
}

// Status is one evaluation of a schedule at a point in time.
type Status struct {
	Local     time.Time `json:"local"`
	Weekday   string    `json:"weekday"`
	InHours   bool      `json:"in_hours"`
	InHoliday bool      `json:"in_holiday"`
	Halted    bool      `json:"halted"`
}

// Evaluator answers closure queries for one Schedule. It is immutable and
// safe for concurrent use.
type Evaluator struct {
	timezone string
	loc      *time.Location
	locErr   error
	hours    map[string][]string
	holidays []Holiday
	now      func() time.Time
}

type Option func(*Evaluator)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// New builds an Evaluator from a copy of s.
func New(s Schedule, opts ...Option) *Evaluator {
	e := &Evaluator{
		timezone: s.Timezone,
		now:      time.Now,
	}
	if s.Timezone != "" {
		e.loc, e.locErr = time.LoadLocation(s.Timezone)
	}
	if s.Hours != nil {
		e.hours = make(map[string][]string, len(s.Hours))
		for day, spans := range s.Hours {
			e.hours[day] = append([]string(nil), spans...)
		}
	}
	e.holidays = append([]Holiday(nil), s.Holidays...)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the resolved venue zone, or nil when no timezone is set
// or it failed to load.
func (e *Evaluator) Location() *time.Location { return e.loc }

// Err reports a timezone that could not be loaded.
func (e *Evaluator) Err() error { return e.locErr }

// IsTradingHalted reports whether the venue is closed right now: outside
// every trading window, or inside a holiday closure. Without a timezone it
// is always false. With a timezone that failed to load it is always true.
func (e *Evaluator) IsTradingHalted() bool {
	return e.Status().Halted
}

// Status evaluates the schedule at the current time.
func (e *Evaluator) Status() Status {
	return e.StatusAt(e.now())
}

// StatusAt evaluates the schedule at t, converting it to the venue zone.
func (e *Evaluator) StatusAt(t time.Time) Status {
	if e.timezone == "" {
		return Status{Local: t, Weekday: weekdayName(t)}
	}
	if e.loc == nil {
		return Status{Local: t, Weekday: weekdayName(t), Halted: true}
	}
	local := t.In(e.loc)
	st := Status{
		Local:     local,
		Weekday:   weekdayName(local),
		InHours:   e.IsInTradingHours(local),
		InHoliday: e.IsInHolidays(local),
	}
	st.Halted = !st.InHours || st.InHoliday
	return st
}

// IsInTradingHours reports whether t falls in one of the windows configured
// for t's weekday. t is read in its own location.
func (e *Evaluator) IsInTradingHours(t time.Time) bool {
	if e.hours == nil {
		return false
	}
	spans, ok := e.hours[weekdayName(t)]
	if !ok {
		return false
	}
	for _, span := range spans {
		if inTimespan(t, span) {
			return true
		}
	}
	return false
}

// IsInHolidays reports whether t falls in a holiday closure on its
// calendar date. t is read in its own location.
func (e *Evaluator) IsInHolidays(t time.Time) bool {
	for _, h := range e.holidays {
		if !h.sameDate(t) {
			continue
		}
		if h.Hours == "" || inTimespan(t, h.Hours) {
			return true
		}
	}
	return false
}

func weekdayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}
