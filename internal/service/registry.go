// Package service keeps one closure evaluator per configured venue.
package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pcdogyu/market-closure/internal/config"
	"github.com/pcdogyu/market-closure/internal/holidays"
	"github.com/pcdogyu/market-closure/internal/market"
	"github.com/pcdogyu/market-closure/internal/symbol"
)

var ErrUnknownVenue = errors.New("unknown venue")

// VenueStatus is a market.Status tagged with the venue it belongs to.
type VenueStatus struct {
	Venue    string `json:"venue"`
	Timezone string `json:"timezone"`
	market.Status
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// ImportedHolidays loads holidays stored for a venue outside the config
// file, e.g. an imported broker calendar.
type ImportedHolidays func(venue string) ([]market.Holiday, error)

type Option func(*Registry)

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithImportedHolidays(fn ImportedHolidays) Option {
	return func(r *Registry) { r.imported = fn }
}

type venue struct {
	name     string
	timezone string
	eval     *market.Evaluator
}

// Registry is safe for concurrent use. Reload swaps every evaluator at once.
type Registry struct {
	now      func() time.Time
	imported ImportedHolidays

	mu       sync.RWMutex
	venues   []venue
	byName   map[string]int
	bySuffix map[string]string
}

func NewRegistry(cfg config.Config, opts ...Option) (*Registry, error) {
	r := &Registry{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.Reload(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rebuilds the evaluators from cfg. On error the previous set stays.
func (r *Registry) Reload(cfg config.Config) error {
	venues := make([]venue, 0, len(cfg.Venues))
	byName := make(map[string]int, len(cfg.Venues))
	bySuffix := make(map[string]string)
	for _, v := range cfg.Venues {
		for _, sfx := range v.Suffixes {
			bySuffix[strings.ToUpper(sfx)] = v.Name
		}
		var imported []market.Holiday
		if r.imported != nil {
			hs, err := r.imported(v.Name)
			if err != nil {
				return fmt.Errorf("venue %s: imported holidays: %w", v.Name, err)
			}
			imported = hs
		}
		sched, err := BuildSchedule(v, imported)
		if err != nil {
			return fmt.Errorf("venue %s: %w", v.Name, err)
		}
		byName[v.Name] = len(venues)
		venues = append(venues, venue{
			name:     v.Name,
			timezone: sched.Timezone,
			eval:     market.New(sched, market.WithClock(r.now)),
		})
	}

	r.mu.Lock()
	r.venues = venues
	r.byName = byName
	r.bySuffix = bySuffix
	r.mu.Unlock()
	return nil
}

// BuildSchedule merges a venue's own holidays, its holiday calendars and
// any imported holidays into one schedule.
func BuildSchedule(v config.Venue, imported []market.Holiday) (market.Schedule, error) {
	s := market.Schedule{
		Timezone: v.Timezone,
		Hours:    v.Hours,
	}
	s.Holidays = append(s.Holidays, v.Holidays...)
	for _, name := range v.HolidayCalendars {
		hs, err := holidays.Preset(name, v.CalendarYears)
		if err != nil {
			return market.Schedule{}, err
		}
		s.Holidays = append(s.Holidays, hs...)
	}
	s.Holidays = append(s.Holidays, imported...)
	return s, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.venues))
	for _, v := range r.venues {
		out = append(out, v.name)
	}
	return out
}

func (r *Registry) lookup(name string) (venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byName[name]
	if !ok {
		return venue{}, fmt.Errorf("%w: %q", ErrUnknownVenue, name)
	}
	return r.venues[i], nil
}

// VenueForSymbol resolves "600519.SH" style symbols through the venues'
// configured suffixes.
func (r *Registry) VenueForSymbol(sym string) (string, error) {
	_, suffix, err := symbol.Split(sym)
	if err != nil {
		return "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.bySuffix[suffix]
	if !ok {
		return "", fmt.Errorf("%w: no venue for symbol %q", ErrUnknownVenue, sym)
	}
	return name, nil
}

// Status evaluates a venue at the current time.
func (r *Registry) Status(name string) (VenueStatus, error) {
	v, err := r.lookup(name)
	if err != nil {
		return VenueStatus{}, err
	}
	return v.status(v.eval.Status()), nil
}

// StatusAt evaluates a venue at t.
func (r *Registry) StatusAt(name string, t time.Time) (VenueStatus, error) {
	v, err := r.lookup(name)
	if err != nil {
		return VenueStatus{}, err
	}
	return v.status(v.eval.StatusAt(t)), nil
}

// IsTradingHalted reports whether a venue is closed right now.
func (r *Registry) IsTradingHalted(name string) (bool, error) {
	v, err := r.lookup(name)
	if err != nil {
		return false, err
	}
	return v.eval.IsTradingHalted(), nil
}

// StatusAll evaluates every venue, in config order.
func (r *Registry) StatusAll() []VenueStatus {
	r.mu.RLock()
	venues := r.venues
	r.mu.RUnlock()

	out := make([]VenueStatus, 0, len(venues))
	for _, v := range venues {
		out = append(out, v.status(v.eval.Status()))
	}
	return out
}

func (v venue) status(st market.Status) VenueStatus {
	vs := VenueStatus{
		Venue:     v.name,
		Timezone:  v.timezone,
		Status:    st,
		CheckedAt: st.Local.UTC(),
	}
	if err := v.eval.Err(); err != nil {
		vs.Error = err.Error()
	}
	return vs
}
