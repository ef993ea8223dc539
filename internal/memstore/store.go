package memstore

import (
	"sort"
	"sync"

	"github.com/pcdogyu/market-closure/internal/service"
)

// Store keeps the latest status per venue in memory.
// The API reads from here; the monitor decides what goes to SQLite.
type Store struct {
	mu      sync.RWMutex
	byVenue map[string]service.VenueStatus
}

func New() *Store {
	return &Store{byVenue: make(map[string]service.VenueStatus)}
}

// Set stores st and returns the status it replaced, if any.
func (s *Store) Set(st service.VenueStatus) (prev service.VenueStatus, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok = s.byVenue[st.Venue]
	s.byVenue[st.Venue] = st
	return prev, ok
}

func (s *Store) Get(venue string) (service.VenueStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byVenue[venue]
	return st, ok
}

// Retain drops venues that are no longer configured.
func (s *Store) Retain(venues []string) {
	keep := make(map[string]bool, len(venues))
	for _, v := range venues {
		keep[v] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for v := range s.byVenue {
		if !keep[v] {
			delete(s.byVenue, v)
		}
	}
}

// Snapshot returns every stored status sorted by venue name.
func (s *Store) Snapshot() []service.VenueStatus {
	s.mu.RLock()
	out := make([]service.VenueStatus, 0, len(s.byVenue))
	for _, v := range s.byVenue {
		out = append(out, v)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Venue < out[j].Venue })
	return out
}
