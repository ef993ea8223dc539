package runtimecfg

import (
	"fmt"

	"github.com/pcdogyu/market-closure/internal/config"
	"github.com/pcdogyu/market-closure/internal/market"
)

// Patch is a partial update for settings exposed over the API.
// Fields are pointers so "not set" can be distinguished from zero values.
type Patch struct {
	MonitorIntervalSeconds *int  `json:"monitor_interval_seconds,omitempty"`
	OnlyRecordChanges      *bool `json:"only_record_changes,omitempty"`
	RetentionDays          *int  `json:"retention_days,omitempty"`

	// Venue selects the venue the fields below change.
	Venue string `json:"venue,omitempty"`

	// Hours replaces the venue's weekly hours when set.
	Hours          map[string][]string `json:"hours,omitempty"`
	AddHolidays    []market.Holiday    `json:"add_holidays,omitempty"`
	RemoveHolidays []market.Holiday    `json:"remove_holidays,omitempty"`
}

func (p Patch) Apply(cfg *config.Config) error {
	if p.MonitorIntervalSeconds != nil {
		cfg.Monitor.IntervalSeconds = *p.MonitorIntervalSeconds
	}
	if p.OnlyRecordChanges != nil {
		v := *p.OnlyRecordChanges
		cfg.Monitor.OnlyRecordChanges = &v
	}
	if p.RetentionDays != nil {
		cfg.RetentionDays = *p.RetentionDays
	}

	if p.Venue == "" {
		if p.Hours != nil || len(p.AddHolidays) > 0 || len(p.RemoveHolidays) > 0 {
			return fmt.Errorf("venue is required for hours or holiday changes")
		}
		return nil
	}

	idx := -1
	for i := range cfg.Venues {
		if cfg.Venues[i].Name == p.Venue {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("unknown venue %q", p.Venue)
	}
	v := &cfg.Venues[idx]

	if p.Hours != nil {
		v.Hours = p.Hours
	}
	if len(p.RemoveHolidays) > 0 {
		kept := v.Holidays[:0]
		for _, h := range v.Holidays {
			if !matchesAny(h, p.RemoveHolidays) {
				kept = append(kept, h)
			}
		}
		v.Holidays = kept
	}
	for _, h := range p.AddHolidays {
		if !matchesAny(h, v.Holidays) {
			v.Holidays = append(v.Holidays, h)
		}
	}
	return nil
}

// Holidays are identified by date and closure window; names are ignored.
func matchesAny(h market.Holiday, list []market.Holiday) bool {
	for _, o := range list {
		if h.Year == o.Year && h.Month == o.Month && h.Day == o.Day && h.Hours == o.Hours {
			return true
		}
	}
	return false
}
