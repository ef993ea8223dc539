package market

import (
	"errors"
	"fmt"
	"time"
)

var weekdays = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

// Validate reports every problem in s. Evaluator never calls it; malformed
// entries there are silent non-matches.
func Validate(s Schedule) error {
	var errs []error
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("timezone %q: %w", s.Timezone, err))
		}
	}
	for day, spans := range s.Hours {
		if !weekdays[day] {
			errs = append(errs, fmt.Errorf("hours: unknown weekday %q", day))
		}
		for _, span := range spans {
			if _, ok := ParseTimespan(span); !ok {
				errs = append(errs, fmt.Errorf("hours.%s: malformed timespan %q", day, span))
			}
		}
	}
	for i, h := range s.Holidays {
		d := time.Date(h.Year, time.Month(h.Month), h.Day, 0, 0, 0, 0, time.UTC)
		if h.Month < 1 || h.Month > 12 || d.Day() != h.Day {
			errs = append(errs, fmt.Errorf("holidays[%d]: invalid date %04d-%02d-%02d", i, h.Year, h.Month, h.Day))
		}
		if h.Hours != "" {
			if _, ok := ParseTimespan(h.Hours); !ok {
				errs = append(errs, fmt.Errorf("holidays[%d]: malformed timespan %q", i, h.Hours))
			}
		}
	}
	return errors.Join(errs...)
}
