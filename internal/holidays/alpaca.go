package holidays

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"github.com/pcdogyu/market-closure/internal/market"
)

// CalendarClient is the part of *alpaca.Client the importer needs.
type CalendarClient interface {
	GetCalendar(req alpaca.GetCalendarRequest) ([]alpaca.CalendarDay, error)
}

var _ CalendarClient = (*alpaca.Client)(nil)

// NewAlpacaClient returns a trading API client for calendar lookups.
func NewAlpacaClient(apiKey, apiSecret, baseURL string) *alpaca.Client {
	return alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	})
}

// AlpacaImporter derives closures from the broker's trading calendar: a
// weekday missing from the calendar is a whole-day holiday and a session
// closing before the regular close is a partial holiday from that close
// until the end of the day.
type AlpacaImporter struct {
	Client CalendarClient
}

// Import covers the dates in [start, end]. regularClose is "HH:MM" in the
// exchange's local time.
func (imp AlpacaImporter) Import(ctx context.Context, start, end time.Time, regularClose string) ([]market.Holiday, error) {
	regular, err := time.Parse("15:04", regularClose)
	if err != nil {
		return nil, fmt.Errorf("regular close %q: %w", regularClose, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	days, err := imp.Client.GetCalendar(alpaca.GetCalendarRequest{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("GetCalendar: %w", err)
	}

	sessions := make(map[string]alpaca.CalendarDay, len(days))
	for _, d := range days {
		sessions[d.Date] = d
	}

	var out []market.Holiday
	first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		h := market.Holiday{Year: d.Year(), Month: int(d.Month()), Day: d.Day()}
		day, ok := sessions[d.Format("2006-01-02")]
		if !ok {
			h.Name = "market closed"
			out = append(out, h)
			continue
		}
		closeAt, err := time.Parse("15:04", day.Close)
		if err != nil {
			continue
		}
		if closeAt.Before(regular) {
			// The closing minute itself still trades.
			from := closeAt.Add(time.Minute)
			h.Hours = market.Timespan{
				StartHour:   from.Hour(),
				StartMinute: from.Minute(),
				EndHour:     23,
				EndMinute:   59,
			}.String()
			h.Name = "early close"
			out = append(out, h)
		}
	}
	return out, nil
}
