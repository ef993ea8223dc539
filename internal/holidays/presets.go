// Package holidays expands named holiday calendars and broker trading
// calendars into market.Holiday entries.
package holidays

import (
	"fmt"
	"sort"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/aa"
	"github.com/rickar/cal/v2/us"

	"github.com/pcdogyu/market-closure/internal/market"
)

type calendar struct {
	holidays []*cal.Holiday
	// NYSE does not close on an observed day that lands in the previous
	// year (New Year's Day on a Saturday).
	sameYearOnly bool
}

var calendars = map[string]calendar{
	"us_federal": {
		holidays: []*cal.Holiday{
			us.NewYear,
			us.MlkDay,
			us.PresidentsDay,
			us.MemorialDay,
			us.Juneteenth,
			us.IndependenceDay,
			us.LaborDay,
			us.ColumbusDay,
			us.VeteransDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		},
	},
	"nyse": {
		holidays: []*cal.Holiday{
			us.NewYear,
			us.MlkDay,
			us.PresidentsDay,
			aa.GoodFriday,
			us.MemorialDay,
			us.Juneteenth,
			us.IndependenceDay,
			us.LaborDay,
			us.ThanksgivingDay,
			us.ChristmasDay,
		},
		sameYearOnly: true,
	},
}

// Known reports whether name is a built-in holiday calendar.
func Known(name string) bool {
	_, ok := calendars[name]
	return ok
}

// Names lists the built-in holiday calendars.
func Names() []string {
	out := make([]string, 0, len(calendars))
	for n := range calendars {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Preset returns whole-day closures on the observed dates of the named
// calendar for each year, sorted by date.
func Preset(name string, years []int) ([]market.Holiday, error) {
	c, ok := calendars[name]
	if !ok {
		return nil, fmt.Errorf("unknown holiday calendar %q", name)
	}
	var out []market.Holiday
	for _, y := range years {
		for _, h := range c.holidays {
			_, observed := h.Calc(y)
			if observed.IsZero() {
				continue
			}
			if c.sameYearOnly && observed.Year() != y {
				continue
			}
			out = append(out, market.Holiday{
				Year:  observed.Year(),
				Month: int(observed.Month()),
				Day:   observed.Day(),
				Name:  h.Name,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Day < b.Day
	})
	return out, nil
}
