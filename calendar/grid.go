// Package calendar builds month grids of reservations. Building is pure: the same inputs always
// produce the same grid, and a filter change is a full rebuild.
package calendar

import (
	"time"

	"github.com/jrsteele09/condo-console/reservations"
)

// DefaultMaxPerDay is how many reservations a day cell surfaces before truncating
const DefaultMaxPerDay = 3

// CellReservation is a displayed reservation with its ownership mark
type CellReservation struct {
	reservations.Reservation
	Mine bool // Owned by the viewer
}

// Cell is one square of the grid. Blank cells pad the first week.
type Cell struct {
	Date           time.Time
	Blank          bool
	Reservations   []CellReservation // At most MaxPerDay, in input order
	Total          int               // Matching reservations that day, including truncated ones
	TruncatedCount int
}

// Month is the grid for one month, Monday-first
type Month struct {
	Year          int
	Month         time.Month
	LeadingBlanks int // Monday=0 .. Sunday=6
	DaysInMonth   int
	Cells         []Cell         // LeadingBlanks blank cells followed by DaysInMonth day cells
	Location      *time.Location // Zone the days were bucketed in
}

// Day returns the cell for day d (1-based)
func (m Month) Day(d int) (Cell, bool) {
	if d < 1 || d > m.DaysInMonth {
		return Cell{}, false
	}
	return m.Cells[m.LeadingBlanks+d-1], true
}

// Days returns only the day cells
func (m Month) Days() []Cell {
	return m.Cells[m.LeadingBlanks:]
}

type options struct {
	areaFilter string
	viewerID   int64
	loc        *time.Location
	maxPerDay  int
}

// Option configures BuildMonth
type Option func(*options)

// WithAreaFilter keeps reservations whose area contains filter, ignoring case
func WithAreaFilter(filter string) Option {
	return func(o *options) {
		o.areaFilter = filter
	}
}

// WithViewer marks reservations owned by userID as mine
func WithViewer(userID int64) Option {
	return func(o *options) {
		o.viewerID = userID
	}
}

// WithLocation sets the zone days are bucketed in (default time.Local)
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithMaxPerDay changes how many reservations a cell surfaces
func WithMaxPerDay(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPerDay = n
		}
	}
}

// BuildMonth buckets reservations by the calendar date of their start time
func BuildMonth(year int, month time.Month, list []reservations.Reservation, opts ...Option) Month {
	o := options{loc: time.Local, maxPerDay: DefaultMaxPerDay}
	for _, opt := range opts {
		opt(&o)
	}

	days := DaysIn(year, month)
	lead := FirstWeekday(year, month)

	byDay := make([][]reservations.Reservation, days+1)
	for _, r := range reservations.FilterByArea(list, o.areaFilter) {
		start := r.StartTime.In(o.loc)
		if start.Year() != year || start.Month() != month {
			continue
		}
		byDay[start.Day()] = append(byDay[start.Day()], r)
	}

	cells := make([]Cell, 0, lead+days)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for d := 1; d <= days; d++ {
		bucket := byDay[d]
		shown := bucket
		if len(shown) > o.maxPerDay {
			shown = shown[:o.maxPerDay]
		}
		cell := Cell{
			Date:           time.Date(year, month, d, 0, 0, 0, 0, o.loc),
			Reservations:   make([]CellReservation, 0, len(shown)),
			Total:          len(bucket),
			TruncatedCount: max(0, len(bucket)-o.maxPerDay),
		}
		for _, r := range shown {
			cell.Reservations = append(cell.Reservations, CellReservation{
				Reservation: r,
				Mine:        r.IsOwnedBy(o.viewerID),
			})
		}
		cells = append(cells, cell)
	}

	return Month{
		Year:          year,
		Month:         month,
		LeadingBlanks: lead,
		DaysInMonth:   days,
		Cells:         cells,
		Location:      o.loc,
	}
}

// DaysIn returns the number of days in the month
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstWeekday returns the weekday of the 1st with Monday=0 .. Sunday=6
func FirstWeekday(year int, month time.Month) int {
	wd := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
	return (int(wd) + 6) % 7
}
