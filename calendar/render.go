package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jrsteele09/condo-console/tenants"
)

const cellWidth = 14

var weekdayHeaders = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// RenderOptions controls terminal output
type RenderOptions struct {
	Title  string        // Printed after the month name, usually the tenant name
	Colour bool          // Emit ANSI escapes
	Theme  tenants.Theme // Own reservations are drawn in the primary colour
}

// Render writes the month as a seven column grid
func Render(w io.Writer, m Month, opts RenderOptions) error {
	mine := Bold
	if esc, err := tenants.ANSIForeground(opts.Theme.PrimaryColor); err == nil {
		mine = Bold + esc
	}

	title := fmt.Sprintf("%s %d", m.Month, m.Year)
	if opts.Title != "" {
		title += " - " + opts.Title
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}

	var header strings.Builder
	for _, h := range weekdayHeaders {
		header.WriteString(pad(h))
	}
	if _, err := fmt.Fprintln(w, paint(opts.Colour, Bold, strings.TrimRight(header.String(), " "))); err != nil {
		return err
	}

	loc := m.Location
	if loc == nil {
		loc = time.Local
	}

	linesPerCell := 1 + maxShown(m) + 1
	for week := 0; week*7 < len(m.Cells); week++ {
		end := min((week+1)*7, len(m.Cells))
		row := m.Cells[week*7 : end]
		for line := 0; line < linesPerCell; line++ {
			var b strings.Builder
			for _, c := range row {
				text, colour := cellLine(c, line, mine, loc)
				b.WriteString(paint(opts.Colour && colour != "", colour, pad(text)))
			}
			if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
				return err
			}
		}
	}

	if opts.Colour {
		_, err := fmt.Fprintf(w, "%s* your reservation%s\n", mine, ResetColor)
		return err
	}
	_, err := fmt.Fprintln(w, "* your reservation")
	return err
}

// cellLine returns the text of line n of a cell and the colour to draw it in.
// Start times print in loc, the zone the cell's day was bucketed in.
func cellLine(c Cell, n int, mineColour string, loc *time.Location) (string, string) {
	if c.Blank {
		return "", ""
	}
	if n == 0 {
		return fmt.Sprintf("%2d", c.Date.Day()), ""
	}
	idx := n - 1
	if idx < len(c.Reservations) {
		r := c.Reservations[idx]
		marker := " "
		colour := statusColours[string(r.Status)]
		if r.Mine {
			marker = "*"
			colour = mineColour
		}
		return fmt.Sprintf("%s%s %s", marker, r.StartTime.In(loc).Format("15:04"), r.Area), colour
	}
	if idx == len(c.Reservations) && c.TruncatedCount > 0 {
		return fmt.Sprintf(" +%d more", c.TruncatedCount), Yellow
	}
	return "", ""
}

func maxShown(m Month) int {
	n := 0
	for _, c := range m.Cells {
		n = max(n, len(c.Reservations))
	}
	return n
}

func pad(s string) string {
	r := []rune(s)
	if len(r) >= cellWidth {
		return string(r[:cellWidth-1]) + " "
	}
	return s + strings.Repeat(" ", cellWidth-len(r))
}

func paint(enabled bool, colour, s string) string {
	if !enabled || colour == "" {
		return s
	}
	return colour + s + ResetColor
}
