package calendar_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/condo-console/calendar"
	"github.com/jrsteele09/condo-console/internal/utils"
	"github.com/jrsteele09/condo-console/reservations"
	"github.com/jrsteele09/condo-console/tenants"
	"github.com/stretchr/testify/require"
)

func res(id int64, area string, start time.Time, owner *int64) reservations.Reservation {
	return reservations.Reservation{
		ID:        id,
		UnitID:    10,
		Area:      area,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    reservations.StatusConfirmed,
		OwnerID:   owner,
	}
}

func TestBuildMonth_CellCounts(t *testing.T) {
	for _, year := range []int{2023, 2024, 1900, 2000} {
		for m := time.January; m <= time.December; m++ {
			t.Run(fmt.Sprintf("%d-%02d", year, m), func(t *testing.T) {
				got := calendar.BuildMonth(year, m, nil, calendar.WithLocation(time.UTC))

				first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
				wantLead := (int(first.Weekday()) + 6) % 7
				wantDays := first.AddDate(0, 1, -1).Day()

				require.Equal(t, wantLead, got.LeadingBlanks)
				require.Equal(t, wantDays, got.DaysInMonth)
				require.Len(t, got.Cells, wantLead+wantDays)
				for i, c := range got.Cells {
					require.Equal(t, i < wantLead, c.Blank)
				}
				require.Equal(t, wantDays, got.Days()[len(got.Days())-1].Date.Day())
			})
		}
	}
}

func TestBuildMonth_February(t *testing.T) {
	leap := calendar.BuildMonth(2024, time.February, nil)
	require.Equal(t, 29, leap.DaysInMonth)
	require.Equal(t, 3, leap.LeadingBlanks) // Thursday

	common := calendar.BuildMonth(2023, time.February, nil)
	require.Equal(t, 28, common.DaysInMonth)
	require.Equal(t, 2, common.LeadingBlanks) // Wednesday

	century := calendar.BuildMonth(1900, time.February, nil)
	require.Equal(t, 28, century.DaysInMonth)
}

func TestBuildMonth_TruncatesAfterThree(t *testing.T) {
	day := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	var list []reservations.Reservation
	for i := 0; i < 5; i++ {
		list = append(list, res(int64(i+1), "pool", day.Add(time.Duration(i)*time.Hour), nil))
	}
	list = append(list, res(99, "gym", day.AddDate(0, 0, 1), nil))

	got := calendar.BuildMonth(2024, time.June, list, calendar.WithLocation(time.UTC))

	cell, ok := got.Day(10)
	require.True(t, ok)
	require.Equal(t, 5, cell.Total)
	require.Equal(t, 2, cell.TruncatedCount)
	require.Len(t, cell.Reservations, 3)
	for i, r := range cell.Reservations {
		require.Equal(t, int64(i+1), r.ID, "input order is kept")
	}

	cell, _ = got.Day(11)
	require.Equal(t, 0, cell.TruncatedCount)
	require.Len(t, cell.Reservations, 1)

	cell, _ = got.Day(12)
	require.Empty(t, cell.Reservations)

	_, ok = got.Day(31)
	require.False(t, ok)
}

func TestBuildMonth_TruncationProperty(t *testing.T) {
	day := time.Date(2024, 3, 15, 6, 0, 0, 0, time.UTC)
	for count := 0; count <= 9; count++ {
		var list []reservations.Reservation
		for i := 0; i < count; i++ {
			list = append(list, res(int64(i), "hall", day.Add(time.Duration(i)*time.Minute), nil))
		}
		cell, _ := calendar.BuildMonth(2024, time.March, list, calendar.WithLocation(time.UTC)).Day(15)
		require.Equal(t, max(0, count-3), cell.TruncatedCount)
		require.Len(t, cell.Reservations, min(count, 3))
	}
}

func TestBuildMonth_FilterOwnershipAndMonthBounds(t *testing.T) {
	viewer := int64(7)
	list := []reservations.Reservation{
		res(1, "Pool", time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC), utils.Ptr(viewer)),
		res(2, "Pool Deck", time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC), utils.Ptr(int64(8))),
		res(3, "Gym", time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC), utils.Ptr(viewer)),
		res(4, "Pool", time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC), utils.Ptr(viewer)),
		res(5, "Pool", time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC), utils.Ptr(viewer)),
		res(6, "Pool", time.Date(2024, 6, 4, 10, 0, 0, 0, time.UTC), nil),
	}

	got := calendar.BuildMonth(2024, time.June, list,
		calendar.WithLocation(time.UTC), calendar.WithAreaFilter("POOL"), calendar.WithViewer(viewer))

	cell, _ := got.Day(3)
	require.Len(t, cell.Reservations, 2)
	require.True(t, cell.Reservations[0].Mine)
	require.False(t, cell.Reservations[1].Mine)

	cell, _ = got.Day(4)
	require.Len(t, cell.Reservations, 1)
	require.False(t, cell.Reservations[0].Mine)

	total := 0
	for _, c := range got.Days() {
		total += c.Total
	}
	require.Equal(t, 3, total, "other months and other areas are excluded")
}

func TestBuildMonth_AuthorOfAnotherUnitsBookingSeesItAsMine(t *testing.T) {
	wire := reservations.WireReservation{
		ID: 1, UnitID: 12, Area: "pool", Status: "confirmed",
		StartTime: "2024-06-03T10:00:00", EndTime: "2024-06-03T11:00:00",
		OwnerID: utils.Ptr(int64(5)), UserID: utils.Ptr(int64(7)),
	}
	r, err := wire.Normalize(time.UTC)
	require.NoError(t, err)

	got := calendar.BuildMonth(2024, time.June, []reservations.Reservation{r},
		calendar.WithLocation(time.UTC), calendar.WithViewer(7))
	cell, _ := got.Day(3)
	require.Len(t, cell.Reservations, 1)
	require.True(t, cell.Reservations[0].Mine)

	got = calendar.BuildMonth(2024, time.June, []reservations.Reservation{r},
		calendar.WithLocation(time.UTC), calendar.WithViewer(8))
	cell, _ = got.Day(3)
	require.False(t, cell.Reservations[0].Mine)
}

func TestBuildMonth_BucketsInLocation(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	// 01:00 UTC on June 1st is still May 31st in BRT
	list := []reservations.Reservation{res(1, "pool", time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC), nil)}

	got := calendar.BuildMonth(2024, time.June, list, calendar.WithLocation(saoPaulo))
	for _, c := range got.Days() {
		require.Zero(t, c.Total)
	}

	got = calendar.BuildMonth(2024, time.May, list, calendar.WithLocation(saoPaulo))
	cell, _ := got.Day(31)
	require.Equal(t, 1, cell.Total)
}

func TestBuildMonth_IsDeterministic(t *testing.T) {
	list := []reservations.Reservation{
		res(1, "pool", time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC), nil),
		res(2, "gym", time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC), nil),
	}
	a := calendar.BuildMonth(2024, time.June, list, calendar.WithLocation(time.UTC))
	b := calendar.BuildMonth(2024, time.June, list, calendar.WithLocation(time.UTC))
	require.Equal(t, a, b)
}

func TestRender(t *testing.T) {
	viewer := int64(7)
	day := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)
	list := []reservations.Reservation{
		res(1, "pool", day, utils.Ptr(viewer)),
		res(2, "gym", day.Add(time.Hour), nil),
		res(3, "bbq", day.Add(2*time.Hour), nil),
		res(4, "hall", day.Add(3*time.Hour), nil),
	}
	m := calendar.BuildMonth(2024, time.June, list, calendar.WithLocation(time.UTC), calendar.WithViewer(viewer))

	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, calendar.Render(&buf, m, calendar.RenderOptions{Title: "Residencial Sol"}))
		out := buf.String()

		require.True(t, strings.HasPrefix(out, "June 2024 - Residencial Sol\n"))
		require.Contains(t, out, "Mon")
		require.Contains(t, out, "*08:00 pool")
		require.Contains(t, out, " 09:00 gym")
		require.Contains(t, out, "+1 more")
		require.NotContains(t, out, "hall")
		require.NotContains(t, out, "\033[")
	})

	t.Run("hours print in the bucketing zone", func(t *testing.T) {
		saoPaulo := time.FixedZone("BRT", -3*60*60)
		// 01:30 UTC on June 1st is 22:30 on May 31st in BRT
		late := res(9, "pool", time.Date(2024, 6, 1, 1, 30, 0, 0, time.UTC), nil)
		may := calendar.BuildMonth(2024, time.May, []reservations.Reservation{late}, calendar.WithLocation(saoPaulo))

		var buf bytes.Buffer
		require.NoError(t, calendar.Render(&buf, may, calendar.RenderOptions{}))
		require.Contains(t, buf.String(), " 22:30 pool")
		require.NotContains(t, buf.String(), "01:30")
	})

	t.Run("coloured with tenant theme", func(t *testing.T) {
		var buf bytes.Buffer
		theme := tenants.ThemeConfig{PrimaryColor: utils.Ptr("#ff0000")}.Resolve()
		require.NoError(t, calendar.Render(&buf, m, calendar.RenderOptions{Colour: true, Theme: theme}))
		require.Contains(t, buf.String(), "\033[38;2;255;0;0m")
	})
}
