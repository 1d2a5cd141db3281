package reservations

import (
	"fmt"
	"strings"
	"time"
)

// WireLayout is the offset-less local timestamp the backend exchanges
const WireLayout = "2006-01-02T15:04:05"

var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	WireLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// WireReservation is a reservation record as returned by the backend.
// owner_id is the unit owner and user_id the booking's author; either may be missing.
type WireReservation struct {
	ID        int64  `json:"id"`
	UnitID    int64  `json:"unit_id"`
	Area      string `json:"area"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
	OwnerID   *int64 `json:"owner_id,omitempty"`
	UserID    *int64 `json:"user_id,omitempty"`
}

// Normalize converts the wire record. owner_id and user_id are both kept so ownership can match either.
func (w WireReservation) Normalize(loc *time.Location) (Reservation, error) {
	start, err := ParseTime(w.StartTime, loc)
	if err != nil {
		return Reservation{}, fmt.Errorf("reservation %d start_time: %w", w.ID, err)
	}
	end, err := ParseTime(w.EndTime, loc)
	if err != nil {
		return Reservation{}, fmt.Errorf("reservation %d end_time: %w", w.ID, err)
	}

	return Reservation{
		ID:        w.ID,
		UnitID:    w.UnitID,
		Area:      w.Area,
		StartTime: start,
		EndTime:   end,
		Status:    Status(strings.ToLower(strings.TrimSpace(w.Status))),
		OwnerID:   w.OwnerID,
		AuthorID:  w.UserID,
	}, nil
}

// NormalizeAll keeps the backend order
func NormalizeAll(ws []WireReservation, loc *time.Location) ([]Reservation, error) {
	out := make([]Reservation, 0, len(ws))
	for _, w := range ws {
		r, err := w.Normalize(loc)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// ParseTime accepts RFC 3339 and the local forms the backend and the console input use.
// Times without an offset are read in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, layout := range parseLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// FormatTime renders t in loc without an offset, as the backend expects
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(WireLayout)
}
