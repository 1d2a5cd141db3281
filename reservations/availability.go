package reservations

import (
	"strings"
	"time"

	cerrors "github.com/jrsteele09/condo-console/internal/errors"
)

// Availability is the advisory answer for a proposed booking
type Availability struct {
	Available bool
	Conflict  *Reservation // First conflicting reservation in input order
}

// ValidateInterval must pass before CheckAvailability is called
func ValidateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return cerrors.Validationf("start and end times are required")
	}
	if !start.Before(end) {
		return cerrors.Validationf("end time must be after start time")
	}
	return nil
}

// CheckAvailability compares [start, end) with the active reservations of exactly the same area.
// The result is advisory; the backend re-validates every booking.
func CheckAvailability(area string, start, end time.Time, existing []Reservation) Availability {
	for i := range existing {
		r := existing[i]
		if !r.Status.Active() || r.Area != area {
			continue
		}
		if r.Overlaps(start, end) {
			return Availability{Available: false, Conflict: &r}
		}
	}
	return Availability{Available: true}
}

// FilterByArea is the case-insensitive substring filter used for display. It is never used to
// decide availability.
func FilterByArea(list []Reservation, query string) []Reservation {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := make([]Reservation, 0, len(list))
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.Area), q) {
			out = append(out, r)
		}
	}
	return out
}
