package reservations

import (
	"fmt"
	"time"

	cerrors "github.com/jrsteele09/condo-console/internal/errors"
)

// Status of a reservation. Cancelled is terminal.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Active reservations block their time slot
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

var transitionMap = map[Status][]Status{
	StatusCancelled: {StatusScheduled, StatusConfirmed},
}

// CanTransition reports whether a reservation may move from one status to another
func CanTransition(from, to Status) bool {
	for _, allowed := range transitionMap[to] {
		if allowed == from {
			return true
		}
	}
	return false
}

// Reservation of a shared amenity area by a unit, over the half-open interval [StartTime, EndTime).
type Reservation struct {
	ID        int64
	UnitID    int64
	Area      string
	StartTime time.Time
	EndTime   time.Time
	Status    Status
	OwnerID   *int64 // Owner of the unit; nil when the backend did not send it
	AuthorID  *int64 // User who made the booking; nil when the backend did not send it
}

// IsOwnedBy is the single ownership predicate used by every view: the viewer owns the unit
// or made the booking.
func (r Reservation) IsOwnedBy(viewerID int64) bool {
	if viewerID == 0 {
		return false
	}
	return (r.OwnerID != nil && *r.OwnerID == viewerID) || (r.AuthorID != nil && *r.AuthorID == viewerID)
}

// Overlaps reports whether [start, end) intersects the reservation. Touching ends do not overlap.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// Cancel moves the reservation to cancelled
func (r *Reservation) Cancel() error {
	if !CanTransition(r.Status, StatusCancelled) {
		return fmt.Errorf("%w: %s -> %s", cerrors.ErrInvalidTransition, r.Status, StatusCancelled)
	}
	r.Status = StatusCancelled
	return nil
}
