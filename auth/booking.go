package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/condo-console/access"
	"github.com/jrsteele09/condo-console/api"
	"github.com/jrsteele09/condo-console/calendar"
	cerrors "github.com/jrsteele09/condo-console/internal/errors"
	"github.com/jrsteele09/condo-console/reservations"
	"github.com/jrsteele09/condo-console/sessions"
	"github.com/jrsteele09/condo-console/tenants"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// BookingRequest is a reservation the user is about to submit
type BookingRequest struct {
	UnitID int64
	Area   string
	Start  time.Time
	End    time.Time
}

// Validate checks required fields and the interval. Bookings may not start in the past.
func (r BookingRequest) Validate(now time.Time) error {
	if r.UnitID <= 0 {
		return cerrors.Validationf("unit is required")
	}
	if strings.TrimSpace(r.Area) == "" {
		return cerrors.Validationf("area is required")
	}
	if err := reservations.ValidateInterval(r.Start, r.End); err != nil {
		return err
	}
	if r.Start.Before(now) {
		return cerrors.Validationf("start %s is in the past", r.Start.Format(time.DateTime))
	}
	return nil
}

// ConflictError is a booking refused before submission because the slot is taken
type ConflictError struct {
	Area     string
	Conflict *reservations.Reservation // Nil when the backend did not say which reservation
	Detail   string                    // Backend reason, shown verbatim when present
	Remote   bool                      // Reported by the backend availability check
}

func (e *ConflictError) Error() string {
	source := "local check"
	if e.Remote {
		source = "availability check"
	}
	msg := fmt.Sprintf("%s: %s is already reserved for this time range", source, e.Area)
	if e.Conflict != nil {
		msg = fmt.Sprintf("%s: %s is already reserved %s - %s (reservation %d)", source, e.Area,
			e.Conflict.StartTime.Format("2006-01-02 15:04"), e.Conflict.EndTime.Format("15:04"), e.Conflict.ID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *ConflictError) Unwrap() error {
	return cerrors.ErrConflict
}

type bookingKey struct {
	unitID     int64
	area       string
	start, end int64
}

// inflightGuard refuses a second identical submission while the first is pending
type inflightGuard struct {
	mu      sync.Mutex
	pending map[bookingKey]struct{}
}

func newInflightGuard() *inflightGuard {
	return &inflightGuard{pending: map[bookingKey]struct{}{}}
}

func (g *inflightGuard) acquire(k bookingKey) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.pending[k]; busy {
		return false
	}
	g.pending[k] = struct{}{}
	return true
}

func (g *inflightGuard) release(k bookingKey) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.pending, k)
}

// Book validates the request, runs the advisory availability checks and submits it.
//
// The local check against the listed reservations and the backend availability check both fail
// open: if either cannot answer, the booking is still submitted and the backend, which re-checks
// on create, has the final word. A 401 from either check ends the booking since the session is gone.
// Every submission carries a fresh idempotency key, and an identical booking already in flight is
// refused with ErrDuplicateSubmission.
func (s *Service) Book(ctx context.Context, req BookingRequest) (reservations.Reservation, error) {
	if _, err := s.requireSession(); err != nil {
		return reservations.Reservation{}, errors.Wrap(err, "[Service.Book]")
	}
	if err := req.Validate(s.nowTime()); err != nil {
		return reservations.Reservation{}, errors.Wrap(err, "[Service.Book]")
	}

	key := bookingKey{unitID: req.UnitID, area: req.Area, start: req.Start.UnixNano(), end: req.End.UnixNano()}
	if !s.inflight.acquire(key) {
		return reservations.Reservation{}, errors.Wrap(cerrors.ErrDuplicateSubmission, "[Service.Book]")
	}
	defer s.inflight.release(key)

	if err := s.localCheck(ctx, req); err != nil {
		return reservations.Reservation{}, err
	}
	if err := s.remoteCheck(ctx, req); err != nil {
		return reservations.Reservation{}, err
	}

	idempotencyKey := s.newKey()
	created, err := s.backend.CreateReservation(ctx, api.NewReservation{
		UnitID: req.UnitID,
		Area:   req.Area,
		Start:  req.Start,
		End:    req.End,
	}, idempotencyKey)
	if err != nil {
		return reservations.Reservation{}, errors.Wrap(err, "[Service.Book] backend.CreateReservation")
	}

	log.Info().Int64("reservation", created.ID).Str("area", created.Area).Str("key", idempotencyKey).Msg("reservation created")
	return created, nil
}

func (s *Service) localCheck(ctx context.Context, req BookingRequest) error {
	existing, err := s.backend.ListReservations(ctx)
	if err != nil {
		if cerrors.Is(err, cerrors.ErrUnauthenticated) {
			return errors.Wrap(err, "[Service.Book] backend.ListReservations")
		}
		log.Warn().Err(err).Msg("local availability check skipped")
		return nil
	}
	if res := reservations.CheckAvailability(req.Area, req.Start, req.End, existing); !res.Available {
		return &ConflictError{Area: req.Area, Conflict: res.Conflict}
	}
	return nil
}

func (s *Service) remoteCheck(ctx context.Context, req BookingRequest) error {
	res, err := s.backend.CheckAvailability(ctx, req.Area, req.Start, req.End)
	if err != nil {
		if cerrors.Is(err, cerrors.ErrUnauthenticated) {
			return errors.Wrap(err, "[Service.Book] backend.CheckAvailability")
		}
		log.Warn().Err(err).Msg("availability check unavailable, submitting anyway")
		return nil
	}
	if !res.Known {
		log.Warn().Str("area", req.Area).Msg("availability check gave no verdict, submitting anyway")
		return nil
	}
	if !res.Available {
		return &ConflictError{Area: req.Area, Conflict: res.Conflict, Detail: res.Detail, Remote: true}
	}
	return nil
}

// Cancel cancels a reservation. A reservation already known to be cancelled is refused locally;
// when the listing is unavailable the backend decides alone.
func (s *Service) Cancel(ctx context.Context, id int64) error {
	if _, err := s.requireSession(); err != nil {
		return errors.Wrap(err, "[Service.Cancel]")
	}

	existing, err := s.backend.ListReservations(ctx)
	if err != nil {
		if cerrors.Is(err, cerrors.ErrUnauthenticated) {
			return errors.Wrap(err, "[Service.Cancel] backend.ListReservations")
		}
		log.Warn().Err(err).Int64("reservation", id).Msg("cancel: status pre-check skipped")
	}
	for _, r := range existing {
		if r.ID != id {
			continue
		}
		if err := r.Cancel(); err != nil {
			return errors.Wrapf(err, "[Service.Cancel] reservation %d", id)
		}
		break
	}

	if err := s.backend.CancelReservation(ctx, id); err != nil {
		if cerrors.Is(err, cerrors.ErrNotFound) {
			return errors.Wrapf(cerrors.ErrReservationNotFound, "[Service.Cancel] reservation %d", id)
		}
		return errors.Wrap(err, "[Service.Cancel] backend.CancelReservation")
	}
	log.Info().Int64("reservation", id).Msg("reservation cancelled")
	return nil
}

// Reservations lists reservations in backend order, optionally narrowed by an area substring
func (s *Service) Reservations(ctx context.Context, areaFilter string) ([]reservations.Reservation, error) {
	if _, err := s.requireSession(); err != nil {
		return nil, errors.Wrap(err, "[Service.Reservations]")
	}
	list, err := s.backend.ListReservations(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Reservations] backend.ListReservations")
	}
	return reservations.FilterByArea(list, areaFilter), nil
}

// Calendar builds the month grid for the session's viewer
func (s *Service) Calendar(ctx context.Context, year int, month time.Month, areaFilter string, loc *time.Location) (calendar.Month, error) {
	session, err := s.requireSession()
	if err != nil {
		return calendar.Month{}, errors.Wrap(err, "[Service.Calendar]")
	}
	list, err := s.backend.ListReservations(ctx)
	if err != nil {
		return calendar.Month{}, errors.Wrap(err, "[Service.Calendar] backend.ListReservations")
	}
	return calendar.BuildMonth(year, month, list,
		calendar.WithAreaFilter(areaFilter),
		calendar.WithViewer(session.User.ID),
		calendar.WithLocation(loc),
	), nil
}

// Tenants lists condominium records. Only sessions whose units view is backed by tenants may call it.
func (s *Service) Tenants(ctx context.Context) ([]tenants.Tenant, error) {
	vc, ok := s.ViewContext()
	if !ok {
		return nil, errors.Wrap(cerrors.ErrInvalidState, "[Service.Tenants] not logged in")
	}
	if vc.Units != access.TenantsSource {
		return nil, errors.Wrap(cerrors.ErrForbidden, "[Service.Tenants] tenant records need a super admin session")
	}
	list, err := s.backend.ListTenants(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Tenants] backend.ListTenants")
	}
	return list, nil
}

func (s *Service) requireSession() (sessions.Session, error) {
	session, ok := s.Session()
	if !ok {
		return sessions.Session{}, errors.Wrapf(cerrors.ErrInvalidState, "not logged in (%s)", s.State())
	}
	return session, nil
}
