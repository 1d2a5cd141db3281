package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/condo-console/reservations"
	"github.com/pkg/errors"
)

// NewReservation is a booking request
type NewReservation struct {
	UnitID int64
	Area   string
	Start  time.Time
	End    time.Time
}

type newReservationBody struct {
	UnitID    int64  `json:"unit_id"`
	Area      string `json:"area"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// AvailabilityResult is the backend's answer to an availability query.
// Known is false when a 2xx body carried no verdict; Available is then meaningless.
type AvailabilityResult struct {
	Known     bool
	Available bool
	Detail    string                    // Backend reason, usually set when the slot is taken
	Conflict  *reservations.Reservation // Nil when the backend did not say which reservation
}

type availabilityBody struct {
	Available *bool                         `json:"available"`
	Detail    string                        `json:"detail,omitempty"`
	Conflict  *reservations.WireReservation `json:"conflict,omitempty"`
}

// ListReservations returns the reservations visible to the session in backend order
func (c *Client) ListReservations(ctx context.Context) ([]reservations.Reservation, error) {
	var wire []reservations.WireReservation
	if err := c.do(ctx, request{method: http.MethodGet, url: c.url(c.reservationsPath)}, &wire); err != nil {
		return nil, err
	}
	list, err := reservations.NormalizeAll(wire, c.loc)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.ListReservations]")
	}
	return list, nil
}

// CheckAvailability asks the backend whether the interval is free. Callers treat any error, and
// any answer without a verdict, as "unknown" and carry on; the backend re-checks on create.
func (c *Client) CheckAvailability(ctx context.Context, area string, start, end time.Time) (AvailabilityResult, error) {
	q := url.Values{}
	q.Set("area", area)
	q.Set("start_time", reservations.FormatTime(start, c.loc))
	q.Set("end_time", reservations.FormatTime(end, c.loc))

	var body availabilityBody
	err := c.do(ctx, request{
		method: http.MethodGet,
		url:    c.url(c.reservationsPath, "availability") + "?" + q.Encode(),
	}, &body)
	if err != nil {
		return AvailabilityResult{}, err
	}

	result := AvailabilityResult{Detail: body.Detail}
	if body.Available != nil {
		result.Known = true
		result.Available = *body.Available
	}
	if body.Conflict != nil {
		conflict, err := body.Conflict.Normalize(c.loc)
		if err != nil {
			return AvailabilityResult{}, errors.Wrap(err, "[Client.CheckAvailability]")
		}
		result.Conflict = &conflict
	}
	return result, nil
}

// CreateReservation books the interval. The idempotency key lets the backend drop a replayed submission.
func (c *Client) CreateReservation(ctx context.Context, nr NewReservation, idempotencyKey string) (reservations.Reservation, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[IdempotencyHeader] = idempotencyKey
	}

	var wire reservations.WireReservation
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.url(c.reservationsPath),
		body: newReservationBody{
			UnitID:    nr.UnitID,
			Area:      nr.Area,
			StartTime: reservations.FormatTime(nr.Start, c.loc),
			EndTime:   reservations.FormatTime(nr.End, c.loc),
		},
		headers: headers,
	}, &wire)
	if err != nil {
		return reservations.Reservation{}, err
	}

	r, err := wire.Normalize(c.loc)
	if err != nil {
		return reservations.Reservation{}, errors.Wrap(err, "[Client.CreateReservation]")
	}
	return r, nil
}

// CancelReservation moves a reservation to cancelled
func (c *Client) CancelReservation(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		url:    c.url(c.reservationsPath, strconv.FormatInt(id, 10), "cancel"),
	}, nil)
}
