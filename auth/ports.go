package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/condo-console/api"
	"github.com/jrsteele09/condo-console/reservations"
	"github.com/jrsteele09/condo-console/tenants"
)

// Backend is the slice of the REST API the bootstrapper drives. *api.Client implements it.
type Backend interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	GetTenant(ctx context.Context, id int64) (tenants.Tenant, error)
	ListTenants(ctx context.Context) ([]tenants.Tenant, error)
	RegisterTenant(ctx context.Context, reg tenants.Registration) (tenants.Tenant, error)
	ListReservations(ctx context.Context) ([]reservations.Reservation, error)
	CheckAvailability(ctx context.Context, area string, start, end time.Time) (api.AvailabilityResult, error)
	CreateReservation(ctx context.Context, nr api.NewReservation, idempotencyKey string) (reservations.Reservation, error)
	CancelReservation(ctx context.Context, id int64) error
}

// unauthenticatedNotifier is implemented by backends that report 401s through a hook
type unauthenticatedNotifier interface {
	SetUnauthenticatedHook(hook api.UnauthenticatedHook)
}

var _ Backend = (*api.Client)(nil)
var _ unauthenticatedNotifier = (*api.Client)(nil)
