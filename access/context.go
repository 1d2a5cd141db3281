package access

import (
	"fmt"

	cerrors "github.com/jrsteele09/condo-console/internal/errors"
	"github.com/jrsteele09/condo-console/sessions"
)

// DataSource says which backend collection the units view lists.
type DataSource int

const (
	UnitsSource   DataSource = iota // Physical units of the current tenant
	TenantsSource                   // Condominium records, for super admins
)

func (d DataSource) String() string {
	if d == TenantsSource {
		return "tenants"
	}
	return "units"
}

// ViewContext is resolved once per session and consumed by rendering code,
// which never re-checks the super admin flag itself.
type ViewContext struct {
	Capabilities ViewSet
	Units        DataSource
}

// ResolveViewContext derives the capabilities and data sources for a session
func ResolveViewContext(s sessions.Session) ViewContext {
	units := UnitsSource
	if s.IsSuperAdmin() {
		units = TenantsSource
	}
	return ViewContext{
		Capabilities: VisibleViews(s.Role(), s.IsSuperAdmin()),
		Units:        units,
	}
}

// Navigator holds the current view and refuses any view outside the capability set.
type Navigator struct {
	ctx     ViewContext
	current ViewID
}

// NewNavigator starts on the dashboard
func NewNavigator(ctx ViewContext) *Navigator {
	return &Navigator{ctx: ctx, current: ViewDashboard}
}

func (n *Navigator) Navigate(v ViewID) error {
	if !n.ctx.Capabilities.Has(v) {
		return fmt.Errorf("%w: %s", cerrors.ErrViewForbidden, v)
	}
	n.current = v
	return nil
}

func (n *Navigator) Current() ViewID {
	return n.current
}

func (n *Navigator) Context() ViewContext {
	return n.ctx
}
