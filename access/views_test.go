package access_test

import (
	"testing"

	"github.com/jrsteele09/condo-console/access"
	cerrors "github.com/jrsteele09/condo-console/internal/errors"
	"github.com/jrsteele09/condo-console/sessions"
	"github.com/jrsteele09/condo-console/tenants"
	"github.com/jrsteele09/condo-console/users"
	"github.com/stretchr/testify/require"
)

func TestVisibleViews(t *testing.T) {
	everythingButFamily := []access.ViewID{
		access.ViewDashboard, access.ViewUsers, access.ViewUnits, access.ViewReservations,
		access.ViewVisitors, access.ViewMaintenance, access.ViewReports,
	}

	cases := []struct {
		name         string
		role         users.RoleType
		isSuperAdmin bool
		want         []access.ViewID
	}{
		{"resident", users.RoleResident, false, []access.ViewID{
			access.ViewDashboard, access.ViewReservations, access.ViewFamily, access.ViewVisitors,
		}},
		{"admin", users.RoleAdmin, false, everythingButFamily},
		{"sindico", users.RoleSindico, false, everythingButFamily},
		{"unknown role", "porteiro", false, everythingButFamily},
		{"super admin", users.RoleAdmin, true, everythingButFamily},
		{"super admin flagged as resident", users.RoleResident, true, everythingButFamily},
		{"super admin without role", "", true, everythingButFamily},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := access.VisibleViews(tc.role, tc.isSuperAdmin)
			require.Equal(t, tc.want, got.List())
			require.Equal(t, len(tc.want), got.Len())
		})
	}
}

func TestParseView(t *testing.T) {
	v, ok := access.ParseView("reservations")
	require.True(t, ok)
	require.Equal(t, access.ViewReservations, v)

	_, ok = access.ParseView("settings")
	require.False(t, ok)
}

func session(role users.RoleType, superAdmin bool) sessions.Session {
	return sessions.New("tok",
		users.User{ID: 1, Email: "u@example.com", Role: role, IsSuperAdmin: superAdmin},
		tenants.Tenant{ID: 1, Name: "T"})
}

func TestResolveViewContext(t *testing.T) {
	staff := access.ResolveViewContext(session(users.RoleSindico, false))
	require.Equal(t, access.UnitsSource, staff.Units)
	require.True(t, staff.Capabilities.Has(access.ViewUnits))

	super := access.ResolveViewContext(session(users.RoleAdmin, true))
	require.Equal(t, access.TenantsSource, super.Units)
	require.Equal(t, "tenants", super.Units.String())
	require.False(t, super.Capabilities.Has(access.ViewFamily))
}

func TestNavigator(t *testing.T) {
	nav := access.NewNavigator(access.ResolveViewContext(session(users.RoleResident, false)))
	require.Equal(t, access.ViewDashboard, nav.Current())

	require.NoError(t, nav.Navigate(access.ViewFamily))
	require.Equal(t, access.ViewFamily, nav.Current())

	err := nav.Navigate(access.ViewReports)
	require.ErrorIs(t, err, cerrors.ErrViewForbidden)
	require.Equal(t, access.ViewFamily, nav.Current(), "a refused navigation must not move")
}
