// Package access maps a session's role onto the navigation views it may open.
package access

import (
	"github.com/jrsteele09/condo-console/users"
)

// ViewID names a console view
type ViewID string

const (
	ViewDashboard    ViewID = "dashboard"
	ViewUsers        ViewID = "users"
	ViewUnits        ViewID = "units"
	ViewReservations ViewID = "reservations"
	ViewFamily       ViewID = "family"
	ViewVisitors     ViewID = "visitors"
	ViewMaintenance  ViewID = "maintenance"
	ViewReports      ViewID = "reports"
)

// AllViews in navigation order
var AllViews = []ViewID{
	ViewDashboard,
	ViewUsers,
	ViewUnits,
	ViewReservations,
	ViewFamily,
	ViewVisitors,
	ViewMaintenance,
	ViewReports,
}

// ParseView returns the view named s, or false
func ParseView(s string) (ViewID, bool) {
	for _, v := range AllViews {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// ViewSet is an immutable set of views
type ViewSet struct {
	views map[ViewID]struct{}
}

func newViewSet(views ...ViewID) ViewSet {
	m := make(map[ViewID]struct{}, len(views))
	for _, v := range views {
		m[v] = struct{}{}
	}
	return ViewSet{views: m}
}

func (s ViewSet) Has(v ViewID) bool {
	_, ok := s.views[v]
	return ok
}

func (s ViewSet) Len() int {
	return len(s.views)
}

// List returns the views in navigation order
func (s ViewSet) List() []ViewID {
	out := make([]ViewID, 0, len(s.views))
	for _, v := range AllViews {
		if s.Has(v) {
			out = append(out, v)
		}
	}
	return out
}

// VisibleViews is the access policy, evaluated in order:
//  1. super admins see every view except family
//  2. residents see dashboard, family, visitors and reservations
//  3. everyone else (staff) sees every view except family
func VisibleViews(role users.RoleType, isSuperAdmin bool) ViewSet {
	switch {
	case isSuperAdmin:
		return allExcept(ViewFamily)
	case role == users.RoleResident:
		return newViewSet(ViewDashboard, ViewFamily, ViewVisitors, ViewReservations)
	default:
		return allExcept(ViewFamily)
	}
}

func allExcept(excluded ViewID) ViewSet {
	views := make([]ViewID, 0, len(AllViews))
	for _, v := range AllViews {
		if v != excluded {
			views = append(views, v)
		}
	}
	return newViewSet(views...)
}
