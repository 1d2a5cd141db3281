package fakebackend

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/condo-console/reservations"
	"github.com/jrsteele09/condo-console/tenants"
	"github.com/jrsteele09/condo-console/users"
	"github.com/labstack/echo/v4"
)

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID *int64 `json:"tenant_id"`
	Company  string `json:"company"`
}

type createReq struct {
	UnitID    int64  `json:"unit_id"`
	Area      string `json:"area"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (b *Backend) login(c echo.Context) error {
	b.count("login")

	var req loginReq
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid body")
	}

	b.mu.Lock()
	acc, ok := b.accounts[strings.ToLower(strings.TrimSpace(req.Email))]
	tenant, tenantKnown := b.tenants[acc.tenantID]
	omitTenant := b.omitLoginTenant
	b.mu.Unlock()

	if !ok || acc.password != req.Password {
		return detail(c, http.StatusUnauthorized, "Invalid credentials")
	}
	if req.TenantID != nil && *req.TenantID != acc.tenantID && !acc.user.IsSuperAdmin {
		return detail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	company := req.Company
	if company == "" {
		company = "default"
	}
	resp := echo.Map{
		"access_token": b.IssueToken(acc.user, company),
		"token_type":   "bearer",
		"user":         acc.user,
	}
	if tenantKnown && !omitTenant {
		resp["tenant"] = tenant
	}
	return c.JSON(http.StatusOK, resp)
}

func (b *Backend) listReservations(c echo.Context) error {
	b.count("list")
	who := callerOf(c)

	b.mu.Lock()
	if b.listBroken {
		b.mu.Unlock()
		return detail(c, http.StatusInternalServerError, "Internal Server Error")
	}
	out := make([]reservations.WireReservation, 0, len(b.reservations))
	for _, r := range b.reservations {
		if who.role == users.RoleResident && b.unitOwners[r.UnitID] != who.id {
			continue
		}
		out = append(out, r)
	}
	b.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return parse(out[i].StartTime).After(parse(out[j].StartTime))
	})
	return c.JSON(http.StatusOK, out)
}

func (b *Backend) checkAvailability(c echo.Context) error {
	b.count("availability")
	b.mu.Lock()
	mode := b.availability
	b.mu.Unlock()
	switch mode {
	case AvailabilityMissing:
		return detail(c, http.StatusNotFound, "Not Found")
	case AvailabilityBroken:
		return detail(c, http.StatusInternalServerError, "Internal Server Error")
	case AvailabilityNoVerdict:
		return c.JSON(http.StatusOK, echo.Map{})
	case AvailabilityEmpty:
		return c.NoContent(http.StatusOK)
	}

	start, end := parse(c.QueryParam("start_time")), parse(c.QueryParam("end_time"))
	if start.IsZero() || end.IsZero() {
		return detail(c, http.StatusBadRequest, "start_time and end_time are required")
	}

	b.mu.Lock()
	conflict := b.conflictLocked(c.QueryParam("area"), start, end)
	b.mu.Unlock()

	if conflict != nil {
		return c.JSON(http.StatusOK, echo.Map{
			"available": false,
			"detail":    "Conflict: area already reserved for this time range",
			"conflict":  conflict,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"available": true})
}

func (b *Backend) createReservation(c echo.Context) error {
	b.count("create")
	who := callerOf(c)
	key := c.Request().Header.Get("Idempotency-Key")

	var req createReq
	if err := c.Bind(&req); err != nil {
		return detail(c, http.StatusBadRequest, "invalid body")
	}
	start, end := parse(req.StartTime), parse(req.EndTime)
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return detail(c, http.StatusBadRequest, "start_time must be before end_time")
	}

	b.mu.Lock()
	gate := b.createGate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastKey = key

	if prev, ok := b.idempotent[key]; ok && key != "" {
		return c.JSON(http.StatusOK, prev)
	}
	if who.role == users.RoleResident && b.unitOwners[req.UnitID] != who.id {
		return detail(c, http.StatusForbidden, "Forbidden: cannot reserve for this unit")
	}
	if b.conflictLocked(req.Area, start, end) != nil {
		return detail(c, http.StatusConflict, "Conflict: area already reserved for this time range")
	}
	if b.upcomingLocked(req.UnitID) >= maxUpcomingPerUnit {
		return detail(c, http.StatusBadRequest, "Reservation limit reached for this unit (2 in 30 days)")
	}

	author := who.id
	w := b.insertLocked(req.UnitID, req.Area, req.StartTime, req.EndTime, string(reservations.StatusConfirmed), &author)
	if key != "" {
		b.idempotent[key] = w
	}
	return c.JSON(http.StatusOK, w)
}

func (b *Backend) cancelReservation(c echo.Context) error {
	b.count("cancel")
	who := callerOf(c)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return detail(c, http.StatusNotFound, "Reservation not found")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.reservations {
		r := &b.reservations[i]
		if r.ID != id {
			continue
		}
		if who.role == users.RoleResident && b.unitOwners[r.UnitID] != who.id {
			return detail(c, http.StatusForbidden, "Forbidden")
		}
		r.Status = string(reservations.StatusCancelled)
		return c.JSON(http.StatusOK, echo.Map{"status": "cancelled"})
	}
	return detail(c, http.StatusNotFound, "Reservation not found")
}

func (b *Backend) listTenants(c echo.Context) error {
	b.count("tenants")
	b.mu.Lock()
	out := make([]tenants.Tenant, 0, len(b.tenants))
	for _, t := range b.tenants {
		out = append(out, t)
	}
	b.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, out)
}

func (b *Backend) getTenant(c echo.Context) error {
	b.count("tenant")
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	b.mu.Lock()
	t, ok := b.tenants[id]
	b.mu.Unlock()
	if !ok {
		return detail(c, http.StatusNotFound, "Tenant not found")
	}
	return c.JSON(http.StatusOK, t)
}

func (b *Backend) registerTenant(c echo.Context) error {
	b.count("register")
	var reg tenants.Registration
	if err := c.Bind(&reg); err != nil {
		return detail(c, http.StatusBadRequest, "invalid body")
	}
	if reg.Name == "" || reg.CNPJ == "" || reg.AdminEmail == "" {
		return detail(c, http.StatusUnprocessableEntity, "name, cnpj and admin_email are required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var nextID, nextUser int64 = 1, 1
	for id, t := range b.tenants {
		if t.CNPJ == reg.CNPJ {
			return detail(c, http.StatusBadRequest, "CNPJ already registered")
		}
		nextID = max(nextID, id+1)
	}
	for _, acc := range b.accounts {
		nextUser = max(nextUser, acc.user.ID+1)
	}

	theme := tenants.ThemeConfig{}
	if reg.Theme != nil {
		theme = *reg.Theme
	}
	t := tenants.Tenant{ID: nextID, Name: reg.Name, CNPJ: reg.CNPJ, Email: reg.Email, Theme: theme, IsActive: true}
	b.tenants[t.ID] = t
	b.accounts[strings.ToLower(reg.AdminEmail)] = account{
		password: reg.AdminPassword,
		user:     users.User{ID: nextUser, Email: reg.AdminEmail, Name: reg.AdminName, Role: users.RoleAdmin},
		tenantID: t.ID,
	}
	return c.JSON(http.StatusOK, t)
}

// conflictLocked mirrors the backend query: same area, not cancelled, NOT(end <= s OR start >= e)
func (b *Backend) conflictLocked(area string, start, end time.Time) *reservations.WireReservation {
	for i, r := range b.reservations {
		if r.Area != area || r.Status == string(reservations.StatusCancelled) {
			continue
		}
		rs, re := parse(r.StartTime), parse(r.EndTime)
		if !(!re.After(start) || !rs.Before(end)) {
			conflict := b.reservations[i]
			return &conflict
		}
	}
	return nil
}

func (b *Backend) upcomingLocked(unitID int64) int {
	now := b.now()
	n := 0
	for _, r := range b.reservations {
		if r.UnitID != unitID || r.Status == string(reservations.StatusCancelled) {
			continue
		}
		s := parse(r.StartTime)
		if !s.Before(now) && s.Before(now.Add(upcomingWindow)) {
			n++
		}
	}
	return n
}

// parse reads wire timestamps as UTC wall clock. The fake only compares them with each other.
func parse(s string) time.Time {
	t, err := reservations.ParseTime(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}
