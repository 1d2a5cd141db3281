// Package fakebackend is an in-process stand-in for the condominium REST backend, served by echo
// over httptest. It enforces the same booking rules as the real service so client and bootstrapper
// tests exercise real HTTP round trips.
package fakebackend

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/condo-console/internal/config"
	"github.com/jrsteele09/condo-console/reservations"
	"github.com/jrsteele09/condo-console/tenants"
	"github.com/jrsteele09/condo-console/users"
	"github.com/labstack/echo/v4"
)

// AvailabilityMode controls how the availability endpoint behaves
type AvailabilityMode int

const (
	AvailabilityServed    AvailabilityMode = iota
	AvailabilityMissing                    // 404, as on backends without the endpoint
	AvailabilityBroken                     // 500
	AvailabilityNoVerdict                  // 200 with a body that has no "available" field
	AvailabilityEmpty                      // 200 with an empty body
)

const (
	upcomingWindow     = 30 * 24 * time.Hour
	maxUpcomingPerUnit = 2
)

type account struct {
	password string
	user     users.User
	tenantID int64
}

// Backend holds the fake's state
type Backend struct {
	secret []byte
	srv    *httptest.Server

	mu              sync.Mutex
	availability    AvailabilityMode
	omitLoginTenant bool
	listBroken      bool
	now             func() time.Time
	createGate      chan struct{}
	generation      int
	accounts        map[string]account
	tenants         map[int64]tenants.Tenant
	unitOwners      map[int64]int64
	reservations    []reservations.WireReservation
	nextID          int64
	idempotent      map[string]reservations.WireReservation
	calls           map[string]int
	lastKey         string
}

// New starts a fake backend. Close it when done.
func New() *Backend {
	b := &Backend{
		now:        time.Now,
		secret:     []byte("fake-backend-secret"),
		accounts:   map[string]account{},
		tenants:    map[int64]tenants.Tenant{},
		unitOwners: map[int64]int64{},
		idempotent: map[string]reservations.WireReservation{},
		calls:      map[string]int{},
		nextID:     1,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.POST("/api/auth/login", b.login)

	e.GET("/api/reservations", b.listReservations, b.requireToken)
	e.POST("/api/reservations", b.createReservation, b.requireToken)
	e.GET("/api/reservations/availability", b.checkAvailability, b.requireToken)
	e.POST("/api/reservations/:id/cancel", b.cancelReservation, b.requireToken)

	e.POST("/api/tenants/", b.registerTenant)
	e.GET("/api/tenants/", b.listTenants, b.requireToken)
	e.GET("/api/tenants/:id", b.getTenant, b.requireToken)

	b.srv = httptest.NewServer(e)
	return b
}

func (b *Backend) URL() string {
	return b.srv.URL
}

func (b *Backend) Close() {
	b.srv.Close()
}

// APIConfig points a client at this backend with the default paths
func (b *Backend) APIConfig() config.APIConfig {
	return staticAPIConfig{baseURL: b.srv.URL}
}

func (b *Backend) SetAvailability(mode AvailabilityMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.availability = mode
}

// SetOmitLoginTenant makes login answer with the user only, as older auth deployments do
func (b *Backend) SetOmitLoginTenant(omit bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.omitLoginTenant = omit
}

// SetListBroken makes the reservation listing answer 500
func (b *Backend) SetListBroken(broken bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listBroken = broken
}

// SetNow sets the clock used for the upcoming-reservation limit
func (b *Backend) SetNow(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
}

// SetCreateGate makes creates block until the gate yields or closes
func (b *Backend) SetCreateGate(gate chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.createGate = gate
}

func (b *Backend) AddTenant(t tenants.Tenant) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tenants[t.ID] = t
}

// AddUser registers credentials for a user in a tenant
func (b *Backend) AddUser(password string, u users.User, tenantID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[strings.ToLower(u.Email)] = account{password: password, user: u, tenantID: tenantID}
}

func (b *Backend) AddUnit(unitID, ownerID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unitOwners[unitID] = ownerID
}

// AddReservation seeds a reservation and returns its id
func (b *Backend) AddReservation(unitID int64, area, start, end string, status reservations.Status) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.insertLocked(unitID, area, start, end, string(status), nil).ID
}

// IssueToken signs an access token the backend will accept
func (b *Backend) IssueToken(u users.User, company string) string {
	b.mu.Lock()
	gen := b.generation
	b.mu.Unlock()

	claims := jwt.MapClaims{
		"sub":     strconv.FormatInt(u.ID, 10),
		"role":    string(u.Role),
		"company": company,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"gen":     gen,
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	return signed
}

// RevokeTokens makes every token issued so far fail with 401
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
}

// Calls counts requests per route name: login, list, create, availability, cancel, tenants, register
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// LastIdempotencyKey is the key sent with the most recent create
func (b *Backend) LastIdempotencyKey() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastKey
}

// Reservations is a snapshot of stored reservations
func (b *Backend) Reservations() []reservations.WireReservation {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]reservations.WireReservation(nil), b.reservations...)
}

func (b *Backend) count(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[route]++
}

func detail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"detail": msg})
}

type caller struct {
	id   int64
	role users.RoleType
}

func (b *Backend) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			return detail(c, http.StatusUnauthorized, "Not authenticated")
		}
		tok, err := jwt.Parse(strings.TrimPrefix(auth, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, echo.ErrUnauthorized
			}
			return b.secret, nil
		})
		if err != nil || !tok.Valid {
			return detail(c, http.StatusUnauthorized, "Invalid token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return detail(c, http.StatusUnauthorized, "Invalid token")
		}

		gen, _ := claims["gen"].(float64)
		b.mu.Lock()
		current := b.generation
		b.mu.Unlock()
		if int(gen) != current {
			return detail(c, http.StatusUnauthorized, "Token revoked")
		}

		sub, _ := claims["sub"].(string)
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return detail(c, http.StatusUnauthorized, "Invalid token subject")
		}
		role, _ := claims["role"].(string)
		c.Set("caller", caller{id: id, role: users.RoleType(role)})
		return next(c)
	}
}

func callerOf(c echo.Context) caller {
	v, _ := c.Get("caller").(caller)
	return v
}

// insertLocked stores a reservation. author is the booking user and is nil for seeded rows.
func (b *Backend) insertLocked(unitID int64, area, start, end, status string, author *int64) reservations.WireReservation {
	w := reservations.WireReservation{
		ID:        b.nextID,
		UnitID:    unitID,
		Area:      area,
		StartTime: start,
		EndTime:   end,
		Status:    status,
		UserID:    author,
	}
	if owner, ok := b.unitOwners[unitID]; ok {
		w.OwnerID = &owner
	}
	b.nextID++
	b.reservations = append(b.reservations, w)
	return w
}

type staticAPIConfig struct {
	baseURL string
}

func (s staticAPIConfig) GetBaseURL() string             { return s.baseURL }
func (staticAPIConfig) GetAuthPath() string              { return "/api/auth" }
func (staticAPIConfig) GetReservationsPath() string      { return "/api/reservations" }
func (staticAPIConfig) GetTenantsPath() string           { return "/api/tenants" }
func (staticAPIConfig) GetRequestTimeout() time.Duration { return 5 * time.Second }
