package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/condo-console/access"
	"github.com/jrsteele09/condo-console/api"
	"github.com/jrsteele09/condo-console/api/fakebackend"
	"github.com/jrsteele09/condo-console/auth"
	cerrors "github.com/jrsteele09/condo-console/internal/errors"
	"github.com/jrsteele09/condo-console/internal/utils"
	"github.com/jrsteele09/condo-console/sessions"
	fakesessionrepo "github.com/jrsteele09/condo-console/sessions/repofakes"
	"github.com/jrsteele09/condo-console/tenants"
	"github.com/jrsteele09/condo-console/users"
	"github.com/stretchr/testify/require"
)

const (
	testTenantID     = int64(3)
	testTenantName   = "Residencial Sol"
	testPrimary      = "#ff8800"
	sindicoPassword  = "Sindico123"
	residentPassword = "Morador123"
	rootPassword     = "Root12345"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

var (
	sindico  = users.User{ID: 1, Email: "sindico@sol.com.br", Name: "Ana", Role: users.RoleSindico}
	resident = users.User{ID: 7, Email: "morador@sol.com.br", Name: "Rui", Role: users.RoleResident}
	neighbor = users.User{ID: 8, Email: "vizinho@sol.com.br", Name: "Lia", Role: users.RoleResident}
	root     = users.User{ID: 99, Email: "root@plataforma.com.br", Role: users.RoleAdmin, IsSuperAdmin: true}
)

type recordingTheme struct {
	mu      sync.Mutex
	applied []string
	primary string
	resets  int
}

func (r *recordingTheme) ApplyTheme(tenantName string, theme tenants.Theme) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, tenantName)
	r.primary = theme.PrimaryColor
}

func (r *recordingTheme) ResetTheme() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
}

type recordingObserver struct {
	mu      sync.Mutex
	changes [][2]auth.State
}

func (o *recordingObserver) observe(from, to auth.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, [2]auth.State{from, to})
}

func (o *recordingObserver) all() [][2]auth.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([][2]auth.State(nil), o.changes...)
}

// testFixture holds all test dependencies
type testFixture struct {
	backend  *fakebackend.Backend
	repo     *fakesessionrepo.FakeSessionRepo
	store    *sessions.Store
	client   *api.Client
	theme    *recordingTheme
	observer *recordingObserver
	service  *auth.Service
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	b := fakebackend.New()
	t.Cleanup(b.Close)
	b.SetNow(func() time.Time { return fixedNow })
	b.AddTenant(tenants.Tenant{ID: testTenantID, Name: testTenantName, Theme: tenants.ThemeConfig{PrimaryColor: utils.Ptr(testPrimary)}})
	b.AddUser(sindicoPassword, sindico, testTenantID)
	b.AddUser(residentPassword, resident, testTenantID)
	b.AddUser("Vizinho123", neighbor, testTenantID)
	b.AddUser(rootPassword, root, testTenantID)
	b.AddUnit(101, resident.ID)
	b.AddUnit(102, neighbor.ID)

	f := &testFixture{
		backend:  b,
		repo:     fakesessionrepo.NewFakeSessionRepo(),
		theme:    &recordingTheme{},
		observer: &recordingObserver{},
	}

	var err error
	f.store, err = sessions.NewStore(f.repo)
	require.NoError(t, err)

	f.client, err = api.NewClient(b.APIConfig(), api.WithTokenSource(f.store), api.WithLocation(time.UTC))
	require.NoError(t, err)

	f.service = f.newService(t)
	return f
}

func (f *testFixture) newService(t *testing.T, extra ...auth.ServiceOption) *auth.Service {
	t.Helper()
	keys := 0
	options := append([]auth.ServiceOption{
		auth.WithThemeApplier(f.theme),
		auth.WithStateObserver(f.observer.observe),
		auth.WithNowTime(func() time.Time { return fixedNow }),
		auth.WithIdempotencyKeys(func() string {
			keys++
			return "key-" + string(rune('0'+keys))
		}),
	}, extra...)
	service, err := auth.NewService(f.store, f.client, options...)
	require.NoError(t, err)
	return service
}

func (f *testFixture) login(t *testing.T, u users.User, password string) {
	t.Helper()
	require.NoError(t, f.service.Login(context.Background(), auth.LoginRequest{
		TenantID: utils.Ptr(testTenantID),
		Email:    u.Email,
		Password: password,
	}))
	require.Equal(t, auth.LoggedIn, f.service.State())
}

func TestNewService_RequiresDependencies(t *testing.T) {
	f := setupTestFixture(t)

	_, err := auth.NewService(nil, f.client)
	require.Error(t, err)

	_, err = auth.NewService(f.store, nil)
	require.Error(t, err)
}

func TestStart(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store stays logged out", func(t *testing.T) {
		f := setupTestFixture(t)
		require.Equal(t, auth.LoggedOut, f.service.Start(ctx))
		require.Empty(t, f.observer.all())
		require.Equal(t, 1, f.theme.resets)
	})

	t.Run("token without tenant is not resumed", func(t *testing.T) {
		f := setupTestFixture(t)
		f.repo.Set(sessions.KeyToken, "leftover-token")
		f.repo.Set(sessions.KeyUser, `{"id":7,"email":"morador@sol.com.br","role":"morador"}`)
		f.repo.Set(sessions.KeyMeta, `{"version":1,"saved_at":"2024-06-01T09:00:00Z"}`)

		require.Equal(t, auth.LoggedOut, f.service.Start(ctx))
		_, ok := f.service.Session()
		require.False(t, ok)
		require.Zero(t, f.repo.Len(), "leftover keys are dropped")
		require.Empty(t, f.theme.applied)
	})

	t.Run("unreadable storage is left alone", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, resident, residentPassword)
		stored := f.repo.Len()

		f.repo.ReadErr = errors.New("redis timeout")
		resumed := f.newService(t)
		require.Equal(t, auth.LoggedOut, resumed.Start(ctx))
		require.Equal(t, stored, f.repo.Len(), "a read failure must not wipe the session")

		f.repo.ReadErr = nil
		require.Equal(t, auth.LoggedIn, f.newService(t).Start(ctx))
	})

	t.Run("stored session resumes without contacting the backend", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, resident, residentPassword)
		require.Equal(t, 1, f.backend.Calls("login"))

		observer := &recordingObserver{}
		resumed := f.newService(t, auth.WithStateObserver(observer.observe))
		require.Equal(t, auth.LoggedIn, resumed.Start(ctx))
		require.Equal(t, 1, f.backend.Calls("login"))
		require.Contains(t, observer.all(), [2]auth.State{auth.LoggedOut, auth.LoggedIn})

		session, ok := resumed.Session()
		require.True(t, ok)
		require.Equal(t, resident.ID, session.User.ID)
		require.Equal(t, []string{testTenantName, testTenantName}, f.theme.applied)

		vc, ok := resumed.ViewContext()
		require.True(t, ok)
		require.Equal(t, access.VisibleViews(users.RoleResident, false).List(), vc.Capabilities.List())

		t.Run("start is a no-op once logged in", func(t *testing.T) {
			require.Equal(t, auth.LoggedIn, resumed.Start(ctx))
		})
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, sindico, sindicoPassword)

		require.Equal(t, [][2]auth.State{
			{auth.LoggedOut, auth.Authenticating},
			{auth.Authenticating, auth.LoggedIn},
		}, f.observer.all())
		require.Equal(t, []string{testTenantName}, f.theme.applied)
		require.Equal(t, testPrimary, f.theme.primary)

		stored, ok := f.store.Load(ctx)
		require.True(t, ok)
		require.Equal(t, sindico, stored.User)
		require.Equal(t, testTenantID, stored.Tenant.ID)

		vc, ok := f.service.ViewContext()
		require.True(t, ok)
		require.Equal(t, access.UnitsSource, vc.Units)
		require.False(t, vc.Capabilities.Has(access.ViewFamily))
		require.Equal(t, access.ViewDashboard, f.service.CurrentView())
	})

	t.Run("bad credentials stay logged out", func(t *testing.T) {
		f := setupTestFixture(t)
		err := f.service.Login(ctx, auth.LoginRequest{Email: sindico.Email, Password: "wrong"})
		require.ErrorIs(t, err, cerrors.ErrUnauthenticated)
		require.Equal(t, auth.LoggedOut, f.service.State())
		require.Equal(t, [][2]auth.State{
			{auth.LoggedOut, auth.Authenticating},
			{auth.Authenticating, auth.LoggedOut},
		}, f.observer.all())
		require.Zero(t, f.repo.Len())
		require.Empty(t, f.theme.applied)
	})

	t.Run("local validation never reaches the backend", func(t *testing.T) {
		f := setupTestFixture(t)
		for _, req := range []auth.LoginRequest{
			{Email: "", Password: "x"},
			{Email: "not-an-email", Password: "x"},
			{Email: sindico.Email},
			{Email: sindico.Email, Password: "x", TenantID: utils.Ptr(int64(0))},
		} {
			require.ErrorIs(t, f.service.Login(ctx, req), cerrors.ErrValidation)
		}
		require.Zero(t, f.backend.Calls("login"))
		require.Empty(t, f.observer.all())
	})

	t.Run("tenant is fetched when the login response omits it", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.SetOmitLoginTenant(true)
		f.login(t, resident, residentPassword)

		session, _ := f.service.Session()
		require.Equal(t, testTenantName, session.Tenant.Name)
		require.Equal(t, 1, f.backend.Calls("tenant"))
	})

	t.Run("no tenant at all is an invalid session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.backend.SetOmitLoginTenant(true)
		err := f.service.Login(ctx, auth.LoginRequest{Email: resident.Email, Password: residentPassword})
		require.ErrorIs(t, err, cerrors.ErrSessionInvalid)
		require.Equal(t, auth.LoggedOut, f.service.State())
		require.Zero(t, f.repo.Len())
	})

	t.Run("second login needs a logout first", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, resident, residentPassword)
		err := f.service.Login(ctx, auth.LoginRequest{Email: sindico.Email, Password: sindicoPassword})
		require.ErrorIs(t, err, cerrors.ErrInvalidState)
		session, _ := f.service.Session()
		require.Equal(t, resident.ID, session.User.ID)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.login(t, resident, residentPassword)

	require.NoError(t, f.service.Logout(ctx))
	require.Equal(t, auth.LoggedOut, f.service.State())
	require.Zero(t, f.repo.Len())
	require.Equal(t, 1, f.theme.resets)

	require.NoError(t, f.service.Logout(ctx), "logout is idempotent")
	require.Equal(t, [2]auth.State{auth.LoggedIn, auth.LoggedOut}, f.observer.all()[len(f.observer.all())-1])
	require.Len(t, f.observer.all(), 3)

	_, err := f.service.Reservations(ctx, "")
	require.ErrorIs(t, err, cerrors.ErrInvalidState)
}

func TestUnauthenticatedFromAnyEndpointLogsOut(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.login(t, sindico, sindicoPassword)

	f.backend.RevokeTokens()
	_, err := f.service.Reservations(ctx, "")
	require.ErrorIs(t, err, cerrors.ErrUnauthenticated)

	require.Equal(t, auth.LoggedOut, f.service.State())
	require.Zero(t, f.repo.Len())
	require.Equal(t, 1, f.theme.resets)

	resumed := f.newService(t)
	require.Equal(t, auth.LoggedOut, resumed.Start(ctx), "the cleared session cannot be resumed")
}

func TestNavigate(t *testing.T) {
	f := setupTestFixture(t)

	require.ErrorIs(t, f.service.Navigate(access.ViewReservations), cerrors.ErrInvalidState)

	f.login(t, resident, residentPassword)
	require.NoError(t, f.service.Navigate(access.ViewFamily))
	require.Equal(t, access.ViewFamily, f.service.CurrentView())

	for _, hidden := range []access.ViewID{access.ViewUsers, access.ViewUnits, access.ViewMaintenance, access.ViewReports} {
		require.ErrorIs(t, f.service.Navigate(hidden), cerrors.ErrViewForbidden)
	}
	require.Equal(t, access.ViewFamily, f.service.CurrentView())
}

func TestRegisterTenant(t *testing.T) {
	ctx := context.Background()
	reg := tenants.Registration{
		Name: "Residencial Lua", CNPJ: "12.345.678/0001-90", Address: "Rua A, 1", Phone: "+55 11 5555-0000",
		Email: "contato@lua.com.br", AdminEmail: "admin@lua.com.br", AdminPassword: "Str0ngPass", AdminName: "Bia",
	}

	t.Run("returns to logged out without authenticating", func(t *testing.T) {
		f := setupTestFixture(t)
		created, err := f.service.RegisterTenant(ctx, reg)
		require.NoError(t, err)
		require.Equal(t, "Residencial Lua", created.Name)
		require.Equal(t, auth.LoggedOut, f.service.State())
		require.Equal(t, [][2]auth.State{
			{auth.LoggedOut, auth.RegisteringTenant},
			{auth.RegisteringTenant, auth.LoggedOut},
		}, f.observer.all())
		require.Zero(t, f.repo.Len())
		require.Zero(t, f.backend.Calls("login"))

		t.Run("the new admin can then log in", func(t *testing.T) {
			require.NoError(t, f.service.Login(ctx, auth.LoginRequest{TenantID: utils.Ptr(created.ID), Email: reg.AdminEmail, Password: reg.AdminPassword}))
			session, _ := f.service.Session()
			require.Equal(t, users.RoleAdmin, session.Role())
		})
	})

	t.Run("backend rejection still returns to logged out", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.RegisterTenant(ctx, reg)
		require.NoError(t, err)
		_, err = f.service.RegisterTenant(ctx, reg)
		require.ErrorIs(t, err, cerrors.ErrValidation)
		require.Equal(t, auth.LoggedOut, f.service.State())
	})

	t.Run("invalid registration is rejected locally", func(t *testing.T) {
		f := setupTestFixture(t)
		bad := reg
		bad.CNPJ = "123"
		_, err := f.service.RegisterTenant(ctx, bad)
		require.ErrorIs(t, err, cerrors.ErrValidation)
		require.Zero(t, f.backend.Calls("register"))
		require.Empty(t, f.observer.all())
	})

	t.Run("not while logged in", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, sindico, sindicoPassword)
		_, err := f.service.RegisterTenant(ctx, reg)
		require.ErrorIs(t, err, cerrors.ErrInvalidState)
		require.Equal(t, auth.LoggedIn, f.service.State())
	})
}

func TestTenants(t *testing.T) {
	ctx := context.Background()

	t.Run("super admin lists tenant records", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, root, rootPassword)
		vc, _ := f.service.ViewContext()
		require.Equal(t, access.TenantsSource, vc.Units)

		list, err := f.service.Tenants(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("staff are refused", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, sindico, sindicoPassword)
		_, err := f.service.Tenants(ctx)
		require.ErrorIs(t, err, cerrors.ErrForbidden)
		require.Zero(t, f.backend.Calls("tenants"))
	})
}
