// Package auth bootstraps the console session. It logs in, resumes a stored session, applies the
// tenant theme, gates navigation and drives the booking flow, forcing a logout whenever the backend
// rejects the session.
package auth

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/condo-console/access"
	"github.com/jrsteele09/condo-console/api"
	cerrors "github.com/jrsteele09/condo-console/internal/errors"
	"github.com/jrsteele09/condo-console/sessions"
	"github.com/jrsteele09/condo-console/tenants"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LoginRequest carries the credentials typed at the login prompt
type LoginRequest struct {
	TenantID *int64 // Optional; the backend resolves the tenant when absent
	Email    string
	Password string
}

// Validate rejects a request locally, before any network call
func (r LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return cerrors.Validationf("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return cerrors.Validationf("email %q is not a valid address", r.Email)
	}
	if r.Password == "" {
		return cerrors.Validationf("password is required")
	}
	if r.TenantID != nil && *r.TenantID <= 0 {
		return cerrors.Validationf("tenant id must be positive")
	}
	return nil
}

// Service is the session bootstrapper. It is safe for concurrent use.
type Service struct {
	store     *sessions.Store
	backend   Backend
	theme     tenants.ThemeApplier
	observers []StateObserver
	nowTime   func() time.Time
	newKey    func() string

	mu        sync.Mutex
	state     State
	session   sessions.Session
	navigator *access.Navigator

	inflight *inflightGuard
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithThemeApplier sets where the tenant theme is applied. Defaults to a no-op.
func WithThemeApplier(applier tenants.ThemeApplier) ServiceOption {
	return func(s *Service) {
		if applier != nil {
			s.theme = applier
		}
	}
}

func WithStateObserver(observer StateObserver) ServiceOption {
	return func(s *Service) {
		if observer != nil {
			s.observers = append(s.observers, observer)
		}
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithIdempotencyKeys replaces the uuid generator used for reservation submissions
func WithIdempotencyKeys(newKey func() string) ServiceOption {
	return func(s *Service) {
		s.newKey = newKey
	}
}

// NewService wires the bootstrapper. When the backend reports 401s through a hook, the service
// installs HandleUnauthenticated as that hook.
func NewService(store *sessions.Store, backend Backend, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("[NewService] session store is required")
	}
	if backend == nil {
		return nil, errors.New("[NewService] backend is required")
	}

	s := &Service{
		store:    store,
		backend:  backend,
		theme:    tenants.NopApplier{},
		nowTime:  time.Now,
		newKey:   uuid.NewString,
		state:    LoggedOut,
		inflight: newInflightGuard(),
	}
	for _, opt := range options {
		opt(s)
	}

	if n, ok := backend.(unauthenticatedNotifier); ok {
		n.SetUnauthenticatedHook(s.HandleUnauthenticated)
	}
	return s, nil
}

func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Session returns the active session while logged in
func (s *Service) Session() (sessions.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != LoggedIn {
		return sessions.Session{}, false
	}
	return s.session, true
}

// ViewContext returns the capabilities resolved for the active session
func (s *Service) ViewContext() (access.ViewContext, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != LoggedIn {
		return access.ViewContext{}, false
	}
	return s.navigator.Context(), true
}

// CurrentView is the view the navigator is on, or "" when logged out
func (s *Service) CurrentView() access.ViewID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != LoggedIn {
		return ""
	}
	return s.navigator.Current()
}

// Start resumes a stored session without contacting the backend. The token is validated lazily
// by the first authenticated call. Anything short of a complete session leaves the console logged out;
// partial leftovers are cleared, but nothing is cleared when the storage cannot be read.
func (s *Service) Start(ctx context.Context) State {
	session, status, err := s.store.Inspect(ctx)
	if err != nil {
		// Unreadable is not absent: keep whatever is stored for the next start
		log.Warn().Err(err).Msg("start: session storage unavailable")
	}

	s.mu.Lock()
	if s.state != LoggedOut {
		state := s.state
		s.mu.Unlock()
		return state
	}
	if status != sessions.LoadValid {
		s.mu.Unlock()
		// Drop leftovers such as a token without a tenant
		if status == sessions.LoadDiscarded {
			if err := s.store.Clear(ctx); err != nil {
				log.Warn().Err(err).Msg("start: clearing stale session keys")
			}
		}
		s.theme.ResetTheme()
		return LoggedOut
	}
	change, _ := s.enterLoggedInLocked(session)
	s.mu.Unlock()

	log.Info().Str("user", session.User.Email).Int64("tenant", session.Tenant.ID).Msg("session resumed")
	s.notify(change)
	return LoggedIn
}

// Login authenticates, stores the session and enters LoggedIn. On any failure the console
// stays logged out and the error is returned.
func (s *Service) Login(ctx context.Context, req LoginRequest) error {
	if err := req.Validate(); err != nil {
		return errors.Wrap(err, "[Service.Login]")
	}

	change, err := s.transition(LoggedOut, Authenticating)
	if err != nil {
		return errors.Wrap(err, "[Service.Login]")
	}
	s.notify(change)

	session, err := s.authenticate(ctx, req)
	if err != nil {
		s.notify(s.forceLoggedOut(Authenticating))
		return err
	}

	if err := s.store.Save(ctx, session); err != nil {
		s.notify(s.forceLoggedOut(Authenticating))
		return errors.Wrap(err, "[Service.Login] store.Save")
	}

	s.mu.Lock()
	if state := s.state; state != Authenticating {
		s.mu.Unlock()
		return errors.Wrapf(cerrors.ErrInvalidState, "[Service.Login] state changed to %s during login", state)
	}
	change, err = s.enterLoggedInLocked(session)
	s.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "[Service.Login]")
	}

	log.Info().Str("user", session.User.Email).Int64("tenant", session.Tenant.ID).Msg("logged in")
	s.notify(change)
	return nil
}

func (s *Service) authenticate(ctx context.Context, req LoginRequest) (sessions.Session, error) {
	resp, err := s.backend.Login(ctx, api.LoginRequest{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		TenantID: req.TenantID,
	})
	if err != nil {
		return sessions.Session{}, errors.Wrap(err, "[Service.Login] backend.Login")
	}

	var tenant tenants.Tenant
	switch {
	case resp.Tenant != nil:
		tenant = *resp.Tenant
	case req.TenantID != nil:
		tenant, err = s.backend.GetTenant(api.ContextWithToken(ctx, resp.AccessToken), *req.TenantID)
		if err != nil {
			return sessions.Session{}, errors.Wrap(err, "[Service.Login] backend.GetTenant")
		}
	}

	session := sessions.New(resp.AccessToken, resp.User, tenant)
	if err := session.Validate(); err != nil {
		return sessions.Session{}, errors.Wrap(err, "[Service.Login] incomplete login response")
	}
	return session, nil
}

// Logout clears the stored session and the theme. Logging out twice is not an error.
func (s *Service) Logout(ctx context.Context) error {
	err := s.store.Clear(ctx)
	s.theme.ResetTheme()
	s.notify(s.forceLoggedOut(LoggedIn))
	if err != nil {
		return errors.Wrap(err, "[Service.Logout]")
	}
	return nil
}

// HandleUnauthenticated is the cross-cutting 401 rule: any rejected authenticated call ends the session.
func (s *Service) HandleUnauthenticated(ctx context.Context) {
	if s.State() != LoggedIn {
		return
	}
	log.Warn().Msg("backend rejected the session, logging out")
	if err := s.Logout(ctx); err != nil {
		log.Err(err).Msg("logout after 401")
	}
}

// RegisterTenant runs the self-registration branch. It always returns to LoggedOut and never
// authenticates; the new admin logs in separately.
func (s *Service) RegisterTenant(ctx context.Context, reg tenants.Registration) (tenants.Tenant, error) {
	if err := reg.Validate(); err != nil {
		return tenants.Tenant{}, errors.Wrap(err, "[Service.RegisterTenant]")
	}

	change, err := s.transition(LoggedOut, RegisteringTenant)
	if err != nil {
		return tenants.Tenant{}, errors.Wrap(err, "[Service.RegisterTenant]")
	}
	s.notify(change)
	defer func() {
		s.notify(s.forceLoggedOut(RegisteringTenant))
	}()

	tenant, err := s.backend.RegisterTenant(ctx, reg)
	if err != nil {
		return tenants.Tenant{}, errors.Wrap(err, "[Service.RegisterTenant] backend.RegisterTenant")
	}
	log.Info().Int64("tenant", tenant.ID).Str("name", tenant.Name).Msg("tenant registered")
	return tenant, nil
}

// Navigate moves to a view. Views outside the session's capabilities are refused.
func (s *Service) Navigate(view access.ViewID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != LoggedIn {
		return errors.Wrapf(cerrors.ErrInvalidState, "[Service.Navigate] %s", s.state)
	}
	return s.navigator.Navigate(view)
}

// enterLoggedInLocked applies the session. The caller holds s.mu.
func (s *Service) enterLoggedInLocked(session sessions.Session) (stateChange, error) {
	change, err := s.moveLocked(LoggedIn)
	if err != nil {
		return change, err
	}
	s.session = session
	s.navigator = access.NewNavigator(access.ResolveViewContext(session))
	s.theme.ApplyTheme(session.Tenant.Name, session.Tenant.Theme.Resolve())
	return change, nil
}

func (s *Service) transition(from, to State) (stateChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return stateChange{}, errors.Wrapf(cerrors.ErrInvalidState, "cannot go to %s from %s", to, s.state)
	}
	return s.moveLocked(to)
}

// forceLoggedOut drops back to LoggedOut when the service is in one of the given states
func (s *Service) forceLoggedOut(from ...State) stateChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range from {
		if s.state == f {
			change, _ := s.moveLocked(LoggedOut)
			return change
		}
	}
	return stateChange{}
}

func (s *Service) moveLocked(to State) (stateChange, error) {
	from := s.state
	if !canTransition(from, to) {
		return stateChange{}, errors.Wrapf(cerrors.ErrInvalidState, "cannot go to %s from %s", to, from)
	}
	s.state = to
	if to == LoggedOut {
		s.session = sessions.Session{}
		s.navigator = nil
	}
	log.Debug().Stringer("from", from).Stringer("to", to).Msg("session state")
	return stateChange{from: from, to: to}, nil
}

// notify runs observers outside the lock. A zero change is skipped.
func (s *Service) notify(change stateChange) {
	if change == (stateChange{}) {
		return
	}
	for _, o := range s.observers {
		o(change.from, change.to)
	}
}
