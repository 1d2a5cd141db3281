package sessions

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	cerrors "github.com/jrsteele09/condo-console/internal/errors"
	"github.com/jrsteele09/condo-console/tenants"
	"github.com/jrsteele09/condo-console/users"
)

// CurrentVersion is the storage layout version written by Save. Anything else loads as absent.
const CurrentVersion = 1

// Session is the authenticated, tenant-scoped state of the console.
// Token, User and Tenant are always set and cleared together.
type Session struct {
	Version int
	Token   string         // Opaque bearer token issued by the backend
	User    users.User     // Authenticated user, including role and super admin flag
	Tenant  tenants.Tenant // Tenant the session is scoped to
	SavedAt time.Time      // When the session was persisted
}

// New builds a session at the current storage version
func New(token string, user users.User, tenant tenants.Tenant) Session {
	return Session{
		Version: CurrentVersion,
		Token:   token,
		User:    user,
		Tenant:  tenant,
	}
}

func (s Session) IsSuperAdmin() bool {
	return s.User.IsSuperAdmin
}

func (s Session) Role() users.RoleType {
	return s.User.Role
}

// Validate enforces that a non-empty token implies a user and a tenant
func (s Session) Validate() error {
	switch {
	case s.Version != CurrentVersion:
		return fmt.Errorf("%w: version %d", cerrors.ErrSessionInvalid, s.Version)
	case s.Token == "":
		return fmt.Errorf("%w: missing token", cerrors.ErrSessionInvalid)
	case !s.User.Valid():
		return fmt.Errorf("%w: missing user", cerrors.ErrSessionInvalid)
	case !s.Tenant.Valid():
		return fmt.Errorf("%w: missing tenant", cerrors.ErrSessionInvalid)
	}
	if err := checkTokenSubject(s.Token, s.User.ID); err != nil {
		return err
	}
	return nil
}

// checkTokenSubject rejects a JWT whose subject names a different user. The signature is not
// verified here; the backend remains the only validator of the token itself.
func checkTokenSubject(rawToken string, userID int64) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return nil // opaque token
	}
	var sub string
	switch v := claims["sub"].(type) {
	case nil:
		return nil
	case string:
		sub = v
	case float64:
		sub = strconv.FormatInt(int64(v), 10)
	default:
		sub = fmt.Sprint(v)
	}
	if sub != strconv.FormatInt(userID, 10) {
		return fmt.Errorf("%w: token subject %q does not match user %d", cerrors.ErrSessionInvalid, sub, userID)
	}
	return nil
}
