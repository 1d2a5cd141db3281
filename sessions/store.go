package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	cerrors "github.com/jrsteele09/condo-console/internal/errors"
	"github.com/jrsteele09/condo-console/tenants"
	"github.com/jrsteele09/condo-console/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type meta struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
}

// Store saves, loads and clears the console session. It has no network side effects.
type Store struct {
	repo    Repo
	nowTime func() time.Time
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

func NewStore(repo Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] repo is required")
	}
	s := &Store{repo: repo, nowTime: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Save overwrites the persisted session in one atomic write
func (s *Store) Save(ctx context.Context, session Session) error {
	if session.Version == 0 {
		session.Version = CurrentVersion
	}
	if err := session.Validate(); err != nil {
		return fmt.Errorf("[Store.Save] %w: %w", cerrors.ErrValidation, err)
	}

	userJSON, err := json.Marshal(session.User)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] marshal user")
	}
	tenantJSON, err := json.Marshal(session.Tenant)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] marshal tenant")
	}
	metaJSON, err := json.Marshal(meta{Version: session.Version, SavedAt: s.nowTime().UTC()})
	if err != nil {
		return errors.Wrap(err, "[Store.Save] marshal meta")
	}

	if err := s.repo.PutAll(ctx, map[string]string{
		KeyToken:  session.Token,
		KeyUser:   string(userJSON),
		KeyTenant: string(tenantJSON),
		KeyMeta:   string(metaJSON),
	}); err != nil {
		return errors.Wrap(err, "[Store.Save] repo.PutAll")
	}
	return nil
}

// LoadStatus says what Inspect found in storage
type LoadStatus int

const (
	LoadEmpty     LoadStatus = iota // No session keys stored
	LoadValid                       // A complete, current session
	LoadDiscarded                   // Keys present but not a usable session
)

// Load returns the persisted session, or false when none is usable. It never fails:
// storage errors, malformed JSON and partial state are all reported as absent.
func (s *Store) Load(ctx context.Context) (Session, bool) {
	session, status, err := s.Inspect(ctx)
	if err != nil {
		log.Err(err).Msg("session load: storage unavailable")
		return Session{}, false
	}
	return session, status == LoadValid
}

// Inspect is Load for callers that must tell an unreadable store from leftovers worth clearing.
// The error is only ever a storage error.
func (s *Store) Inspect(ctx context.Context) (Session, LoadStatus, error) {
	values, err := s.repo.GetAll(ctx, Keys)
	if err != nil {
		return Session{}, LoadEmpty, errors.Wrap(err, "[Store.Inspect] repo.GetAll")
	}
	if len(values) == 0 {
		return Session{}, LoadEmpty, nil
	}

	var (
		m      meta
		user   users.User
		tenant tenants.Tenant
	)
	for _, k := range []struct {
		key    string
		target any
	}{{KeyMeta, &m}, {KeyUser, &user}, {KeyTenant, &tenant}} {
		if err := decodeKey(values, k.key, k.target); err != nil {
			log.Debug().Err(err).Msg("session load: discarding stored session")
			return Session{}, LoadDiscarded, nil
		}
	}

	session := Session{
		Version: m.Version,
		Token:   values[KeyToken],
		User:    user,
		Tenant:  tenant,
		SavedAt: m.SavedAt,
	}
	if err := session.Validate(); err != nil {
		log.Debug().Err(err).Msg("session load: discarding stored session")
		return Session{}, LoadDiscarded, nil
	}
	return session, LoadValid, nil
}

// Clear removes every session key. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx, Keys); err != nil {
		return errors.Wrap(err, "[Store.Clear] repo.DeleteAll")
	}
	return nil
}

// Token returns the stored bearer token, or "" when there is no usable session
func (s *Store) Token(ctx context.Context) string {
	session, ok := s.Load(ctx)
	if !ok {
		return ""
	}
	return session.Token
}

func decodeKey(values map[string]string, key string, target any) error {
	raw, ok := values[key]
	if !ok || raw == "" {
		return errors.New("missing key " + strconv.Quote(key))
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return errors.Wrapf(err, "malformed key %q", key)
	}
	return nil
}
