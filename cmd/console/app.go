package main

import (
	"context"
	"io"

	"github.com/jrsteele09/condo-console/api"
	"github.com/jrsteele09/condo-console/auth"
	"github.com/jrsteele09/condo-console/internal/config"
	"github.com/jrsteele09/condo-console/internal/telemetry"
	"github.com/jrsteele09/condo-console/sessions"
	"github.com/jrsteele09/condo-console/sessions/redisrepo"
	fakesessionrepo "github.com/jrsteele09/condo-console/sessions/repofakes"
	"github.com/jrsteele09/condo-console/sessions/sqliterepo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// app is everything one console invocation needs
type app struct {
	cfg     config.Config
	out     io.Writer
	theme   *terminalTheme
	store   *sessions.Store
	client  *api.Client
	service *auth.Service
	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg config.Config, out io.Writer) (*app, error) {
	a := &app{cfg: cfg, out: out, theme: newTerminalTheme(out)}

	a.closers = append(a.closers, telemetry.Setup(ctx, cfg))

	repo, err := a.openSessionRepo(ctx)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	if a.store, err = sessions.NewStore(repo); err != nil {
		a.close(ctx)
		return nil, errors.Wrap(err, "[newApp] session store")
	}

	if a.client, err = api.NewClient(cfg, api.WithTokenSource(a.store), api.WithLocation(cfg.GetLocation())); err != nil {
		a.close(ctx)
		return nil, errors.Wrap(err, "[newApp] api client")
	}

	if a.service, err = auth.NewService(a.store, a.client,
		auth.WithThemeApplier(a.theme),
		auth.WithStateObserver(func(from, to auth.State) {
			log.Debug().Stringer("from", from).Stringer("to", to).Msg("console state")
		}),
	); err != nil {
		a.close(ctx)
		return nil, errors.Wrap(err, "[newApp] session bootstrapper")
	}
	return a, nil
}

func (a *app) openSessionRepo(ctx context.Context) (sessions.Repo, error) {
	switch backend := a.cfg.GetSessionBackend(); backend {
	case config.SessionBackendRedis:
		client, err := redisrepo.NewClient(ctx, a.cfg.GetRedisAddr(), a.cfg.GetRedisPassword(), a.cfg.GetRedisDB())
		if err != nil {
			return nil, errors.Wrap(err, "[app.openSessionRepo] redis")
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return redisrepo.New(client, a.cfg.GetRedisPrefix(), redisrepo.WithTTL(a.cfg.GetSessionTTL())), nil

	case config.SessionBackendMemory:
		log.Warn().Msg("memory session backend: the session ends with this process")
		return fakesessionrepo.NewFakeSessionRepo(), nil

	default:
		repo, err := sqliterepo.Open(a.cfg.GetSessionDBPath())
		if err != nil {
			return nil, errors.Wrap(err, "[app.openSessionRepo] sqlite")
		}
		a.closers = append(a.closers, func(context.Context) error { return repo.Close() })
		return repo, nil
	}
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}
	a.closers = nil
}
