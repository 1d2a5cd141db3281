// Package api is the REST client for the condominium backend. It attaches the session bearer token,
// maps backend failures onto the internal error taxonomy and reports every 401 to a hook.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/condo-console/internal/config"
	cerrors "github.com/jrsteele09/condo-console/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// IdempotencyHeader carries the per-submission key on reservation creates
const IdempotencyHeader = "Idempotency-Key"

// TokenSource supplies the bearer token for authenticated calls. An empty token sends no header.
type TokenSource interface {
	Token(ctx context.Context) string
}

type tokenCtxKey struct{}

// ContextWithToken makes calls under ctx use token instead of the TokenSource. Login uses it to
// finish resolving the tenant before the session is stored.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// UnauthenticatedHook is told about every 401 on a call that carried a token
type UnauthenticatedHook func(ctx context.Context)

type Client struct {
	httpClient       *http.Client
	baseURL          string
	authPath         string
	reservationsPath string
	tenantsPath      string
	tokens           TokenSource
	loc              *time.Location

	hookMu            sync.RWMutex
	onUnauthenticated UnauthenticatedHook
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default client. Its transport is still wrapped for tracing.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			copied := *hc
			c.httpClient = &copied
		}
	}
}

func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLocation sets the zone offset-less backend timestamps are read and written in
func WithLocation(loc *time.Location) ClientOption {
	return func(c *Client) {
		if loc != nil {
			c.loc = loc
		}
	}
}

func WithUnauthenticatedHook(hook UnauthenticatedHook) ClientOption {
	return func(c *Client) {
		c.onUnauthenticated = hook
	}
}

// NewClient builds a client from the endpoint configuration
func NewClient(cfg config.APIConfig, options ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("[NewClient] api config is required")
	}
	c := &Client{
		httpClient:       &http.Client{Timeout: cfg.GetRequestTimeout()},
		baseURL:          strings.TrimRight(cfg.GetBaseURL(), "/"),
		authPath:         cfg.GetAuthPath(),
		reservationsPath: cfg.GetReservationsPath(),
		tenantsPath:      cfg.GetTenantsPath(),
		loc:              time.Local,
	}
	for _, opt := range options {
		opt(c)
	}

	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.httpClient.Transport = otelhttp.NewTransport(base)
	return c, nil
}

// SetUnauthenticatedHook installs the hook after construction, which is how the
// session bootstrapper registers itself.
func (c *Client) SetUnauthenticatedHook(hook UnauthenticatedHook) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onUnauthenticated = hook
}

// Location is the zone used for backend timestamps
func (c *Client) Location() *time.Location {
	return c.loc
}

func (c *Client) url(path string, elems ...string) string {
	u := path
	if !strings.Contains(path, "://") {
		u = c.baseURL + path
	}
	for _, e := range elems {
		u = strings.TrimRight(u, "/") + "/" + strings.TrimLeft(e, "/")
	}
	return u
}

type request struct {
	method  string
	url     string
	body    any
	headers map[string]string
	anon    bool // Never send the bearer token
}

// do performs the request and decodes a 2xx JSON body into out when out is non-nil
func (c *Client) do(ctx context.Context, r request, out any) error {
	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return errors.Wrap(err, "[Client.do] marshal request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return errors.Wrap(err, "[Client.do] build request")
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	withToken := false
	if !r.anon {
		if token := c.bearer(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			withToken = true
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("method", r.method).Str("url", r.url).Msg("api request failed")
		return fmt.Errorf("[Client.do] %s %s: %w: %w", r.method, r.url, cerrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("[Client.do] read body: %w: %w", cerrors.ErrTransport, err)
	}
	log.Debug().Str("method", r.method).Str("url", r.url).Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized && withToken {
			c.notifyUnauthenticated(ctx)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "[Client.do] decode %s %s response", r.method, r.url)
	}
	return nil
}

func (c *Client) bearer(ctx context.Context) string {
	if token, ok := ctx.Value(tokenCtxKey{}).(string); ok {
		return token
	}
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token(ctx)
}

func (c *Client) notifyUnauthenticated(ctx context.Context) {
	c.hookMu.RLock()
	hook := c.onUnauthenticated
	c.hookMu.RUnlock()
	if hook != nil {
		hook(ctx)
	}
}
