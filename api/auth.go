package api

import (
	"context"
	"net/http"

	"github.com/jrsteele09/condo-console/tenants"
	"github.com/jrsteele09/condo-console/users"
	"github.com/pkg/errors"
)

// LoginRequest is the credential payload. TenantID scopes the login; Company is the
// older free-text form some deployments still accept.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID *int64 `json:"tenant_id,omitempty"`
	Company  string `json:"company,omitempty"`
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        users.User      `json:"user"`
	Tenant      *tenants.Tenant `json:"tenant,omitempty"` // Not every backend returns it
}

// Login posts the credentials. It never sends a stored token and a 401 here does not fire the hook.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.url(c.authPath, "login"),
		body:   req,
		anon:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, errors.New("[Client.Login] response carried no access_token")
	}
	return &resp, nil
}
