package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jrsteele09/condo-console/tenants"
)

// ListTenants is the super admin's tenant listing
func (c *Client) ListTenants(ctx context.Context) ([]tenants.Tenant, error) {
	var list []tenants.Tenant
	if err := c.do(ctx, request{method: http.MethodGet, url: c.url(c.tenantsPath) + "/"}, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetTenant(ctx context.Context, id int64) (tenants.Tenant, error) {
	var t tenants.Tenant
	if err := c.do(ctx, request{method: http.MethodGet, url: c.url(c.tenantsPath, strconv.FormatInt(id, 10))}, &t); err != nil {
		return tenants.Tenant{}, err
	}
	return t, nil
}

// RegisterTenant creates a tenant and its first admin. It is an anonymous call.
func (c *Client) RegisterTenant(ctx context.Context, reg tenants.Registration) (tenants.Tenant, error) {
	var t tenants.Tenant
	err := c.do(ctx, request{
		method: http.MethodPost,
		url:    c.url(c.tenantsPath) + "/",
		body:   reg,
		anon:   true,
	}, &t)
	if err != nil {
		return tenants.Tenant{}, err
	}
	return t, nil
}
