package tenants

// Tenant represents an isolated condominium organization with its own users, units and theme.
// A tenant is immutable for the lifetime of a session and re-fetched on login.
type Tenant struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	CNPJ     string      `json:"cnpj,omitempty"`  // Brazilian company registry number
	Email    string      `json:"email,omitempty"` // Contact address
	Theme    ThemeConfig `json:"theme_config"`
	IsActive bool        `json:"is_active,omitempty"`
}

// Valid reports whether the tenant can scope a session
func (t Tenant) Valid() bool {
	return t.ID != 0
}
