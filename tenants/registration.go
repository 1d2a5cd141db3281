package tenants

import (
	"net/mail"
	"strings"
	"unicode"

	cerrors "github.com/jrsteele09/condo-console/internal/errors"
	"github.com/jrsteele09/condo-console/users"
)

// Registration is the self-service sign-up payload that creates a tenant and its first admin.
type Registration struct {
	Name          string       `json:"name"`
	CNPJ          string       `json:"cnpj"`
	Address       string       `json:"address"`
	Phone         string       `json:"phone"`
	Email         string       `json:"email"`
	Theme         *ThemeConfig `json:"theme_config,omitempty"`
	AdminEmail    string       `json:"admin_email"`
	AdminPassword string       `json:"admin_password"`
	AdminName     string       `json:"admin_name"`
}

// Validate rejects a registration locally before it reaches the backend
func (r Registration) Validate() error {
	required := []struct{ field, value string }{
		{"name", r.Name},
		{"cnpj", r.CNPJ},
		{"address", r.Address},
		{"phone", r.Phone},
		{"email", r.Email},
		{"admin_email", r.AdminEmail},
		{"admin_password", r.AdminPassword},
		{"admin_name", r.AdminName},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return cerrors.Validationf("%s is required", f.field)
		}
	}
	if digits := onlyDigits(r.CNPJ); len(digits) != 14 {
		return cerrors.Validationf("cnpj must have 14 digits")
	}
	for _, addr := range []string{r.Email, r.AdminEmail} {
		if _, err := mail.ParseAddress(addr); err != nil {
			return cerrors.Validationf("invalid email %q", addr)
		}
	}
	if err := users.ValidatePasswordStrength(r.AdminPassword); err != nil {
		return cerrors.Validationf("admin_password: %s", err)
	}
	return nil
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
