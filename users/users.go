package users

import (
	"fmt"
	"unicode"
)

// RoleType is the tenant-level role the backend assigns to a user
type RoleType string

const (
	RoleAdmin    RoleType = "admin"   // Condominium administrator, full access within the tenant
	RoleSindico  RoleType = "sindico" // Building manager
	RoleResident RoleType = "morador" // Resident, sees only their own household data
)

// User is the identity carried by a console session.
type User struct {
	ID           int64    `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name,omitempty"`
	Role         RoleType `json:"role"`
	IsSuperAdmin bool     `json:"is_super_admin,omitempty"` // Platform operator managing every tenant
}

// Valid reports whether the user carries the identity fields a session depends on
func (u User) Valid() bool {
	return u.ID != 0 && u.Email != ""
}

func (u User) IsResident() bool {
	return u.Role == RoleResident
}

// IsStaff is true for anyone who is not a resident, including unknown roles
func (u User) IsStaff() bool {
	return !u.IsResident()
}

func (u User) String() string {
	if u.IsSuperAdmin {
		return fmt.Sprintf("%s (%s, super admin)", u.Email, u.Role)
	}
	return fmt.Sprintf("%s (%s)", u.Email, u.Role)
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
