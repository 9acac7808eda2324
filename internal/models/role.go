package models

import (
	"fmt"

	"github.com/dmitrijs2005/pharmgate/internal/common"
)

// Role is the closed set of application roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole accepts exactly "admin" or "user".
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", common.ErrValidation, s)
	}
	return r, nil
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// IsAdmin is false for every value other than RoleAdmin, including invalid ones.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }
