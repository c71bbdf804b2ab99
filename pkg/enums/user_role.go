package enums

import (
	"fmt"
	"strings"
)

type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleStaff    UserRole = "staff"
	UserRoleAdmin    UserRole = "admin"
)

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleCustomer, UserRoleStaff, UserRoleAdmin:
		return true
	default:
		return false
	}
}

// CanManageOrders reports whether the role may drive admin order transitions.
func (r UserRole) CanManageOrders() bool {
	return r == UserRoleStaff || r == UserRoleAdmin
}

func ParseUserRole(raw string) (UserRole, error) {
	role := UserRole(strings.ToLower(strings.TrimSpace(raw)))
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", raw)
	}
	return role, nil
}
