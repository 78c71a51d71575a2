package enums

import "fmt"

// UserRole distinguishes storefront customers from back-office operators.
type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleOperator UserRole = "operator"
)

func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value matches the canonical enum.
func (r UserRole) IsValid() bool {
	return r == UserRoleCustomer || r == UserRoleOperator
}

// ParseUserRole converts raw input into UserRole.
func ParseUserRole(value string) (UserRole, error) {
	role := UserRole(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid user role %q", value)
	}
	return role, nil
}
