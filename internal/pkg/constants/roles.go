package constants

import "carbon-ledger/internal/domain"

// ValidRoles is the set of roles an account may hold.
var ValidRoles = []string{domain.RoleMember, domain.RoleGateway, domain.RoleAdmin}

// IsValidRole returns true if role is one of ValidRoles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
