package security

import (
	"fmt"
	"strings"
)

// Role is the workflow role of an actor.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleManager  Role = "Manager"
	RoleEmployee Role = "Employee"

	// RoleSupplier stands for the external supplier confirmation channel.
	// It is never assignable to a user and never parsed from a token.
	RoleSupplier Role = "Supplier"
)

// AssignableRoles lists roles a user account may hold.
var AssignableRoles = []Role{RoleAdmin, RoleManager, RoleEmployee}

// ParseRole converts a role name (case-insensitive) into an assignable Role.
func ParseRole(s string) (Role, error) {
	for _, r := range AssignableRoles {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// IsApprover reports whether the role may approve, reject and complete receipts.
func (r Role) IsApprover() bool {
	return r == RoleAdmin || r == RoleManager
}

func (r Role) String() string { return string(r) }

// Actor is the resolved identity performing a workflow action.
type Actor struct {
	UserID string
	Role   Role
}

// SupplierActor is the actor used for confirmations arriving from a supplier.
func SupplierActor(reference string) Actor {
	return Actor{UserID: "supplier:" + reference, Role: RoleSupplier}
}
