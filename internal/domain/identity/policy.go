package identity

import (
	"github.com/Rmontilla83/saldobirras-pro/internal/domain/shared"
	"github.com/google/uuid"
)

// Role of a staff member within a venue
type Role string

const (
	RoleOwner   Role = "owner"
	RoleCashier Role = "cashier"
	RoleAuditor Role = "auditor"
)

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleCashier || r == RoleAuditor
}

// Principal is an authenticated staff member
type Principal struct {
	UserID      uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Role        Role
	Permissions PermissionSet
}

// Policy decides whether a principal may perform an action. It holds no
// state; a decision is made once per request.
type Policy struct{}

// NewPolicy creates the access policy gate
func NewPolicy() *Policy {
	return &Policy{}
}

// Authorize returns nil if p may exercise perm. Owners bypass every check;
// auditors only get read permissions even if write grants are present.
func (pol *Policy) Authorize(p *Principal, perm Permission) error {
	if p == nil || p.UserID == uuid.Nil || p.TenantID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	switch p.Role {
	case RoleOwner:
		return nil
	case RoleAuditor:
		if perm.IsMutating() {
			return shared.NewDomainError(shared.CodeForbidden, "Auditors have read-only access")
		}
	case RoleCashier:
	default:
		return shared.ErrForbidden
	}
	if !p.Permissions.Has(perm) {
		return shared.NewDomainError(shared.CodeForbidden, "Missing permission: "+string(perm))
	}
	return nil
}
