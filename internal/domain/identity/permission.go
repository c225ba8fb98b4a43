package identity

import "sort"

// Permission is a per-action grant key checked by the policy gate
type Permission string

const (
	PermDashboard    Permission = "dashboard"
	PermRegister     Permission = "register"
	PermRecharge     Permission = "recharge"
	PermConsume      Permission = "consume"
	PermTransactions Permission = "transactions"
	PermStats        Permission = "stats"
	PermExport       Permission = "export"
	PermEditCustomer Permission = "edit_customer"
	PermSendEmail    Permission = "send_email"
	PermManageUsers  Permission = "manage_users"
	PermOrders       Permission = "orders"
)

// AllPermissions lists every known permission key
var AllPermissions = []Permission{
	PermDashboard, PermRegister, PermRecharge, PermConsume, PermTransactions,
	PermStats, PermExport, PermEditCustomer, PermSendEmail, PermManageUsers, PermOrders,
}

// mutating permissions are never honoured for read-only roles
var mutating = map[Permission]bool{
	PermRegister:     true,
	PermRecharge:     true,
	PermConsume:      true,
	PermEditCustomer: true,
	PermSendEmail:    true,
	PermManageUsers:  true,
	PermOrders:       true,
}

// IsValid returns true if the permission key is known
func (p Permission) IsValid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// IsMutating reports whether the permission authorizes a write
func (p Permission) IsMutating() bool {
	return mutating[p]
}

// PermissionSet maps permission keys to grants
type PermissionSet map[Permission]bool

// Has reports whether p is granted
func (s PermissionSet) Has(p Permission) bool {
	return s[p]
}

// Keys returns the granted keys, sorted
func (s PermissionSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for p, granted := range s {
		if granted {
			keys = append(keys, string(p))
		}
	}
	sort.Strings(keys)
	return keys
}

// ParsePermissionSet builds a set from granted keys, ignoring unknown ones
func ParsePermissionSet(keys []string) PermissionSet {
	set := make(PermissionSet, len(keys))
	for _, k := range keys {
		if p := Permission(k); p.IsValid() {
			set[p] = true
		}
	}
	return set
}

// DefaultPermissions is what a new cashier gets with no preset
func DefaultPermissions() PermissionSet {
	return PermissionSet{PermDashboard: true, PermConsume: true}
}

// Preset names
const (
	PresetCashierBasic = "cashier_basic"
	PresetCashierFull  = "cashier_full"
	PresetAdmin        = "admin"
)

// Preset returns the permission set for a named preset
func Preset(name string) (PermissionSet, bool) {
	switch name {
	case PresetCashierBasic:
		return PermissionSet{PermDashboard: true, PermConsume: true}, true
	case PresetCashierFull:
		return PermissionSet{
			PermDashboard: true, PermConsume: true, PermRecharge: true, PermRegister: true,
			PermTransactions: true, PermSendEmail: true, PermOrders: true,
		}, true
	case PresetAdmin:
		set := make(PermissionSet, len(AllPermissions))
		for _, p := range AllPermissions {
			if p != PermManageUsers {
				set[p] = true
			}
		}
		return set, true
	}
	return nil, false
}
