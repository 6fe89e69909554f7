package domain

import "time"

// BaseRole is the portal a role belongs to. Business rules key off it.
type BaseRole string

const (
	BaseRoleAdmin         BaseRole = "ADMIN"
	BaseRoleClient        BaseRole = "CLIENT"
	BaseRoleLawyer        BaseRole = "LAWYER"
	BaseRoleCoordinator   BaseRole = "COORDINATOR"
	BaseRoleKebeleManager BaseRole = "KEBELE_MANAGER"
)

// Valid reports whether r is one of the known base roles.
func (r BaseRole) Valid() bool {
	switch r {
	case BaseRoleAdmin, BaseRoleClient, BaseRoleLawyer, BaseRoleCoordinator, BaseRoleKebeleManager:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to legal-aid personnel.
func (r BaseRole) IsStaff() bool {
	return r == BaseRoleLawyer || r == BaseRoleCoordinator || r == BaseRoleKebeleManager || r == BaseRoleAdmin
}

// Role groups a permission set under a name.
type Role struct {
	ID          string
	Name        string
	BaseRole    BaseRole
	Description string
	Permissions []Permission
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Has reports whether the role grants p.
func (r *Role) Has(p Permission) bool {
	if r == nil {
		return false
	}
	for _, perm := range r.Permissions {
		if perm == p {
			return true
		}
	}
	return false
}

// DefaultPermissions are granted to the system roles seeded at install time.
var DefaultPermissions = map[BaseRole][]Permission{
	BaseRoleAdmin: AllPermissions,
	BaseRoleClient: {
		PermCasesCreate,
		PermDocumentsUpload,
	},
	BaseRoleLawyer: {
		PermCasesUpdateStatus,
		PermAppealsFile,
		PermDocumentsUpload,
		PermAppointmentsManage,
	},
	BaseRoleCoordinator: {
		PermCasesCreate,
		PermCasesAssign,
		PermCasesUpdateStatus,
		PermAppealsDecide,
		PermDocumentsUpload,
		PermDocumentsVerify,
		PermAppointmentsManage,
		PermPaymentsManage,
	},
	BaseRoleKebeleManager: {
		PermDocumentsVerify,
		PermResidentsVerify,
	},
}
