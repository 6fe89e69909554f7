package domain

import "time"

// Permission names a capability that a role may grant.
type Permission string

const (
	PermCasesCreate        Permission = "cases:create"
	PermCasesReadAll       Permission = "cases:read_all"
	PermCasesAssign        Permission = "cases:assign"
	PermCasesUpdateStatus  Permission = "cases:update_status"
	PermAppealsFile        Permission = "appeals:file"
	PermAppealsDecide      Permission = "appeals:decide"
	PermDocumentsUpload    Permission = "documents:upload"
	PermDocumentsVerify    Permission = "documents:verify"
	PermAppointmentsManage Permission = "appointments:manage"
	PermPaymentsManage     Permission = "payments:manage"
	PermReportsView        Permission = "reports:view"
	PermUsersManage        Permission = "users:manage"
	PermRolesManage        Permission = "roles:manage"
	PermOfficesManage      Permission = "offices:manage"
	PermResidentsVerify    Permission = "residents:verify"
)

// AllPermissions lists every permission the service understands.
var AllPermissions = []Permission{
	PermCasesCreate,
	PermCasesReadAll,
	PermCasesAssign,
	PermCasesUpdateStatus,
	PermAppealsFile,
	PermAppealsDecide,
	PermDocumentsUpload,
	PermDocumentsVerify,
	PermAppointmentsManage,
	PermPaymentsManage,
	PermReportsView,
	PermUsersManage,
	PermRolesManage,
	PermOfficesManage,
	PermResidentsVerify,
}

// IsKnownPermission reports whether p is part of AllPermissions.
func IsKnownPermission(p Permission) bool {
	for _, known := range AllPermissions {
		if known == p {
			return true
		}
	}
	return false
}

// Token represents issued access token metadata.
type Token struct {
	ID        string
	UserID    string
	Role      BaseRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
