package domain

import (
	"strings"
	"time"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is any account: clients and legal-aid personnel alike.
type User struct {
	ID                string
	Name              string
	Email             string
	Phone             string
	PasswordHash      string
	RoleID            string
	RoleName          string
	Role              BaseRole
	Permissions       []Permission
	OfficeID          *string
	Kebele            *string
	ResidencyVerified bool
	Status            UserStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Can reports whether the user's role grants p.
func (u *User) Can(p Permission) bool {
	if u == nil {
		return false
	}
	for _, perm := range u.Permissions {
		if perm == p {
			return true
		}
	}
	return false
}

// Active reports whether the account may sign in.
func (u *User) Active() bool {
	return u != nil && u.Status == UserStatusActive
}

// InOffice reports whether the user is attached to officeID.
func (u *User) InOffice(officeID string) bool {
	return u != nil && u.OfficeID != nil && *u.OfficeID == officeID
}

// ManagesKebele reports whether the user's kebele matches kebele, ignoring
// case and surrounding spaces. Repository filters compare the same way.
func (u *User) ManagesKebele(kebele *string) bool {
	if u == nil || u.Kebele == nil || kebele == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(*u.Kebele), strings.TrimSpace(*kebele))
}
