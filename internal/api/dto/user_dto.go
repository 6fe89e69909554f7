package dto

import (
	"time"

	"github.com/spec-kit/legal-aid-service/internal/domain"
)

// RegisterRequest payload for client self-registration.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    string  `json:"phone" validate:"required,phone"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Kebele   *string `json:"kebele" validate:"omitempty,max=80"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// CreateStaffRequest is the admin payload for personnel accounts.
type CreateStaffRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=120"`
	Email    string  `json:"email" validate:"required,email"`
	Phone    string  `json:"phone" validate:"required,phone"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	RoleID   string  `json:"role_id" validate:"required,uuid"`
	OfficeID *string `json:"office_id" validate:"omitempty,uuid"`
	Kebele   *string `json:"kebele" validate:"omitempty,max=80"`
}

// UpdateUserRequest carries optional account changes.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=2,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,phone"`
	RoleID   *string `json:"role_id" validate:"omitempty,uuid"`
	OfficeID *string `json:"office_id" validate:"omitempty,uuid"`
	Kebele   *string `json:"kebele" validate:"omitempty,max=80"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Email             string              `json:"email"`
	Phone             string              `json:"phone"`
	RoleID            string              `json:"role_id"`
	RoleName          string              `json:"role_name"`
	BaseRole          domain.BaseRole     `json:"base_role"`
	Permissions       []domain.Permission `json:"permissions,omitempty"`
	OfficeID          *string             `json:"office_id"`
	Kebele            *string             `json:"kebele"`
	ResidencyVerified bool                `json:"residency_verified"`
	Status            domain.UserStatus   `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// CreateRoleRequest creates a custom role.
type CreateRoleRequest struct {
	Name        string              `json:"name" validate:"required,min=2,max=60"`
	BaseRole    domain.BaseRole     `json:"base_role" validate:"required,oneof=ADMIN CLIENT LAWYER COORDINATOR KEBELE_MANAGER"`
	Description string              `json:"description" validate:"max=500"`
	Permissions []domain.Permission `json:"permissions" validate:"dive,permission"`
}

// UpdateRoleRequest replaces a custom role's description and permissions.
type UpdateRoleRequest struct {
	Description string              `json:"description" validate:"max=500"`
	Permissions []domain.Permission `json:"permissions" validate:"required,dive,permission"`
}

// RoleResponse describes a role.
type RoleResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	BaseRole    domain.BaseRole     `json:"base_role"`
	Description string              `json:"description"`
	Permissions []domain.Permission `json:"permissions"`
	IsSystem    bool                `json:"is_system"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// OfficeRequest creates or updates an office.
type OfficeRequest struct {
	Code     string `json:"code" validate:"required,alphanum,max=20"`
	Name     string `json:"name" validate:"required,max=120"`
	Region   string `json:"region" validate:"required,max=80"`
	Zone     string `json:"zone" validate:"max=80"`
	Woreda   string `json:"woreda" validate:"max=80"`
	Kebele   string `json:"kebele" validate:"max=80"`
	Address  string `json:"address" validate:"max=255"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	IsActive *bool  `json:"is_active"`
}

// OfficeResponse describes an office.
type OfficeResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Region    string    `json:"region"`
	Zone      string    `json:"zone"`
	Woreda    string    `json:"woreda"`
	Kebele    string    `json:"kebele"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListMeta describes the page that was returned.
type ListMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
