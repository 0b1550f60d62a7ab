package dto

import "time"

// LoginRequest payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// AuthResponse carries a fresh access token. The refresh token travels in a cookie.
type AuthResponse struct {
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// UserCreateRequest payload for POST /api/users.
type UserCreateRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Role     string  `json:"role" validate:"required,oneof=ADMIN STAFF"`
	IsActive *bool   `json:"isActive"`
	StaffID  *string `json:"staffId"`
}

// UserUpdateRequest payload for PATCH /api/users/:id. An empty staffId unlinks.
type UserUpdateRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN STAFF"`
	IsActive *bool   `json:"isActive"`
	StaffID  *string `json:"staffId"`
}

// PasswordResetRequest payload for POST /api/users/:id/reset-password.
type PasswordResetRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// UserResponse is an account without credentials.
type UserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	StaffID   *string    `json:"staffId"`
	IsActive  bool       `json:"isActive"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}
