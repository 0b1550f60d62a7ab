package domain

import "time"

// Role is the coarse access level of a user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleStaff Role = "STAFF"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// User is a login account, optionally linked to a staff record.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	StaffID      *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPatch carries a partial account update.
type UserPatch struct {
	Email    *string
	Role     *Role
	StaffID  *string
	IsActive *bool
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID  string
	Email   string
	Role    Role
	StaffID *string
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// OwnsStaff reports whether the principal is linked to staffID.
func (p *Principal) OwnsStaff(staffID string) bool {
	return p != nil && p.StaffID != nil && *p.StaffID == staffID
}
