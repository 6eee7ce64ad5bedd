package models

import "time"

// UserRole represents the roles recognised by access control.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleAgent   UserRole = "agent"
	RoleUser    UserRole = "user"
)

// StaffRoles lists the roles allowed to act on the operator side.
var StaffRoles = []UserRole{RoleAdmin, RoleManager, RoleAgent}

// IsStaff reports whether the role belongs to operator staff.
func (r UserRole) IsStaff() bool {
	for _, staff := range StaffRoles {
		if r == staff {
			return true
		}
	}
	return false
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r == RoleUser || r.IsStaff()
}

// UserStatus toggles whether an account may sign in.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// User represents an application user stored in the users table.
type User struct {
	ID           int64      `db:"id" json:"id" bson:"_id"`
	Name         string     `db:"name" json:"name" bson:"name"`
	Email        string     `db:"email" json:"email" bson:"email"`
	PasswordHash string     `db:"password_hash" json:"-" bson:"password_hash"`
	Role         UserRole   `db:"role" json:"role" bson:"role"`
	Branch       string     `db:"branch" json:"branch" bson:"branch"`
	Status       UserStatus `db:"status" json:"status" bson:"status"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty" bson:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at" bson:"created_at"`
}

// Active reports whether the account may sign in.
func (u User) Active() bool {
	return u.Status != UserStatusInactive
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Status   *UserStatus
	Search   string
	Page     int
	PageSize int
}

// CreateUserRequest is the admin payload for creating an account.
type CreateUserRequest struct {
	Name     string     `json:"name" validate:"required"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Role     UserRole   `json:"role" validate:"omitempty,oneof=admin manager agent user"`
	Branch   string     `json:"branch"`
	Status   UserStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateUserRequest is the admin payload for editing an account. Empty fields are left untouched.
type UpdateUserRequest struct {
	Name     *string     `json:"name"`
	Email    *string     `json:"email" validate:"omitempty,email"`
	Password *string     `json:"password" validate:"omitempty,min=6"`
	Role     *UserRole   `json:"role" validate:"omitempty,oneof=admin manager agent user"`
	Branch   *string     `json:"branch"`
	Status   *UserStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}
