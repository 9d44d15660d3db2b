package models

import (
	"strings"
	"time"
)

// StaffAccount is a teacher or administrator stored in the teachers table.
type StaffAccount struct {
	ID                 string    `db:"id" json:"id"`
	Username           string    `db:"username" json:"username"`
	Email              string    `db:"email" json:"email"`
	PasswordHash       string    `db:"password_hash" json:"-"`
	FirstName          string    `db:"first_name" json:"first_name"`
	LastName           string    `db:"last_name" json:"last_name"`
	Phone              *string   `db:"phone" json:"phone,omitempty"`
	Role               StaffRole `db:"role" json:"role"`
	MustChangePassword bool      `db:"must_change_password" json:"must_change_password"`
	IsActive           bool      `db:"is_active" json:"is_active"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last name.
func (s StaffAccount) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// RegisterStaffRequest creates a new staff account.
type RegisterStaffRequest struct {
	Username           string    `json:"username" validate:"required,min=3,max=50"`
	Email              string    `json:"email" validate:"required,email,max=255"`
	Password           string    `json:"password" validate:"required,min=6,max=72"`
	FirstName          string    `json:"first_name" validate:"required,min=1,max=100"`
	LastName           string    `json:"last_name" validate:"required,min=1,max=100"`
	Phone              *string   `json:"phone" validate:"omitempty,phone,max=50"`
	Role               StaffRole `json:"role" validate:"omitempty,oneof=admin teacher"`
	MustChangePassword *bool     `json:"must_change_password"`
}

// UpdateProfileRequest changes the caller's own profile fields. Nil fields are left untouched.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone" validate:"omitempty,phone,max=50"`
}

// Empty reports whether no field was supplied.
func (r UpdateProfileRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Email == nil && r.Phone == nil
}
