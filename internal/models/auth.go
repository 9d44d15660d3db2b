package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PrincipalKind distinguishes the two kinds of authenticated identities.
type PrincipalKind string

const (
	PrincipalStaff   PrincipalKind = "staff"
	PrincipalLearner PrincipalKind = "learner"
)

// StaffRole is the role granted to a staff account.
type StaffRole string

const (
	StaffRoleAdmin   StaffRole = "admin"
	StaffRoleTeacher StaffRole = "teacher"
)

// Valid reports whether r is a known staff role.
func (r StaffRole) Valid() bool {
	return r == StaffRoleAdmin || r == StaffRoleTeacher
}

// LoginRequest holds credentials for authenticating a principal.
type LoginRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Password  string `json:"password" validate:"required,min=4,max=72"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token and principal info.
type LoginResponse struct {
	AccessToken        string        `json:"access_token"`
	TokenType          string        `json:"token_type"`
	ExpiresIn          int64         `json:"expires_in"`
	MustChangePassword bool          `json:"must_change_password"`
	Principal          PrincipalInfo `json:"principal"`
	IssuedAt           time.Time     `json:"issued_at"`
}

// PrincipalInfo describes the authenticated principal in responses. It never carries hashes.
type PrincipalInfo struct {
	ID                 string        `json:"id"`
	Username           string        `json:"username"`
	Kind               PrincipalKind `json:"kind"`
	StaffRole          StaffRole     `json:"staff_role,omitempty"`
	FullName           string        `json:"full_name"`
	Email              string        `json:"email,omitempty"`
	StudentID          string        `json:"student_id,omitempty"`
	ClassID            *string       `json:"class_id,omitempty"`
	ClassName          *string       `json:"class_name,omitempty"`
	MustChangePassword bool          `json:"must_change_password"`
}

// VerifyResponse is returned by the token verification endpoint.
type VerifyResponse struct {
	Valid              bool          `json:"valid"`
	Principal          PrincipalInfo `json:"principal"`
	MustChangePassword bool          `json:"must_change_password"`
}

// ChangePasswordRequest payload for updating the caller's own password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID             string        `json:"user_id"`
	Username           string        `json:"username"`
	Role               PrincipalKind `json:"role"`
	StaffRole          StaffRole     `json:"staff_role,omitempty"`
	MustChangePassword bool          `json:"must_change_password"`
	jwt.RegisteredClaims
}
