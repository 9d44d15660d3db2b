package models

import "time"

// LearnerProfile is a student record, optionally assigned to one class.
type LearnerProfile struct {
	ID               string     `db:"id" json:"id"`
	ClassID          *string    `db:"class_id" json:"class_id,omitempty"`
	StudentID        *string    `db:"student_id" json:"student_id,omitempty"`
	FullName         string     `db:"full_name" json:"full_name"`
	DateOfBirth      *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Address          *string    `db:"address" json:"address,omitempty"`
	Phone            *string    `db:"phone" json:"phone,omitempty"`
	Email            *string    `db:"email" json:"email,omitempty"`
	ParentName       *string    `db:"parent_name" json:"parent_name,omitempty"`
	ParentPhone      *string    `db:"parent_phone" json:"parent_phone,omitempty"`
	ParentEmail      *string    `db:"parent_email" json:"parent_email,omitempty"`
	EmergencyContact *string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	EmergencyPhone   *string    `db:"emergency_phone" json:"emergency_phone,omitempty"`
	Siblings         *string    `db:"siblings" json:"siblings,omitempty"`
	MedicalNotes     *string    `db:"medical_notes" json:"medical_notes,omitempty"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// LearnerDetail adds class and login information to a profile.
type LearnerDetail struct {
	LearnerProfile
	ClassName     *string `db:"class_name" json:"class_name,omitempty"`
	Profession    *string `db:"profession" json:"profession,omitempty"`
	LoginUsername *string `db:"login_username" json:"login_username,omitempty"`
}

// LearnerFilter narrows learner listings.
type LearnerFilter struct {
	ClassID  string
	Search   string
	Page     int
	PageSize int
}

// LearnerRequest is the create and update payload for a student.
type LearnerRequest struct {
	FullName         string  `json:"full_name" validate:"required,min=2,max=200"`
	StudentID        *string `json:"student_id" validate:"omitempty,max=50"`
	DateOfBirth      *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Address          *string `json:"address" validate:"omitempty,max=500"`
	Phone            *string `json:"phone" validate:"omitempty,phone,max=50"`
	Email            *string `json:"email" validate:"omitempty,email,max=255"`
	ParentName       *string `json:"parent_name" validate:"omitempty,max=200"`
	ParentPhone      *string `json:"parent_phone" validate:"omitempty,phone,max=50"`
	ParentEmail      *string `json:"parent_email" validate:"omitempty,email,max=255"`
	EmergencyContact *string `json:"emergency_contact" validate:"omitempty,max=200"`
	EmergencyPhone   *string `json:"emergency_phone" validate:"omitempty,phone,max=50"`
	Siblings         *string `json:"siblings" validate:"omitempty,max=500"`
	MedicalNotes     *string `json:"medical_notes" validate:"omitempty,max=1000"`
	ClassID          *string `json:"class_id" validate:"omitempty,uuid"`
}

// AssignClassRequest moves a student to another class.
type AssignClassRequest struct {
	ClassID string `json:"class_id" validate:"required,uuid"`
}

// LearnerAccount is the login credential owned by exactly one learner profile.
type LearnerAccount struct {
	ID                 string     `db:"id" json:"id"`
	StudentID          string     `db:"student_id" json:"student_id"`
	Username           string     `db:"username" json:"username"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	MustChangePassword bool       `db:"must_change_password" json:"must_change_password"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	LastLogin          *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// LearnerAccountDetail joins the account with its profile and current class.
type LearnerAccountDetail struct {
	LearnerAccount
	FullName  string  `db:"full_name" json:"full_name"`
	ClassID   *string `db:"class_id" json:"class_id,omitempty"`
	ClassName *string `db:"class_name" json:"class_name,omitempty"`
}

// CreateLearnerAccountRequest issues a login for a student. Password falls back to the configured default.
type CreateLearnerAccountRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password *string `json:"password" validate:"omitempty,min=4,max=72"`
}
