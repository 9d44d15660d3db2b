package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin              = "LOGIN"
	AuditActionPasswordChange     = "PASSWORD_CHANGE"
	AuditActionStaffRegister      = "STAFF_REGISTER"
	AuditActionClassDelete        = "CLASS_DELETE"
	AuditActionStudentDelete      = "STUDENT_DELETE"
	AuditActionStudentAssign      = "STUDENT_ASSIGN_CLASS"
	AuditActionStudentLoginCreate = "STUDENT_LOGIN_CREATE"
	AuditActionSchoolDelete       = "SCHOOL_DELETE"
)

// Audit resources.
const (
	AuditResourceStaff        = "teacher"
	AuditResourceLearner      = "student"
	AuditResourceLearnerLogin = "student_login"
	AuditResourceClass        = "class"
	AuditResourceSchool       = "school"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	ActorID    *string   `db:"actor_id" json:"actor_id,omitempty"`
	ActorKind  *string   `db:"actor_kind" json:"actor_kind,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Metadata   []byte    `db:"metadata" json:"metadata,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Actor identifies the authenticated principal performing an operation, plus request origin for auditing.
type Actor struct {
	ID        string
	Kind      PrincipalKind
	StaffRole StaffRole
	IP        string
	UserAgent string
}
