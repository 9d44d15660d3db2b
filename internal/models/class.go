package models

import "time"

// Professions lists the subjects a class may teach.
var Professions = []string{
	"מתמטיקה",
	"אנגלית",
	"פיזיקה",
	"כימיה",
	"ביולוגיה",
	"היסטוריה",
	"גאוגרפיה",
	"ספרות",
	`תנ"ך`,
	"אמנות",
	"מוסיקה",
	"חינוך גשמי",
	"מדעי המחשב",
}

var professionSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Professions))
	for _, p := range Professions {
		set[p] = struct{}{}
	}
	return set
}()

// IsProfession reports whether p is one of the supported subjects.
func IsProfession(p string) bool {
	_, ok := professionSet[p]
	return ok
}

const (
	DefaultMaxStudents = 30
	MinMaxStudents     = 1
	MaxMaxStudents     = 50
)

// Class is a teaching group owned by a single staff account.
type Class struct {
	ID           string    `db:"id" json:"id"`
	TeacherID    string    `db:"teacher_id" json:"teacher_id"`
	ClassName    string    `db:"class_name" json:"class_name"`
	SchoolName   string    `db:"school_name" json:"school_name"`
	SchoolID     *string   `db:"school_id" json:"school_id,omitempty"`
	Profession   string    `db:"profession" json:"profession"`
	GradeLevel   *string   `db:"grade_level" json:"grade_level,omitempty"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	MaxStudents  int       `db:"max_students" json:"max_students"`
	Description  *string   `db:"description" json:"description,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with the active student count and linked school name.
type ClassDetail struct {
	Class
	StudentCount     int     `db:"student_count" json:"student_count"`
	LinkedSchoolName *string `db:"linked_school_name" json:"linked_school_name,omitempty"`
}

// ClassRequest is the create and update payload for a class.
type ClassRequest struct {
	ClassName    string  `json:"class_name" validate:"required,min=2,max=100"`
	SchoolName   string  `json:"school_name" validate:"required,min=2,max=200"`
	SchoolID     *string `json:"school_id" validate:"omitempty,uuid"`
	Profession   string  `json:"profession" validate:"required,profession"`
	GradeLevel   *string `json:"grade_level" validate:"omitempty,max=20"`
	AcademicYear *string `json:"academic_year" validate:"omitempty,academic_year"`
	MaxStudents  *int    `json:"max_students" validate:"omitempty,min=1,max=50"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
}
