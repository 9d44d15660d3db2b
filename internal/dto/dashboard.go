package dto

import "time"

// TeacherDashboardResponse aggregates the signed-in teacher's classes and students.
type TeacherDashboardResponse struct {
	TeacherName    string    `json:"teacher_name"`
	TotalClasses   int       `json:"total_classes"`
	TotalStudents  int       `json:"total_students"`
	RecentStudents int       `json:"recent_students"`
	RecentWindow   string    `json:"recent_window"`
	GeneratedAt    time.Time `json:"generated_at"`
}
