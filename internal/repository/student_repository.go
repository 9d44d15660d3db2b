package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/database"
)

const (
	studentColumns = `s.id, s.class_id, s.student_id, s.full_name, s.date_of_birth, s.address, s.phone, s.email, s.parent_name, s.parent_phone, s.parent_email, s.emergency_contact, s.emergency_phone, s.siblings, s.medical_notes, s.is_active, s.created_at, s.updated_at`

	studentDetailFrom = ` FROM students s
		LEFT JOIN classes c ON c.id = s.class_id
		LEFT JOIN student_logins sl ON sl.student_id = s.id AND sl.is_active = TRUE`

	// A student is visible to a teacher when unassigned or assigned to one of the teacher's classes. $1 is the teacher.
	visibleStudentWhere = ` WHERE s.is_active = TRUE AND (s.class_id IS NULL OR c.teacher_id = $1)`

	selectVisibleStudentDetail = `SELECT ` + studentColumns + `, c.class_name, c.profession, sl.username AS login_username` + studentDetailFrom + visibleStudentWhere

	visibleStudentUpdateGuard = `(class_id IS NULL OR EXISTS (SELECT 1 FROM classes vc WHERE vc.id = students.class_id AND vc.teacher_id = $2))`
)

// StudentRepository provides database access for learner profiles.
type StudentRepository struct {
	db             *sqlx.DB
	acquireTimeout time.Duration
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB, acquireTimeout time.Duration) *StudentRepository {
	return &StudentRepository{db: db, acquireTimeout: acquireTimeout}
}

// FindVisible returns an active student visible to teacherID.
func (r *StudentRepository) FindVisible(ctx context.Context, id, teacherID string) (*models.LearnerDetail, error) {
	query := selectVisibleStudentDetail + ` AND s.id = $2 LIMIT 1`
	var student models.LearnerDetail
	if err := r.db.GetContext(ctx, &student, query, teacherID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ListVisible returns the students visible to teacherID with the total matching count.
func (r *StudentRepository) ListVisible(ctx context.Context, teacherID string, filter models.LearnerFilter) ([]models.LearnerDetail, int, error) {
	args := []interface{}{teacherID}
	var conditions []string

	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.full_name) LIKE $%d OR LOWER(COALESCE(s.student_id, '')) LIKE $%d)", len(args), len(args)))
	}

	where := visibleStudentWhere
	if len(conditions) > 0 {
		where += " AND " + strings.Join(conditions, " AND ")
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s, c.class_name, c.profession, sl.username AS login_username%s%s ORDER BY s.full_name ASC LIMIT %d OFFSET %d",
		studentColumns, studentDetailFrom, where, pageSize, (page-1)*pageSize)

	var students []models.LearnerDetail
	if err := r.db.SelectContext(ctx, &students, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM students s LEFT JOIN classes c ON c.id = s.class_id` + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListByClass returns the active students of a class ordered by name.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.LearnerProfile, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.class_id = $1 AND s.is_active = TRUE ORDER BY s.full_name ASC`
	var students []models.LearnerProfile
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}

// ListByTeacher returns active students assigned to the teacher's active classes, optionally for one class.
func (r *StudentRepository) ListByTeacher(ctx context.Context, teacherID, classID string) ([]models.LearnerDetail, error) {
	query := `SELECT ` + studentColumns + `, c.class_name, c.profession, sl.username AS login_username
		FROM students s
		JOIN classes c ON c.id = s.class_id AND c.is_active = TRUE
		LEFT JOIN student_logins sl ON sl.student_id = s.id AND sl.is_active = TRUE
		WHERE c.teacher_id = $1 AND s.is_active = TRUE`
	args := []interface{}{teacherID}
	if classID != "" {
		query += ` AND s.class_id = $2`
		args = append(args, classID)
	}
	query += ` ORDER BY c.class_name ASC, s.full_name ASC`

	var students []models.LearnerDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher students: %w", err)
	}
	return students, nil
}

// CountByTeacher counts active students in the teacher's active classes and those created since the given time.
func (r *StudentRepository) CountByTeacher(ctx context.Context, teacherID string, since time.Time) (total, recent int, err error) {
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE s.created_at >= $2) AS recent
		FROM students s
		JOIN classes c ON c.id = s.class_id
		WHERE c.teacher_id = $1 AND s.is_active = TRUE AND c.is_active = TRUE`
	var counts struct {
		Total  int `db:"total"`
		Recent int `db:"recent"`
	}
	if err := r.db.GetContext(ctx, &counts, query, teacherID, since); err != nil {
		return 0, 0, fmt.Errorf("count teacher students: %w", err)
	}
	return counts.Total, counts.Recent, nil
}

// ExternalIDTaken reports whether another active student uses the external student id. excludeID may be empty.
func (r *StudentRepository) ExternalIDTaken(ctx context.Context, studentID, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE is_active = TRUE AND student_id = $1 AND id::text <> $2)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, studentID, excludeID); err != nil {
		return false, fmt.Errorf("check student id: %w", err)
	}
	return taken, nil
}

// Create inserts a new student profile.
func (r *StudentRepository) Create(ctx context.Context, student *models.LearnerProfile) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	student.IsActive = true

	const query = `INSERT INTO students (id, class_id, student_id, full_name, date_of_birth, address, phone, email, parent_name, parent_phone, parent_email, emergency_contact, emergency_phone, siblings, medical_notes, is_active, created_at, updated_at) VALUES (:id, :class_id, :student_id, :full_name, :date_of_birth, :address, :phone, :email, :parent_name, :parent_phone, :parent_email, :emergency_contact, :emergency_phone, :siblings, :medical_notes, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update rewrites a student's fields when the student is still visible to teacherID.
func (r *StudentRepository) Update(ctx context.Context, student *models.LearnerProfile, teacherID string) error {
	student.UpdatedAt = time.Now().UTC()
	query := `UPDATE students SET class_id = $3, student_id = $4, full_name = $5, date_of_birth = $6, address = $7, phone = $8, email = $9, parent_name = $10, parent_phone = $11, parent_email = $12, emergency_contact = $13, emergency_phone = $14, siblings = $15, medical_notes = $16, updated_at = $17
		WHERE id = $1 AND is_active = TRUE AND ` + visibleStudentUpdateGuard
	res, err := r.db.ExecContext(ctx, query,
		student.ID, teacherID, student.ClassID, student.StudentID, student.FullName, student.DateOfBirth,
		student.Address, student.Phone, student.Email, student.ParentName, student.ParentPhone, student.ParentEmail,
		student.EmergencyContact, student.EmergencyPhone, student.Siblings, student.MedicalNotes, student.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return expectAffected(res, "update student")
}

// AssignClass moves an active student into an active class owned by teacherID in a single statement.
// It returns sql.ErrNoRows when the student or the class does not qualify.
func (r *StudentRepository) AssignClass(ctx context.Context, id, classID, teacherID string) error {
	const query = `UPDATE students SET class_id = $2, updated_at = $4
		WHERE id = $1 AND is_active = TRUE
		AND EXISTS (SELECT 1 FROM classes c WHERE c.id = $2 AND c.teacher_id = $3 AND c.is_active = TRUE)`
	res, err := r.db.ExecContext(ctx, query, id, classID, teacherID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign student class: %w", err)
	}
	return expectAffected(res, "assign student class")
}

// Deactivate soft-deletes a student visible to teacherID together with its login in one transaction.
// It returns sql.ErrNoRows when the student is not visible.
func (r *StudentRepository) Deactivate(ctx context.Context, id, teacherID string) (loginDeactivated bool, err error) {
	err = database.WithTx(ctx, r.db, r.acquireTimeout, func(txCtx context.Context, tx *sqlx.Tx) error {
		now := time.Now().UTC()

		deactivate := `UPDATE students SET is_active = FALSE, updated_at = $3 WHERE id = $1 AND is_active = TRUE AND ` + visibleStudentUpdateGuard
		res, err := tx.ExecContext(txCtx, deactivate, id, teacherID, now)
		if err != nil {
			return fmt.Errorf("deactivate student: %w", err)
		}
		if err := expectAffected(res, "deactivate student"); err != nil {
			return err
		}

		const deactivateLogin = `UPDATE student_logins SET is_active = FALSE, updated_at = $2 WHERE student_id = $1 AND is_active = TRUE`
		res, err = tx.ExecContext(txCtx, deactivateLogin, id, now)
		if err != nil {
			return fmt.Errorf("deactivate student login: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deactivate student login rows affected: %w", err)
		}
		loginDeactivated = affected > 0
		return nil
	})
	return loginDeactivated, err
}

const (
	maxListPage     = 1_000_000
	maxListPageSize = 200
)

// normalizePage bounds paging so LIMIT and OFFSET stay positive and small.
func normalizePage(page, pageSize int) (int, int) {
	switch {
	case page < 1:
		page = 1
	case page > maxListPage:
		page = maxListPage
	}
	switch {
	case pageSize <= 0:
		pageSize = 50
	case pageSize > maxListPageSize:
		pageSize = maxListPageSize
	}
	return page, pageSize
}
