package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/database"
)

const (
	classColumns            = `c.id, c.teacher_id, c.class_name, c.school_name, c.school_id, c.profession, c.grade_level, c.academic_year, c.max_students, c.description, c.is_active, c.created_at, c.updated_at`
	selectActiveClassDetail = `SELECT ` + classColumns + `,
		(SELECT COUNT(*) FROM students s WHERE s.class_id = c.id AND s.is_active = TRUE) AS student_count,
		sc.name AS linked_school_name
		FROM classes c
		LEFT JOIN schools sc ON sc.id = c.school_id AND sc.is_active = TRUE
		WHERE c.is_active = TRUE`
)

// ClassRepository provides database access for classes.
type ClassRepository struct {
	db             *sqlx.DB
	acquireTimeout time.Duration
}

// NewClassRepository constructs the repository. acquireTimeout bounds the wait for a pooled
// connection when a multi-statement transaction starts.
func NewClassRepository(db *sqlx.DB, acquireTimeout time.Duration) *ClassRepository {
	return &ClassRepository{db: db, acquireTimeout: acquireTimeout}
}

// ListByTeacher returns the active classes owned by teacherID, newest first.
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassDetail, error) {
	query := selectActiveClassDetail + ` AND c.teacher_id = $1 ORDER BY c.created_at DESC`
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindOwned returns an active class when it is owned by teacherID.
func (r *ClassRepository) FindOwned(ctx context.Context, id, teacherID string) (*models.ClassDetail, error) {
	query := selectActiveClassDetail + ` AND c.id = $1 AND c.teacher_id = $2 LIMIT 1`
	var class models.ClassDetail
	if err := r.db.GetContext(ctx, &class, query, id, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// IsOwnedActive reports whether id names an active class owned by teacherID.
func (r *ClassRepository) IsOwnedActive(ctx context.Context, id, teacherID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM classes WHERE id = $1 AND teacher_id = $2 AND is_active = TRUE)`
	var owned bool
	if err := r.db.GetContext(ctx, &owned, query, id, teacherID); err != nil {
		return false, fmt.Errorf("check class ownership: %w", err)
	}
	return owned, nil
}

// CountActiveByTeacher counts the active classes owned by teacherID.
func (r *ClassRepository) CountActiveByTeacher(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*) FROM classes WHERE teacher_id = $1 AND is_active = TRUE`
	var total int
	if err := r.db.GetContext(ctx, &total, query, teacherID); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return total, nil
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	class.IsActive = true

	const query = `INSERT INTO classes (id, teacher_id, class_name, school_name, school_id, profession, grade_level, academic_year, max_students, description, is_active, created_at, updated_at) VALUES (:id, :teacher_id, :class_name, :school_name, :school_id, :profession, :grade_level, :academic_year, :max_students, :description, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an active class owned by class.TeacherID.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET class_name = :class_name, school_name = :school_name, school_id = :school_id, profession = :profession, grade_level = :grade_level, academic_year = :academic_year, max_students = :max_students, description = :description, updated_at = :updated_at WHERE id = :id AND teacher_id = :teacher_id AND is_active = TRUE`
	res, err := r.db.NamedExecContext(ctx, query, class)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return expectAffected(res, "update class")
}

// Deactivate soft-deletes an owned class and detaches every student referencing it in one
// transaction. It returns sql.ErrNoRows when no active class with that id is owned by teacherID.
func (r *ClassRepository) Deactivate(ctx context.Context, id, teacherID string) (detached int64, err error) {
	err = database.WithTx(ctx, r.db, r.acquireTimeout, func(txCtx context.Context, tx *sqlx.Tx) error {
		now := time.Now().UTC()

		const deactivate = `UPDATE classes SET is_active = FALSE, updated_at = $3 WHERE id = $1 AND teacher_id = $2 AND is_active = TRUE`
		res, err := tx.ExecContext(txCtx, deactivate, id, teacherID, now)
		if err != nil {
			return fmt.Errorf("deactivate class: %w", err)
		}
		if err := expectAffected(res, "deactivate class"); err != nil {
			return err
		}

		const detach = `UPDATE students SET class_id = NULL, updated_at = $2 WHERE class_id = $1`
		res, err = tx.ExecContext(txCtx, detach, id, now)
		if err != nil {
			return fmt.Errorf("detach class students: %w", err)
		}
		detached, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("detach class students rows affected: %w", err)
		}
		return nil
	})
	return detached, err
}
