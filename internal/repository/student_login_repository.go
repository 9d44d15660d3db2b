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
)

const (
	studentLoginColumns      = `sl.id, sl.student_id, sl.username, sl.password_hash, sl.must_change_password, sl.is_active, sl.last_login, sl.created_at, sl.updated_at`
	selectActiveStudentLogin = `SELECT ` + studentLoginColumns + ` FROM student_logins sl WHERE sl.is_active = TRUE`
	selectStudentLoginDetail = `SELECT ` + studentLoginColumns + `, s.full_name, s.class_id, c.class_name
		FROM student_logins sl
		JOIN students s ON s.id = sl.student_id AND s.is_active = TRUE
		LEFT JOIN classes c ON c.id = s.class_id AND c.is_active = TRUE
		WHERE sl.is_active = TRUE`
)

// StudentLoginRepository provides database access for learner credentials.
type StudentLoginRepository struct {
	db *sqlx.DB
}

// NewStudentLoginRepository constructs the repository.
func NewStudentLoginRepository(db *sqlx.DB) *StudentLoginRepository {
	return &StudentLoginRepository{db: db}
}

// FindByUsername returns an active learner account by username.
func (r *StudentLoginRepository) FindByUsername(ctx context.Context, username string) (*models.LearnerAccountDetail, error) {
	return r.findDetail(ctx, selectStudentLoginDetail+` AND sl.username = $1 LIMIT 1`, username, "find student login by username")
}

// FindByID returns an active learner account with its profile and class.
func (r *StudentLoginRepository) FindByID(ctx context.Context, id string) (*models.LearnerAccountDetail, error) {
	return r.findDetail(ctx, selectStudentLoginDetail+` AND sl.id = $1 LIMIT 1`, id, "find student login by id")
}

func (r *StudentLoginRepository) findDetail(ctx context.Context, query, arg, op string) (*models.LearnerAccountDetail, error) {
	var account models.LearnerAccountDetail
	if err := r.db.GetContext(ctx, &account, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &account, nil
}

// FindActiveByStudent returns the active login owned by a learner profile.
func (r *StudentLoginRepository) FindActiveByStudent(ctx context.Context, studentID string) (*models.LearnerAccount, error) {
	var account models.LearnerAccount
	if err := r.db.GetContext(ctx, &account, selectActiveStudentLogin+` AND sl.student_id = $1 LIMIT 1`, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find student login by student: %w", err)
	}
	return &account, nil
}

// UsernameExists reports whether any login, active or not, already uses username.
func (r *StudentLoginRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM student_logins WHERE username = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, fmt.Errorf("check student login username: %w", err)
	}
	return exists, nil
}

// Create inserts a learner account. New accounts always require a password change.
func (r *StudentLoginRepository) Create(ctx context.Context, account *models.LearnerAccount) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.IsActive = true
	account.MustChangePassword = true

	const query = `INSERT INTO student_logins (id, student_id, username, password_hash, must_change_password, is_active, created_at, updated_at) VALUES (:id, :student_id, :username, :password_hash, :must_change_password, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("create student login: %w", err)
	}
	return nil
}

// UpdatePassword stores a new hash and clears the must-change flag.
func (r *StudentLoginRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE student_logins SET password_hash = $2, must_change_password = FALSE, updated_at = $3 WHERE id = $1 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update student login password: %w", err)
	}
	return expectAffected(res, "update student login password")
}

// UpdateLastLogin records a successful login.
func (r *StudentLoginRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE student_logins SET last_login = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts); err != nil {
		return fmt.Errorf("update student last login: %w", err)
	}
	return nil
}
