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
	staffColumns      = `id, username, email, password_hash, first_name, last_name, phone, role, must_change_password, is_active, created_at, updated_at`
	selectActiveStaff = `SELECT ` + staffColumns + ` FROM teachers WHERE is_active = TRUE`
)

// StaffRepository provides database access for staff accounts.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// FindByID returns an active staff account by identifier.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.StaffAccount, error) {
	return r.findOne(ctx, selectActiveStaff+` AND id = $1 LIMIT 1`, id, "find staff by id")
}

// FindByUsername returns an active staff account by username.
func (r *StaffRepository) FindByUsername(ctx context.Context, username string) (*models.StaffAccount, error) {
	return r.findOne(ctx, selectActiveStaff+` AND username = $1 LIMIT 1`, username, "find staff by username")
}

// FindByEmail returns an active staff account by email.
func (r *StaffRepository) FindByEmail(ctx context.Context, email string) (*models.StaffAccount, error) {
	return r.findOne(ctx, selectActiveStaff+` AND email = $1 LIMIT 1`, email, "find staff by email")
}

func (r *StaffRepository) findOne(ctx context.Context, query, arg, op string) (*models.StaffAccount, error) {
	var staff models.StaffAccount
	if err := r.db.GetContext(ctx, &staff, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &staff, nil
}

// UsernameTaken reports whether an active staff account already uses username.
func (r *StaffRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM teachers WHERE is_active = TRUE AND username = $1)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, username); err != nil {
		return false, fmt.Errorf("check staff username: %w", err)
	}
	return taken, nil
}

// EmailTaken reports whether another active staff account uses email. excludeID may be empty.
func (r *StaffRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM teachers WHERE is_active = TRUE AND email = $1 AND id::text <> $2)`
	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check staff email: %w", err)
	}
	return taken, nil
}

// Create inserts a new staff account.
func (r *StaffRepository) Create(ctx context.Context, staff *models.StaffAccount) error {
	if staff.ID == "" {
		staff.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if staff.CreatedAt.IsZero() {
		staff.CreatedAt = now
	}
	staff.UpdatedAt = now
	staff.IsActive = true

	const query = `INSERT INTO teachers (id, username, email, password_hash, first_name, last_name, phone, role, must_change_password, is_active, created_at, updated_at) VALUES (:id, :username, :email, :password_hash, :first_name, :last_name, :phone, :role, :must_change_password, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// UpdateProfile persists the mutable profile fields of an active account.
func (r *StaffRepository) UpdateProfile(ctx context.Context, staff *models.StaffAccount) error {
	staff.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET first_name = :first_name, last_name = :last_name, email = :email, phone = :phone, updated_at = :updated_at WHERE id = :id AND is_active = TRUE`
	res, err := r.db.NamedExecContext(ctx, query, staff)
	if err != nil {
		return fmt.Errorf("update staff profile: %w", err)
	}
	return expectAffected(res, "update staff profile")
}

// UpdatePassword stores a new hash and clears the must-change flag.
func (r *StaffRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE teachers SET password_hash = $2, must_change_password = FALSE, updated_at = $3 WHERE id = $1 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update staff password: %w", err)
	}
	return expectAffected(res, "update staff password")
}

// expectAffected returns sql.ErrNoRows when a conditional statement matched nothing.
func expectAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
