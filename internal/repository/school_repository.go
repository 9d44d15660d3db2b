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

const selectActiveSchool = `SELECT id, name, address, phone, email, website, is_active, created_at, updated_at FROM schools WHERE is_active = TRUE`

// SchoolRepository provides database access for schools.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository constructs the repository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// List returns all active schools ordered by name.
func (r *SchoolRepository) List(ctx context.Context) ([]models.School, error) {
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, selectActiveSchool+` ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// FindByID returns an active school.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	var school models.School
	if err := r.db.GetContext(ctx, &school, selectActiveSchool+` AND id = $1 LIMIT 1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find school: %w", err)
	}
	return &school, nil
}

// ExistsActive reports whether id names an active school.
func (r *SchoolRepository) ExistsActive(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM schools WHERE id = $1 AND is_active = TRUE)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check school: %w", err)
	}
	return exists, nil
}

// Create inserts a school.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	school.CreatedAt = now
	school.UpdatedAt = now
	school.IsActive = true

	const query = `INSERT INTO schools (id, name, address, phone, email, website, is_active, created_at, updated_at) VALUES (:id, :name, :address, :phone, :email, :website, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return fmt.Errorf("create school: %w", err)
	}
	return nil
}

// Update rewrites an active school.
func (r *SchoolRepository) Update(ctx context.Context, school *models.School) error {
	school.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schools SET name = :name, address = :address, phone = :phone, email = :email, website = :website, updated_at = :updated_at WHERE id = :id AND is_active = TRUE`
	res, err := r.db.NamedExecContext(ctx, query, school)
	if err != nil {
		return fmt.Errorf("update school: %w", err)
	}
	return expectAffected(res, "update school")
}

// Deactivate soft-deletes an active school. Classes keep their free-text school name.
func (r *SchoolRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE schools SET is_active = FALSE, updated_at = $2 WHERE id = $1 AND is_active = TRUE`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate school: %w", err)
	}
	return expectAffected(res, "deactivate school")
}
