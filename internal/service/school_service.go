package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type schoolRepository interface {
	List(ctx context.Context) ([]models.School, error)
	FindByID(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School) error
	Deactivate(ctx context.Context, id string) error
}

const (
	schoolListCacheKey    = "schools:list"
	schoolCacheKeyPattern = "schools:*"
	schoolNotFoundMessage = "school not found"
)

// SchoolService manages the shared school directory.
type SchoolService struct {
	repo      schoolRepository
	cache     *CacheService
	cacheTTL  time.Duration
	audit     auditTrail
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService constructs a SchoolService. cache may be nil.
func NewSchoolService(repo schoolRepository, cache *CacheService, cacheTTL time.Duration, audit auditRepository, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		audit:     auditTrail{repo: audit, logger: logger},
		validator: validate,
		logger:    logger,
	}
}

// List returns all active schools, served from cache when enabled.
func (s *SchoolService) List(ctx context.Context) ([]models.School, error) {
	var cached []models.School
	if s.cache.Get(ctx, schoolListCacheKey, &cached) {
		return cached, nil
	}
	schools, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError(err, "failed to list schools")
	}
	if schools == nil {
		schools = []models.School{}
	}
	s.cache.Set(ctx, schoolListCacheKey, schools, s.cacheTTL)
	return schools, nil
}

// Get returns an active school.
func (s *SchoolService) Get(ctx context.Context, id string) (*models.School, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, schoolNotFoundMessage, "failed to load school")
	}
	return school, nil
}

// Create adds a school.
func (s *SchoolService) Create(ctx context.Context, req models.SchoolRequest) (*models.School, error) {
	if err := validation.Struct(s.validator, req, "invalid school payload"); err != nil {
		return nil, err
	}
	school := schoolFromRequest(req)
	if err := s.repo.Create(ctx, school); err != nil {
		return nil, storageError(err, "failed to create school")
	}
	s.cache.Invalidate(ctx, schoolCacheKeyPattern)
	return school, nil
}

// Update rewrites an active school.
func (s *SchoolService) Update(ctx context.Context, id string, req models.SchoolRequest) (*models.School, error) {
	if err := validation.Struct(s.validator, req, "invalid school payload"); err != nil {
		return nil, err
	}
	school := schoolFromRequest(req)
	school.ID = id
	if err := s.repo.Update(ctx, school); err != nil {
		return nil, notFoundOr(err, schoolNotFoundMessage, "failed to update school")
	}
	school.IsActive = true
	s.cache.Invalidate(ctx, schoolCacheKeyPattern)
	return school, nil
}

// Delete deactivates a school. Linked classes keep their free-text school name.
func (s *SchoolService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return notFoundOr(err, schoolNotFoundMessage, "failed to delete school")
	}
	s.cache.Invalidate(ctx, schoolCacheKeyPattern)
	s.audit.record(ctx, actor, models.AuditActionSchoolDelete, models.AuditResourceSchool, id, nil)
	return nil
}

func schoolFromRequest(req models.SchoolRequest) *models.School {
	return &models.School{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		Website: req.Website,
	}
}
