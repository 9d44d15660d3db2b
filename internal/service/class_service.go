package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type classRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassDetail, error)
	FindOwned(ctx context.Context, id, teacherID string) (*models.ClassDetail, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Deactivate(ctx context.Context, id, teacherID string) (int64, error)
}

type activeSchoolChecker interface {
	ExistsActive(ctx context.Context, id string) (bool, error)
}

type classRosterReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.LearnerProfile, error)
}

const cascadeClassDelete = "class_delete"

// ClassService manages classes owned by the acting staff account.
type ClassService struct {
	classes   classRepository
	schools   activeSchoolChecker
	students  classRosterReader
	metrics   *MetricsService
	audit     auditTrail
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewClassService constructs a ClassService and registers the profession rule on validate.
func NewClassService(classes classRepository, schools activeSchoolChecker, students classRosterReader, audit auditRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = validate.RegisterValidation("profession", func(fl validator.FieldLevel) bool {
		return models.IsProfession(fl.Field().String())
	})
	return &ClassService{
		classes:   classes,
		schools:   schools,
		students:  students,
		metrics:   metrics,
		audit:     auditTrail{repo: audit, logger: logger},
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Professions returns the subjects a class may teach.
func (s *ClassService) Professions() []string {
	out := make([]string, len(models.Professions))
	copy(out, models.Professions)
	return out
}

// List returns the teacher's active classes with student counts.
func (s *ClassService) List(ctx context.Context, teacherID string) ([]models.ClassDetail, error) {
	classes, err := s.classes.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, storageError(err, "failed to list classes")
	}
	return classes, nil
}

// Get returns an active class owned by teacherID.
func (s *ClassService) Get(ctx context.Context, teacherID, id string) (*models.ClassDetail, error) {
	class, err := s.classes.FindOwned(ctx, id, teacherID)
	if err != nil {
		return nil, notFoundOr(err, "class not found", "failed to load class")
	}
	return class, nil
}

// Students lists the active students of an owned class.
func (s *ClassService) Students(ctx context.Context, teacherID, id string) ([]models.LearnerProfile, error) {
	if _, err := s.Get(ctx, teacherID, id); err != nil {
		return nil, err
	}
	students, err := s.students.ListByClass(ctx, id)
	if err != nil {
		return nil, storageError(err, "failed to list class students")
	}
	return students, nil
}

// Create adds a class owned by the actor.
func (s *ClassService) Create(ctx context.Context, actor models.Actor, req models.ClassRequest) (*models.Class, error) {
	class, err := s.buildClass(ctx, req)
	if err != nil {
		return nil, err
	}
	class.TeacherID = actor.ID
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, storageError(err, "failed to create class")
	}
	return class, nil
}

// Update rewrites an active class owned by the actor.
func (s *ClassService) Update(ctx context.Context, actor models.Actor, id string, req models.ClassRequest) (*models.Class, error) {
	class, err := s.buildClass(ctx, req)
	if err != nil {
		return nil, err
	}
	class.ID = id
	class.TeacherID = actor.ID
	if err := s.classes.Update(ctx, class); err != nil {
		return nil, notFoundOr(err, "class not found", "failed to update class")
	}
	class.IsActive = true
	return class, nil
}

// Delete deactivates an owned class and detaches its students atomically.
func (s *ClassService) Delete(ctx context.Context, actor models.Actor, id string) error {
	detached, err := s.classes.Deactivate(ctx, id, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordCascade(cascadeClassDelete, OutcomeRejected)
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		s.metrics.RecordCascade(cascadeClassDelete, OutcomeFailure)
		return storageError(err, "failed to delete class")
	}
	s.metrics.RecordCascade(cascadeClassDelete, OutcomeSuccess)
	s.logger.Info("class deactivated", zap.String("class_id", id), zap.Int64("students_detached", detached))
	s.audit.record(ctx, actor, models.AuditActionClassDelete, models.AuditResourceClass, id, map[string]interface{}{"students_detached": detached})
	return nil
}

func (s *ClassService) buildClass(ctx context.Context, req models.ClassRequest) (*models.Class, error) {
	if err := validation.Struct(s.validator, req, "invalid class payload"); err != nil {
		return nil, err
	}

	if req.SchoolID != nil {
		ok, err := s.schools.ExistsActive(ctx, *req.SchoolID)
		if err != nil {
			return nil, storageError(err, "failed to check school")
		}
		if !ok {
			return nil, appErrors.Validation(nil, "invalid class payload", []appErrors.FieldError{{
				Field:   "school_id",
				Rule:    "exists",
				Message: "school does not exist",
			}})
		}
	}

	year := strconv.Itoa(s.now().Year())
	if req.AcademicYear != nil {
		year = *req.AcademicYear
	}
	maxStudents := models.DefaultMaxStudents
	if req.MaxStudents != nil {
		maxStudents = *req.MaxStudents
	}

	return &models.Class{
		ClassName:    req.ClassName,
		SchoolName:   req.SchoolName,
		SchoolID:     req.SchoolID,
		Profession:   req.Profession,
		GradeLevel:   req.GradeLevel,
		AcademicYear: year,
		MaxStudents:  maxStudents,
		Description:  req.Description,
	}, nil
}
