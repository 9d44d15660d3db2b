package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type studentRepository interface {
	FindVisible(ctx context.Context, id, teacherID string) (*models.LearnerDetail, error)
	ListVisible(ctx context.Context, teacherID string, filter models.LearnerFilter) ([]models.LearnerDetail, int, error)
	ExternalIDTaken(ctx context.Context, studentID, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.LearnerProfile) error
	Update(ctx context.Context, student *models.LearnerProfile, teacherID string) error
	AssignClass(ctx context.Context, id, classID, teacherID string) error
	Deactivate(ctx context.Context, id, teacherID string) (bool, error)
}

type ownedClassChecker interface {
	IsOwnedActive(ctx context.Context, id, teacherID string) (bool, error)
}

type studentLoginRepository interface {
	FindActiveByStudent(ctx context.Context, studentID string) (*models.LearnerAccount, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, account *models.LearnerAccount) error
}

const (
	cascadeStudentDelete = "student_delete"

	defaultStudentPageSize = 50
	maxStudentPageSize     = 200
	maxStudentPage         = 1_000_000
)

// StudentServiceConfig carries learner account defaults.
type StudentServiceConfig struct {
	DefaultPassword string
}

// StudentService manages learner profiles and their login accounts.
type StudentService struct {
	students  studentRepository
	classes   ownedClassChecker
	logins    studentLoginRepository
	hasher    *PasswordHasher
	metrics   *MetricsService
	audit     auditTrail
	validator *validator.Validate
	logger    *zap.Logger
	cfg       StudentServiceConfig
}

// NewStudentService constructs a StudentService.
func NewStudentService(students studentRepository, classes ownedClassChecker, logins studentLoginRepository, audit auditRepository, hasher *PasswordHasher, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg StudentServiceConfig) *StudentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPassword == "" {
		cfg.DefaultPassword = "student1234"
	}
	return &StudentService{
		students:  students,
		classes:   classes,
		logins:    logins,
		hasher:    hasher,
		metrics:   metrics,
		audit:     auditTrail{repo: audit, logger: logger},
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// List returns the students visible to teacherID, unassigned students included.
func (s *StudentService) List(ctx context.Context, teacherID string, filter models.LearnerFilter) ([]models.LearnerDetail, *models.Pagination, error) {
	switch {
	case filter.Page < 1:
		filter.Page = 1
	case filter.Page > maxStudentPage:
		filter.Page = maxStudentPage
	}
	switch {
	case filter.PageSize <= 0:
		filter.PageSize = defaultStudentPageSize
	case filter.PageSize > maxStudentPageSize:
		filter.PageSize = maxStudentPageSize
	}
	students, total, err := s.students.ListVisible(ctx, teacherID, filter)
	if err != nil {
		return nil, nil, storageError(err, "failed to list students")
	}
	return students, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a student visible to teacherID.
func (s *StudentService) Get(ctx context.Context, teacherID, id string) (*models.LearnerDetail, error) {
	student, err := s.students.FindVisible(ctx, id, teacherID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	return student, nil
}

// Create adds a student, optionally placing it in one of the actor's classes.
func (s *StudentService) Create(ctx context.Context, actor models.Actor, req models.LearnerRequest) (*models.LearnerProfile, error) {
	student, err := s.buildStudent(ctx, actor.ID, "", req)
	if err != nil {
		return nil, err
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, storageError(err, "failed to create student")
	}
	return student, nil
}

// Update rewrites a student visible to the actor.
func (s *StudentService) Update(ctx context.Context, actor models.Actor, id string, req models.LearnerRequest) (*models.LearnerProfile, error) {
	current, err := s.Get(ctx, actor.ID, id)
	if err != nil {
		return nil, err
	}
	student, err := s.buildStudent(ctx, actor.ID, id, req)
	if err != nil {
		return nil, err
	}
	student.ID = id
	student.CreatedAt = current.CreatedAt
	student.IsActive = true
	if err := s.students.Update(ctx, student, actor.ID); err != nil {
		return nil, notFoundOr(err, "student not found", "failed to update student")
	}
	return student, nil
}

// Delete deactivates a visible student and its login atomically.
func (s *StudentService) Delete(ctx context.Context, actor models.Actor, id string) error {
	loginDeactivated, err := s.students.Deactivate(ctx, id, actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordCascade(cascadeStudentDelete, OutcomeRejected)
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		s.metrics.RecordCascade(cascadeStudentDelete, OutcomeFailure)
		return storageError(err, "failed to delete student")
	}
	s.metrics.RecordCascade(cascadeStudentDelete, OutcomeSuccess)
	s.audit.record(ctx, actor, models.AuditActionStudentDelete, models.AuditResourceLearner, id, map[string]interface{}{"login_deactivated": loginDeactivated})
	return nil
}

// AssignClass moves an active student into an active class owned by the actor.
func (s *StudentService) AssignClass(ctx context.Context, actor models.Actor, id string, req models.AssignClassRequest) error {
	if err := validation.Struct(s.validator, req, "invalid class assignment payload"); err != nil {
		return err
	}
	if err := s.students.AssignClass(ctx, id, req.ClassID, actor.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Validation(err, "student or class not found or not owned", []appErrors.FieldError{{
				Field:   "class_id",
				Rule:    "owned",
				Message: "student and class must be active and the class owned by you",
			}})
		}
		return storageError(err, "failed to assign class")
	}
	s.audit.record(ctx, actor, models.AuditActionStudentAssign, models.AuditResourceLearner, id, map[string]interface{}{"class_id": req.ClassID})
	return nil
}

// CreateLogin issues a learner account for a visible student. The password defaults to the configured
// student password and must be changed on first login.
func (s *StudentService) CreateLogin(ctx context.Context, actor models.Actor, id string, req models.CreateLearnerAccountRequest) (*models.LearnerAccount, error) {
	if err := validation.Struct(s.validator, req, "invalid student login payload"); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, actor.ID, id); err != nil {
		return nil, err
	}

	exists, err := s.logins.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, storageError(err, "failed to check username")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	}

	if _, err := s.logins.FindActiveByStudent(ctx, id); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has an active login")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, storageError(err, "failed to check student login")
	}

	password := s.cfg.DefaultPassword
	if req.Password != nil {
		password = *req.Password
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	account := &models.LearnerAccount{StudentID: id, Username: req.Username, PasswordHash: hash}
	if err := s.logins.Create(ctx, account); err != nil {
		return nil, storageError(err, "failed to create student login")
	}
	s.audit.record(ctx, actor, models.AuditActionStudentLoginCreate, models.AuditResourceLearnerLogin, account.ID, map[string]interface{}{"student_id": id})
	return account, nil
}

func (s *StudentService) buildStudent(ctx context.Context, teacherID, excludeID string, req models.LearnerRequest) (*models.LearnerProfile, error) {
	if err := validation.Struct(s.validator, req, "invalid student payload"); err != nil {
		return nil, err
	}

	if req.ClassID != nil {
		owned, err := s.classes.IsOwnedActive(ctx, *req.ClassID, teacherID)
		if err != nil {
			return nil, storageError(err, "failed to check class")
		}
		if !owned {
			return nil, appErrors.Validation(nil, "invalid student payload", []appErrors.FieldError{{
				Field:   "class_id",
				Rule:    "owned",
				Message: "class not found or not owned by you",
			}})
		}
	}

	if req.StudentID != nil && *req.StudentID != "" {
		taken, err := s.students.ExternalIDTaken(ctx, *req.StudentID, excludeID)
		if err != nil {
			return nil, storageError(err, "failed to check student id")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student id already exists")
		}
	}

	student := &models.LearnerProfile{
		ClassID:          req.ClassID,
		StudentID:        req.StudentID,
		FullName:         req.FullName,
		Address:          req.Address,
		Phone:            req.Phone,
		Email:            req.Email,
		ParentName:       req.ParentName,
		ParentPhone:      req.ParentPhone,
		ParentEmail:      req.ParentEmail,
		EmergencyContact: req.EmergencyContact,
		EmergencyPhone:   req.EmergencyPhone,
		Siblings:         req.Siblings,
		MedicalNotes:     req.MedicalNotes,
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, appErrors.Validation(err, "invalid student payload", []appErrors.FieldError{{
				Field:   "date_of_birth",
				Rule:    "datetime",
				Message: "must be a date in YYYY-MM-DD format",
			}})
		}
		student.DateOfBirth = &dob
	}
	if req.StudentID != nil && *req.StudentID == "" {
		student.StudentID = nil
	}
	return student, nil
}
