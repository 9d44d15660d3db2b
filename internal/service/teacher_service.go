package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

type teacherAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.StaffAccount, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	UpdateProfile(ctx context.Context, staff *models.StaffAccount) error
}

type teacherClassReader interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassDetail, error)
	CountActiveByTeacher(ctx context.Context, teacherID string) (int, error)
}

type teacherStudentReader interface {
	ListByTeacher(ctx context.Context, teacherID, classID string) ([]models.LearnerDetail, error)
	CountByTeacher(ctx context.Context, teacherID string, since time.Time) (int, int, error)
}

const recentStudentsWindow = 7 * 24 * time.Hour

// TeacherService serves the signed-in teacher's own profile and views.
type TeacherService struct {
	accounts  teacherAccountRepository
	classes   teacherClassReader
	students  teacherStudentReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(accounts teacherAccountRepository, classes teacherClassReader, students teacherStudentReader, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{
		accounts:  accounts,
		classes:   classes,
		students:  students,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Profile reloads the caller's account.
func (s *TeacherService) Profile(ctx context.Context, teacherID string) (*models.StaffAccount, error) {
	staff, err := s.accounts.FindByID(ctx, teacherID)
	if err != nil {
		return nil, inactiveOr(err)
	}
	return staff, nil
}

// UpdateProfile applies the supplied fields to the caller's account.
func (s *TeacherService) UpdateProfile(ctx context.Context, teacherID string, req models.UpdateProfileRequest) (*models.StaffAccount, error) {
	if req.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no fields to update")
	}
	if err := validation.Struct(s.validator, req, "invalid profile payload"); err != nil {
		return nil, err
	}

	staff, err := s.Profile(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != staff.Email {
		taken, err := s.accounts.EmailTaken(ctx, *req.Email, teacherID)
		if err != nil {
			return nil, storageError(err, "failed to check email")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
		}
		staff.Email = *req.Email
	}
	if req.FirstName != nil {
		staff.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		staff.LastName = *req.LastName
	}
	if req.Phone != nil {
		staff.Phone = req.Phone
	}

	if err := s.accounts.UpdateProfile(ctx, staff); err != nil {
		return nil, inactiveOr(err)
	}
	return staff, nil
}

// Classes lists the caller's active classes with student counts.
func (s *TeacherService) Classes(ctx context.Context, teacherID string) ([]models.ClassDetail, error) {
	classes, err := s.classes.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, storageError(err, "failed to list classes")
	}
	return classes, nil
}

// Students lists active students in the caller's classes, optionally narrowed to one class.
func (s *TeacherService) Students(ctx context.Context, teacherID, classID string) ([]models.LearnerDetail, error) {
	students, err := s.students.ListByTeacher(ctx, teacherID, classID)
	if err != nil {
		return nil, storageError(err, "failed to list students")
	}
	return students, nil
}

// Dashboard aggregates counts for the caller. The account is looked up on every call.
func (s *TeacherService) Dashboard(ctx context.Context, teacherID string) (*dto.TeacherDashboardResponse, error) {
	staff, err := s.Profile(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	classes, err := s.classes.CountActiveByTeacher(ctx, teacherID)
	if err != nil {
		return nil, storageError(err, "failed to count classes")
	}

	now := s.now().UTC()
	total, recent, err := s.students.CountByTeacher(ctx, teacherID, now.Add(-recentStudentsWindow))
	if err != nil {
		return nil, storageError(err, "failed to count students")
	}

	return &dto.TeacherDashboardResponse{
		TeacherName:    staff.FullName(),
		TotalClasses:   classes,
		TotalStudents:  total,
		RecentStudents: recent,
		RecentWindow:   "7d",
		GeneratedAt:    now,
	}, nil
}
