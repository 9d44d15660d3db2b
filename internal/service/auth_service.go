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

type staffAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.StaffAccount, error)
	FindByUsername(ctx context.Context, username string) (*models.StaffAccount, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, staff *models.StaffAccount) error
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
}

type learnerAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.LearnerAccountDetail, error)
	FindByUsername(ctx context.Context, username string) (*models.LearnerAccountDetail, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

// AuthService provides authentication and account lifecycle use cases.
type AuthService struct {
	staff     staffAccountRepository
	learners  learnerAccountRepository
	hasher    *PasswordHasher
	tokens    *TokenService
	metrics   *MetricsService
	audit     auditTrail
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(staff staffAccountRepository, learners learnerAccountRepository, audit auditRepository, hasher *PasswordHasher, tokens *TokenService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &AuthService{
		staff:     staff,
		learners:  learners,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   metrics,
		audit:     auditTrail{repo: audit, logger: logger},
		validator: validate,
		logger:    logger,
	}
}

// LoginStaff authenticates a staff account by username and password.
func (s *AuthService) LoginStaff(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := validation.Struct(s.validator, req, "invalid login payload"); err != nil {
		return nil, err
	}

	staff, err := s.staff.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.hasher.VerifyMissing(req.Password)
			s.metrics.RecordLoginAttempt(string(models.PrincipalStaff), OutcomeRejected)
			return nil, appErrors.ErrInvalidCredentials
		}
		s.metrics.RecordLoginAttempt(string(models.PrincipalStaff), OutcomeFailure)
		return nil, storageError(err, "failed to fetch account")
	}

	if !s.hasher.Verify(req.Password, staff.PasswordHash) {
		s.metrics.RecordLoginAttempt(string(models.PrincipalStaff), OutcomeRejected)
		return nil, appErrors.ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(TokenSubject{
		ID:                 staff.ID,
		Username:           staff.Username,
		Kind:               models.PrincipalStaff,
		StaffRole:          staff.Role,
		MustChangePassword: staff.MustChangePassword,
	})
	if err != nil {
		s.metrics.RecordLoginAttempt(string(models.PrincipalStaff), OutcomeFailure)
		return nil, err
	}
	s.metrics.RecordLoginAttempt(string(models.PrincipalStaff), OutcomeSuccess)

	actor := models.Actor{ID: staff.ID, Kind: models.PrincipalStaff, StaffRole: staff.Role, IP: req.IP, UserAgent: req.UserAgent}
	s.audit.record(ctx, actor, models.AuditActionLogin, models.AuditResourceStaff, staff.ID, nil)

	return s.loginResponse(token, staffInfo(staff)), nil
}

// LoginLearner authenticates a learner account by username and password.
func (s *AuthService) LoginLearner(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := validation.Struct(s.validator, req, "invalid login payload"); err != nil {
		return nil, err
	}

	account, err := s.learners.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.hasher.VerifyMissing(req.Password)
			s.metrics.RecordLoginAttempt(string(models.PrincipalLearner), OutcomeRejected)
			return nil, appErrors.ErrInvalidCredentials
		}
		s.metrics.RecordLoginAttempt(string(models.PrincipalLearner), OutcomeFailure)
		return nil, storageError(err, "failed to fetch account")
	}

	if !s.hasher.Verify(req.Password, account.PasswordHash) {
		s.metrics.RecordLoginAttempt(string(models.PrincipalLearner), OutcomeRejected)
		return nil, appErrors.ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(TokenSubject{
		ID:                 account.ID,
		Username:           account.Username,
		Kind:               models.PrincipalLearner,
		MustChangePassword: account.MustChangePassword,
	})
	if err != nil {
		s.metrics.RecordLoginAttempt(string(models.PrincipalLearner), OutcomeFailure)
		return nil, err
	}
	s.metrics.RecordLoginAttempt(string(models.PrincipalLearner), OutcomeSuccess)

	if err := s.learners.UpdateLastLogin(ctx, account.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.String("student_login_id", account.ID), zap.Error(err))
	}

	actor := models.Actor{ID: account.ID, Kind: models.PrincipalLearner, IP: req.IP, UserAgent: req.UserAgent}
	s.audit.record(ctx, actor, models.AuditActionLogin, models.AuditResourceLearnerLogin, account.ID, nil)

	return s.loginResponse(token, learnerInfo(account)), nil
}

func (s *AuthService) loginResponse(token string, info models.PrincipalInfo) *models.LoginResponse {
	return &models.LoginResponse{
		AccessToken:        token,
		TokenType:          "Bearer",
		ExpiresIn:          int64(s.tokens.Expiry().Seconds()),
		MustChangePassword: info.MustChangePassword,
		Principal:          info,
		IssuedAt:           time.Now().UTC(),
	}
}

// ValidateToken verifies an access token and returns its claims.
func (s *AuthService) ValidateToken(token string) (*models.JWTClaims, error) {
	return s.tokens.Verify(token)
}

// Verify re-reads the principal behind claims. Accounts that are gone or inactive are UNAUTHORIZED
// even though the token is still valid.
func (s *AuthService) Verify(ctx context.Context, claims *models.JWTClaims) (*models.VerifyResponse, error) {
	info, err := s.currentPrincipal(ctx, claims)
	if err != nil {
		return nil, err
	}
	return &models.VerifyResponse{Valid: true, Principal: *info, MustChangePassword: info.MustChangePassword}, nil
}

func (s *AuthService) currentPrincipal(ctx context.Context, claims *models.JWTClaims) (*models.PrincipalInfo, error) {
	switch claims.Role {
	case models.PrincipalStaff:
		staff, err := s.staff.FindByID(ctx, claims.UserID)
		if err != nil {
			return nil, inactiveOr(err)
		}
		info := staffInfo(staff)
		return &info, nil
	case models.PrincipalLearner:
		account, err := s.learners.FindByID(ctx, claims.UserID)
		if err != nil {
			return nil, inactiveOr(err)
		}
		info := learnerInfo(account)
		return &info, nil
	default:
		return nil, appErrors.ErrUnauthorized
	}
}

// ChangePassword re-verifies the current password, stores the new hash and clears the must-change flag.
func (s *AuthService) ChangePassword(ctx context.Context, actor models.Actor, req models.ChangePasswordRequest) error {
	if err := validation.Struct(s.validator, req, "invalid change password payload"); err != nil {
		return err
	}

	var (
		currentHash string
		update      func(ctx context.Context, id, hash string, at time.Time) error
		resource    string
	)
	switch actor.Kind {
	case models.PrincipalStaff:
		staff, err := s.staff.FindByID(ctx, actor.ID)
		if err != nil {
			return inactiveOr(err)
		}
		currentHash, update, resource = staff.PasswordHash, s.staff.UpdatePassword, models.AuditResourceStaff
	case models.PrincipalLearner:
		account, err := s.learners.FindByID(ctx, actor.ID)
		if err != nil {
			return inactiveOr(err)
		}
		currentHash, update, resource = account.PasswordHash, s.learners.UpdatePassword, models.AuditResourceLearnerLogin
	default:
		return appErrors.ErrUnauthorized
	}

	if !s.hasher.Verify(req.CurrentPassword, currentHash) {
		return appErrors.Clone(appErrors.ErrUnauthorized, "current password is incorrect")
	}

	newHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	if err := update(ctx, actor.ID, newHash, time.Now().UTC()); err != nil {
		return inactiveOr(err)
	}

	s.audit.record(ctx, actor, models.AuditActionPasswordChange, resource, actor.ID, nil)
	return nil
}

// RegisterStaff creates a staff account. Role gating happens at the route.
func (s *AuthService) RegisterStaff(ctx context.Context, actor models.Actor, req models.RegisterStaffRequest) (*models.StaffAccount, error) {
	if err := validation.Struct(s.validator, req, "invalid registration payload"); err != nil {
		return nil, err
	}

	taken, err := s.staff.UsernameTaken(ctx, req.Username)
	if err != nil {
		return nil, storageError(err, "failed to check username")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	}
	taken, err = s.staff.EmailTaken(ctx, req.Email, "")
	if err != nil {
		return nil, storageError(err, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.StaffRoleTeacher
	}
	mustChange := true
	if req.MustChangePassword != nil {
		mustChange = *req.MustChangePassword
	}

	staff := &models.StaffAccount{
		Username:           req.Username,
		Email:              req.Email,
		PasswordHash:       hash,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Phone:              req.Phone,
		Role:               role,
		MustChangePassword: mustChange,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, storageError(err, "failed to create account")
	}

	s.audit.record(ctx, actor, models.AuditActionStaffRegister, models.AuditResourceStaff, staff.ID, map[string]interface{}{"role": role})
	return staff, nil
}

// inactiveOr maps a missing or inactive account to UNAUTHORIZED and classifies other failures.
func inactiveOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrUnauthorized, "account not found or inactive")
	}
	return storageError(err, "failed to load account")
}

func staffInfo(staff *models.StaffAccount) models.PrincipalInfo {
	return models.PrincipalInfo{
		ID:                 staff.ID,
		Username:           staff.Username,
		Kind:               models.PrincipalStaff,
		StaffRole:          staff.Role,
		FullName:           staff.FullName(),
		Email:              staff.Email,
		MustChangePassword: staff.MustChangePassword,
	}
}

func learnerInfo(account *models.LearnerAccountDetail) models.PrincipalInfo {
	return models.PrincipalInfo{
		ID:                 account.ID,
		Username:           account.Username,
		Kind:               models.PrincipalLearner,
		FullName:           account.FullName,
		StudentID:          account.StudentID,
		ClassID:            account.ClassID,
		ClassName:          account.ClassName,
		MustChangePassword: account.MustChangePassword,
	}
}
