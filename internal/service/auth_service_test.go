package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type mockStaffRepo struct {
	byID          map[string]*models.StaffAccount
	findErr       error
	usernameTaken bool
	emailTaken    bool
	createErr     error
	created       []*models.StaffAccount
	updated       map[string]string
	profileSaved  *models.StaffAccount
}

func newMockStaffRepo(accounts ...*models.StaffAccount) *mockStaffRepo {
	m := &mockStaffRepo{byID: map[string]*models.StaffAccount{}, updated: map[string]string{}}
	for _, a := range accounts {
		m.byID[a.ID] = a
	}
	return m
}

func (m *mockStaffRepo) FindByID(ctx context.Context, id string) (*models.StaffAccount, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	a, ok := m.byID[id]
	if !ok || !a.IsActive {
		return nil, sql.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (m *mockStaffRepo) FindByUsername(ctx context.Context, username string) (*models.StaffAccount, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, a := range m.byID {
		if a.Username == username && a.IsActive {
			clone := *a
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStaffRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return m.usernameTaken, nil
}

func (m *mockStaffRepo) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	return m.emailTaken, nil
}

func (m *mockStaffRepo) Create(ctx context.Context, staff *models.StaffAccount) error {
	if m.createErr != nil {
		return m.createErr
	}
	staff.ID = "new-staff"
	staff.IsActive = true
	m.created = append(m.created, staff)
	return nil
}

func (m *mockStaffRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	a, ok := m.byID[id]
	if !ok || !a.IsActive {
		return sql.ErrNoRows
	}
	a.PasswordHash = passwordHash
	a.MustChangePassword = false
	m.updated[id] = passwordHash
	return nil
}

func (m *mockStaffRepo) UpdateProfile(ctx context.Context, staff *models.StaffAccount) error {
	if _, ok := m.byID[staff.ID]; !ok {
		return sql.ErrNoRows
	}
	m.profileSaved = staff
	return nil
}

type mockLearnerAccountRepo struct {
	byID      map[string]*models.LearnerAccountDetail
	lastLogin map[string]time.Time
	updated   map[string]string
}

func newMockLearnerAccountRepo(accounts ...*models.LearnerAccountDetail) *mockLearnerAccountRepo {
	m := &mockLearnerAccountRepo{byID: map[string]*models.LearnerAccountDetail{}, lastLogin: map[string]time.Time{}, updated: map[string]string{}}
	for _, a := range accounts {
		m.byID[a.ID] = a
	}
	return m
}

func (m *mockLearnerAccountRepo) FindByID(ctx context.Context, id string) (*models.LearnerAccountDetail, error) {
	a, ok := m.byID[id]
	if !ok || !a.IsActive {
		return nil, sql.ErrNoRows
	}
	clone := *a
	return &clone, nil
}

func (m *mockLearnerAccountRepo) FindByUsername(ctx context.Context, username string) (*models.LearnerAccountDetail, error) {
	for _, a := range m.byID {
		if a.Username == username && a.IsActive {
			clone := *a
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockLearnerAccountRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	a, ok := m.byID[id]
	if !ok || !a.IsActive {
		return sql.ErrNoRows
	}
	a.PasswordHash = passwordHash
	a.MustChangePassword = false
	m.updated[id] = passwordHash
	return nil
}

func (m *mockLearnerAccountRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLogin[id] = ts
	return nil
}

type authFixture struct {
	svc      *AuthService
	staff    *mockStaffRepo
	learners *mockLearnerAccountRepo
	audit    *mockAuditRepo
	hasher   *PasswordHasher
	metrics  *MetricsService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	hasher := fastHasher()
	admin := &models.StaffAccount{
		ID: "t-admin", Username: "admin", Email: "admin@school.test", FirstName: "Ada", LastName: "Admin",
		PasswordHash: mustHash(hasher, "pwd1234"), Role: models.StaffRoleAdmin, MustChangePassword: true, IsActive: true,
	}
	retired := &models.StaffAccount{
		ID: "t-retired", Username: "retired", PasswordHash: mustHash(hasher, "pwd1234"), Role: models.StaffRoleTeacher, IsActive: false,
	}
	classID, className := "c-1", "Math A"
	learner := &models.LearnerAccountDetail{
		LearnerAccount: models.LearnerAccount{ID: "sl-1", StudentID: "s-1", Username: "dana", PasswordHash: mustHash(hasher, "student1234"), MustChangePassword: true, IsActive: true},
		FullName:       "Dana Levi",
		ClassID:        &classID,
		ClassName:      &className,
	}

	staff := newMockStaffRepo(admin, retired)
	learners := newMockLearnerAccountRepo(learner)
	audit := &mockAuditRepo{}
	metrics := NewMetricsService()
	tokens := NewTokenService(TokenConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "school-admin-api"})

	svc := NewAuthService(staff, learners, audit, hasher, tokens, metrics, nil, zap.NewNop())
	return &authFixture{svc: svc, staff: staff, learners: learners, audit: audit, hasher: hasher, metrics: metrics}
}

func TestAuthServiceLoginStaffSuccess(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.LoginStaff(context.Background(), models.LoginRequest{Username: "admin", Password: "pwd1234", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.True(t, res.MustChangePassword)
	assert.Equal(t, models.PrincipalStaff, res.Principal.Kind)
	assert.Equal(t, models.StaffRoleAdmin, res.Principal.StaffRole)
	assert.Equal(t, "Ada Admin", res.Principal.FullName)

	claims, err := f.svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "t-admin", claims.UserID)
	assert.True(t, claims.MustChangePassword)

	assert.Equal(t, []string{models.AuditActionLogin}, f.audit.actions())
	assert.Equal(t, "10.0.0.1", f.audit.logs[0].IPAddress)
}

func TestAuthServiceLoginStaffFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)

	cases := map[string]models.LoginRequest{
		"wrong password":   {Username: "admin", Password: "wrong-pass"},
		"unknown username": {Username: "nobody", Password: "pwd1234"},
		"inactive account": {Username: "retired", Password: "pwd1234"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.LoginStaff(context.Background(), req)
			require.Error(t, err)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
			assert.Equal(t, appErrors.ErrInvalidCredentials.Message, appErr.Message)
		})
	}
	assert.Empty(t, f.audit.logs)
}

func TestAuthServiceLoginValidation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.LoginStaff(context.Background(), models.LoginRequest{Username: "ad", Password: "pwd"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Len(t, appErr.Details, 2)
}

func TestAuthServiceLoginStorageUnavailable(t *testing.T) {
	f := newAuthFixture(t)
	f.staff.findErr = context.DeadlineExceeded

	_, err := f.svc.LoginStaff(context.Background(), models.LoginRequest{Username: "admin", Password: "pwd1234"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStorageUnavailable.Code))
}

func TestAuthServiceLoginLearner(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.LoginLearner(context.Background(), models.LoginRequest{Username: "dana", Password: "student1234"})
	require.NoError(t, err)
	assert.Equal(t, models.PrincipalLearner, res.Principal.Kind)
	assert.Empty(t, res.Principal.StaffRole)
	require.NotNil(t, res.Principal.ClassName)
	assert.Equal(t, "Math A", *res.Principal.ClassName)
	assert.True(t, res.MustChangePassword)
	assert.Contains(t, f.learners.lastLogin, "sl-1")

	claims, err := f.svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.PrincipalLearner, claims.Role)

	_, err = f.svc.LoginLearner(context.Background(), models.LoginRequest{Username: "dana", Password: "wrong-pass"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials.Code))

	// staff credentials are not accepted on the learner path
	_, err = f.svc.LoginLearner(context.Background(), models.LoginRequest{Username: "admin", Password: "pwd1234"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials.Code))
}

func TestAuthServiceChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	actor := models.Actor{ID: "t-admin", Kind: models.PrincipalStaff, StaffRole: models.StaffRoleAdmin}

	err := f.svc.ChangePassword(context.Background(), actor, models.ChangePasswordRequest{CurrentPassword: "pwd1234", NewPassword: "newpass1"})
	require.NoError(t, err)

	stored := f.staff.byID["t-admin"]
	assert.False(t, stored.MustChangePassword)
	assert.True(t, f.hasher.Verify("newpass1", stored.PasswordHash))
	assert.False(t, f.hasher.Verify("pwd1234", stored.PasswordHash))
	assert.Equal(t, []string{models.AuditActionPasswordChange}, f.audit.actions())

	res, err := f.svc.LoginStaff(context.Background(), models.LoginRequest{Username: "admin", Password: "newpass1"})
	require.NoError(t, err)
	assert.False(t, res.MustChangePassword)
}

func TestAuthServiceChangePasswordRejections(t *testing.T) {
	f := newAuthFixture(t)
	staff := models.Actor{ID: "t-admin", Kind: models.PrincipalStaff}

	err := f.svc.ChangePassword(context.Background(), staff, models.ChangePasswordRequest{CurrentPassword: "wrong-pass", NewPassword: "newpass1"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized.Code))

	err = f.svc.ChangePassword(context.Background(), staff, models.ChangePasswordRequest{CurrentPassword: "pwd1234", NewPassword: "short"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))

	gone := models.Actor{ID: "t-retired", Kind: models.PrincipalStaff}
	err = f.svc.ChangePassword(context.Background(), gone, models.ChangePasswordRequest{CurrentPassword: "pwd1234", NewPassword: "newpass1"})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized.Code))

	assert.Empty(t, f.staff.updated)
}

func TestAuthServiceChangePasswordLearner(t *testing.T) {
	f := newAuthFixture(t)
	actor := models.Actor{ID: "sl-1", Kind: models.PrincipalLearner}

	err := f.svc.ChangePassword(context.Background(), actor, models.ChangePasswordRequest{CurrentPassword: "student1234", NewPassword: "mine-now"})
	require.NoError(t, err)
	assert.False(t, f.learners.byID["sl-1"].MustChangePassword)
	assert.Contains(t, f.learners.updated, "sl-1")
}

func TestAuthServiceVerifyUsesFreshAccount(t *testing.T) {
	f := newAuthFixture(t)

	res, err := f.svc.LoginStaff(context.Background(), models.LoginRequest{Username: "admin", Password: "pwd1234"})
	require.NoError(t, err)
	claims, err := f.svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)

	verified, err := f.svc.Verify(context.Background(), claims)
	require.NoError(t, err)
	assert.True(t, verified.Valid)
	assert.Equal(t, "admin@school.test", verified.Principal.Email)

	f.staff.byID["t-admin"].IsActive = false
	_, err = f.svc.Verify(context.Background(), claims)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized.Code))
}

func TestAuthServiceRegisterStaff(t *testing.T) {
	f := newAuthFixture(t)
	actor := models.Actor{ID: "t-admin", Kind: models.PrincipalStaff, StaffRole: models.StaffRoleAdmin}

	created, err := f.svc.RegisterStaff(context.Background(), actor, models.RegisterStaffRequest{
		Username: "mrcohen", Email: "cohen@school.test", Password: "secret1", FirstName: "Avi", LastName: "Cohen",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StaffRoleTeacher, created.Role)
	assert.True(t, created.MustChangePassword)
	assert.True(t, f.hasher.Verify("secret1", created.PasswordHash))
	assert.Equal(t, []string{models.AuditActionStaffRegister}, f.audit.actions())

	mustChange := false
	created, err = f.svc.RegisterStaff(context.Background(), actor, models.RegisterStaffRequest{
		Username: "boss", Email: "boss@school.test", Password: "secret1", FirstName: "B", LastName: "Oss",
		Role: models.StaffRoleAdmin, MustChangePassword: &mustChange,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StaffRoleAdmin, created.Role)
	assert.False(t, created.MustChangePassword)
}

func TestAuthServiceRegisterStaffConflicts(t *testing.T) {
	f := newAuthFixture(t)
	actor := models.Actor{ID: "t-admin", Kind: models.PrincipalStaff}
	req := models.RegisterStaffRequest{Username: "mrcohen", Email: "cohen@school.test", Password: "secret1", FirstName: "Avi", LastName: "Cohen"}

	f.staff.usernameTaken = true
	_, err := f.svc.RegisterStaff(context.Background(), actor, req)
	require.Error(t, err)
	assert.Equal(t, "username already exists", appErrors.FromError(err).Message)

	f.staff.usernameTaken = false
	f.staff.emailTaken = true
	_, err = f.svc.RegisterStaff(context.Background(), actor, req)
	assert.Equal(t, "email already exists", appErrors.FromError(err).Message)

	// a concurrent insert that slips past the pre-check still maps to CONFLICT
	f.staff.emailTaken = false
	f.staff.createErr = &pq.Error{Code: "23505", Constraint: "teachers_username_active_key"}
	_, err = f.svc.RegisterStaff(context.Background(), actor, req)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "username already exists", appErr.Message)

	f.staff.createErr = errors.New("boom")
	_, err = f.svc.RegisterStaff(context.Background(), actor, req)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal.Code))
}

func TestAuthServiceRegisterStaffRejectsUnknownRole(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.RegisterStaff(context.Background(), models.Actor{ID: "t-admin"}, models.RegisterStaffRequest{
		Username: "mrcohen", Email: "cohen@school.test", Password: "secret1", FirstName: "Avi", LastName: "Cohen", Role: "principal",
	})
	assert.True(t, appErrors.HasCode(err, appErrors.ErrValidation.Code))
}
