package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/internal/service"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type testServer struct {
	engine *gin.Engine
	mock   sqlmock.Sqlmock
	tokens *service.TokenService
	hasher *service.PasswordHasher
}

func newTestServer(t *testing.T, checks map[string]Pinger) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	db := sqlx.NewDb(raw, "sqlmock")

	staff := repository.NewStaffRepository(db)
	logins := repository.NewStudentLoginRepository(db)
	classes := repository.NewClassRepository(db, time.Second)
	students := repository.NewStudentRepository(db, time.Second)
	schools := repository.NewSchoolRepository(db)

	hasher := service.NewPasswordHasher(bcrypt.MinCost)
	tokens := service.NewTokenService(service.TokenConfig{Secret: "router-test", Expiry: time.Hour, Issuer: "school-admin-api"})
	metrics := service.NewMetricsService()

	authSvc := service.NewAuthService(staff, logins, nil, hasher, tokens, metrics, nil, nil)
	classSvc := service.NewClassService(classes, schools, students, nil, metrics, nil, nil)
	studentSvc := service.NewStudentService(students, classes, logins, nil, hasher, metrics, nil, nil, service.StudentServiceConfig{})
	schoolSvc := service.NewSchoolService(schools, nil, time.Minute, nil, nil, nil)
	teacherSvc := service.NewTeacherService(staff, classes, students, nil, nil)
	exportSvc := service.NewExportService(classes, students, service.ExportConfig{}, nil, nil, nil)

	engine := gin.New()
	Register(engine, "/api", Routes{
		Auth:     NewAuthHandler(authSvc),
		Classes:  NewClassHandler(classSvc, exportSvc),
		Students: NewStudentHandler(studentSvc),
		Schools:  NewSchoolHandler(schoolSvc),
		Teachers: NewTeacherHandler(teacherSvc),
		Metrics:  NewMetricsHandler(metrics, checks, nil),
		Tokens:   tokens,
	})
	return &testServer{engine: engine, mock: mock, tokens: tokens, hasher: hasher}
}

func (s *testServer) token(t *testing.T, subject service.TokenSubject) string {
	t.Helper()
	token, _, err := s.tokens.Issue(subject)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func staffSubject(id string, role models.StaffRole) service.TokenSubject {
	return service.TokenSubject{ID: id, Username: id, Kind: models.PrincipalStaff, StaffRole: role}
}

func TestRouterAdminLogin(t *testing.T) {
	srv := newTestServer(t, nil)
	digest, err := srv.hasher.Hash("pwd1234")
	require.NoError(t, err)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "first_name", "last_name", "phone", "role", "must_change_password", "is_active", "created_at", "updated_at"}).
		AddRow("staff-admin", "admin", "admin@example.com", digest, "System", "Admin", nil, "admin", false, true, now, now)
	srv.mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE is_active = TRUE AND username = $1")).
		WithArgs("admin").
		WillReturnRows(rows)

	rec := srv.do(http.MethodPost, "/api/auth/teacher/login", "", `{"username":"admin","password":"pwd1234"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body models.LoginResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &body))
	assert.Equal(t, "Bearer", body.TokenType)
	assert.Equal(t, models.StaffRoleAdmin, body.Principal.StaffRole)
	assert.NotContains(t, rec.Body.String(), digest)

	claims, err := srv.tokens.Verify(body.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "staff-admin", claims.UserID)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestRouterLoginUnknownUser(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE is_active = TRUE AND username = $1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := srv.do(http.MethodPost, "/api/auth/teacher/login", "", `{"username":"ghost","password":"pwd1234"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestRouterRejectsUnknownProfession(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.token(t, staffSubject("staff-a", models.StaffRoleTeacher))

	rec := srv.do(http.MethodPost, "/api/classes", token, `{"class_name":"י1","school_name":"Ort","profession":"רפואה"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
	require.NotEmpty(t, env.Error.Details)
	assert.Equal(t, "profession", env.Error.Details[0].Field)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

const classOfA = "b4e0d6c2-1f3a-4c8b-9e7d-6a5f4e3d2c1b"

func TestRouterForeignClassDeleteIsNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.token(t, staffSubject("staff-b", models.StaffRoleTeacher))

	srv.mock.ExpectBegin()
	srv.mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET is_active = FALSE")).
		WithArgs(classOfA, "staff-b", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	srv.mock.ExpectRollback()

	rec := srv.do(http.MethodDelete, "/api/classes/"+classOfA, token, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "class not found", decodeEnvelope(t, rec).Error.Message)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestRouterMalformedIDsNeverReachStorage(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.token(t, staffSubject("staff-a", models.StaffRoleTeacher))

	cases := []struct {
		method string
		path   string
		status int
		code   string
	}{
		{http.MethodDelete, "/api/classes/abc", http.StatusNotFound, appErrors.ErrNotFound.Code},
		{http.MethodGet, "/api/classes/abc/roster", http.StatusNotFound, appErrors.ErrNotFound.Code},
		{http.MethodGet, "/api/students/abc", http.StatusNotFound, appErrors.ErrNotFound.Code},
		{http.MethodDelete, "/api/schools/abc", http.StatusNotFound, appErrors.ErrNotFound.Code},
		{http.MethodGet, "/api/students?class_id=abc", http.StatusBadRequest, appErrors.ErrValidation.Code},
		{http.MethodGet, "/api/teachers/students?class_id=abc", http.StatusBadRequest, appErrors.ErrValidation.Code},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := srv.do(tc.method, tc.path, token, "")
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decodeEnvelope(t, rec).Error.Code)
		})
	}
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestRouterOwnClassDeleteCascades(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.token(t, staffSubject("staff-a", models.StaffRoleTeacher))

	srv.mock.ExpectBegin()
	srv.mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET is_active = FALSE")).
		WithArgs(classUUID, "staff-a", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	srv.mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET class_id = NULL")).
		WithArgs(classUUID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))
	srv.mock.ExpectCommit()

	rec := srv.do(http.MethodDelete, "/api/classes/"+classUUID, token, "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestRouterGuards(t *testing.T) {
	srv := newTestServer(t, nil)
	learner := srv.token(t, service.TokenSubject{ID: "login-1", Username: "ayu", Kind: models.PrincipalLearner})
	teacher := srv.token(t, staffSubject("staff-a", models.StaffRoleTeacher))

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
	}{
		{"no token", http.MethodGet, "/api/classes", "", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/classes", "not-a-jwt", "", http.StatusUnauthorized},
		{"learner on staff route", http.MethodGet, "/api/classes", learner, "", http.StatusForbidden},
		{"teacher registering staff", http.MethodPost, "/api/auth/teacher/register", teacher, `{}`, http.StatusForbidden},
		{"professions not shadowed by id", http.MethodGet, "/api/classes/meta/professions", teacher, "", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := srv.do(tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestRouterProbes(t *testing.T) {
	srv := newTestServer(t, map[string]Pinger{
		"postgres": PingerFunc(func(context.Context) error { return nil }),
		"redis":    PingerFunc(func(context.Context) error { return errors.New("dial tcp: refused") }),
	})

	rec := srv.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(http.MethodGet, "/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body.Status)
	assert.Equal(t, "up", body.Checks["postgres"])
	assert.Equal(t, "down", body.Checks["redis"])

	rec = srv.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goroutines_total")
}
