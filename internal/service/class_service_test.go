package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/database"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type mockClassRepo struct {
	classes       map[string]*models.Class
	studentsOf    map[string][]models.LearnerProfile
	deactivateErr error
	nextID        int
}

func newMockClassRepo() *mockClassRepo {
	return &mockClassRepo{classes: map[string]*models.Class{}, studentsOf: map[string][]models.LearnerProfile{}}
}

func (m *mockClassRepo) add(id, teacherID string) *models.Class {
	c := &models.Class{ID: id, TeacherID: teacherID, ClassName: "Class " + id, SchoolName: "Herzl High", Profession: "מתמטיקה", AcademicYear: "2026", MaxStudents: 30, IsActive: true}
	m.classes[id] = c
	return c
}

func (m *mockClassRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassDetail, error) {
	var out []models.ClassDetail
	for _, c := range m.classes {
		if c.TeacherID == teacherID && c.IsActive {
			out = append(out, models.ClassDetail{Class: *c, StudentCount: len(m.studentsOf[c.ID])})
		}
	}
	return out, nil
}

func (m *mockClassRepo) FindOwned(ctx context.Context, id, teacherID string) (*models.ClassDetail, error) {
	c, ok := m.classes[id]
	if !ok || !c.IsActive || c.TeacherID != teacherID {
		return nil, sql.ErrNoRows
	}
	return &models.ClassDetail{Class: *c, StudentCount: len(m.studentsOf[id])}, nil
}

func (m *mockClassRepo) IsOwnedActive(ctx context.Context, id, teacherID string) (bool, error) {
	_, err := m.FindOwned(ctx, id, teacherID)
	return err == nil, nil
}

func (m *mockClassRepo) CountActiveByTeacher(ctx context.Context, teacherID string) (int, error) {
	list, _ := m.ListByTeacher(ctx, teacherID)
	return len(list), nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	m.nextID++
	class.ID = "c-new-" + strconv.Itoa(m.nextID)
	class.IsActive = true
	clone := *class
	m.classes[class.ID] = &clone
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	c, ok := m.classes[class.ID]
	if !ok || !c.IsActive || c.TeacherID != class.TeacherID {
		return sql.ErrNoRows
	}
	clone := *class
	clone.IsActive = true
	m.classes[class.ID] = &clone
	return nil
}

func (m *mockClassRepo) Deactivate(ctx context.Context, id, teacherID string) (int64, error) {
	if m.deactivateErr != nil {
		return 0, m.deactivateErr
	}
	c, ok := m.classes[id]
	if !ok || !c.IsActive || c.TeacherID != teacherID {
		return 0, sql.ErrNoRows
	}
	c.IsActive = false
	detached := int64(len(m.studentsOf[id]))
	delete(m.studentsOf, id)
	return detached, nil
}

func (m *mockClassRepo) ListByClass(ctx context.Context, classID string) ([]models.LearnerProfile, error) {
	return m.studentsOf[classID], nil
}

type mockSchoolChecker map[string]bool

func (m mockSchoolChecker) ExistsActive(ctx context.Context, id string) (bool, error) {
	return m[id], nil
}

type classFixture struct {
	svc     *ClassService
	repo    *mockClassRepo
	audit   *mockAuditRepo
	metrics *MetricsService
}

const activeSchoolID = "5f0c3c1e-8a55-4e4e-9b1a-2f6d1f7f0a11"

func newClassFixture() *classFixture {
	repo := newMockClassRepo()
	audit := &mockAuditRepo{}
	metrics := NewMetricsService()
	svc := NewClassService(repo, mockSchoolChecker{activeSchoolID: true}, repo, audit, metrics, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC) }
	return &classFixture{svc: svc, repo: repo, audit: audit, metrics: metrics}
}

func validClassRequest() models.ClassRequest {
	return models.ClassRequest{ClassName: "Math A", SchoolName: "Herzl High", Profession: "מתמטיקה"}
}

func TestClassServiceCreateAppliesDefaults(t *testing.T) {
	f := newClassFixture()

	class, err := f.svc.Create(context.Background(), models.Actor{ID: "t-1"}, validClassRequest())
	require.NoError(t, err)
	assert.Equal(t, "t-1", class.TeacherID)
	assert.Equal(t, "2026", class.AcademicYear)
	assert.Equal(t, models.DefaultMaxStudents, class.MaxStudents)
	assert.True(t, f.repo.classes[class.ID].IsActive)
}

func TestClassServiceCreateRejectsUnknownProfession(t *testing.T) {
	f := newClassFixture()
	req := validClassRequest()
	req.Profession = "רפואה"

	_, err := f.svc.Create(context.Background(), models.Actor{ID: "t-1"}, req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "profession", appErr.Details[0].Field)
	assert.Empty(t, f.repo.classes)
}

func TestClassServiceCreateValidatesFields(t *testing.T) {
	f := newClassFixture()

	cases := map[string]struct {
		mutate func(*models.ClassRequest)
		field  string
	}{
		"max students too high": {func(r *models.ClassRequest) { r.MaxStudents = intPtr(51) }, "max_students"},
		"max students zero":     {func(r *models.ClassRequest) { r.MaxStudents = intPtr(0) }, "max_students"},
		"academic year format":  {func(r *models.ClassRequest) { r.AcademicYear = strPtr("26") }, "academic_year"},
		"class name too short":  {func(r *models.ClassRequest) { r.ClassName = "A" }, "class_name"},
		"school id not uuid":    {func(r *models.ClassRequest) { r.SchoolID = strPtr("abc") }, "school_id"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := validClassRequest()
			tc.mutate(&req)
			_, err := f.svc.Create(context.Background(), models.Actor{ID: "t-1"}, req)
			appErr := appErrors.FromError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			require.NotEmpty(t, appErr.Details)
			assert.Equal(t, tc.field, appErr.Details[0].Field)
		})
	}
}

func TestClassServiceCreateChecksLinkedSchool(t *testing.T) {
	f := newClassFixture()

	req := validClassRequest()
	req.SchoolID = strPtr(activeSchoolID)
	req.MaxStudents = intPtr(50)
	class, err := f.svc.Create(context.Background(), models.Actor{ID: "t-1"}, req)
	require.NoError(t, err)
	assert.Equal(t, 50, class.MaxStudents)

	req.SchoolID = strPtr("0b7c1f3e-1111-4e4e-9b1a-2f6d1f7f0a11")
	_, err = f.svc.Create(context.Background(), models.Actor{ID: "t-1"}, req)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "school_id", appErr.Details[0].Field)
}

func TestClassServiceOwnershipScoping(t *testing.T) {
	f := newClassFixture()
	f.repo.add("c-a", "t-a")

	_, err := f.svc.Get(context.Background(), "t-b", "c-a")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))

	_, err = f.svc.Update(context.Background(), models.Actor{ID: "t-b"}, "c-a", validClassRequest())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))

	err = f.svc.Delete(context.Background(), models.Actor{ID: "t-b"}, "c-a")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
	assert.True(t, f.repo.classes["c-a"].IsActive)

	_, err = f.svc.Students(context.Background(), "t-b", "c-a")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))

	list, err := f.svc.List(context.Background(), "t-b")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.audit.logs)
}

func TestClassServiceDeleteCascades(t *testing.T) {
	f := newClassFixture()
	f.repo.add("c-a", "t-a")
	f.repo.studentsOf["c-a"] = []models.LearnerProfile{{ID: "s-1"}, {ID: "s-2"}}

	err := f.svc.Delete(context.Background(), models.Actor{ID: "t-a", Kind: models.PrincipalStaff}, "c-a")
	require.NoError(t, err)
	assert.False(t, f.repo.classes["c-a"].IsActive)
	assert.Equal(t, []string{models.AuditActionClassDelete}, f.audit.actions())
	assert.JSONEq(t, `{"students_detached":2}`, string(f.audit.logs[0].Metadata))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.cascades.WithLabelValues(cascadeClassDelete, OutcomeSuccess)))

	err = f.svc.Delete(context.Background(), models.Actor{ID: "t-a"}, "c-a")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.cascades.WithLabelValues(cascadeClassDelete, OutcomeRejected)))
}

func TestClassServiceDeleteStorageFailures(t *testing.T) {
	f := newClassFixture()
	f.repo.add("c-a", "t-a")

	f.repo.deactivateErr = database.ErrStorageUnavailable
	err := f.svc.Delete(context.Background(), models.Actor{ID: "t-a"}, "c-a")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStorageUnavailable.Code))

	f.repo.deactivateErr = errors.New("detach failed")
	err = f.svc.Delete(context.Background(), models.Actor{ID: "t-a"}, "c-a")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrInternal.Code))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.cascades.WithLabelValues(cascadeClassDelete, OutcomeFailure)))
}

func TestClassServiceUpdateOwned(t *testing.T) {
	f := newClassFixture()
	f.repo.add("c-a", "t-a")

	req := validClassRequest()
	req.ClassName = "Math B"
	req.AcademicYear = strPtr("2027")
	class, err := f.svc.Update(context.Background(), models.Actor{ID: "t-a"}, "c-a", req)
	require.NoError(t, err)
	assert.Equal(t, "Math B", class.ClassName)
	assert.Equal(t, "2027", f.repo.classes["c-a"].AcademicYear)
}

func TestClassServiceProfessionsIsACopy(t *testing.T) {
	f := newClassFixture()
	list := f.svc.Professions()
	require.Len(t, list, 13)
	list[0] = "changed"
	assert.Equal(t, "מתמטיקה", models.Professions[0])
}
