package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

const classUUID = "3f1c2b9e-6a4d-4e1f-9b2a-7c5d8e0f1a21"

type fakeClassService struct {
	classes     []models.ClassDetail
	deleteErr   error
	deletedID   string
	deleteActor models.Actor
	teacherID   string
}

func (f *fakeClassService) List(_ context.Context, teacherID string) ([]models.ClassDetail, error) {
	f.teacherID = teacherID
	return f.classes, nil
}

func (f *fakeClassService) Get(_ context.Context, teacherID, id string) (*models.ClassDetail, error) {
	for _, cls := range f.classes {
		if cls.ID == id && cls.TeacherID == teacherID {
			out := cls
			return &out, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
}

func (f *fakeClassService) Students(context.Context, string, string) ([]models.LearnerProfile, error) {
	return nil, nil
}

func (f *fakeClassService) Create(_ context.Context, actor models.Actor, req models.ClassRequest) (*models.Class, error) {
	return &models.Class{ID: "new", TeacherID: actor.ID, ClassName: req.ClassName, Profession: req.Profession}, nil
}

func (f *fakeClassService) Update(_ context.Context, actor models.Actor, id string, req models.ClassRequest) (*models.Class, error) {
	return &models.Class{ID: id, TeacherID: actor.ID, ClassName: req.ClassName}, nil
}

func (f *fakeClassService) Delete(_ context.Context, actor models.Actor, id string) error {
	f.deleteActor, f.deletedID = actor, id
	return f.deleteErr
}

func (f *fakeClassService) Professions() []string {
	return []string{"כללי", "מתמטיקה"}
}

type fakeRoster struct {
	format dto.RosterFormat
	file   *dto.RosterFile
	err    error
}

func (f *fakeRoster) Roster(_ context.Context, _, _ string, format dto.RosterFormat) (*dto.RosterFile, error) {
	f.format = format
	return f.file, f.err
}

func TestClassHandlerListRendersEmptyArray(t *testing.T) {
	svc := &fakeClassService{}
	h := NewClassHandler(svc, &fakeRoster{})
	c, rec := newContext(http.MethodGet, "/classes", "")
	withStaff(c, "staff-a", models.StaffRoleTeacher)

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "staff-a", svc.teacherID)
	assert.JSONEq(t, `[]`, string(decodeEnvelope(t, rec).Data))
}

func TestClassHandlerGetScopesToCaller(t *testing.T) {
	svc := &fakeClassService{classes: []models.ClassDetail{{Class: models.Class{ID: classUUID, TeacherID: "staff-a"}}}}
	h := NewClassHandler(svc, &fakeRoster{})

	c, rec := newContext(http.MethodGet, "/classes/c1", "")
	c.AddParam("id", classUUID)
	withStaff(c, "staff-b", models.StaffRoleAdmin)
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassHandlerProfessions(t *testing.T) {
	h := NewClassHandler(&fakeClassService{}, &fakeRoster{})
	c, rec := newContext(http.MethodGet, "/classes/meta/professions", "")
	withStaff(c, "staff-a", models.StaffRoleTeacher)

	h.Professions(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var professions []string
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &professions))
	assert.Contains(t, professions, "כללי")
}

func TestClassHandlerDelete(t *testing.T) {
	svc := &fakeClassService{}
	h := NewClassHandler(svc, &fakeRoster{})
	c, rec := newContext(http.MethodDelete, "/classes/c1", "")
	c.AddParam("id", classUUID)
	withStaff(c, "staff-a", models.StaffRoleTeacher)

	h.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, classUUID, svc.deletedID)
	assert.Equal(t, "staff-a", svc.deleteActor.ID)
}

func TestClassHandlerDeleteStorageUnavailable(t *testing.T) {
	h := NewClassHandler(&fakeClassService{deleteErr: appErrors.ErrStorageUnavailable}, &fakeRoster{})
	c, rec := newContext(http.MethodDelete, "/classes/c1", "")
	c.AddParam("id", classUUID)
	withStaff(c, "staff-a", models.StaffRoleTeacher)

	h.Delete(c)

	assert.Equal(t, appErrors.ErrStorageUnavailable.Status, rec.Code)
	assert.Equal(t, appErrors.ErrStorageUnavailable.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestClassHandlerRosterAttachment(t *testing.T) {
	roster := &fakeRoster{file: &dto.RosterFile{
		Filename:    "roster-c1-20240101.csv",
		ContentType: "text/csv; charset=utf-8",
		Content:     []byte("full_name\nAyu\n"),
	}}
	h := NewClassHandler(&fakeClassService{}, roster)
	c, rec := newContext(http.MethodGet, "/classes/c1/roster?format=csv", "")
	c.AddParam("id", classUUID)
	withStaff(c, "staff-a", models.StaffRoleTeacher)

	h.Roster(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.RosterFormat("csv"), roster.format)
	assert.Equal(t, `attachment; filename="roster-c1-20240101.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "full_name\nAyu\n", rec.Body.String())
}

func TestClassHandlerRosterError(t *testing.T) {
	h := NewClassHandler(&fakeClassService{}, &fakeRoster{err: appErrors.Clone(appErrors.ErrNotFound, "class not found")})
	c, rec := newContext(http.MethodGet, "/classes/c1/roster", "")
	c.AddParam("id", classUUID)
	withStaff(c, "staff-a", models.StaffRoleTeacher)

	h.Roster(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestClassHandlerMalformedIDIsNotFound(t *testing.T) {
	svc := &fakeClassService{}
	roster := &fakeRoster{}
	h := NewClassHandler(svc, roster)

	for name, call := range map[string]gin.HandlerFunc{
		"get":      h.Get,
		"students": h.Students,
		"update":   h.Update,
		"delete":   h.Delete,
		"roster":   h.Roster,
	} {
		t.Run(name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/classes/abc", `{"class_name":"Math","school_name":"Ort","profession":"כללי"}`)
			c.AddParam("id", "abc")
			withStaff(c, "staff-a", models.StaffRoleTeacher)

			call(c)

			require.Equal(t, http.StatusNotFound, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)
			assert.Equal(t, "class not found", env.Error.Message)
		})
	}
	assert.Empty(t, svc.deletedID)
	assert.Empty(t, roster.format)
}
