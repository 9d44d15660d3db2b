package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, teacherID string, filter models.LearnerFilter) ([]models.LearnerDetail, *models.Pagination, error)
	Get(ctx context.Context, teacherID, id string) (*models.LearnerDetail, error)
	Create(ctx context.Context, actor models.Actor, req models.LearnerRequest) (*models.LearnerProfile, error)
	Update(ctx context.Context, actor models.Actor, id string, req models.LearnerRequest) (*models.LearnerProfile, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	AssignClass(ctx context.Context, actor models.Actor, id string, req models.AssignClassRequest) error
	CreateLogin(ctx context.Context, actor models.Actor, id string, req models.CreateLearnerAccountRequest) (*models.LearnerAccount, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(svc studentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// List godoc
// @Summary List students
// @Description Students in the caller's classes plus unassigned students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param class_id query string false "Filter by class"
// @Param search query string false "Search by name or student id"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	classID, ok := queryID(c, "class_id")
	if !ok {
		return
	}
	filter := models.LearnerFilter{
		ClassID: classID,
		Search:  strings.TrimSpace(c.Query("search")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil {
		filter.PageSize = size
	}

	students, pagination, err := h.service.List(c.Request.Context(), actor.ID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nonNil(students), pagination)
}

// Get godoc
// @Summary Get student
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "student not found")
	if !ok {
		return
	}
	student, err := h.service.Get(c.Request.Context(), actor.ID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.LearnerRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.LearnerRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	student, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.LearnerRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "student not found")
	if !ok {
		return
	}
	var req models.LearnerRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	student, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Delete godoc
// @Summary Delete student
// @Description Deactivates the student and its login in one transaction
// @Tags Students
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "student not found")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignClass godoc
// @Summary Move student to a class
// @Tags Students
// @Accept json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.AssignClassRequest true "Target class"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /students/{id}/assign-class [put]
func (h *StudentHandler) AssignClass(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "student not found")
	if !ok {
		return
	}
	var req models.AssignClassRequest
	if !bindJSON(c, &req, "invalid class assignment payload") {
		return
	}
	if err := h.service.AssignClass(c.Request.Context(), actor, id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateLogin godoc
// @Summary Create student login
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Param payload body models.CreateLearnerAccountRequest true "Login payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/login [post]
func (h *StudentHandler) CreateLogin(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "student not found")
	if !ok {
		return
	}
	var req models.CreateLearnerAccountRequest
	if !bindJSON(c, &req, "invalid student login payload") {
		return
	}
	account, err := h.service.CreateLogin(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account)
}
