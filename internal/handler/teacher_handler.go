package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/dto"
	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type teacherService interface {
	Profile(ctx context.Context, teacherID string) (*models.StaffAccount, error)
	UpdateProfile(ctx context.Context, teacherID string, req models.UpdateProfileRequest) (*models.StaffAccount, error)
	Classes(ctx context.Context, teacherID string) ([]models.ClassDetail, error)
	Students(ctx context.Context, teacherID, classID string) ([]models.LearnerDetail, error)
	Dashboard(ctx context.Context, teacherID string) (*dto.TeacherDashboardResponse, error)
}

// TeacherHandler serves the signed-in teacher's own resources.
type TeacherHandler struct {
	service teacherService
}

// NewTeacherHandler constructs a teacher handler.
func NewTeacherHandler(svc teacherService) *TeacherHandler {
	return &TeacherHandler{service: svc}
}

// Profile godoc
// @Summary Get own profile
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /teachers/profile [get]
func (h *TeacherHandler) Profile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	staff, err := h.service.Profile(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, staff)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teachers/profile [put]
func (h *TeacherHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	staff, err := h.service.UpdateProfile(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, staff)
}

// Classes godoc
// @Summary List own classes
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teachers/classes [get]
func (h *TeacherHandler) Classes(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	classes, err := h.service.Classes(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nonNil(classes))
}

// Students godoc
// @Summary List students in own classes
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param class_id query string false "Filter by class"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teachers/students [get]
func (h *TeacherHandler) Students(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	classID, ok := queryID(c, "class_id")
	if !ok {
		return
	}
	students, err := h.service.Students(c.Request.Context(), actor.ID, classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nonNil(students))
}

// Dashboard godoc
// @Summary Teacher dashboard
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teachers/dashboard [get]
func (h *TeacherHandler) Dashboard(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	res, err := h.service.Dashboard(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, res)
}
