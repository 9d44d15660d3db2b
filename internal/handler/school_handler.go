package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

type schoolService interface {
	List(ctx context.Context) ([]models.School, error)
	Get(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, req models.SchoolRequest) (*models.School, error)
	Update(ctx context.Context, id string, req models.SchoolRequest) (*models.School, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
}

// SchoolHandler exposes the school directory.
type SchoolHandler struct {
	service schoolService
}

// NewSchoolHandler constructs a school handler.
func NewSchoolHandler(svc schoolService) *SchoolHandler {
	return &SchoolHandler{service: svc}
}

// List godoc
// @Summary List schools
// @Tags Schools
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /schools [get]
func (h *SchoolHandler) List(c *gin.Context) {
	schools, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, nonNil(schools))
}

// Get godoc
// @Summary Get school
// @Tags Schools
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schools/{id} [get]
func (h *SchoolHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "school not found")
	if !ok {
		return
	}
	school, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, school)
}

// Create godoc
// @Summary Create school
// @Tags Schools
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SchoolRequest true "School payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schools [post]
func (h *SchoolHandler) Create(c *gin.Context) {
	var req models.SchoolRequest
	if !bindJSON(c, &req, "invalid school payload") {
		return
	}
	school, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, school)
}

// Update godoc
// @Summary Update school
// @Tags Schools
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "School ID"
// @Param payload body models.SchoolRequest true "School payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schools/{id} [put]
func (h *SchoolHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "school not found")
	if !ok {
		return
	}
	var req models.SchoolRequest
	if !bindJSON(c, &req, "invalid school payload") {
		return
	}
	school, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, school)
}

// Delete godoc
// @Summary Delete school
// @Tags Schools
// @Security BearerAuth
// @Param id path string true "School ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /schools/{id} [delete]
func (h *SchoolHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "school not found")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
