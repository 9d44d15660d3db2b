package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// actorFromContext builds the acting principal from verified claims. It writes 401 and returns false when absent.
func actorFromContext(c *gin.Context) (models.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Actor{}, false
	}
	return models.Actor{
		ID:        claims.UserID,
		Kind:      claims.Role,
		StaffRole: claims.StaffRole,
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// pathID returns the :id parameter. A value that is not a UUID cannot name any row, so it writes
// 404 with notFound and returns false.
func pathID(c *gin.Context, notFound string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, notFound))
		return "", false
	}
	return id, true
}

// queryID returns an optional UUID filter. It writes 400 and returns false when the value is malformed.
func queryID(c *gin.Context, key string) (string, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return "", true
	}
	if _, err := uuid.Parse(raw); err != nil {
		response.Error(c, appErrors.Validation(err, "invalid query parameters", []appErrors.FieldError{{
			Field:   key,
			Rule:    "uuid",
			Message: key + " must be a valid UUID",
		}}))
		return "", false
	}
	return raw, true
}
