package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/response"
)

// RequirePrincipal only admits principals of the given kinds. It must run after JWT.
func RequirePrincipal(kinds ...models.PrincipalKind) gin.HandlerFunc {
	allowed := make(map[models.PrincipalKind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "access denied for this account type"))
			return
		}
		c.Next()
	}
}

// RequireStaffRole only admits staff principals holding one of roles.
func RequireStaffRole(roles ...models.StaffRole) gin.HandlerFunc {
	allowed := make(map[models.StaffRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if claims.Role != models.PrincipalStaff {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "access denied for this account type"))
			return
		}
		if _, ok := allowed[claims.StaffRole]; !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient role"))
			return
		}
		c.Next()
	}
}
