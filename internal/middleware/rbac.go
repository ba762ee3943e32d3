package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/studyguide/internal/model"
	"github.com/stemsi/studyguide/internal/response"
)

// RequireRole checks that the device was signed in with one of roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if slices.Contains(roles, claims.Role) {
			c.Next()
			return
		}

		if slices.Contains(roles, model.RoleAdmin) && len(roles) == 1 {
			response.AbortFail(c, http.StatusForbidden, response.ErrAdminAccessOnly)
			return
		}
		response.AbortFail(c, http.StatusForbidden, response.ErrForbidden)
	}
}

// RequireAdmin is RequireRole(model.RoleAdmin).
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(model.RoleAdmin)
}
