package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"JobCard-backend/internal/utilities"
)

// CheckRole will protect endpoint from callers that carry none of roles
func CheckRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal, err := utilities.ExtractPrincipal(ctx)
		if err != nil {
			abortUnauthorized(ctx, err.Error())
			return
		}

		if !slices.Contains(roles, principal.Role) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, utilities.ErrorResponse{
				Message: "User doesn't have permission to access",
			})
			return
		}
		ctx.Next()
	}
}
