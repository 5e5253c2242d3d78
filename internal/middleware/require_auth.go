// Package middleware contain utilities middleware code
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"JobCard-backend/internal/auth"
	"JobCard-backend/internal/utilities"
)

func abortUnauthorized(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{Message: message})
}

// RequireAuth validates the Bearer token of the request against the SSO
// secret and stores the caller as an auth.Principal in the context.
func RequireAuth(authority *auth.TokenAuthority) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := utilities.ExtractBearerToken(ctx)
		if err != nil {
			abortUnauthorized(ctx, err.Error())
			return
		}

		principal, err := authority.ValidateToken(tokenString)
		if err != nil {
			auth.LogAuthAttempt(ctx.Request.Context(), slog.LevelWarn, "Fail", ctx.ClientIP(), err.Error())
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				abortUnauthorized(ctx, "Access token expired")
			case errors.Is(err, auth.ErrInvalidIssuer):
				abortUnauthorized(ctx, "Invalid token issuer")
			case errors.Is(err, auth.ErrUnknownRole), errors.Is(err, auth.ErrIncompleteClaims):
				abortUnauthorized(ctx, "Token does not identify a known caller")
			default:
				abortUnauthorized(ctx, "Failed to validate token")
			}
			return
		}

		auth.LogAuthAttempt(ctx.Request.Context(), slog.LevelDebug, "Success", principal.Subject, principal.Role)
		ctx.Set(utilities.PrincipalKey, *principal)
		ctx.Next()
	}
}
