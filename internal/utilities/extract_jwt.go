package utilities

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"JobCard-backend/internal/auth"
)

// PrincipalKey is the gin context key RequireAuth stores the caller under.
const PrincipalKey = "principal"

// ExtractBearerToken returns the token of a "Bearer <token>" Authorization header.
func ExtractBearerToken(c *gin.Context) (string, error) {
	const BearerSchema = "Bearer "
	authHeader := c.GetHeader("Authorization")

	if len(authHeader) <= len(BearerSchema) || !strings.EqualFold(authHeader[:len(BearerSchema)], BearerSchema) {
		return "", errors.New("Invalid authorization header")
	}

	return strings.TrimSpace(authHeader[len(BearerSchema):]), nil
}

// ExtractPrincipal returns the authenticated caller stored by RequireAuth.
func ExtractPrincipal(c *gin.Context) (auth.Principal, error) {
	p, _ := c.Get(PrincipalKey)
	if p == nil {
		return auth.Principal{}, errors.New("User information not provided")
	}

	principal, ok := p.(auth.Principal)
	if !ok {
		return auth.Principal{}, errors.New("Failed to assert type")
	}
	return principal, nil
}
