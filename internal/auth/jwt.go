// Package auth validates access tokens issued by the SSO service and turns
// them into a Principal.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"JobCard-backend/internal/model"
)

var (
	// ErrInvalidIssuer is returned for a token signed for another issuer
	ErrInvalidIssuer = errors.New("invalid token issuer")
	// ErrUnknownRole is returned for a token without a known role
	ErrUnknownRole = errors.New("unknown role")
	// ErrIncompleteClaims is returned when the identifier a role needs is missing
	ErrIncompleteClaims = errors.New("token lacks the identifier its role needs")
)

// Claims is the payload of an SSO access token.
type Claims struct {
	Role        string `json:"role"`
	Member      string `json:"member,omitempty"`
	BusinessID  string `json:"business_id,omitempty"`
	InstituteID string `json:"institute_id,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the authenticated caller.
type Principal struct {
	Subject     string `json:"subject"`
	Role        string `json:"role"`
	Member      string `json:"member,omitempty"`
	BusinessID  string `json:"business_id,omitempty"`
	InstituteID string `json:"institute_id,omitempty"`
}

// HasRole reports whether the principal carries one of roles.
func (p Principal) HasRole(roles ...string) bool {
	return slices.Contains(roles, p.Role)
}

// Handle parses the member identifier of the principal.
func (p Principal) Handle() (model.MemberHandle, error) {
	return model.ParseMemberHandle(p.Member)
}

// TokenAuthority signs and validates HMAC access tokens sharing the SSO secret.
type TokenAuthority struct {
	secret []byte
	issuer string
}

// NewTokenAuthority returns an authority for secret. An empty issuer
// disables the issuer check.
func NewTokenAuthority(secret, issuer string) *TokenAuthority {
	return &TokenAuthority{secret: []byte(secret), issuer: issuer}
}

// Issuer returns the configured issuer
func (a *TokenAuthority) Issuer() string {
	return a.issuer
}

// GenerateToken signs a token for p valid for ttl. The SSO service issues
// production tokens; this is used by the dev-token command and tests.
func (a *TokenAuthority) GenerateToken(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	subject := p.Subject
	if subject == "" {
		subject = p.Member + p.BusinessID + p.InstituteID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:        p.Role,
		Member:      p.Member,
		BusinessID:  p.BusinessID,
		InstituteID: p.InstituteID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks the signature, expiry, issuer and role claims of raw.
// Expired tokens yield an error matching jwt.ErrTokenExpired.
func (a *TokenAuthority) ValidateToken(raw string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, isvalid := token.Method.(*jwt.SigningMethodHMAC); !isvalid {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid access token")
	}
	if a.issuer != "" && !claims.VerifyIssuer(a.issuer, true) {
		return nil, ErrInvalidIssuer
	}
	if !slices.Contains(model.Roles, claims.Role) {
		return nil, fmt.Errorf("%w %q", ErrUnknownRole, claims.Role)
	}

	switch claims.Role {
	case model.RoleMember:
		if claims.Member == "" {
			return nil, ErrIncompleteClaims
		}
	case model.RoleBusiness:
		if claims.BusinessID == "" {
			return nil, ErrIncompleteClaims
		}
	case model.RoleInstitute:
		if claims.InstituteID == "" {
			return nil, ErrIncompleteClaims
		}
	}

	return &Principal{
		Subject:     claims.Subject,
		Role:        claims.Role,
		Member:      claims.Member,
		BusinessID:  claims.BusinessID,
		InstituteID: claims.InstituteID,
	}, nil
}
