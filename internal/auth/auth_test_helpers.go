package auth

import (
	"testing"
	"time"
)

// TestSecret and TestIssuer configure the authority used by handler tests.
const (
	TestSecret = "test-sso-secret"
	TestIssuer = "jobcard-sso"
)

// TestAuthority returns the authority handler tests sign their tokens with.
func TestAuthority() *TokenAuthority {
	return NewTokenAuthority(TestSecret, TestIssuer)
}

// GetAccessToken mints a one hour token for p with the test authority.
func GetAccessToken(t testing.TB, p Principal) string {
	t.Helper()
	token, err := TestAuthority().GenerateToken(p, time.Hour)
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	return token
}
