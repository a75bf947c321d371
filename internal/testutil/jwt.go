package testutil

import (
	"testing"
	"time"

	"github.com/jalh2/healthyubackend/internal/auth"
)

const TestJWTSecret = "test-jwt-secret"

// NewTestTokenManager returns a TokenManager signing with TestJWTSecret.
func NewTestTokenManager(t *testing.T) *auth.TokenManager {
	t.Helper()

	m, err := auth.NewTokenManager(TestJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create token manager: %v", err)
	}
	return m
}

// GenerateTestToken signs a session token for the given user type.
func GenerateTestToken(t *testing.T, m *auth.TokenManager, userType string) string {
	t.Helper()

	token, err := m.Issue("emp-"+userType, userType)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}
