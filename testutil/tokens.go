package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingKey = []byte("jobtrack-test-secret")

// MintToken signs an HS256 token for subject that expires at exp
func MintToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	return sign(t, claims)
}

// MintTokenWithoutExpiry signs a token that carries no exp claim
func MintTokenWithoutExpiry(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		ID:       uuid.NewString(),
		Subject:  subject,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	return sign(t, claims)
}

func sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}
