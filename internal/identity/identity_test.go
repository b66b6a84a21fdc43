package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret", time.Hour)

	token, err := v.GenerateToken("user-123", "a@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	key, err := v.UserKeyFromToken(token)
	if err != nil {
		t.Fatalf("user key from token: %v", err)
	}
	if key != "user-123" {
		t.Errorf("expected user-123, got %q", key)
	}
}

func TestEmailFallback(t *testing.T) {
	v := NewVerifier("test-secret", time.Hour)

	token, err := v.GenerateToken("", "a@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	key, err := v.UserKeyFromToken(token)
	if err != nil {
		t.Fatalf("user key from token: %v", err)
	}
	if key != "a@example.com" {
		t.Errorf("expected email fallback, got %q", key)
	}
}

func TestNoIdentity(t *testing.T) {
	v := NewVerifier("test-secret", time.Hour)

	token, err := v.GenerateToken("", "")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if _, err := v.UserKeyFromToken(token); err != ErrNoUserKey {
		t.Errorf("expected ErrNoUserKey, got %v", err)
	}
}

func TestRejectsWrongSecret(t *testing.T) {
	other := NewVerifier("other-secret", time.Hour)
	token, err := other.GenerateToken("user-123", "")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	v := NewVerifier("test-secret", time.Hour)
	if _, err := v.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRejectsExpired(t *testing.T) {
	v := NewVerifier("test-secret", time.Hour)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := v.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRejectsUnsignedAlgorithm(t *testing.T) {
	v := NewVerifier("test-secret", time.Hour)

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-123"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := v.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
