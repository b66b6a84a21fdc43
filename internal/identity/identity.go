// Package identity resolves the per-user storage key from a signed
// session token. All daily state is partitioned by that key.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiration is the default expiration time for issued tokens.
const DefaultTokenExpiration = 24 * time.Hour

var (
	// ErrInvalidToken is returned when a token fails validation.
	ErrInvalidToken = errors.New("invalid token")

	// ErrNoUserKey is returned when a valid token carries no usable identity.
	ErrNoUserKey = errors.New("token has no user key")
)

// Claims are the session token claims. The registered subject is the
// primary identity; Email is the fallback for tokens issued before
// subjects were stable.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserKey returns the storage partition key for these claims: the
// subject when present, otherwise the email.
func (c *Claims) UserKey() (string, error) {
	if c.Subject != "" {
		return c.Subject, nil
	}
	if c.Email != "" {
		return c.Email, nil
	}
	return "", ErrNoUserKey
}

// Verifier validates session tokens and extracts user keys.
type Verifier struct {
	secret          []byte
	tokenExpiration time.Duration
}

// NewVerifier creates a Verifier with the given HMAC secret.
func NewVerifier(secret string, tokenExpiration time.Duration) *Verifier {
	if tokenExpiration == 0 {
		tokenExpiration = DefaultTokenExpiration
	}
	return &Verifier{
		secret:          []byte(secret),
		tokenExpiration: tokenExpiration,
	}
}

// UserKeyFromToken validates the token and returns the user key it
// identifies.
func (v *Verifier) UserKeyFromToken(tokenString string) (string, error) {
	claims, err := v.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserKey()
}

// ValidateToken validates a session token and returns its claims.
func (v *Verifier) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateToken issues a signed session token for a user.
func (v *Verifier) GenerateToken(userKey, email string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userKey,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.tokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
