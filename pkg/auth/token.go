package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

// Claims is the signed token payload: the user id (subject) plus the coarse
// role name and the capability role id.
type Claims struct {
	Role   string `json:"role"`
	RoleID string `json:"roleId,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies session tokens (HS256).
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenIssuer creates an issuer with the given signing secret and token
// lifetime.
func NewTokenIssuer(secret string, lifetime time.Duration) *TokenIssuer {
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), lifetime: lifetime}
}

// Issue creates a signed token for the user.
func (t *TokenIssuer) Issue(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:   user.Role,
		RoleID: user.RoleID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Lifetime returns the configured token lifetime.
func (t *TokenIssuer) Lifetime() time.Duration {
	return t.lifetime
}

// Verify parses and verifies a raw token, returning the caller's Principal.
// A missing or malformed credential yields Unauthenticated; a signature or
// expiry failure yields InvalidCredential.
func (t *TokenIssuer) Verify(raw string) (Principal, error) {
	if raw == "" {
		return Principal{}, apierr.Unauthenticated("missing credential")
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return Principal{}, apierr.Unauthenticated("malformed credential")
		}
		return Principal{}, apierr.InvalidCredential("token verification failed: %v", err)
	}
	if !token.Valid {
		return Principal{}, apierr.InvalidCredential("invalid token")
	}

	return Principal{ID: claims.Subject, Role: claims.Role, RoleID: claims.RoleID}, nil
}
