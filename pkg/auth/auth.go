// Package auth provides bcrypt password hashing and HS256 JWT issuing/parsing for the HTTP API.
// Leaf package with no domain dependencies. Used by internal/api and cmd/dissociated.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ===== CONSTANTS =====

// BCryptCost is the work factor for bcrypt.
const BCryptCost = 12

// DefaultExpiry applies when a non-positive expiry is configured.
const DefaultExpiry = 24 * time.Hour

// ScopeGenerate is the only scope issued today: full access to /api/v1.
const ScopeGenerate = "generate"

var (
	ErrNoSecret     = errors.New("jwt secret is empty")
	ErrInvalidToken = errors.New("invalid token")
)

// ===== BCRYPT FUNCTIONS =====

// HashPassword hashes a plaintext password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BCryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash.
// An invalid hash is reported as a mismatch, not an error.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ===== JWT FUNCTIONS =====

// Claims are the JWT claims issued by dissociated.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with one HMAC secret.
type Issuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. expiry <= 0 means DefaultExpiry.
func NewIssuer(secret string, expiry time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Issuer{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// Issue creates a signed token for subject and returns it with its expiry time.
func (i *Issuer) Issue(subject, scope string) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.expiry)

	claims := &Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse validates signature, algorithm and time claims, and returns the claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Only HMAC is accepted (prevents algorithm substitution)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}
	return claims, nil
}
