// Package auth implements the stateful JWT authentication core: token
// issuance and validation, password hashing, the per-request auth gate and
// the route access policy.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/meridianhq/meridian/internal/shared"
)

// DefaultTokenTTL is the validity window applied when none is configured.
const DefaultTokenTTL = time.Hour

// Claims carries the token payload: subject email plus the role claim.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Codec issues and parses signed tokens. Issuance and validation are pure;
// a Codec is safe for concurrent use. Rotating the secret invalidates every
// outstanding token.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec constructs a Codec signing with the shared symmetric secret.
func NewCodec(secret []byte, ttl time.Duration) *Codec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Codec{secret: secret, ttl: ttl, now: time.Now}
}

// WithClock overrides the time source. Tests use this to cross the expiry
// boundary deterministically.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue produces a signed token for the subject carrying the role claim.
func (c *Codec) Issue(subject, role string) (string, error) {
	issued := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(c.ttl)),
		},
		Role: role,
	})
	return token.SignedString(c.secret)
}

// Parse verifies the signature, structure and expiry and returns the claims.
// Every failure mode collapses into shared.ErrInvalidToken; expiry has no
// grace window.
func (c *Codec) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, shared.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, shared.ErrInvalidToken
	}
	return claims, nil
}

// Validate is the non-throwing probe equivalent to attempting Parse.
func (c *Codec) Validate(tokenString string) bool {
	_, err := c.Parse(tokenString)
	return err == nil
}
