// Package session issues and verifies the signed session tokens that back
// flock's cookie authentication.
//
// A token is an HS256-signed JWT binding a user ID (sub claim) to an expiry
// 24 hours after issuance. Tokens are not persisted server-side: validity is
// entirely determined by signature and expiry at verification time.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed lifetime of a session token. The cookie Max-Age
// matches it, so cookie and token expire together.
const TokenTTL = 24 * time.Hour

// Sentinel errors.
var (
	// ErrNoSecret indicates the signing secret is not configured. This is
	// a deployment error, not attributable to the client.
	ErrNoSecret = errors.New("session: signing secret not configured")

	// ErrInvalidToken covers bad signatures, malformed payloads, wrong
	// signing algorithms, and elapsed expiry.
	ErrInvalidToken = errors.New("session: invalid token")
)

// Issuer mints and verifies session tokens with a process-wide symmetric
// secret. It holds no mutable state and is safe for concurrent use.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithTTL overrides the token lifetime. Used in tests; production keeps
// the 24-hour default.
func WithTTL(d time.Duration) Option {
	return func(i *Issuer) { i.ttl = d }
}

// WithNow overrides the clock used for issuance and expiry checks.
func WithNow(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// New creates an Issuer with the given signing secret. An empty secret is
// a configuration error: issuance must never silently produce unsigned or
// trivially forgeable tokens.
func New(secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	i := &Issuer{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue mints a signed token for the given user ID. The caller must have
// already authenticated the user; Issue performs no identity checks itself.
func (i *Issuer) Issue(userID string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNoSecret
	}
	if userID == "" {
		return "", fmt.Errorf("session: empty user ID")
	}

	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("session: signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and expiry and returns the user ID
// it was issued for. All verification failures map to ErrInvalidToken so
// callers cannot distinguish forgery from staleness.
func (i *Issuer) Verify(tokenStr string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNoSecret
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (interface{}, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
