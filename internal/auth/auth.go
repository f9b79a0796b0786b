// Package auth issues and verifies the bearer tokens that carry a caller's
// account id and signing key.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kirinyoku/tix-factory/internal/domain"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the registered claims plus the caller's signing key.
type Claims struct {
	PublicKey string `json:"pk,omitempty"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 tokens with a shared secret.
type Tokens struct {
	secret []byte
	issuer string
	clock  func() time.Time
}

func New(secret, issuer string, clock func() time.Time) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("auth: empty secret")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Tokens{secret: []byte(secret), issuer: issuer, clock: clock}, nil
}

// Issue returns a signed token for the caller that expires after ttl.
func (t *Tokens) Issue(caller domain.Caller, ttl time.Duration) (string, time.Time, error) {
	const op = "auth.Tokens.Issue"

	if caller.Account == "" {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, domain.ErrInvalidAccount)
	}

	now := t.clock().UTC()
	exp := now.Add(ttl)

	claims := Claims{
		PublicKey: caller.PublicKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(caller.Account),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return signed, exp, nil
}

// Parse verifies a raw token and returns the caller it was issued for.
func (t *Tokens) Parse(raw string) (domain.Caller, error) {
	var claims Claims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.clock),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil || !tok.Valid {
		return domain.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return domain.Caller{}, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	return domain.Caller{Account: domain.AccountID(claims.Subject), PublicKey: claims.PublicKey}, nil
}

// FromHeader extracts the token of an "Authorization: Bearer <token>" header.
func FromHeader(h string) (string, error) {
	raw, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(raw), nil
}
