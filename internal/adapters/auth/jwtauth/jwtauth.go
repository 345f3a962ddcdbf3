// Package jwtauth emite y verifica los tokens HS256 del backend demo.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"eps-citas/internal/navigation"
	"eps-citas/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuerName = "eps-mock-api"

var (
	ErrNotConfigured = errors.New("jwt secret not configured")
	ErrInvalidToken  = errors.New("invalid token")
)

type tokenClaims struct {
	Email string `json:"email"`
	Tipo  string `json:"tipo"`
	jwt.RegisteredClaims
}

// Signer implementa auth.Verifier y además emite tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) (*Signer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrNotConfigured
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock reemplaza el reloj (tests).
func (s *Signer) WithClock(now func() time.Time) *Signer {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Signer) Issue(c auth.Claims) (string, error) {
	if c.UserID <= 0 || !c.Role.Valid() {
		return "", fmt.Errorf("%w: user id and role required", ErrInvalidToken)
	}
	now := s.now()
	claims := tokenClaims{
		Email: c.Email,
		Tipo:  string(c.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuerName,
			Subject:   strconv.FormatInt(c.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Signer) Verify(_ context.Context, token string) (auth.Claims, error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), &tc,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(tc.Subject, 10, 64)
	role := navigation.ParseRole(tc.Tipo)
	if err != nil || id <= 0 || role == "" {
		return auth.Claims{}, ErrInvalidToken
	}
	return auth.Claims{UserID: id, Email: tc.Email, Role: role}, nil
}

var _ auth.Verifier = (*Signer)(nil)
