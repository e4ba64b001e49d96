package server

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-rift-portal/internal/errors"
)

const scopeIssuer = "rift-portal"

// ScopeClaims identify one browser
type ScopeClaims struct {
	jwt.RegisteredClaims
}

// ScopeSigner issues and verifies the signed browser scope cookie value
type ScopeSigner struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewScopeSigner(secret string, maxAge time.Duration) *ScopeSigner {
	return &ScopeSigner{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// NewScope mints a fresh scope id and its signed token
func (s *ScopeSigner) NewScope() (scope, token string, err error) {
	scope = uuid.New().String()
	token, err = s.Sign(scope)
	return scope, token, err
}

func (s *ScopeSigner) Sign(scope string) (string, error) {
	now := s.now()
	claims := ScopeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   scope,
			Issuer:    scopeIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("[ScopeSigner Sign] %w", err)
	}
	return signed, nil
}

// Verify returns the scope id carried by a valid token
func (s *ScopeSigner) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ScopeClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(scopeIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrInvalidScope, err)
	}

	claims, ok := token.Claims.(*ScopeClaims)
	if !ok || !token.Valid {
		return "", apperrors.ErrInvalidScope
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("%w: subject is not a uuid", apperrors.ErrInvalidScope)
	}
	return claims.Subject, nil
}
