package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Payphone-Digital/auth-service/config"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of every token this service signs.
type Claims struct {
	Role model.Role      `json:"role"`
	Type model.TokenKind `json:"typ"`
	jwt.RegisteredClaims
}

type tokenPolicy struct {
	secret []byte
	ttl    time.Duration
}

// TokenService signs and verifies access and refresh tokens. Each kind has
// its own secret and lifetime, so a token of one kind never verifies as the
// other. It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	policies map[model.TokenKind]tokenPolicy
	issuer   string
	now      func() time.Time
}

// TokenOption customizes a TokenService
type TokenOption func(*TokenService)

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func NewTokenService(cfg config.JWTConfig, opts ...TokenOption) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets must not be empty")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	accessTTL, err := config.ParseExpiry(cfg.AccessExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("access expiry: %w", err)
	}
	refreshTTL, err := config.ParseExpiry(cfg.RefreshExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("refresh expiry: %w", err)
	}

	s := &TokenService{
		policies: map[model.TokenKind]tokenPolicy{
			model.TokenAccess:  {secret: []byte(cfg.AccessSecret), ttl: accessTTL},
			model.TokenRefresh: {secret: []byte(cfg.RefreshSecret), ttl: refreshTTL},
		},
		issuer: cfg.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Now returns the service clock's current time
func (s *TokenService) Now() time.Time {
	return s.now()
}

// TTL returns the configured lifetime for kind
func (s *TokenService) TTL(kind model.TokenKind) time.Duration {
	return s.policies[kind].ttl
}

// Issue signs a token of the given kind for subject. The returned time is the
// token's exp claim.
func (s *TokenService) Issue(subject string, role model.Role, kind model.TokenKind) (string, time.Time, error) {
	policy, ok := s.policies[kind]
	if !ok {
		return "", time.Time{}, fmt.Errorf("unsupported token kind %q", kind)
	}
	if subject == "" {
		return "", time.Time{}, errors.New("token subject must not be empty")
	}

	now := s.now()
	exp := jwt.NewNumericDate(now.Add(policy.ttl))
	claims := Claims{
		Role: role,
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(policy.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, exp.Time, nil
}

// Decode verifies signed as a token of the given kind. Every failure is an
// InvalidOrExpiredToken domain error wrapping the jwt cause.
func (s *TokenService) Decode(signed string, kind model.TokenKind) (*Claims, error) {
	policy, ok := s.policies[kind]
	if !ok {
		return nil, apperrors.WrapError(apperrors.ErrInvalidOrExpiredToken, fmt.Errorf("unsupported token kind %q", kind))
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (any, error) {
		return policy.secret, nil
	}, parserOpts...)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInvalidOrExpiredToken, err)
	}

	if claims.Type != kind {
		return nil, apperrors.WrapError(apperrors.ErrInvalidOrExpiredToken, fmt.Errorf("token type %q, want %q", claims.Type, kind))
	}
	if claims.Subject == "" {
		return nil, apperrors.WrapError(apperrors.ErrInvalidOrExpiredToken, errors.New("token has no subject"))
	}
	return claims, nil
}

// FailureReason classifies a Decode error for logs and metrics only.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	}
	return "invalid"
}
