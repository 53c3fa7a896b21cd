package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"medrecon/internal/config"
	"medrecon/internal/domain"
)

// Claims is the body of an API access token.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenService issues and validates API access tokens.
type TokenService interface {
	Issue(subject string, ttl time.Duration) (string, time.Time, error)
	Validate(tokenString string) (*Claims, error)
}

type tokenService struct {
	cfg *config.JWTConfig
	now func() time.Time
}

// NewTokenService creates a new TokenService implementation.
func NewTokenService(cfg *config.JWTConfig) TokenService {
	return &tokenService{cfg: cfg, now: time.Now}
}

// Issue signs a token for subject. A non-positive ttl falls back to the
// configured access expiry.
func (s *tokenService) Issue(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is required")
	}
	if ttl <= 0 {
		ttl = s.cfg.AccessTokenExpiry
	}
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{"access"},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *tokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience("access"),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
