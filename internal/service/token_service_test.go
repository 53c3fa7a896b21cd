package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medrecon/internal/config"
	"medrecon/internal/domain"
	"medrecon/internal/service"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		Secret:            "test-secret-key-for-unit-tests",
		AccessTokenExpiry: 15 * time.Minute,
		Issuer:            "medrecon-test",
	}
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := service.NewTokenService(testJWTConfig())

	token, expiresAt, err := svc.Issue("billing-team", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "billing-team", claims.Subject)
	assert.Equal(t, "medrecon-test", claims.Issuer)
}

func TestTokenService_Issue_DefaultTTL(t *testing.T) {
	svc := service.NewTokenService(testJWTConfig())

	_, expiresAt, err := svc.Issue("billing-team", 0)

	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
}

func TestTokenService_Issue_RequiresSubject(t *testing.T) {
	svc := service.NewTokenService(testJWTConfig())

	_, _, err := svc.Issue("", time.Hour)

	assert.Error(t, err)
}

func TestTokenService_Validate_WrongSecret(t *testing.T) {
	issuer := service.NewTokenService(testJWTConfig())
	other := testJWTConfig()
	other.Secret = "a-different-secret"
	validator := service.NewTokenService(other)

	token, _, err := issuer.Issue("billing-team", time.Hour)
	require.NoError(t, err)

	_, err = validator.Validate(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenService_Validate_WrongIssuer(t *testing.T) {
	issuer := service.NewTokenService(testJWTConfig())
	other := testJWTConfig()
	other.Issuer = "someone-else"
	validator := service.NewTokenService(other)

	token, _, err := issuer.Issue("billing-team", time.Hour)
	require.NoError(t, err)

	_, err = validator.Validate(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenService_Validate_Expired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTokenExpiry = -time.Minute
	svc := service.NewTokenService(cfg)

	token, _, err := svc.Issue("billing-team", 0)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTokenService_Validate_Garbage(t *testing.T) {
	svc := service.NewTokenService(testJWTConfig())

	_, err := svc.Validate("not.a.token")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
