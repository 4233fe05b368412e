package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bark-labs/push-relay/internal/config"
)

func authConfig(enabled bool, password string) *config.Config {
	cfg := &config.Config{}
	cfg.Auth.Enabled = enabled
	cfg.Auth.Username = "ops"
	cfg.Auth.Password = password
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}

func TestAuthenticateAndValidate(t *testing.T) {
	svc := NewAuthService(authConfig(true, "hunter2"))

	token, err := svc.Authenticate("ops", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Username)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(authConfig(true, "hunter2"))

	_, err := svc.Authenticate("ops", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate("root", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateWithBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	svc := NewAuthService(authConfig(true, string(hash)))

	_, err = svc.Authenticate("ops", "s3cret")
	assert.NoError(t, err)
}

func TestValidateRejectsExpiredAndForeignTokens(t *testing.T) {
	svc := NewAuthService(authConfig(true, "hunter2"))
	token, err := svc.Authenticate("ops", "hunter2")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(13 * time.Hour) }
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthService(authConfig(true, "hunter2"))
	other.secret = []byte("another-secret")
	foreign, err := other.Authenticate("ops", "hunter2")
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.Validate(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDisabledAuth(t *testing.T) {
	svc := NewAuthService(authConfig(false, ""))

	assert.False(t, svc.Enabled())
	token, err := svc.Authenticate("anyone", "anything")
	require.NoError(t, err)
	assert.Empty(t, token)
	claims, err := svc.Validate("")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", claims.Username)
}
