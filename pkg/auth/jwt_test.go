package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkcare/care-api/config"
	"github.com/parkcare/care-api/internal/model"
)

func newTestService(secret string) JWTService {
	return NewJWTService(config.JWTConfig{Secret: secret, ExpiryHours: 1})
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService("test-secret")

	user := &model.UserAccount{Role: model.RoleCaretaker}
	user.ID = uuid.New()

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	principal, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, model.RoleCaretaker, principal.Role)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	user := &model.UserAccount{Role: model.RolePatient}
	user.ID = uuid.New()

	token, err := newTestService("secret-a").GenerateAccessToken(user)
	require.NoError(t, err)

	_, err = newTestService("secret-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := newTestService("test-secret").ValidateToken("not.a.token")
	assert.Error(t, err)
}
