package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "unicred/pkg/domain-errors"
)

var tokenService = New("test-signing-key", "test-issuer", "test-audience")

func Test_Generate(t *testing.T) {
	token, err := tokenService.Generate("registrar-01", RoleRegistrar, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tokenService.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "registrar-01", claims.UserID)
	assert.Equal(t, RoleRegistrar, claims.Role)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func Test_Validate_InvalidToken(t *testing.T) {
	_, err := tokenService.Validate("invalid-token-string")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Equal(t, "invalid token", dErrors.MessageOf(err))
}

func Test_Validate_ExpiredToken(t *testing.T) {
	token, err := tokenService.Generate("registrar-01", RoleRegistrar, -time.Hour)
	require.NoError(t, err)

	_, err = tokenService.Validate(token)
	require.Error(t, err)
	assert.Equal(t, "token has expired", dErrors.MessageOf(err))
}

func Test_Validate_WrongKey(t *testing.T) {
	other := New("other-signing-key", "test-issuer", "test-audience")
	token, err := other.Generate("registrar-01", RoleRegistrar, time.Hour)
	require.NoError(t, err)

	_, err = tokenService.Validate(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_HasRole(t *testing.T) {
	admin := &Claims{Role: RoleAdmin}
	assert.True(t, admin.HasRole(RoleAdmin))
	assert.True(t, admin.HasRole(RoleRegistrar))

	registrar := &Claims{Role: RoleRegistrar}
	assert.True(t, registrar.HasRole(RoleRegistrar))
	assert.False(t, registrar.HasRole(RoleAdmin))
}
