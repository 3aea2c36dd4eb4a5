package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "maria@alumnos.udg.mx", "secret", "machtrueke", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "maria@alumnos.udg.mx", claims.Email)
	assert.Equal(t, "machtrueke", claims.Issuer)
}

func TestValidateAccessToken_WrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(42, "maria@alumnos.udg.mx", "secret", "machtrueke", time.Hour)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_Expired(t *testing.T) {
	token, err := GenerateAccessToken(42, "maria@alumnos.udg.mx", "secret", "machtrueke", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "secret")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	_, err := ValidateAccessToken("definitely.not.a-token", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
