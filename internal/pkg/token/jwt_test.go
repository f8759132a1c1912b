package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("secret", time.Hour)

	tok, err := svc.GenerateToken("42", "farm-7")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "farm-7", claims.FarmID)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestValidate_WrongSecret(t *testing.T) {
	tok, err := NewService("secret", time.Hour).GenerateToken("42", "")
	require.NoError(t, err)

	_, err = NewService("other", time.Hour).ValidateToken(tok)
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestValidate_Expired(t *testing.T) {
	svc := NewService("secret", time.Minute)
	tok, err := svc.GenerateToken("42", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestGenerate_RequiresUserID(t *testing.T) {
	_, err := NewService("secret", time.Hour).GenerateToken("", "farm1")
	assert.Error(t, err)
}
