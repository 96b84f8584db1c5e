package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("any-secret"))
	require.NoError(t, err)

	info, err := InspectToken(signed)

	require.NoError(t, err)
	assert.Equal(t, "u1", info.Subject)
	assert.True(t, exp.Equal(info.ExpiresAt))
	assert.False(t, info.ExpiredAt(exp.Add(-time.Minute)))
	assert.True(t, info.ExpiredAt(exp))

	t.Run("no expiry never expires", func(t *testing.T) {
		assert.False(t, TokenInfo{Subject: "u1"}.ExpiredAt(time.Now()))
	})

	t.Run("not a jwt", func(t *testing.T) {
		_, err := InspectToken("opaque")
		assert.Error(t, err)
	})
}
