package services_test

import (
	"testing"
	"time"

	"pantry-server/src/models"
	"pantry-server/src/services"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour, nil)

	token, err := tokens.Issue(models.Identity{UserID: testUser, Email: "cook@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	identity, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, testUser, identity.UserID)
	assert.Equal(t, "cook@example.com", identity.Email)
}

func TestTokenServiceRejects(t *testing.T) {
	identity := models.Identity{UserID: testUser, Email: "cook@example.com"}

	t.Run("empty", func(t *testing.T) {
		_, err := services.NewTokenService("secret", time.Hour, nil).Verify("")
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := services.NewTokenService("secret", time.Hour, nil).Verify("not.a.token")
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := services.NewTokenService("other", time.Hour, nil).Issue(identity)
		require.NoError(t, err)

		_, err = services.NewTokenService("secret", time.Hour, nil).Verify(token)
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := clockwork.NewFakeClockAt(time.Now().Add(-2 * time.Hour))
		token, err := services.NewTokenService("secret", time.Hour, past).Issue(identity)
		require.NoError(t, err)

		_, err = services.NewTokenService("secret", time.Hour, nil).Verify(token)
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})
}
