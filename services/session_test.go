package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poinup/models"
)

func TestCreateGameSession(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 0)

	session, err := CreateGameSession(db, user.ID, models.ProviderAdjoe)
	require.NoError(t, err)

	assert.Len(t, session.SID, 36, "SID is a uuid assigned on create")
	assert.Equal(t, user.ID, session.UserID)
	assert.True(t, session.ExpiresAt.After(time.Now()))
}

func TestResolveSessionUser(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 0)

	session, err := CreateGameSession(db, user.ID, models.ProviderAdjoe)
	require.NoError(t, err)

	t.Run("resolves live session", func(t *testing.T) {
		got := ResolveSessionUser(db, session.SID)
		require.NotNil(t, got)
		assert.Equal(t, user.ID, *got)
	})

	t.Run("case and whitespace tolerant", func(t *testing.T) {
		got := ResolveSessionUser(db, "  "+strings.ToUpper(session.SID)+" ")
		require.NotNil(t, got)
		assert.Equal(t, user.ID, *got)
	})

	t.Run("empty token is unverifiable", func(t *testing.T) {
		assert.Nil(t, ResolveSessionUser(db, ""))
	})

	t.Run("unknown token is unverifiable", func(t *testing.T) {
		assert.Nil(t, ResolveSessionUser(db, "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d"))
	})

	t.Run("expired session is unverifiable", func(t *testing.T) {
		require.NoError(t, db.Model(&models.GameSession{}).
			Where("id = ?", session.ID).
			Update("expires_at", time.Now().Add(-time.Minute)).Error)
		assert.Nil(t, ResolveSessionUser(db, session.SID))
	})
}
