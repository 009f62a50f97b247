package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poinup/models"
)

func testThresholds() FraudThresholds {
	return FraudThresholds{
		MaxCreditsPerMinute: 5,
		MaxCreditsPerHour:   30,
		MaxCreditsPerDay:    200,
		MaxProviders15Min:   3,
		MaxSuspicious24h:    3,
		FlagThreshold:       100,
	}
}

func TestPerformFraudCheck_CleanUserPasses(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 0)

	res := PerformFraudCheck(db, user.ID, models.ProviderAdjoe, nil, user.ID, testThresholds())

	assert.True(t, res.Passed)
	assert.Empty(t, res.Signals)
	assert.Zero(t, res.RiskScore)
	assert.False(t, res.ShouldFlag)
}

func TestPerformFraudCheck_SessionUserMismatchBlocks(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice", 0)
	mallory := createTestUser(t, db, "mallory", 0)

	sessionUser := mallory.ID
	res := PerformFraudCheck(db, alice.ID, models.ProviderAdjoe, &sessionUser, alice.ID, testThresholds())

	assert.False(t, res.Passed)
	assert.Contains(t, res.Signals, models.SignalUserIDMismatch)
	assert.Equal(t, RiskUserIDMismatch, res.RiskScore)

	var events []models.SuspiciousEvent
	require.NoError(t, db.Where("user_id = ?", alice.ID).Find(&events).Error)
	require.Len(t, events, 1, "exactly one mismatch event")
	assert.Equal(t, models.SignalUserIDMismatch, events[0].Signal)
}

func TestPerformFraudCheck_MatchingSessionPasses(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 0)

	sessionUser := user.ID
	res := PerformFraudCheck(db, user.ID, models.ProviderAdjoe, &sessionUser, user.ID, testThresholds())

	assert.True(t, res.Passed)
}

func TestPerformFraudCheck_MinuteVelocity(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 0)

	now := time.Now()
	for i := 0; i < 5; i++ {
		seedCreditedTx(t, db, user.ID, models.ProviderAdjoe, fmt.Sprintf("tx-%d", i), now.Add(-10*time.Second))
	}

	res := PerformFraudCheck(db, user.ID, models.ProviderAdjoe, nil, user.ID, testThresholds())

	assert.False(t, res.Passed, "the sixth callback in a minute must be rejected")
	assert.Contains(t, res.Signals, models.SignalVelocityMinute)
	assert.Equal(t, RiskVelocityMinute, res.RiskScore)

	var events []models.SuspiciousEvent
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, models.SignalVelocityMinute, events[0].Signal)
}

func TestPerformFraudCheck_HourVelocityIsSoftButStillBlocks(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 0)

	th := testThresholds()
	th.MaxCreditsPerHour = 5

	now := time.Now()
	for i := 0; i < 5; i++ {
		seedCreditedTx(t, db, user.ID, models.ProviderAdjoe, fmt.Sprintf("tx-%d", i), now.Add(-10*time.Minute))
	}

	res := PerformFraudCheck(db, user.ID, models.ProviderAdjoe, nil, user.ID, th)

	assert.False(t, res.Passed)
	assert.Equal(t, []string{models.SignalVelocityHour}, res.Signals)
	assert.Equal(t, RiskVelocityHour, res.RiskScore)

	// hour-level is not written to the suspicious log
	var count int64
	require.NoError(t, db.Model(&models.SuspiciousEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPerformFraudCheck_CrossProviderPattern(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 0)

	now := time.Now()
	seedCreditedTx(t, db, user.ID, models.ProviderAdjoe, "tx-a", now.Add(-5*time.Minute))
	seedCreditedTx(t, db, user.ID, models.ProviderQureka, "tx-b", now.Add(-4*time.Minute))
	seedCreditedTx(t, db, user.ID, models.ProviderTapjoy, "tx-c", now.Add(-3*time.Minute))

	res := PerformFraudCheck(db, user.ID, models.ProviderAdjoe, nil, user.ID, testThresholds())

	assert.False(t, res.Passed)
	assert.Contains(t, res.Signals, models.SignalMultipleProviders)
	assert.Equal(t, RiskMultipleProviders, res.RiskScore)
}

func TestPerformFraudCheck_RepeatedSuspiciousActivity(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 0)

	for i := 0; i < 3; i++ {
		LogSuspiciousEvent(db, user.ID, models.ProviderAdjoe, models.SignalVelocityMinute,
			RiskVelocityMinute, nil)
	}

	res := PerformFraudCheck(db, user.ID, models.ProviderAdjoe, nil, user.ID, testThresholds())

	assert.False(t, res.Passed)
	assert.Contains(t, res.Signals, models.SignalRepeatedSuspicious)
	assert.Equal(t, RiskRepeatedSuspicious, res.RiskScore)
}

func TestPerformFraudCheck_FlagsUserAtThreshold(t *testing.T) {
	db := setupTestDB(t)
	alice := createTestUser(t, db, "alice", 0)
	mallory := createTestUser(t, db, "mallory", 0)

	th := testThresholds()
	th.MaxCreditsPerMinute = 5
	th.MaxCreditsPerHour = 5
	th.MaxCreditsPerDay = 5

	now := time.Now()
	for i := 0; i < 6; i++ {
		seedCreditedTx(t, db, alice.ID, models.ProviderAdjoe, fmt.Sprintf("tx-%d", i), now.Add(-10*time.Second))
	}

	// mismatch 50 + minute 30 + hour 20 + day 25, capped at 100
	sessionUser := mallory.ID
	res := PerformFraudCheck(db, alice.ID, models.ProviderAdjoe, &sessionUser, alice.ID, th)

	assert.False(t, res.Passed)
	assert.Equal(t, 100, res.RiskScore, "risk is capped at 100")
	assert.True(t, res.ShouldFlag)

	var fresh models.User
	require.NoError(t, db.First(&fresh, alice.ID).Error)
	assert.True(t, fresh.FraudFlagged)
	require.NotNil(t, fresh.FraudFlaggedAt)

	var entries []models.FraudReviewEntry
	require.NoError(t, db.Where("user_id = ?", alice.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ReviewOpen, entries[0].Status)
	assert.Equal(t, 100, entries[0].RiskScore)
}

func TestPerformFraudCheck_FailsOpenOnStoreErrors(t *testing.T) {
	t.Run("history unreachable, clean identity passes", func(t *testing.T) {
		db := setupTestDB(t)
		user := createTestUser(t, db, "alice", 0)

		require.NoError(t, db.Migrator().DropTable(&models.GameTransaction{}))

		res := PerformFraudCheck(db, user.ID, models.ProviderAdjoe, nil, user.ID, testThresholds())
		assert.True(t, res.Passed, "unavailable velocity checks must not block")
		assert.Zero(t, res.RiskScore)
	})

	t.Run("history unreachable, explicit mismatch still blocks", func(t *testing.T) {
		db := setupTestDB(t)
		alice := createTestUser(t, db, "alice", 0)
		mallory := createTestUser(t, db, "mallory", 0)

		require.NoError(t, db.Migrator().DropTable(&models.GameTransaction{}))

		sessionUser := mallory.ID
		res := PerformFraudCheck(db, alice.ID, models.ProviderAdjoe, &sessionUser, alice.ID, testThresholds())
		assert.False(t, res.Passed, "infrastructure failure never excuses a mismatch")
		assert.Contains(t, res.Signals, models.SignalUserIDMismatch)
	})
}

func TestRecordRejection_TerminalAndRaceSafe(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 50)

	res := FraudResult{Signals: []string{models.SignalUserIDMismatch}, RiskScore: 50}
	RecordRejection(db, user, models.ProviderAdjoe, "tx-1", 600, models.ValueTypeSeconds, res)
	// retry of the same rejected event is absorbed by the unique index
	RecordRejection(db, user, models.ProviderAdjoe, "tx-1", 600, models.ValueTypeSeconds, res)

	var rows []models.GameTransaction
	require.NoError(t, db.Where("provider = ? AND provider_tx = ?", models.ProviderAdjoe, "tx-1").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, models.GameTxRejected, rows[0].Status)
	assert.Zero(t, rows[0].PointsCredited)
	assert.Equal(t, int64(50), rows[0].BalanceAfter, "rejection never moves the balance")

	flagged := FraudResult{Signals: []string{models.SignalUserIDMismatch}, RiskScore: 100, ShouldFlag: true}
	RecordRejection(db, user, models.ProviderAdjoe, "tx-2", 600, models.ValueTypeSeconds, flagged)

	var gtx models.GameTransaction
	require.NoError(t, db.Where("provider_tx = ?", "tx-2").First(&gtx).Error)
	assert.Equal(t, models.GameTxFraudFlagged, gtx.Status)
}
