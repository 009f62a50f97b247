package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poinup/models"
)

func TestRunDailyReconciliation(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 0)

	_, err := CreditGameReward(db, user.ID, 10, creditMeta(models.ProviderAdjoe, "tx-1"))
	require.NoError(t, err)
	_, err = CreditGameReward(db, user.ID, 25, creditMeta(models.ProviderAdjoe, "tx-2"))
	require.NoError(t, err)

	today := time.Now().UTC()
	require.NoError(t, RunDailyReconciliation(db, today))

	var report models.ReconciliationReport
	require.NoError(t, db.Where("provider = ? AND day = ?",
		models.ProviderAdjoe, today.Format("2006-01-02")).First(&report).Error)
	assert.Equal(t, int64(2), report.TxCount)
	assert.Equal(t, int64(35), report.PointsCredited)
	assert.Equal(t, int64(35), report.WalletTotal)
	assert.True(t, report.Matched)

	var gameTxs []models.GameTransaction
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&gameTxs).Error)
	for _, gtx := range gameTxs {
		assert.Equal(t, models.ReconMatched, gtx.ReconciliationStatus)
	}
}

func TestRunDailyReconciliation_DetectsMissingWalletRow(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 0)

	_, err := CreditGameReward(db, user.ID, 10, creditMeta(models.ProviderAdjoe, "tx-1"))
	require.NoError(t, err)
	_, err = CreditGameReward(db, user.ID, 25, creditMeta(models.ProviderAdjoe, "tx-2"))
	require.NoError(t, err)

	// tamper: lose one audit row
	require.NoError(t, db.Where("source_id = ?",
		SourceKey(models.ProviderAdjoe, "tx-2")).Delete(&models.WalletTransaction{}).Error)

	today := time.Now().UTC()
	require.NoError(t, RunDailyReconciliation(db, today))

	var report models.ReconciliationReport
	require.NoError(t, db.Where("provider = ? AND day = ?",
		models.ProviderAdjoe, today.Format("2006-01-02")).First(&report).Error)
	assert.False(t, report.Matched)
	assert.Equal(t, int64(2), report.TxCount)
	assert.Equal(t, int64(35), report.PointsCredited)
	assert.Equal(t, int64(10), report.WalletTotal)

	var tampered models.GameTransaction
	require.NoError(t, db.Where("provider_tx = ?", "tx-2").First(&tampered).Error)
	assert.Equal(t, models.ReconMismatched, tampered.ReconciliationStatus)

	var clean models.GameTransaction
	require.NoError(t, db.Where("provider_tx = ?", "tx-1").First(&clean).Error)
	assert.Equal(t, models.ReconMatched, clean.ReconciliationStatus)
}

func TestRunDailyReconciliation_RerunUpsertsReport(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "alice", 0)

	_, err := CreditGameReward(db, user.ID, 10, creditMeta(models.ProviderAdjoe, "tx-1"))
	require.NoError(t, err)

	today := time.Now().UTC()
	require.NoError(t, RunDailyReconciliation(db, today))
	require.NoError(t, RunDailyReconciliation(db, today))

	var count int64
	require.NoError(t, db.Model(&models.ReconciliationReport{}).
		Where("provider = ?", models.ProviderAdjoe).Count(&count).Error)
	assert.Equal(t, int64(1), count, "rerun updates the existing report row")
}
