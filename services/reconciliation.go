package services

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"poinup/models"
)

// RunDailyReconciliation compares, per provider, the credited ledger against
// the wallet audit trail for one UTC day, annotates each GameTransaction's
// reconciliation status and upserts a per-provider report row. It only reads
// the crediting path's output and never participates in it.
func RunDailyReconciliation(db *gorm.DB, day time.Time) error {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	for _, provider := range models.Providers {
		if err := reconcileProviderDay(db, provider, start, end); err != nil {
			log.WithError(err).WithField("provider", provider).Error("reconciliation failed")
			return err
		}
	}
	return nil
}

func reconcileProviderDay(db *gorm.DB, provider string, start, end time.Time) error {
	var gameTxs []models.GameTransaction
	if err := db.Where(
		"provider = ? AND status = ? AND created_at >= ? AND created_at < ?",
		provider, models.GameTxCredited, start, end,
	).Find(&gameTxs).Error; err != nil {
		return err
	}

	var (
		pointsCredited int64
		walletTotal    int64
		mismatches     []map[string]any
	)

	for i := range gameTxs {
		gtx := &gameTxs[i]
		pointsCredited += gtx.PointsCredited

		var walletTx models.WalletTransaction
		err := db.Where(
			"source = ? AND source_id = ?",
			models.SourceGameReward, SourceKey(gtx.Provider, gtx.ProviderTx),
		).First(&walletTx).Error

		status := models.ReconMatched
		switch {
		case err != nil:
			status = models.ReconMismatched
			mismatches = append(mismatches, map[string]any{
				"provider_tx": gtx.ProviderTx,
				"reason":      "missing wallet transaction",
			})
		case walletTx.Amount != gtx.PointsCredited:
			status = models.ReconMismatched
			walletTotal += walletTx.Amount
			mismatches = append(mismatches, map[string]any{
				"provider_tx":     gtx.ProviderTx,
				"reason":          "amount mismatch",
				"wallet_amount":   walletTx.Amount,
				"points_credited": gtx.PointsCredited,
			})
		default:
			walletTotal += walletTx.Amount
		}

		if gtx.ReconciliationStatus != status {
			if err := db.Model(gtx).Update("reconciliation_status", status).Error; err != nil {
				return err
			}
		}
	}

	breakdown, _ := json.Marshal(map[string]any{"mismatches": mismatches})
	report := models.ReconciliationReport{
		Provider:       provider,
		Day:            start.Format("2006-01-02"),
		TxCount:        int64(len(gameTxs)),
		PointsCredited: pointsCredited,
		WalletTotal:    walletTotal,
		Matched:        len(mismatches) == 0,
		Breakdown:      datatypes.JSON(breakdown),
	}

	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "provider"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tx_count", "points_credited", "wallet_total", "matched", "breakdown", "updated_at",
		}),
	}).Create(&report).Error
}
