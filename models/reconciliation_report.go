package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReconciliationReport is one row per provider per day, produced by the
// reconciliation job for manual audit. Day is the UTC date (YYYY-MM-DD).
type ReconciliationReport struct {
	gorm.Model

	Provider string `gorm:"size:32;index:idx_recon_day,unique"`
	Day      string `gorm:"size:10;index:idx_recon_day,unique"`

	TxCount        int64 `json:"tx_count"`
	PointsCredited int64 `json:"points_credited"`
	WalletTotal    int64 `json:"wallet_total"`
	Matched        bool  `json:"matched"`

	Breakdown datatypes.JSON `gorm:"type:jsonb"`
}
