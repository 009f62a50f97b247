package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model

	UserCode string `gorm:"uniqueIndex;size:32" json:"user_code"`

	// Points is the spendable balance. TotalPoints and TotalEarnings are
	// lifetime running totals; the WalletTransaction log is the source of
	// truth and these must stay derivable by replaying it.
	Points        int64 `json:"points"`
	TotalPoints   int64 `json:"total_points"`
	TotalEarnings int64 `json:"total_earnings"`

	IsActive       bool       `gorm:"default:true" json:"is_active"`
	FraudFlagged   bool       `gorm:"default:false;index" json:"fraud_flagged"`
	FraudFlaggedAt *time.Time `json:"fraud_flagged_at,omitempty"`

	GameTransactions   []GameTransaction   `gorm:"foreignKey:UserID"`
	WalletTransactions []WalletTransaction `gorm:"foreignKey:UserID"`
}
