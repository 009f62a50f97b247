package models

import "gorm.io/gorm"

const (
	WalletCredit = "credit"
	WalletDebit  = "debit"
)

const (
	SourceGameReward      = "game_reward"
	SourceAdminAdjustment = "admin_adjustment"
)

// WalletTransaction is the append-only audit trail for every balance change.
// Amount is always positive; TrxType carries the sign. Rows are never
// mutated after creation.
type WalletTransaction struct {
	gorm.Model

	UserID   uint   `gorm:"index"`
	UserCode string `gorm:"size:32;index"`

	TrxType string `gorm:"size:16"`
	Amount  int64  `json:"amount"`

	// Source says why the balance changed, SourceID identifies the source
	// record (provider:tx for game rewards, admin id for adjustments).
	Source   string `gorm:"size:32;index"`
	SourceID string `gorm:"size:96;index"`

	BalanceBefore int64 `json:"balance_before"`
	BalanceAfter  int64 `json:"balance_after"`

	Note  string `gorm:"size:255"`
	RefID string `gorm:"size:64;index"`
}
