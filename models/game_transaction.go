package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reward providers. Each has its own callback dialect under
// controllers/callback and its own conversion rule.
const (
	ProviderAdjoe  = "adjoe"  // playtime seconds
	ProviderQureka = "qureka" // in-game coins
	ProviderTapjoy = "tapjoy" // flat reward units
)

var Providers = []string{ProviderAdjoe, ProviderQureka, ProviderTapjoy}

// GameTransaction lifecycle. Terminal once non-pending.
const (
	GameTxPending      = "pending"
	GameTxCredited     = "credited"
	GameTxRejected     = "rejected"
	GameTxDuplicate    = "duplicate"
	GameTxFraudFlagged = "fraud_flagged"
)

const (
	ValueTypeSeconds    = "seconds"
	ValueTypeCoins      = "coins"
	ValueTypeRewardUnit = "reward_unit"
)

// Reconciliation lifecycle, mutated only by the reconciliation job.
const (
	ReconPending    = "pending"
	ReconMatched    = "matched"
	ReconMismatched = "mismatched"
)

// GameTransaction is one row per provider callback, the ledger's unit of
// truth. (Provider, ProviderTx) is the idempotency key; the composite unique
// index is what makes retried callbacks a safe no-op.
type GameTransaction struct {
	gorm.Model

	UserID   uint   `gorm:"index"`
	UserCode string `gorm:"size:32;index"`

	Provider   string `gorm:"size:32;index:idx_provider_tx,unique"`
	ProviderTx string `gorm:"size:64;index:idx_provider_tx,unique"`

	OriginalValue  float64 `json:"original_value"`
	ValueType      string  `gorm:"size:16" json:"value_type"`
	PointsCredited int64   `json:"points_credited"`

	BalanceBefore int64 `json:"balance_before"`
	BalanceAfter  int64 `json:"balance_after"`

	Status string `gorm:"size:16;index" json:"status"`

	SignatureValid   bool           `json:"signature_valid"`
	FraudCheckPassed bool           `json:"fraud_check_passed"`
	RiskScore        int            `json:"risk_score"`
	FraudSignals     datatypes.JSON `gorm:"type:jsonb" json:"fraud_signals"`
	Metadata         datatypes.JSON `gorm:"type:jsonb" json:"metadata"`

	ReconciliationStatus string `gorm:"size:16;index;default:pending" json:"reconciliation_status"`

	Note string `gorm:"size:255"`
}
