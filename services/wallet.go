package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"poinup/models"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidPoints       = errors.New("points must be positive")
	ErrInvalidAmount       = errors.New("amount must be non-zero")
	ErrReasonRequired      = errors.New("adjustment reason too short")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Admin adjustments need a human-readable reason, not a placeholder.
const minAdjustmentReason = 10

type CreditMetadata struct {
	Provider       string
	ProviderTx     string
	OriginalValue  float64
	ValueType      string
	SignatureValid bool
	FraudPassed    bool
	RiskScore      int
	Signals        []string
	Note           string
}

type CreditResult struct {
	Success       bool  `json:"success"`
	TransactionID uint  `json:"transaction_id"`
	NewBalance    int64 `json:"new_balance"`
	IsDuplicate   bool  `json:"is_duplicate"`
}

// FindGameTransaction looks up the ledger row for an idempotency key.
// Returns nil with no error when the event has not been seen, the expected
// first-delivery path.
func FindGameTransaction(db *gorm.DB, provider, providerTx string) (*models.GameTransaction, error) {
	var existing models.GameTransaction
	err := db.Where("provider = ? AND provider_tx = ?", provider, providerTx).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &existing, nil
}

// CreditGameReward applies a converted, fraud-cleared reward exactly once.
//
// The probe plus the composite unique index on (provider, provider_tx) make
// re-delivered callbacks a no-op: the first delivery wins, every later one
// gets the recorded result back. The balance change is a relative increment,
// never read-modify-write, so concurrent credits to the same user cannot
// lose updates; the re-read inside the transaction only feeds the response.
func CreditGameReward(db *gorm.DB, userID uint, points int64, meta CreditMetadata) (CreditResult, error) {
	if points <= 0 {
		return CreditResult{}, ErrInvalidPoints
	}

	existing, err := FindGameTransaction(db, meta.Provider, meta.ProviderTx)
	if err != nil {
		return CreditResult{}, err
	}
	if existing != nil {
		return duplicateResult(existing), nil
	}

	var result CreditResult
	txErr := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		signalsJSON, _ := json.Marshal(meta.Signals)
		gameTx := models.GameTransaction{
			UserID:               user.ID,
			UserCode:             user.UserCode,
			Provider:             meta.Provider,
			ProviderTx:           meta.ProviderTx,
			OriginalValue:        meta.OriginalValue,
			ValueType:            meta.ValueType,
			PointsCredited:       points,
			BalanceBefore:        user.Points,
			BalanceAfter:         user.Points + points,
			Status:               models.GameTxCredited,
			SignatureValid:       meta.SignatureValid,
			FraudCheckPassed:     meta.FraudPassed,
			RiskScore:            meta.RiskScore,
			FraudSignals:         datatypes.JSON(signalsJSON),
			ReconciliationStatus: models.ReconPending,
			Note:                 meta.Note,
		}
		if err := tx.Create(&gameTx).Error; err != nil {
			return err
		}

		walletTx := models.WalletTransaction{
			UserID:        user.ID,
			UserCode:      user.UserCode,
			TrxType:       models.WalletCredit,
			Amount:        points,
			Source:        models.SourceGameReward,
			SourceID:      SourceKey(meta.Provider, meta.ProviderTx),
			BalanceBefore: user.Points,
			BalanceAfter:  user.Points + points,
			Note:          meta.Note,
			RefID:         uuid.NewString(),
		}
		if err := tx.Create(&walletTx).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			Updates(map[string]any{
				"points":         gorm.Expr("points + ?", points),
				"total_points":   gorm.Expr("total_points + ?", points),
				"total_earnings": gorm.Expr("total_earnings + ?", points),
			}).Error; err != nil {
			return err
		}

		result = CreditResult{
			Success:       true,
			TransactionID: gameTx.ID,
			NewBalance:    user.Points + points,
		}
		return nil
	})

	if txErr != nil {
		// a concurrent delivery can slip past the probe; the unique index
		// decides the race and the loser reports the winner's result
		if isUniqueViolation(txErr) {
			existing, err := FindGameTransaction(db, meta.Provider, meta.ProviderTx)
			if err == nil && existing != nil {
				return duplicateResult(existing), nil
			}
		}
		return CreditResult{}, txErr
	}
	return result, nil
}

func duplicateResult(existing *models.GameTransaction) CreditResult {
	return CreditResult{
		Success:       existing.Status == models.GameTxCredited,
		TransactionID: existing.ID,
		NewBalance:    existing.BalanceAfter,
		IsDuplicate:   true,
	}
}

// SourceKey identifies one provider event globally, for the wallet audit
// trail and for reconciliation joins.
func SourceKey(provider, providerTx string) string {
	return fmt.Sprintf("%s:%s", provider, providerTx)
}

type AdjustResult struct {
	Success       bool  `json:"success"`
	TransactionID uint  `json:"transaction_id"`
	NewBalance    int64 `json:"new_balance"`
}

// AdjustWalletBalance is the separately-audited manual path. Same atomic
// multi-write as crediting; a debit that would overdraw writes nothing.
func AdjustWalletBalance(db *gorm.DB, userID uint, amount int64, reason, adminID string) (AdjustResult, error) {
	if amount == 0 {
		return AdjustResult{}, ErrInvalidAmount
	}
	if len(strings.TrimSpace(reason)) < minAdjustmentReason {
		return AdjustResult{}, ErrReasonRequired
	}

	var result AdjustResult
	txErr := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if amount < 0 {
			// conditional decrement, no partial debit: rows affected is the
			// overdraft guard under concurrency
			res := tx.Model(&models.User{}).
				Where("id = ? AND points >= ?", user.ID, -amount).
				Update("points", gorm.Expr("points + ?", amount))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientBalance
			}
		} else {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
				Updates(map[string]any{
					"points":       gorm.Expr("points + ?", amount),
					"total_points": gorm.Expr("total_points + ?", amount),
				}).Error; err != nil {
				return err
			}
		}

		trxType := models.WalletCredit
		absAmount := amount
		if amount < 0 {
			trxType = models.WalletDebit
			absAmount = -amount
		}

		walletTx := models.WalletTransaction{
			UserID:        user.ID,
			UserCode:      user.UserCode,
			TrxType:       trxType,
			Amount:        absAmount,
			Source:        models.SourceAdminAdjustment,
			SourceID:      adminID,
			BalanceBefore: user.Points,
			BalanceAfter:  user.Points + amount,
			Note:          reason,
			RefID:         uuid.NewString(),
		}
		if err := tx.Create(&walletTx).Error; err != nil {
			return err
		}

		result = AdjustResult{
			Success:       true,
			TransactionID: walletTx.ID,
			NewBalance:    user.Points + amount,
		}
		return nil
	})

	if txErr != nil {
		return AdjustResult{}, txErr
	}
	return result, nil
}

// GetWalletBalance reads the cached balance for the user-facing APIs.
func GetWalletBalance(db *gorm.DB, userID uint) (int64, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return user.Points, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
