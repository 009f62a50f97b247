package services

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"poinup/models"
)

// Risk contributions per signal. Total is capped at 100; the numeric score
// only prioritizes review, presence of any signal already blocks crediting.
const (
	RiskInvalidSignature   = 80
	RiskUserIDMismatch     = 50
	RiskVelocityMinute     = 30
	RiskVelocityHour       = 20
	RiskVelocityDay        = 25
	RiskMultipleProviders  = 15
	RiskRepeatedSuspicious = 20

	maxRiskScore = 100
)

type FraudThresholds struct {
	MaxCreditsPerMinute int
	MaxCreditsPerHour   int
	MaxCreditsPerDay    int
	MaxProviders15Min   int
	MaxSuspicious24h    int
	FlagThreshold       int
}

func DefaultFraudThresholds() FraudThresholds {
	return FraudThresholds{
		MaxCreditsPerMinute: envInt("FRAUD_MAX_CREDITS_PER_MINUTE", 5),
		MaxCreditsPerHour:   envInt("FRAUD_MAX_CREDITS_PER_HOUR", 30),
		MaxCreditsPerDay:    envInt("FRAUD_MAX_CREDITS_PER_DAY", 200),
		MaxProviders15Min:   envInt("FRAUD_MAX_PROVIDERS_15MIN", 3),
		MaxSuspicious24h:    envInt("FRAUD_MAX_SUSPICIOUS_24H", 3),
		FlagThreshold:       envInt("FRAUD_FLAG_THRESHOLD", 100),
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warnf("invalid value for %s: %q", key, raw)
		return fallback
	}
	return n
}

type FraudResult struct {
	Passed     bool     `json:"passed"`
	Signals    []string `json:"signals"`
	RiskScore  int      `json:"risk_score"`
	ShouldFlag bool     `json:"should_flag"`
}

// PerformFraudCheck inspects a candidate crediting event before the atomic
// credit runs. sessionUserID is nil when no session could be resolved; a
// missing session is unverifiable, a present-but-different one is fraud.
//
// Velocity and pattern checks fail open on store errors: an unreachable
// history never blocks a legitimate callback, and never masks an explicit
// identity mismatch either.
func PerformFraudCheck(db *gorm.DB, userID uint, provider string, sessionUserID *uint, callbackUserID uint, th FraudThresholds) FraudResult {
	now := time.Now()

	var signals []string
	risk := 0
	type audit struct {
		signal  string
		risk    int
		details map[string]any
	}
	var logged []audit

	if sessionUserID != nil && *sessionUserID != callbackUserID {
		signals = append(signals, models.SignalUserIDMismatch)
		risk += RiskUserIDMismatch
		logged = append(logged, audit{models.SignalUserIDMismatch, RiskUserIDMismatch, map[string]any{
			"session_user_id":  *sessionUserID,
			"callback_user_id": callbackUserID,
		}})
	}

	minuteCount, err := countCreditedSince(db, userID, now.Add(-time.Minute))
	if err != nil {
		log.WithError(err).WithField("window", "1m").Warn("velocity check unavailable, treating as not exceeded")
	} else if minuteCount >= int64(th.MaxCreditsPerMinute) {
		signals = append(signals, models.SignalVelocityMinute)
		risk += RiskVelocityMinute
		logged = append(logged, audit{models.SignalVelocityMinute, RiskVelocityMinute, map[string]any{
			"count": minuteCount, "limit": th.MaxCreditsPerMinute,
		}})
	}

	hourCount, err := countCreditedSince(db, userID, now.Add(-time.Hour))
	if err != nil {
		log.WithError(err).WithField("window", "1h").Warn("velocity check unavailable, treating as not exceeded")
	} else if hourCount >= int64(th.MaxCreditsPerHour) {
		// softer signal: blocks like any other but is not written to the
		// suspicious event log
		signals = append(signals, models.SignalVelocityHour)
		risk += RiskVelocityHour
	}

	dayCount, err := countCreditedSince(db, userID, now.Add(-24*time.Hour))
	if err != nil {
		log.WithError(err).WithField("window", "24h").Warn("velocity check unavailable, treating as not exceeded")
	} else if dayCount >= int64(th.MaxCreditsPerDay) {
		signals = append(signals, models.SignalVelocityDay)
		risk += RiskVelocityDay
		logged = append(logged, audit{models.SignalVelocityDay, RiskVelocityDay, map[string]any{
			"count": dayCount, "limit": th.MaxCreditsPerDay,
		}})
	}

	providerCount, err := countDistinctProvidersSince(db, userID, now.Add(-15*time.Minute))
	if err != nil {
		log.WithError(err).Warn("cross-provider check unavailable, treating as not exceeded")
	} else if providerCount >= int64(th.MaxProviders15Min) {
		signals = append(signals, models.SignalMultipleProviders)
		risk += RiskMultipleProviders
		logged = append(logged, audit{models.SignalMultipleProviders, RiskMultipleProviders, map[string]any{
			"providers": providerCount, "limit": th.MaxProviders15Min,
		}})
	}

	suspiciousCount, err := countSuspiciousSince(db, userID, now.Add(-24*time.Hour))
	if err != nil {
		log.WithError(err).Warn("suspicious-history check unavailable, treating as not exceeded")
	} else if suspiciousCount >= int64(th.MaxSuspicious24h) {
		signals = append(signals, models.SignalRepeatedSuspicious)
		risk += RiskRepeatedSuspicious
		logged = append(logged, audit{models.SignalRepeatedSuspicious, RiskRepeatedSuspicious, map[string]any{
			"events": suspiciousCount, "limit": th.MaxSuspicious24h,
		}})
	}

	if risk > maxRiskScore {
		risk = maxRiskScore
	}

	result := FraudResult{
		Passed:     len(signals) == 0,
		Signals:    signals,
		RiskScore:  risk,
		ShouldFlag: risk >= th.FlagThreshold,
	}

	for _, a := range logged {
		LogSuspiciousEvent(db, userID, provider, a.signal, a.risk, a.details)
	}

	if result.ShouldFlag {
		flagUser(db, userID, provider, result)
	}

	if !result.Passed {
		log.WithFields(log.Fields{
			"user_id":  userID,
			"provider": provider,
			"signals":  signals,
			"risk":     risk,
		}).Warn("fraud gate rejected crediting event")
	}

	return result
}

// LogSuspiciousEvent appends to the suspicious audit log. Best effort: a
// failed write is an operator problem, never a reason to drop the block.
func LogSuspiciousEvent(db *gorm.DB, userID uint, provider, signal string, contribution int, details map[string]any) {
	detailsJSON, _ := json.Marshal(details)
	event := models.SuspiciousEvent{
		UserID:           userID,
		Provider:         provider,
		Signal:           signal,
		RiskContribution: contribution,
		Details:          datatypes.JSON(detailsJSON),
	}
	if err := db.Create(&event).Error; err != nil {
		log.WithError(err).WithField("signal", signal).Error("failed to write suspicious event")
	}
}

// flagUser marks the user for manual review. Independent of whether this
// specific event is credited.
func flagUser(db *gorm.DB, userID uint, provider string, res FraudResult) {
	now := time.Now()
	if err := db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]any{"fraud_flagged": true, "fraud_flagged_at": now}).Error; err != nil {
		log.WithError(err).WithField("user_id", userID).Error("failed to flag user")
	}

	signalsJSON, _ := json.Marshal(res.Signals)
	entry := models.FraudReviewEntry{
		UserID:    userID,
		Provider:  provider,
		RiskScore: res.RiskScore,
		Signals:   datatypes.JSON(signalsJSON),
		Status:    models.ReviewOpen,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.WithError(err).WithField("user_id", userID).Error("failed to enqueue fraud review entry")
	}
}

// RecordRejection persists the rejected event in the ledger so re-delivery
// of the same provider transaction stays rejected. Races with retries of
// the same event are absorbed by the unique index.
func RecordRejection(db *gorm.DB, user *models.User, provider, providerTx string, rawValue float64, valueType string, res FraudResult) {
	status := models.GameTxRejected
	if res.ShouldFlag {
		status = models.GameTxFraudFlagged
	}

	signalsJSON, _ := json.Marshal(res.Signals)
	gtx := models.GameTransaction{
		UserID:               user.ID,
		UserCode:             user.UserCode,
		Provider:             provider,
		ProviderTx:           providerTx,
		OriginalValue:        rawValue,
		ValueType:            valueType,
		PointsCredited:       0,
		BalanceBefore:        user.Points,
		BalanceAfter:         user.Points,
		Status:               status,
		SignatureValid:       true,
		FraudCheckPassed:     false,
		RiskScore:            res.RiskScore,
		FraudSignals:         datatypes.JSON(signalsJSON),
		ReconciliationStatus: models.ReconPending,
	}
	if err := db.Create(&gtx).Error; err != nil && !isUniqueViolation(err) {
		log.WithError(err).Error("failed to record rejected transaction")
	}
}

func countCreditedSince(db *gorm.DB, userID uint, since time.Time) (int64, error) {
	var n int64
	err := db.Model(&models.GameTransaction{}).
		Where("user_id = ? AND status = ? AND created_at > ?", userID, models.GameTxCredited, since).
		Count(&n).Error
	return n, err
}

func countDistinctProvidersSince(db *gorm.DB, userID uint, since time.Time) (int64, error) {
	var n int64
	err := db.Model(&models.GameTransaction{}).
		Distinct("provider").
		Where("user_id = ? AND status = ? AND created_at > ?", userID, models.GameTxCredited, since).
		Count(&n).Error
	return n, err
}

func countSuspiciousSince(db *gorm.DB, userID uint, since time.Time) (int64, error) {
	var n int64
	err := db.Model(&models.SuspiciousEvent{}).
		Where("user_id = ? AND created_at > ?", userID, since).
		Count(&n).Error
	return n, err
}
