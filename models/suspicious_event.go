package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Named fraud signals. Any signal blocks crediting; the risk contributions
// only prioritize manual review.
const (
	SignalInvalidSignature   = "invalid_signature"
	SignalUserIDMismatch     = "user_id_mismatch"
	SignalVelocityMinute     = "velocity_minute_exceeded"
	SignalVelocityHour       = "velocity_hour_exceeded"
	SignalVelocityDay        = "velocity_day_exceeded"
	SignalMultipleProviders  = "multiple_providers_short_time"
	SignalRepeatedSuspicious = "repeated_suspicious_activity"
)

// SuspiciousEvent is an append-only audit row written by the fraud gate and
// the signature middleware. The crediting path never deletes these.
type SuspiciousEvent struct {
	gorm.Model

	UserID           uint           `gorm:"index"`
	Provider         string         `gorm:"size:32;index"`
	Signal           string         `gorm:"size:48;index"`
	RiskContribution int            `json:"risk_contribution"`
	Details          datatypes.JSON `gorm:"type:jsonb"`
}

const (
	ReviewOpen     = "open"
	ReviewResolved = "resolved"
)

// FraudReviewEntry queues a flagged user for manual review. Created when a
// fraud check crosses the flag threshold, resolved by an admin.
type FraudReviewEntry struct {
	gorm.Model

	UserID     uint           `gorm:"index"`
	Provider   string         `gorm:"size:32"`
	RiskScore  int            `json:"risk_score"`
	Signals    datatypes.JSON `gorm:"type:jsonb"`
	Status     string         `gorm:"size:16;index;default:open"`
	ReviewedBy string         `gorm:"size:32"`
	Note       string         `gorm:"size:255"`
}
