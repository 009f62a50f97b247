package task

import (
	"time"

	log "github.com/sirupsen/logrus"

	"poinup/database"
	"poinup/models"
)

// CleanupExpiredSessions removes game sessions a day past expiry. Recent
// expired sessions are kept so late callbacks still log as "expired" rather
// than "unknown".
func CleanupExpiredSessions() {
	cutoff := time.Now().Add(-24 * time.Hour)
	result := database.DB.
		Where("expires_at < ?", cutoff).
		Delete(&models.GameSession{})

	if result.Error != nil {
		log.WithError(result.Error).Error("failed to delete expired sessions")
	} else if result.RowsAffected > 0 {
		log.Infof("deleted %d expired game sessions", result.RowsAffected)
	}
}
