package services

import (
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"poinup/models"
)

// CreateGameSession records who launched a game for which provider, so the
// provider's later callback can be checked against the launching user.
func CreateGameSession(db *gorm.DB, userID uint, provider string) (*models.GameSession, error) {
	session := models.GameSession{
		UserID:    userID,
		Provider:  provider,
		ExpiresAt: time.Now().Add(sessionTTL()),
	}
	if err := db.Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// ResolveSessionUser maps a callback's session token to the user who
// launched play. nil means unverifiable (no token, unknown or expired
// session): logged, not blocked. Only a resolved session that names a
// different user is a fraud signal.
func ResolveSessionUser(db *gorm.DB, sid string) *uint {
	sid = strings.ToLower(strings.TrimSpace(sid))
	if sid == "" {
		return nil
	}

	var session models.GameSession
	err := db.Where("s_id = ? AND expires_at > ?", sid, time.Now()).First(&session).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.WithError(err).Warn("session lookup unavailable, treating as unverifiable")
		} else {
			log.WithField("sid", sid).Info("callback session unknown or expired")
		}
		return nil
	}
	return &session.UserID
}

func sessionTTL() time.Duration {
	minutes := envInt("GAME_SESSION_TTL_MINUTES", 120)
	return time.Duration(minutes) * time.Minute
}
