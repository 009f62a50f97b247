package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GameSession ties a game launch to a user so that a later provider callback
// can be checked against who actually started playing. An expired or missing
// session is unverifiable, not fraudulent.
type GameSession struct {
	gorm.Model
	SID       string    `gorm:"size:36;uniqueIndex;not null"`
	UserID    uint      `gorm:"index"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Provider  string    `gorm:"size:32;index"`
	ExpiresAt time.Time `gorm:"index"`
}

func (s *GameSession) BeforeCreate(tx *gorm.DB) (err error) {
	s.SID = strings.ToLower(uuid.New().String())
	return nil
}
