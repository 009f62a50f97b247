package jobs

import (
	"time"

	log "github.com/sirupsen/logrus"

	"poinup/database"
	"poinup/services"
	"poinup/task"
)

// StartSchedulers runs the out-of-band maintenance loops: daily ledger
// reconciliation and expired-session cleanup. Neither touches the hot
// crediting path.
func StartSchedulers() {
	tickerRecon := time.NewTicker(1 * time.Hour)
	go func() {
		for {
			<-tickerRecon.C
			if err := services.RunDailyReconciliation(database.DB, time.Now().UTC()); err != nil {
				log.WithError(err).Error("reconciliation run failed")
			}
		}
	}()

	tickerCleanup := time.NewTicker(30 * time.Minute)
	go func() {
		for {
			<-tickerCleanup.C
			task.CleanupExpiredSessions()
		}
	}()
}
