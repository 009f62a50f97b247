package database

import (
	"fmt"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"poinup/models"
)

var DB *gorm.DB

func Connect() {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	name := os.Getenv("DB_NAME")
	sslmode := os.Getenv("DB_SSLMODE")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, pass, name, port, sslmode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	DB = db
	log.Info("connected to database")

	autoMigrateEnv := os.Getenv("DB_AUTO_MIGRATE")
	autoMigrate, err := strconv.ParseBool(autoMigrateEnv)
	if err != nil {
		log.Warnf("invalid value for DB_AUTO_MIGRATE: %q", autoMigrateEnv)
	}

	if autoMigrate {
		log.Info("starting auto-migration")

		if err := Migrate(DB); err != nil {
			log.WithError(err).Fatal("failed to auto-migrate database")
		}

		log.Info("auto migration completed")
	}
}

// Migrate creates or updates the schema for every persisted collection.
// Shared with the test helpers so sqlite test databases match production.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.GameSession{},
		&models.GameTransaction{},
		&models.WalletTransaction{},
		&models.SuspiciousEvent{},
		&models.FraudReviewEntry{},
		&models.ReconciliationReport{},
	)
}
