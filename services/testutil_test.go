package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"poinup/database"
	"poinup/models"
)

// setupTestDB opens a named in-memory sqlite database with the production
// schema. Each test gets its own database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, userCode string, points int64) *models.User {
	t.Helper()
	user := &models.User{
		UserCode:      userCode,
		Points:        points,
		TotalPoints:   points,
		TotalEarnings: points,
		IsActive:      true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedCreditedTx(t *testing.T, db *gorm.DB, userID uint, provider, providerTx string, createdAt time.Time) {
	t.Helper()
	gtx := models.GameTransaction{
		Model:                gorm.Model{CreatedAt: createdAt, UpdatedAt: createdAt},
		UserID:               userID,
		Provider:             provider,
		ProviderTx:           providerTx,
		PointsCredited:       1,
		Status:               models.GameTxCredited,
		FraudCheckPassed:     true,
		SignatureValid:       true,
		ReconciliationStatus: models.ReconPending,
	}
	require.NoError(t, db.Create(&gtx).Error)
}
