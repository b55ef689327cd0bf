package database

import (
	"fmt"

	"botgate/internal/config"
	logging "botgate/internal/logging"
	"botgate/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Init opens the audit database and runs migrations. Callers must only
// invoke it when database.enabled is set; the verification flow itself never
// depends on the connection.
func Init(log *zap.Logger) {
	var err error
	dbConf := config.Conf.Database
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		dbConf.Host, dbConf.User, dbConf.Password, dbConf.DBName, dbConf.Port)

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		// Route GORM's own logging through zap.
		Logger: logging.NewGormZapLogger(log),
	})

	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	log.Info("Database connection established successfully.")
	runMigrations(log)
}

func runMigrations(log *zap.Logger) {
	// GORM's AutoMigrate will create tables, columns, and foreign keys.
	// It will NOT create custom indexes, so we handle that separately.
	err := DB.AutoMigrate(
		&models.VerificationEvent{},
		&models.MovementSampleRow{},
	)
	if err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database migrations completed successfully.")

	eventsIndex := `CREATE INDEX IF NOT EXISTS idx_events_query ON verification_events (session_id, stage, created_at DESC);`
	if err := DB.Exec(eventsIndex).Error; err != nil {
		log.Fatal("Failed to create custom index on events table", zap.Error(err))
	}

	samplesIndex := `CREATE INDEX IF NOT EXISTS idx_samples_label ON movement_sample_rows (label, created_at);`
	if err := DB.Exec(samplesIndex).Error; err != nil {
		log.Fatal("Failed to create custom index on samples table", zap.Error(err))
	}
	log.Info("Custom indexes ensured successfully.")
}
