package database

import (
	"log"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Initialize(dbPath string) error {
	var err error
	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	log.Println("Database connected successfully")

	// Clean up legacy duplicates before the unique index lands
	if err := cleanupDuplicateSnapshots(DB); err != nil {
		return err
	}

	// Auto-migrate the schema
	err = DB.AutoMigrate(
		&models.Comic{},
		&models.ValueHistoryPoint{},
		&models.PortfolioSnapshot{},
	)
	if err != nil {
		return err
	}

	if err := RunMigrations(DB); err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}

func GetDB() *gorm.DB {
	return DB
}
