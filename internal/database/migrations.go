package database

import (
	"log"

	"gorm.io/gorm"
)

// cleanupDuplicateSnapshots removes duplicate portfolio_snapshots rows
// before the unique date constraint is added. This runs BEFORE AutoMigrate
// to prevent constraint violations.
func cleanupDuplicateSnapshots(db *gorm.DB) error {
	if !db.Migrator().HasTable("portfolio_snapshots") {
		return nil // No table, no duplicates to clean
	}

	// Keep the most recently created row per snapshot date
	result := db.Exec(`
		DELETE FROM portfolio_snapshots
		WHERE id NOT IN (
			SELECT MAX(id)
			FROM portfolio_snapshots
			GROUP BY DATE(snapshot_date)
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d duplicate portfolio snapshot rows", result.RowsAffected)
	}

	return nil
}

// RunMigrations runs custom data migrations after schema changes
func RunMigrations(db *gorm.DB) error {
	return normalizeGradingCompanies(db)
}

// normalizeGradingCompanies backfills rows created before the grading
// company column had a default.
func normalizeGradingCompanies(db *gorm.DB) error {
	if !db.Migrator().HasColumn("comics", "grading_company") {
		return nil
	}

	result := db.Exec(`UPDATE comics SET grading_company = 'raw' WHERE grading_company IS NULL OR grading_company = ''`)
	if result.Error != nil {
		log.Printf("Warning: failed to normalize grading companies: %v", result.Error)
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("Normalized grading company on %d comics", result.RowsAffected)
	}
	return nil
}
