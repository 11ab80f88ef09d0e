package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/longboxhq/comic-tracker/backend/internal/metrics"
	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

// SnapshotService records one portfolio value snapshot per calendar day.
type SnapshotService struct {
	db            *gorm.DB
	mu            sync.RWMutex
	lastSnapshot  time.Time
	snapshotHour  int // Hour of day to take snapshot (0-23)
	checkInterval time.Duration
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(db *gorm.DB) *SnapshotService {
	return &SnapshotService{
		db:            db,
		snapshotHour:  23, // Default: 11 PM
		checkInterval: 15 * time.Minute,
	}
}

// Start begins the background snapshot worker
func (s *SnapshotService) Start(ctx context.Context) {
	log.Println("Snapshot service started: will record daily portfolio value")

	// Check if we need to take a snapshot for today on startup
	s.checkAndSnapshot()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Snapshot service stopping...")
			return
		case <-ticker.C:
			s.checkAndSnapshot()
		}
	}
}

// checkAndSnapshot checks if a snapshot is needed and takes one
func (s *SnapshotService) checkAndSnapshot() {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if s.hasSnapshotForDate(today) {
		return
	}

	// Only take automatic snapshots at or after the configured hour
	if now.Hour() >= s.snapshotHour {
		if err := s.TakeSnapshot(); err != nil {
			log.Printf("Snapshot service: failed to take snapshot: %v", err)
		}
	}
}

// hasSnapshotForDate checks if a snapshot exists for the given date
func (s *SnapshotService) hasSnapshotForDate(date time.Time) bool {
	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	var count int64
	s.db.Model(&models.PortfolioSnapshot{}).
		Where("snapshot_date >= ? AND snapshot_date < ?", startOfDay, endOfDay).
		Count(&count)

	return count > 0
}

// TakeSnapshot records the current portfolio value
func (s *SnapshotService) TakeSnapshot() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	snapshotDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats := s.CalculateStats()

	snapshot := models.PortfolioSnapshot{
		SnapshotDate:  snapshotDate,
		TotalValue:    stats.TotalValue,
		ComicCount:    stats.ComicCount,
		GradedCount:   stats.GradedCount,
		KeyIssueCount: stats.KeyIssueCount,
		CreatedAt:     now,
	}

	// Use upsert to handle duplicate dates
	result := s.db.Where("DATE(snapshot_date) = DATE(?)", snapshotDate).
		Assign(models.PortfolioSnapshot{
			TotalValue:    snapshot.TotalValue,
			ComicCount:    snapshot.ComicCount,
			GradedCount:   snapshot.GradedCount,
			KeyIssueCount: snapshot.KeyIssueCount,
		}).
		FirstOrCreate(&snapshot)

	if result.Error != nil {
		return result.Error
	}

	s.lastSnapshot = now
	log.Printf("Snapshot service: recorded value snapshot for %s (total: $%.2f, comics: %d)",
		snapshotDate.Format("2006-01-02"), stats.TotalValue, stats.ComicCount)

	return nil
}

// CalculateStats computes current portfolio statistics and refreshes the
// portfolio gauges.
func (s *SnapshotService) CalculateStats() models.PortfolioStats {
	var stats models.PortfolioStats

	var comicCount, gradedCount, keyCount int64
	s.db.Model(&models.Comic{}).Count(&comicCount)
	s.db.Model(&models.Comic{}).
		Where("grading_company != '' AND grading_company != ?", models.GradingRaw).
		Count(&gradedCount)
	s.db.Model(&models.Comic{}).Where("is_key_issue = ?", true).Count(&keyCount)

	stats.ComicCount = int(comicCount)
	stats.GradedCount = int(gradedCount)
	stats.KeyIssueCount = int(keyCount)

	s.db.Model(&models.Comic{}).Select("COALESCE(SUM(current_value), 0)").Scan(&stats.TotalValue)
	s.db.Model(&models.Comic{}).Select("COALESCE(SUM(purchase_price), 0)").Scan(&stats.TotalPaid)

	metrics.PortfolioComicsTotal.Set(float64(stats.ComicCount))
	metrics.PortfolioValueUSD.Set(stats.TotalValue)
	metrics.PortfolioGradedTotal.Set(float64(stats.GradedCount))
	metrics.PortfolioKeyIssuesTotal.Set(float64(stats.KeyIssueCount))

	return stats
}

// GetHistory retrieves value snapshots for a given period
func (s *SnapshotService) GetHistory(period string) ([]models.PortfolioSnapshot, error) {
	var snapshots []models.PortfolioSnapshot

	now := time.Now()
	var startDate time.Time

	switch period {
	case "week":
		startDate = now.AddDate(0, 0, -7)
	case "month":
		startDate = now.AddDate(0, -1, 0)
	case "3month":
		startDate = now.AddDate(0, -3, 0)
	case "year":
		startDate = now.AddDate(-1, 0, 0)
	case "all":
		startDate = time.Time{} // No filter
	default:
		startDate = now.AddDate(0, -1, 0) // Default to 1 month
	}

	query := s.db.Order("snapshot_date ASC")
	if !startDate.IsZero() {
		query = query.Where("snapshot_date >= ?", startDate)
	}

	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}

	return snapshots, nil
}

// GetRecentSnapshots returns snapshots newest-first, for baseline lookups.
func (s *SnapshotService) GetRecentSnapshots(limit int) ([]models.PortfolioSnapshot, error) {
	var snapshots []models.PortfolioSnapshot
	query := s.db.Order("snapshot_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// GetLastSnapshot returns the most recent snapshot
func (s *SnapshotService) GetLastSnapshot() *models.PortfolioSnapshot {
	var snapshot models.PortfolioSnapshot

	if err := s.db.Order("snapshot_date DESC").First(&snapshot).Error; err != nil {
		return nil
	}

	return &snapshot
}

// ForceTakeSnapshot takes a snapshot regardless of timing (for manual triggers)
func (s *SnapshotService) ForceTakeSnapshot() error {
	return s.TakeSnapshot()
}
