package models

import (
	"time"
)

// PortfolioSnapshot stores one row per calendar day of collection value,
// upserted on date conflict.
type PortfolioSnapshot struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SnapshotDate  time.Time `json:"snapshot_date" gorm:"uniqueIndex;not null"`
	TotalValue    float64   `json:"total_value"`
	ComicCount    int       `json:"comic_count"`
	GradedCount   int       `json:"graded_count"`
	KeyIssueCount int       `json:"key_issue_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValueHistoryResponse is the API response for portfolio value history
type ValueHistoryResponse struct {
	Snapshots []PortfolioSnapshot `json:"snapshots"`
	Period    string              `json:"period"` // "week", "month", "3month", "year", "all"
}
