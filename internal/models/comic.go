package models

import (
	"time"
)

// GradingCompany identifies which service slabbed a comic, or "raw" for
// ungraded books.
type GradingCompany string

const (
	GradingRaw  GradingCompany = "raw"
	GradingCGC  GradingCompany = "CGC"
	GradingCBCS GradingCompany = "CBCS"
	GradingPGX  GradingCompany = "PGX"
)

// AllGradingCompanies returns all supported grading companies
func AllGradingCompanies() []GradingCompany {
	return []GradingCompany{
		GradingRaw,
		GradingCGC,
		GradingCBCS,
		GradingPGX,
	}
}

type Comic struct {
	ID             string         `json:"id" gorm:"primaryKey"`
	Title          string         `json:"title" gorm:"not null;index"`
	IssueNumber    string         `json:"issue_number" gorm:"not null;index"`
	Publisher      string         `json:"publisher"`
	Grade          float64        `json:"grade"` // 0 for raw/ungraded
	GradingCompany GradingCompany `json:"grading_company" gorm:"default:'raw'"`
	CertNumber     string         `json:"cert_number" gorm:"index"`
	IsKeyIssue     bool           `json:"is_key_issue"`
	KeyIssueReason string         `json:"key_issue_reason"`
	CoverImageURL  string         `json:"cover_image_url"`
	PurchasePrice  float64        `json:"purchase_price"`
	CurrentValue   float64        `json:"current_value"`
	ValueSource    string         `json:"value_source"` // pricing source of current_value
	ValueUpdatedAt *time.Time     `json:"value_updated_at"`
	Notes          string         `json:"notes"`
	AddedAt        time.Time      `json:"added_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsSlabbed reports whether the comic is in a sealed grading holder.
func (c *Comic) IsSlabbed() bool {
	return c.GradingCompany != "" && c.GradingCompany != GradingRaw
}

// ValueHistoryPoint records one observed value for a tracked comic.
// Points are append-only and ordered oldest-first for trend computation.
type ValueHistoryPoint struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ComicID    string    `json:"comic_id" gorm:"not null;index"`
	Value      float64   `json:"value"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recorded_at" gorm:"not null;index"`
}

type AddComicRequest struct {
	Title          string         `json:"title" binding:"required"`
	IssueNumber    string         `json:"issue_number" binding:"required"`
	Publisher      string         `json:"publisher"`
	Grade          float64        `json:"grade"`
	GradingCompany GradingCompany `json:"grading_company"`
	CertNumber     string         `json:"cert_number"`
	IsKeyIssue     bool           `json:"is_key_issue"`
	KeyIssueReason string         `json:"key_issue_reason"`
	CoverImageURL  string         `json:"cover_image_url"`
	PurchasePrice  float64        `json:"purchase_price"`
	Notes          string         `json:"notes"`
}

type UpdateComicRequest struct {
	Title          *string         `json:"title"`
	IssueNumber    *string         `json:"issue_number"`
	Publisher      *string         `json:"publisher"`
	Grade          *float64        `json:"grade"`
	GradingCompany *GradingCompany `json:"grading_company"`
	CertNumber     *string         `json:"cert_number"`
	IsKeyIssue     *bool           `json:"is_key_issue"`
	KeyIssueReason *string         `json:"key_issue_reason"`
	CoverImageURL  *string         `json:"cover_image_url"`
	PurchasePrice  *float64        `json:"purchase_price"`
	Notes          *string         `json:"notes"`
}

// PortfolioStats summarizes the current collection
type PortfolioStats struct {
	ComicCount    int     `json:"comic_count"`
	GradedCount   int     `json:"graded_count"`
	KeyIssueCount int     `json:"key_issue_count"`
	TotalValue    float64 `json:"total_value"`
	TotalPaid     float64 `json:"total_paid"`
}
