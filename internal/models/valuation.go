package models

import (
	"fmt"
	"strings"
)

// Grade labels recognized in FMV tables, highest first. "raw" covers
// ungraded copies; "current" is the slot for the grade a caller asked about.
const (
	GradeRaw     = "raw"
	GradeCurrent = "current"
)

// FMVGrades is the fixed set of numeric grade labels pricing sources report.
var FMVGrades = []string{"9.8", "9.6", "9.4", "9.2", "9.0", "8.5", "8.0"}

// FMVTable maps a grade label to a fair-market-value estimate in USD.
// A missing key means the source reported nothing for that grade, not zero.
type FMVTable map[string]float64

// GradeLabel renders a numeric grade as an FMV table key, or "raw" for 0.
func GradeLabel(grade float64) string {
	if grade <= 0 {
		return GradeRaw
	}
	return fmt.Sprintf("%.1f", grade)
}

// ValuationQuery identifies the comic a caller wants valued. Grade and
// CertNumber refine the request but are not part of the cache identity.
type ValuationQuery struct {
	Title       string  `json:"title"`
	IssueNumber string  `json:"issue_number"`
	Publisher   string  `json:"publisher,omitempty"`
	Grade       float64 `json:"grade,omitempty"`
	CertNumber  string  `json:"cert_number,omitempty"`
}

// CacheKey returns the case-insensitive identity used by both cache tiers.
func (q ValuationQuery) CacheKey() string {
	return strings.ToLower(strings.TrimSpace(q.Title)) + "|" +
		strings.ToLower(strings.TrimSpace(q.IssueNumber)) + "|" +
		strings.ToLower(strings.TrimSpace(q.Publisher))
}

// Valid reports whether the query carries the required fields.
func (q ValuationQuery) Valid() bool {
	return strings.TrimSpace(q.Title) != "" && strings.TrimSpace(q.IssueNumber) != ""
}

// TrendDirection is the direction of a price trend
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// Trend describes a price movement reported by (or derived from) one source.
type Trend struct {
	Direction  TrendDirection `json:"direction"`
	Percentage float64        `json:"percentage,omitempty"`
}

// RecentSale is one observed sale. The list a source returns is in
// extraction order, not necessarily chronological.
type RecentSale struct {
	Price    float64 `json:"price"`
	Grade    string  `json:"grade"`
	Date     string  `json:"date"`
	SaleType string  `json:"sale_type,omitempty"`
}

// SourceUnavailable is the source label used when every pricing source
// failed or had no data.
const SourceUnavailable = "unavailable"

// ValuationResult is the normalized answer from the valuation aggregator.
// Exactly one of Success=true with a non-nil FMV table, or Success=false
// with a non-empty Error, holds.
type ValuationResult struct {
	Success        bool         `json:"success"`
	Source         string       `json:"source"`
	FMV            FMVTable     `json:"fmv,omitempty"`
	Trend          *Trend       `json:"trend,omitempty"`
	RecentSales    []RecentSale `json:"recent_sales,omitempty"`
	IsKeyIssue     bool         `json:"is_key_issue,omitempty"`
	KeyIssueReason string       `json:"key_issue_reason,omitempty"`
	Error          string       `json:"error,omitempty"`
}

// ScanResult is what the session scanning workflow caches per issue: the
// query it resolved and the valuation it got back.
type ScanResult struct {
	Query     ValuationQuery   `json:"query"`
	Valuation *ValuationResult `json:"valuation"`
}
