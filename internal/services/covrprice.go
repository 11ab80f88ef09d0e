package services

import (
	"context"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

const (
	covrPriceSite   = "covrprice.com"
	covrPriceSource = "covrprice"
)

// CovrPriceService is the first scraped fallback source. It searches
// covrprice.com through the web-search provider and extracts pricing from
// the top result. CovrPrice pages lead with sale records, so when no
// explicit trend phrase is found the trend is derived from the sales.
type CovrPriceService struct {
	search *SearchClient
}

func NewCovrPriceService(search *SearchClient) *CovrPriceService {
	return &CovrPriceService{search: search}
}

func (s *CovrPriceService) Name() string { return covrPriceSource }

func (s *CovrPriceService) Enabled() bool { return s.search.Enabled() }

func (s *CovrPriceService) Query(ctx context.Context, q models.ValuationQuery) (*models.ValuationResult, error) {
	text, err := s.search.TopResultText(ctx, siteQuery(covrPriceSite, q.Title, q.IssueNumber, q.Publisher))
	if err != nil {
		return nil, err
	}

	extracted := ExtractPricing(text)
	if len(extracted.FMV) == 0 && len(extracted.RecentSales) == 0 {
		return nil, ErrNotFound
	}

	trend := extracted.Trend
	if trend == nil {
		trend = TrendFromSales(extracted.RecentSales)
	}

	return &models.ValuationResult{
		Success:        true,
		Source:         covrPriceSource,
		FMV:            fillCurrentGrade(extracted.FMV, q.Grade),
		Trend:          trend,
		RecentSales:    extracted.RecentSales,
		IsKeyIssue:     extracted.IsKeyIssue,
		KeyIssueReason: extracted.KeyIssueReason,
	}, nil
}

// fillCurrentGrade copies the requested grade's price into the "current"
// slot when the table has it.
func fillCurrentGrade(fmv models.FMVTable, grade float64) models.FMVTable {
	if fmv == nil {
		fmv = models.FMVTable{}
	}
	if value, ok := fmv[models.GradeLabel(grade)]; ok {
		fmv[models.GradeCurrent] = value
	}
	return fmv
}
