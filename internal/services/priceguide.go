package services

import (
	"context"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

const (
	priceGuideSite   = "comicspriceguide.com"
	priceGuideSource = "comicspriceguide"
)

// PriceGuideService is the second scraped fallback source, site-scoped to
// comicspriceguide.com. Those pages carry grade/price tables and explicit
// trend wording rather than sale records, so a result needs at least one
// grade price to count as a match.
type PriceGuideService struct {
	search *SearchClient
}

func NewPriceGuideService(search *SearchClient) *PriceGuideService {
	return &PriceGuideService{search: search}
}

func (s *PriceGuideService) Name() string { return priceGuideSource }

func (s *PriceGuideService) Enabled() bool { return s.search.Enabled() }

func (s *PriceGuideService) Query(ctx context.Context, q models.ValuationQuery) (*models.ValuationResult, error) {
	text, err := s.search.TopResultText(ctx, siteQuery(priceGuideSite, q.Title, q.IssueNumber, q.Publisher))
	if err != nil {
		return nil, err
	}

	extracted := ExtractPricing(text)
	if len(extracted.FMV) == 0 {
		return nil, ErrNotFound
	}

	return &models.ValuationResult{
		Success:        true,
		Source:         priceGuideSource,
		FMV:            fillCurrentGrade(extracted.FMV, q.Grade),
		Trend:          extracted.Trend,
		RecentSales:    extracted.RecentSales,
		IsKeyIssue:     extracted.IsKeyIssue,
		KeyIssueReason: extracted.KeyIssueReason,
	}, nil
}
