package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

const (
	goCollectBaseURL = "https://api.gocollect.com/api"
	goCollectSource  = "gocollect"
)

// GoCollectService queries the GoCollect collectibles API, the structured
// primary pricing source. It resolves a comic to an internal item id via
// search, then reads the FMV insights endpoint for that id. Response fields
// map onto the FMV table 1:1; trend and recent sales are surfaced verbatim.
type GoCollectService struct {
	fetcher *Fetcher
	apiKey  string
	baseURL string
}

// NewGoCollectService creates the GoCollect client. An empty API key leaves
// the source disabled; the aggregator will skip it.
func NewGoCollectService(fetcher *Fetcher, apiKey string) *GoCollectService {
	return &GoCollectService{
		fetcher: fetcher,
		apiKey:  apiKey,
		baseURL: goCollectBaseURL,
	}
}

func (s *GoCollectService) Name() string { return goCollectSource }

func (s *GoCollectService) Enabled() bool { return s.apiKey != "" }

type goCollectSearchItem struct {
	ItemID      int    `json:"item_id"`
	Title       string `json:"title"`
	IssueNumber string `json:"issue_number"`
	Publisher   string `json:"publisher"`
}

type goCollectInsights struct {
	FMV struct {
		Grade98 float64 `json:"grade_9_8"`
		Grade96 float64 `json:"grade_9_6"`
		Grade94 float64 `json:"grade_9_4"`
		Grade92 float64 `json:"grade_9_2"`
		Grade90 float64 `json:"grade_9_0"`
		Grade85 float64 `json:"grade_8_5"`
		Grade80 float64 `json:"grade_8_0"`
		Raw     float64 `json:"raw"`
		Current float64 `json:"requested_grade"`
	} `json:"fmv"`
	Trend struct {
		Direction  string  `json:"direction"`
		Percentage float64 `json:"percentage"`
	} `json:"trend"`
	RecentSales []struct {
		Price    float64 `json:"price"`
		Grade    string  `json:"grade"`
		SoldAt   string  `json:"sold_at"`
		SaleType string  `json:"sale_type"`
	} `json:"recent_sales"`
	KeyIssue       bool   `json:"key_issue"`
	KeyIssueReason string `json:"key_issue_reason"`
}

// Query resolves a valuation through GoCollect. It returns ErrNotFound when
// the search has no match and ErrSourceUnconfigured without an API key.
func (s *GoCollectService) Query(ctx context.Context, q models.ValuationQuery) (*models.ValuationResult, error) {
	if !s.Enabled() {
		return nil, ErrSourceUnconfigured
	}

	itemID, err := s.searchItem(ctx, q)
	if err != nil {
		return nil, err
	}

	insights, err := s.fetchInsights(ctx, itemID, q.Grade)
	if err != nil {
		return nil, err
	}

	result := s.buildResult(insights, q)
	if len(result.FMV) == 0 {
		// Item exists but has no market data yet
		return nil, ErrNotFound
	}
	return result, nil
}

// searchItem finds the GoCollect item id for a title/issue/publisher.
func (s *GoCollectService) searchItem(ctx context.Context, q models.ValuationQuery) (int, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf("%s %s", q.Title, q.IssueNumber))
	params.Set("cam", "comics")
	if q.Publisher != "" {
		params.Set("publisher", q.Publisher)
	}

	reqURL := fmt.Sprintf("%s/collectibles/v1/item/search?%s", s.baseURL, params.Encode())
	resp, err := s.fetcher.Get(ctx, reqURL, s.headers())
	if err != nil {
		return 0, fmt.Errorf("gocollect search: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return 0, ErrNotFound
	default:
		return 0, fmt.Errorf("gocollect search: status %d", resp.StatusCode())
	}

	var items []goCollectSearchItem
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return 0, fmt.Errorf("gocollect search: decode: %w", err)
	}
	if len(items) == 0 {
		return 0, ErrNotFound
	}

	return items[0].ItemID, nil
}

// fetchInsights reads the FMV insights for an item, optionally scoped to the
// requested grade.
func (s *GoCollectService) fetchInsights(ctx context.Context, itemID int, grade float64) (*goCollectInsights, error) {
	reqURL := fmt.Sprintf("%s/insights/v1/comics/%d", s.baseURL, itemID)
	if grade > 0 {
		reqURL += "?grade=" + url.QueryEscape(fmt.Sprintf("%.1f", grade))
	}

	resp, err := s.fetcher.Get(ctx, reqURL, s.headers())
	if err != nil {
		return nil, fmt.Errorf("gocollect insights: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("gocollect insights: status %d", resp.StatusCode())
	}

	var insights goCollectInsights
	if err := json.Unmarshal(resp.Body(), &insights); err != nil {
		return nil, fmt.Errorf("gocollect insights: decode: %w", err)
	}
	return &insights, nil
}

func (s *GoCollectService) buildResult(insights *goCollectInsights, q models.ValuationQuery) *models.ValuationResult {
	fmv := models.FMVTable{}
	for label, value := range map[string]float64{
		"9.8":           insights.FMV.Grade98,
		"9.6":           insights.FMV.Grade96,
		"9.4":           insights.FMV.Grade94,
		"9.2":           insights.FMV.Grade92,
		"9.0":           insights.FMV.Grade90,
		"8.5":           insights.FMV.Grade85,
		"8.0":           insights.FMV.Grade80,
		models.GradeRaw: insights.FMV.Raw,
	} {
		if value > 0 {
			fmv[label] = value
		}
	}
	if insights.FMV.Current > 0 {
		fmv[models.GradeCurrent] = insights.FMV.Current
	} else if value, ok := fmv[models.GradeLabel(q.Grade)]; ok {
		fmv[models.GradeCurrent] = value
	}

	result := &models.ValuationResult{
		Success:        true,
		Source:         goCollectSource,
		FMV:            fmv,
		IsKeyIssue:     insights.KeyIssue,
		KeyIssueReason: insights.KeyIssueReason,
	}

	switch models.TrendDirection(insights.Trend.Direction) {
	case models.TrendUp, models.TrendDown, models.TrendStable:
		result.Trend = &models.Trend{
			Direction:  models.TrendDirection(insights.Trend.Direction),
			Percentage: insights.Trend.Percentage,
		}
	}

	for _, sale := range insights.RecentSales {
		if sale.Price <= 0 {
			continue
		}
		result.RecentSales = append(result.RecentSales, models.RecentSale{
			Price:    sale.Price,
			Grade:    sale.Grade,
			Date:     sale.SoldAt,
			SaleType: sale.SaleType,
		})
		if len(result.RecentSales) >= maxExtractedSales {
			break
		}
	}

	return result
}

func (s *GoCollectService) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + s.apiKey,
		"Accept":        "application/json",
	}
}

// timeout shared by source clients when callers pass no deadline
const sourceQueryTimeout = 45 * time.Second
