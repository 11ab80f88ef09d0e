package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

// The extractor turns a blob of scraped search-result text into structured
// pricing data. Every pattern is best-effort: a miss is absence of data, not
// an error, and first match wins per rule.

const (
	maxExtractedSales = 10
	// trendThresholdPct is the relative change above which a sales-derived
	// trend counts as a real move instead of noise
	trendThresholdPct = 5.0
)

// currencyAmount captures a dollar figure with optional thousands separators
const currencyAmount = `\$\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`

var (
	// gradePricePatterns looks for a grade token followed by a dollar
	// amount within a short window, one pattern per known grade label.
	gradePricePatterns = buildGradePricePatterns()

	// salePattern matches "<price> - <grade> - <date>" sale records
	salePattern = regexp.MustCompile(
		currencyAmount + `\s*-\s*((?:[0-9]+(?:\.[0-9])?)|(?i:raw))\s*-\s*([0-9]{4}-[0-9]{2}-[0-9]{2}|[0-9]{1,2}/[0-9]{1,2}/[0-9]{2,4})`)

	trendUpPattern   = regexp.MustCompile(`(?i)\b(?:up|increased|rising)\b[^0-9%]{0,20}([0-9]+(?:\.[0-9]+)?)\s*%`)
	trendDownPattern = regexp.MustCompile(`(?i)\b(?:down|decreased|falling)\b[^0-9%]{0,20}([0-9]+(?:\.[0-9]+)?)\s*%`)

	keyIssuePhrases = []string{
		"first appearance",
		"1st appearance",
		"key issue",
		"origin story",
		"death of",
	}
)

func buildGradePricePatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(models.FMVGrades)+1)
	for _, grade := range models.FMVGrades {
		patterns[grade] = regexp.MustCompile(`(?s)\b` + regexp.QuoteMeta(grade) + `\b.{0,30}?` + currencyAmount)
	}
	patterns[models.GradeRaw] = regexp.MustCompile(`(?si)\braw\b.{0,30}?` + currencyAmount)
	return patterns
}

// ExtractedPricing is the structured output of one extraction pass.
type ExtractedPricing struct {
	FMV            models.FMVTable
	Trend          *models.Trend
	RecentSales    []models.RecentSale
	IsKeyIssue     bool
	KeyIssueReason string
}

// ExtractPricing runs all extraction rules over text. Rules are
// non-exclusive; several can fire on the same blob.
func ExtractPricing(text string) ExtractedPricing {
	result := ExtractedPricing{
		FMV:         extractGradePrices(text),
		RecentSales: extractRecentSales(text),
		Trend:       extractTrendPhrase(text),
	}
	result.IsKeyIssue, result.KeyIssueReason = extractKeyIssue(text)
	return result
}

// extractGradePrices takes the first positive dollar amount near each known
// grade token. Unparseable or non-positive amounts are discarded.
func extractGradePrices(text string) models.FMVTable {
	fmv := make(models.FMVTable)
	for label, pattern := range gradePricePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if price, ok := parsePrice(m[1]); ok {
			fmv[label] = price
		}
	}
	return fmv
}

// extractRecentSales collects up to 10 "<price> - <grade> - <date>" records
// in text order; the order is extraction order, not chronological.
func extractRecentSales(text string) []models.RecentSale {
	matches := salePattern.FindAllStringSubmatch(text, maxExtractedSales)
	var sales []models.RecentSale
	for _, m := range matches {
		price, ok := parsePrice(m[1])
		if !ok {
			continue
		}
		sales = append(sales, models.RecentSale{
			Price: price,
			Grade: strings.ToLower(m[2]),
			Date:  m[3],
		})
	}
	return sales
}

// extractTrendPhrase finds a directional keyword immediately followed by a
// percentage. Upward phrases are checked first, so a blob matching both
// directions reports "up". That tie-break is an artifact of check order,
// kept for compatibility with how these result pages read.
func extractTrendPhrase(text string) *models.Trend {
	if m := trendUpPattern.FindStringSubmatch(text); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &models.Trend{Direction: models.TrendUp, Percentage: pct}
		}
	}
	if m := trendDownPattern.FindStringSubmatch(text); m != nil {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &models.Trend{Direction: models.TrendDown, Percentage: pct}
		}
	}
	return nil
}

// extractKeyIssue scans for key-issue phrases and, on the first hit, grabs a
// small window of surrounding text as the human-readable reason.
func extractKeyIssue(text string) (bool, string) {
	lower := strings.ToLower(text)
	for _, phrase := range keyIssuePhrases {
		idx := strings.Index(lower, phrase)
		if idx < 0 {
			continue
		}
		start := idx - 20
		if start < 0 {
			start = 0
		}
		end := idx + len(phrase) + 50
		if end > len(text) {
			end = len(text)
		}
		return true, strings.TrimSpace(text[start:end])
	}
	return false, ""
}

// saleDateLayouts are the date shapes sale records show up in
var saleDateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "1/2/06"}

// TrendFromSales derives a direction by comparing the most recent sale price
// to the oldest. Moves inside ±5% are reported as stable. Used by sources
// that return sale records instead of explicit trend phrases.
func TrendFromSales(sales []models.RecentSale) *models.Trend {
	type datedSale struct {
		price float64
		date  time.Time
	}

	var dated []datedSale
	for _, s := range sales {
		for _, layout := range saleDateLayouts {
			if d, err := time.Parse(layout, s.Date); err == nil {
				dated = append(dated, datedSale{price: s.Price, date: d})
				break
			}
		}
	}
	if len(dated) < 2 {
		return nil
	}

	sort.Slice(dated, func(i, j int) bool { return dated[i].date.After(dated[j].date) })

	newest := dated[0].price
	oldest := dated[len(dated)-1].price
	if oldest <= 0 {
		return nil
	}

	pct := (newest - oldest) / oldest * 100
	trend := &models.Trend{Percentage: roundTwo(absFloat(pct))}
	switch {
	case pct > trendThresholdPct:
		trend.Direction = models.TrendUp
	case pct < -trendThresholdPct:
		trend.Direction = models.TrendDown
	default:
		trend.Direction = models.TrendStable
	}
	return trend
}

func parsePrice(raw string) (float64, bool) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price <= 0 {
		return 0, false
	}
	return price, true
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
