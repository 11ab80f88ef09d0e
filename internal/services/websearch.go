package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const searchAPIBaseURL = "https://www.searchapi.io/api/v1/search"

// SearchClient is a thin client for a general web-search provider. The
// scraped pricing sources use it to pull the text of the top result for a
// site-scoped query; they never talk to the priced sites directly.
type SearchClient struct {
	fetcher *Fetcher
	apiKey  string
	baseURL string
}

func NewSearchClient(fetcher *Fetcher, apiKey string) *SearchClient {
	return &SearchClient{
		fetcher: fetcher,
		apiKey:  apiKey,
		baseURL: searchAPIBaseURL,
	}
}

// Enabled reports whether search credentials are present.
func (s *SearchClient) Enabled() bool { return s.apiKey != "" }

type searchResponse struct {
	OrganicResults []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Content string `json:"content"`
	} `json:"organic_results"`
}

// TopResultText runs the query and returns the combined text of the first
// organic result. ErrNotFound means the search succeeded but matched
// nothing.
func (s *SearchClient) TopResultText(ctx context.Context, query string) (string, error) {
	if !s.Enabled() {
		return "", ErrSourceUnconfigured
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", s.apiKey)

	resp, err := s.fetcher.Get(ctx, s.baseURL+"?"+params.Encode(), map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("search: status %d", resp.StatusCode())
	}

	var parsed searchResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("search: decode: %w", err)
	}
	if len(parsed.OrganicResults) == 0 {
		return "", ErrNotFound
	}

	top := parsed.OrganicResults[0]
	var parts []string
	for _, part := range []string{top.Title, top.Snippet, top.Content} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "", ErrNotFound
	}
	return strings.Join(parts, "\n"), nil
}

// siteQuery builds a site-scoped search query for one comic.
func siteQuery(site, title, issue, publisher string) string {
	q := fmt.Sprintf("site:%s %q #%s", site, title, issue)
	if publisher != "" {
		q += " " + publisher
	}
	return q
}
