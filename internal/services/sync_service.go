package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/longboxhq/comic-tracker/backend/internal/metrics"
	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

const (
	syncPageSize = 100
	// syncPageDelay is a politeness throttle toward the remote collection
	// host, not a concurrency mechanism
	syncPageDelay = 500 * time.Millisecond
)

// CollectionSyncService pulls a user's collection from a remote vault
// endpoint and reconciles it against the local catalog.
type CollectionSyncService struct {
	fetcher *Fetcher
	db      *gorm.DB
	baseURL string
	token   string
	limiter *rate.Limiter

	mu      sync.Mutex
	running bool
	last    *SyncResult
}

// SyncResult reports one completed sync run.
type SyncResult struct {
	Success  bool   `json:"success"`
	Imported int    `json:"imported"`
	Updated  int    `json:"updated"`
	Total    int    `json:"total"`
	Message  string `json:"message"`
}

// RemoteComicItem is one row of the remote collection payload.
type RemoteComicItem struct {
	Title          string  `json:"title"`
	IssueNumber    string  `json:"issue_number"`
	Publisher      string  `json:"publisher"`
	Grade          float64 `json:"grade"`
	GradingCompany string  `json:"grading_company"`
	CertNumber     string  `json:"cert_number"`
	Value          float64 `json:"value"`
	CoverURL       string  `json:"cover_url"`
}

type remotePageResponse struct {
	Items []RemoteComicItem `json:"items"`
	Total int               `json:"total"`
}

func NewCollectionSyncService(fetcher *Fetcher, db *gorm.DB, baseURL, token string) *CollectionSyncService {
	return &CollectionSyncService{
		fetcher: fetcher,
		db:      db,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		limiter: rate.NewLimiter(rate.Every(syncPageDelay), 1),
	}
}

// Enabled reports whether the remote endpoint is configured.
func (s *CollectionSyncService) Enabled() bool {
	return s.baseURL != "" && s.token != ""
}

// IsRunning reports whether a sync is in progress.
func (s *CollectionSyncService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// LastResult returns the result of the most recent completed sync, if any.
func (s *CollectionSyncService) LastResult() *SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Sync fetches all remote pages and applies the insert/update sets. Only
// one sync runs at a time; a second call while running returns nil.
func (s *CollectionSyncService) Sync(ctx context.Context) (*SyncResult, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("collection sync is not configured")
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	items, err := s.fetchAllItems(ctx)
	if err != nil {
		return nil, err
	}

	var existing []models.Comic
	if err := s.db.Find(&existing).Error; err != nil {
		return nil, fmt.Errorf("sync: load catalog: %w", err)
	}

	inserts, updates := ReconcileItems(items, existing)

	for i := range inserts {
		if err := s.db.Create(&inserts[i]).Error; err != nil {
			log.Printf("Collection sync: failed to insert %q #%s: %v", inserts[i].Title, inserts[i].IssueNumber, err)
		}
	}
	for i := range updates {
		if err := s.db.Save(&updates[i]).Error; err != nil {
			log.Printf("Collection sync: failed to update %q #%s: %v", updates[i].Title, updates[i].IssueNumber, err)
		}
	}

	metrics.SyncItemsTotal.WithLabelValues("imported").Add(float64(len(inserts)))
	metrics.SyncItemsTotal.WithLabelValues("updated").Add(float64(len(updates)))

	result := &SyncResult{
		Success:  true,
		Imported: len(inserts),
		Updated:  len(updates),
		Total:    len(items),
		Message:  fmt.Sprintf("synced %d items: %d imported, %d updated", len(items), len(inserts), len(updates)),
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	log.Printf("Collection sync: %s", result.Message)
	return result, nil
}

// fetchAllItems paginates the remote endpoint until every item is
// retrieved, waiting out the politeness throttle between pages.
func (s *CollectionSyncService) fetchAllItems(ctx context.Context) ([]RemoteComicItem, error) {
	var items []RemoteComicItem

	for page := 1; ; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("sync cancelled: %w", err)
		}

		params := url.Values{}
		params.Set("page", fmt.Sprintf("%d", page))
		params.Set("page_size", fmt.Sprintf("%d", syncPageSize))

		resp, err := s.fetcher.Get(ctx, s.baseURL+"/items?"+params.Encode(), map[string]string{
			"Authorization": "Bearer " + s.token,
			"Accept":        "application/json",
		})
		if err != nil {
			return nil, fmt.Errorf("sync: page %d: %w", page, err)
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, fmt.Errorf("sync: page %d: status %d", page, resp.StatusCode())
		}

		var parsed remotePageResponse
		if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
			return nil, fmt.Errorf("sync: page %d: decode: %w", page, err)
		}

		metrics.SyncPagesTotal.Inc()
		items = append(items, parsed.Items...)

		if len(parsed.Items) < syncPageSize || (parsed.Total > 0 && len(items) >= parsed.Total) {
			return items, nil
		}
	}
}

// MapGradingCompany maps a free-form grading-company string to the known
// enumeration by case-insensitive substring match. Anything unrecognized is
// treated as raw.
func MapGradingCompany(s string) models.GradingCompany {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "cgc"):
		return models.GradingCGC
	case strings.Contains(lower, "cbcs"):
		return models.GradingCBCS
	case strings.Contains(lower, "pgx"):
		return models.GradingPGX
	default:
		return models.GradingRaw
	}
}

// ReconcileItems splits remote items into an insert set and an update set.
// A remote item matches an existing comic by certificate number when it has
// one, otherwise by (title, issue) case-insensitively.
func ReconcileItems(items []RemoteComicItem, existing []models.Comic) (inserts, updates []models.Comic) {
	byCert := make(map[string]*models.Comic)
	byTitleIssue := make(map[string]*models.Comic)
	for i := range existing {
		comic := &existing[i]
		if comic.CertNumber != "" {
			byCert[comic.CertNumber] = comic
		}
		byTitleIssue[titleIssueKey(comic.Title, comic.IssueNumber)] = comic
	}

	now := time.Now()
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			metrics.SyncItemsTotal.WithLabelValues("skipped").Inc()
			continue
		}

		var match *models.Comic
		if item.CertNumber != "" {
			match = byCert[item.CertNumber]
		}
		if match == nil {
			match = byTitleIssue[titleIssueKey(item.Title, item.IssueNumber)]
		}

		if match == nil {
			comic := models.Comic{
				ID:             uuid.New().String(),
				Title:          item.Title,
				IssueNumber:    item.IssueNumber,
				Publisher:      item.Publisher,
				Grade:          item.Grade,
				GradingCompany: MapGradingCompany(item.GradingCompany),
				CertNumber:     item.CertNumber,
				CoverImageURL:  item.CoverURL,
				AddedAt:        now,
			}
			if item.Value > 0 {
				comic.CurrentValue = item.Value
				comic.ValueSource = "sync"
				comic.ValueUpdatedAt = &now
			}
			inserts = append(inserts, comic)
			continue
		}

		updated := *match
		updated.Grade = item.Grade
		updated.GradingCompany = MapGradingCompany(item.GradingCompany)
		if item.CertNumber != "" {
			updated.CertNumber = item.CertNumber
		}
		if item.Publisher != "" {
			updated.Publisher = item.Publisher
		}
		if item.CoverURL != "" {
			updated.CoverImageURL = item.CoverURL
		}
		updates = append(updates, updated)
	}

	return inserts, updates
}

func titleIssueKey(title, issue string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(issue))
}
