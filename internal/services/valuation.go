package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/longboxhq/comic-tracker/backend/internal/cache"
	"github.com/longboxhq/comic-tracker/backend/internal/metrics"
	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

// PriceSource is the one capability every pricing source implements,
// regardless of transport. Query returns ErrNotFound, ErrSourceUnconfigured,
// or a wrapped transport error on failure.
type PriceSource interface {
	Name() string
	Enabled() bool
	Query(ctx context.Context, q models.ValuationQuery) (*models.ValuationResult, error)
}

// ValuationService resolves valuations by trying sources in priority order
// and caching answers for an hour. It accepts one source's complete result
// rather than merging partial FMV data across sources: completeness of a
// single answer beats freshness of a stitched one.
type ValuationService struct {
	sources []PriceSource
	cache   *cache.QueryCache
}

// NewValuationService creates the aggregator. Sources are tried in the
// order given; put the structured API first and scraped sources after.
func NewValuationService(queryCache *cache.QueryCache, sources ...PriceSource) *ValuationService {
	return &ValuationService{
		sources: sources,
		cache:   queryCache,
	}
}

// GetValuation resolves one query. It never returns a Go error: an
// unavailable valuation is a ValuationResult with Success=false and the most
// specific error message observed ("not found" preferred over transport
// failures).
func (s *ValuationService) GetValuation(ctx context.Context, q models.ValuationQuery) *models.ValuationResult {
	if !q.Valid() {
		return &models.ValuationResult{
			Success: false,
			Source:  models.SourceUnavailable,
			Error:   ErrInvalidQuery.Error(),
		}
	}

	key := q.CacheKey()
	if cached, ok := s.cache.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues("query").Inc()
		return cached
	}
	metrics.CacheMissesTotal.WithLabelValues("query").Inc()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sourceQueryTimeout)
		defer cancel()
	}

	start := time.Now()
	result := s.querySources(ctx, q)
	metrics.ValuationDuration.Observe(time.Since(start).Seconds())

	if result.Success {
		metrics.ValuationRequestsTotal.WithLabelValues(result.Source, "success").Inc()
		s.cache.Put(key, result)
	} else {
		metrics.ValuationRequestsTotal.WithLabelValues(models.SourceUnavailable, "failed").Inc()
	}
	return result
}

// querySources walks the priority list and stops at the first success.
func (s *ValuationService) querySources(ctx context.Context, q models.ValuationQuery) *models.ValuationResult {
	var notFound, transport error

	for _, source := range s.sources {
		if !source.Enabled() {
			metrics.SourceErrorsTotal.WithLabelValues(source.Name(), "unconfigured").Inc()
			continue
		}

		result, err := source.Query(ctx, q)
		if err == nil && result != nil && result.Success {
			return result
		}

		switch {
		case errors.Is(err, ErrNotFound):
			metrics.SourceErrorsTotal.WithLabelValues(source.Name(), "not_found").Inc()
			if notFound == nil {
				notFound = err
			}
		case errors.Is(err, ErrSourceUnconfigured):
			metrics.SourceErrorsTotal.WithLabelValues(source.Name(), "unconfigured").Inc()
		default:
			metrics.SourceErrorsTotal.WithLabelValues(source.Name(), "unavailable").Inc()
			log.Printf("Valuation: source %s unavailable: %v", source.Name(), err)
			if transport == nil {
				transport = err
			}
		}
	}

	message := "no pricing sources are configured"
	if transport != nil {
		message = normalizeTransportError(transport)
	}
	if notFound != nil {
		// A definitive "not found" is more useful than a transport error
		message = notFound.Error()
	}

	return &models.ValuationResult{
		Success: false,
		Source:  models.SourceUnavailable,
		Error:   message,
	}
}

// InvalidateCache drops one cached query, or everything when key is empty.
func (s *ValuationService) InvalidateCache(key string) {
	if key == "" {
		s.cache.InvalidateAll()
		return
	}
	s.cache.Invalidate(key)
}
