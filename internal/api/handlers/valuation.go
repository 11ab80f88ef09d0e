package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/longboxhq/comic-tracker/backend/internal/cache"
	"github.com/longboxhq/comic-tracker/backend/internal/metrics"
	"github.com/longboxhq/comic-tracker/backend/internal/models"
	"github.com/longboxhq/comic-tracker/backend/internal/services"
)

type ValuationHandler struct {
	valuationService *services.ValuationService
	scanCache        *cache.ScanCache
}

func NewValuationHandler(valuation *services.ValuationService, scanCache *cache.ScanCache) *ValuationHandler {
	return &ValuationHandler{
		valuationService: valuation,
		scanCache:        scanCache,
	}
}

// GetValuation looks up pricing data for a single comic. The response is
// always 200 with a ValuationResult; failed lookups carry success=false and
// a user-presentable error message.
func (h *ValuationHandler) GetValuation(c *gin.Context) {
	var query models.ValuationQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !query.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrInvalidQuery.Error()})
		return
	}

	result := h.valuationService.GetValuation(c.Request.Context(), query)
	c.JSON(http.StatusOK, result)
}

// ScanLookup serves the scanning workflow: repeated lookups within a session
// hit the scan cache and never touch the pricing sources.
func (h *ValuationHandler) ScanLookup(c *gin.Context) {
	var query models.ValuationQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !query.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrInvalidQuery.Error()})
		return
	}

	key := query.CacheKey()
	if cached, ok := h.scanCache.Get(key); ok {
		metrics.CacheHitsTotal.WithLabelValues("scan").Inc()
		c.JSON(http.StatusOK, gin.H{
			"cached": true,
			"result": cached,
		})
		return
	}
	metrics.CacheMissesTotal.WithLabelValues("scan").Inc()

	valuation := h.valuationService.GetValuation(c.Request.Context(), query)
	result := models.ScanResult{Query: query, Valuation: valuation}

	// Only successful lookups are worth remembering for the session
	if valuation.Success {
		h.scanCache.Put(key, result)
	}

	c.JSON(http.StatusOK, gin.H{
		"cached": false,
		"result": result,
	})
}

// ScanCacheStatus reports whether a comic was already looked up this session.
func (h *ValuationHandler) ScanCacheStatus(c *gin.Context) {
	query := models.ValuationQuery{
		Title:       c.Query("title"),
		IssueNumber: c.Query("issue_number"),
		Publisher:   c.Query("publisher"),
	}
	if !query.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrInvalidQuery.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cached": h.scanCache.Has(query.CacheKey()),
	})
}

// InvalidateCache clears cached valuations. With a title and issue number it
// evicts that single entry; without, it clears both tiers entirely.
func (h *ValuationHandler) InvalidateCache(c *gin.Context) {
	title := c.Query("title")
	issueNumber := c.Query("issue_number")

	if title == "" && issueNumber == "" {
		h.valuationService.InvalidateCache("")
		h.scanCache.Clear()
		c.JSON(http.StatusOK, gin.H{"message": "all cached valuations cleared"})
		return
	}

	query := models.ValuationQuery{
		Title:       title,
		IssueNumber: issueNumber,
		Publisher:   c.Query("publisher"),
	}
	if !query.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrInvalidQuery.Error()})
		return
	}

	h.valuationService.InvalidateCache(query.CacheKey())
	c.JSON(http.StatusOK, gin.H{"message": "cached valuation cleared"})
}
