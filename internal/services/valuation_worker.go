package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/longboxhq/comic-tracker/backend/internal/metrics"
	"github.com/longboxhq/comic-tracker/backend/internal/models"
)

const (
	// defaultRefreshBatchSize is the number of comics refreshed per cycle.
	defaultRefreshBatchSize = 20

	// staleValueAge is how old a stored value may be before the worker
	// refreshes it.
	staleValueAge = 24 * time.Hour
)

// ValuationWorker keeps stored comic values fresh in the background. Each
// cycle it refreshes user-requested comics first, then comics with no value,
// then the comics whose values are oldest.
type ValuationWorker struct {
	valuation      *ValuationService
	db             *gorm.DB
	updateInterval time.Duration
	batchSize      int
	mu             sync.RWMutex

	// Priority queue for user-requested refreshes
	urgentQueue []string
	urgentMu    sync.Mutex

	// Stats (reset at midnight)
	valuesUpdatedToday int
	lastUpdateTime     time.Time
	lastStatsDay       time.Time
}

// WorkerStatus reports the refresh worker's current state.
type WorkerStatus struct {
	LastUpdateTime     time.Time `json:"last_update_time"`
	NextUpdateTime     time.Time `json:"next_update_time"`
	ValuesUpdatedToday int       `json:"values_updated_today"`
	BatchSize          int       `json:"batch_size"`
	QueueSize          int       `json:"queue_size"`
}

func NewValuationWorker(valuation *ValuationService, db *gorm.DB) *ValuationWorker {
	return &ValuationWorker{
		valuation:      valuation,
		db:             db,
		batchSize:      defaultRefreshBatchSize,
		updateInterval: 15 * time.Minute,
	}
}

// QueueRefresh adds a comic to the high-priority refresh queue and returns
// its 1-indexed position.
func (w *ValuationWorker) QueueRefresh(comicID string) int {
	w.urgentMu.Lock()
	defer w.urgentMu.Unlock()

	for i, id := range w.urgentQueue {
		if id == comicID {
			return i + 1
		}
	}
	w.urgentQueue = append(w.urgentQueue, comicID)
	log.Printf("Valuation worker: queued refresh for comic %s (queue size: %d)", comicID, len(w.urgentQueue))
	return len(w.urgentQueue)
}

// GetQueueSize returns current urgent queue size
func (w *ValuationWorker) GetQueueSize() int {
	w.urgentMu.Lock()
	defer w.urgentMu.Unlock()
	return len(w.urgentQueue)
}

// resetDailyStatsIfNeeded resets valuesUpdatedToday at midnight
func (w *ValuationWorker) resetDailyStatsIfNeeded() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if w.lastStatsDay.Before(today) {
		if !w.lastStatsDay.IsZero() {
			log.Printf("Valuation worker: daily stats reset (previous day: %d values updated)", w.valuesUpdatedToday)
		}
		w.valuesUpdatedToday = 0
		w.lastStatsDay = today
	}
}

// Start begins the background value refresh worker
func (w *ValuationWorker) Start(ctx context.Context) {
	log.Printf("Valuation worker started: will refresh up to %d comics every %v", w.batchSize, w.updateInterval)

	// Run immediately on startup
	if updated, err := w.UpdateBatch(ctx); err != nil {
		log.Printf("Valuation worker: initial batch failed: %v", err)
	} else {
		log.Printf("Valuation worker: initial batch refreshed %d comics", updated)
	}

	ticker := time.NewTicker(w.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Valuation worker stopping...")
			return
		case <-ticker.C:
			if updated, err := w.UpdateBatch(ctx); err != nil {
				log.Printf("Valuation worker: batch failed: %v", err)
			} else if updated > 0 {
				log.Printf("Valuation worker: batch refreshed %d comics", updated)
			}
		}
	}
}

// UpdateBatch refreshes a batch of comics with priority ordering:
// 1. User-requested refreshes
// 2. Comics without a stored value
// 3. Comics with the oldest stored values (older than staleValueAge)
func (w *ValuationWorker) UpdateBatch(ctx context.Context) (updated int, err error) {
	w.resetDailyStatsIfNeeded()

	var comicsToUpdate []models.Comic
	var comicIDs []string

	// Priority 1: User-requested refreshes
	w.urgentMu.Lock()
	urgentIDs := w.urgentQueue
	if len(urgentIDs) > w.batchSize {
		urgentIDs = urgentIDs[:w.batchSize]
		w.urgentQueue = w.urgentQueue[w.batchSize:]
	} else {
		w.urgentQueue = nil
	}
	w.urgentMu.Unlock()

	if len(urgentIDs) > 0 {
		var urgent []models.Comic
		w.db.Where("id IN ?", urgentIDs).Find(&urgent)
		comicsToUpdate = append(comicsToUpdate, urgent...)
		for _, c := range urgent {
			comicIDs = append(comicIDs, c.ID)
		}
		log.Printf("Valuation worker: processing %d urgent refresh requests", len(urgent))
	}

	remaining := w.batchSize - len(comicsToUpdate)

	// Priority 2: Comics with no stored value
	if remaining > 0 {
		var unvalued []models.Comic
		query := w.db.Where("value_updated_at IS NULL")
		if len(comicIDs) > 0 {
			query = query.Where("id NOT IN ?", comicIDs)
		}
		query.Order("added_at ASC").Limit(remaining).Find(&unvalued)

		comicsToUpdate = append(comicsToUpdate, unvalued...)
		for _, c := range unvalued {
			comicIDs = append(comicIDs, c.ID)
		}
		remaining -= len(unvalued)
	}

	// Priority 3: Comics with the oldest values
	if remaining > 0 {
		cutoff := time.Now().Add(-staleValueAge)
		var stale []models.Comic
		query := w.db.Where("value_updated_at IS NOT NULL AND value_updated_at < ?", cutoff)
		if len(comicIDs) > 0 {
			query = query.Where("id NOT IN ?", comicIDs)
		}
		query.Order("value_updated_at ASC").Limit(remaining).Find(&stale)
		comicsToUpdate = append(comicsToUpdate, stale...)
	}

	if len(comicsToUpdate) == 0 {
		return 0, nil
	}

	log.Printf("Valuation worker: refreshing values for %d comics", len(comicsToUpdate))

	return w.refreshComics(ctx, comicsToUpdate)
}

// refreshComics queries the aggregator for each comic and persists the
// resulting value plus a history point.
func (w *ValuationWorker) refreshComics(ctx context.Context, comics []models.Comic) (int, error) {
	start := time.Now()
	updated := 0

	for i := range comics {
		if ctx.Err() != nil {
			break
		}
		comic := &comics[i]

		result := w.valuation.GetValuation(ctx, models.ValuationQuery{
			Title:       comic.Title,
			IssueNumber: comic.IssueNumber,
			Publisher:   comic.Publisher,
			Grade:       comic.Grade,
			CertNumber:  comic.CertNumber,
		})
		if !result.Success {
			continue
		}

		value, ok := ValueForGrade(result.FMV, comic.Grade)
		if !ok {
			continue
		}

		now := time.Now()
		comic.CurrentValue = value
		comic.ValueSource = result.Source
		comic.ValueUpdatedAt = &now
		if result.IsKeyIssue && !comic.IsKeyIssue {
			comic.IsKeyIssue = true
			comic.KeyIssueReason = result.KeyIssueReason
		}

		if err := w.db.Save(comic).Error; err != nil {
			log.Printf("Valuation worker: failed to save comic %s: %v", comic.ID, err)
			continue
		}

		w.db.Create(&models.ValueHistoryPoint{
			ComicID:    comic.ID,
			Value:      value,
			Source:     result.Source,
			RecordedAt: now,
		})

		updated++
	}

	w.mu.Lock()
	w.valuesUpdatedToday += updated
	w.lastUpdateTime = time.Now()
	updatedToday := w.valuesUpdatedToday
	w.mu.Unlock()

	metrics.ValueUpdatesTotal.Add(float64(updated))
	metrics.ValueUpdatesToday.Set(float64(updatedToday))
	metrics.RefreshQueueSize.Set(float64(w.GetQueueSize()))
	metrics.RefreshBatchDuration.Observe(time.Since(start).Seconds())

	return updated, nil
}

// ValueForGrade picks the FMV entry matching a comic's grade: the exact
// grade label if present, the "current" slot, then "raw" for ungraded books.
func ValueForGrade(fmv models.FMVTable, grade float64) (float64, bool) {
	if len(fmv) == 0 {
		return 0, false
	}
	if v, ok := fmv[models.GradeLabel(grade)]; ok && v > 0 {
		return v, true
	}
	if v, ok := fmv[models.GradeCurrent]; ok && v > 0 {
		return v, true
	}
	if grade <= 0 {
		if v, ok := fmv[models.GradeRaw]; ok && v > 0 {
			return v, true
		}
	}
	return 0, false
}

// GetStatus returns the current status
func (w *ValuationWorker) GetStatus() WorkerStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return WorkerStatus{
		LastUpdateTime:     w.lastUpdateTime,
		NextUpdateTime:     w.lastUpdateTime.Add(w.updateInterval),
		ValuesUpdatedToday: w.valuesUpdatedToday,
		BatchSize:          w.batchSize,
		QueueSize:          w.GetQueueSize(),
	}
}
