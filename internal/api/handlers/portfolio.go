package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/longboxhq/comic-tracker/backend/internal/models"
	"github.com/longboxhq/comic-tracker/backend/internal/services"
)

type PortfolioHandler struct {
	snapshotService *services.SnapshotService
	worker          *services.ValuationWorker
}

func NewPortfolioHandler(snapshot *services.SnapshotService, worker *services.ValuationWorker) *PortfolioHandler {
	return &PortfolioHandler{
		snapshotService: snapshot,
		worker:          worker,
	}
}

// GetStats returns current portfolio statistics plus the change against the
// snapshot closest to 30 days ago.
func (h *PortfolioHandler) GetStats(c *gin.Context) {
	stats := h.snapshotService.CalculateStats()

	var change *services.ValueChange
	if snapshots, err := h.snapshotService.GetRecentSnapshots(0); err == nil {
		change = services.PortfolioChange(snapshots, time.Now())
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":  stats,
		"change": change,
	})
}

// GetHistory returns portfolio snapshots for a period (week, month, 3month,
// year, all).
func (h *PortfolioHandler) GetHistory(c *gin.Context) {
	period := c.DefaultQuery("period", "month")

	snapshots, err := h.snapshotService.GetHistory(period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ValueHistoryResponse{
		Period:    period,
		Snapshots: snapshots,
	})
}

// TakeSnapshot forces a portfolio snapshot outside the daily schedule.
func (h *PortfolioHandler) TakeSnapshot(c *gin.Context) {
	if err := h.snapshotService.ForceTakeSnapshot(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "snapshot recorded",
		"snapshot": h.snapshotService.GetLastSnapshot(),
	})
}

// GetWorkerStatus reports the background refresh worker's state.
func (h *PortfolioHandler) GetWorkerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.worker.GetStatus())
}
