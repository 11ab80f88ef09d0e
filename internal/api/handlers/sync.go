package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/longboxhq/comic-tracker/backend/internal/services"
)

type SyncHandler struct {
	syncService *services.CollectionSyncService
}

func NewSyncHandler(sync *services.CollectionSyncService) *SyncHandler {
	return &SyncHandler{syncService: sync}
}

// TriggerSync imports the user's collection from the remote grading service.
// Only one sync runs at a time; a second request while one is in flight
// returns 409.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	if !h.syncService.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "collection sync is not configured"})
		return
	}
	if h.syncService.IsRunning() {
		c.JSON(http.StatusConflict, gin.H{"error": "a sync is already in progress"})
		return
	}

	result, err := h.syncService.Sync(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSyncStatus reports whether a sync is running and the last result.
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"enabled": h.syncService.Enabled(),
		"running": h.syncService.IsRunning(),
		"last":    h.syncService.LastResult(),
	})
}
