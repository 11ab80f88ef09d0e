package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/longboxhq/comic-tracker/backend/internal/database"
	"github.com/longboxhq/comic-tracker/backend/internal/models"
	"github.com/longboxhq/comic-tracker/backend/internal/services"
)

type ComicHandler struct {
	worker *services.ValuationWorker
}

func NewComicHandler(worker *services.ValuationWorker) *ComicHandler {
	return &ComicHandler{worker: worker}
}

func (h *ComicHandler) ListComics(c *gin.Context) {
	db := database.GetDB()

	var comics []models.Comic
	query := db.Order("added_at DESC")

	// Optional filters
	if publisher := c.Query("publisher"); publisher != "" {
		query = query.Where("publisher = ?", publisher)
	}
	if c.Query("key_issues") == "true" {
		query = query.Where("is_key_issue = ?", true)
	}
	if c.Query("graded") == "true" {
		query = query.Where("grading_company != '' AND grading_company != ?", models.GradingRaw)
	}

	if err := query.Find(&comics).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, comics)
}

func (h *ComicHandler) GetComic(c *gin.Context) {
	db := database.GetDB()

	var comic models.Comic
	if err := db.First(&comic, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
		return
	}

	c.JSON(http.StatusOK, comic)
}

func (h *ComicHandler) AddComic(c *gin.Context) {
	var req models.AddComicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Grade < 0 || req.Grade > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "grade must be between 0 and 10"})
		return
	}

	gradingCompany := req.GradingCompany
	if gradingCompany == "" {
		gradingCompany = models.GradingRaw
	}

	now := time.Now()
	comic := models.Comic{
		ID:             uuid.New().String(),
		Title:          req.Title,
		IssueNumber:    req.IssueNumber,
		Publisher:      req.Publisher,
		Grade:          req.Grade,
		GradingCompany: gradingCompany,
		CertNumber:     req.CertNumber,
		IsKeyIssue:     req.IsKeyIssue,
		KeyIssueReason: req.KeyIssueReason,
		CoverImageURL:  req.CoverImageURL,
		PurchasePrice:  req.PurchasePrice,
		Notes:          req.Notes,
		AddedAt:        now,
	}

	db := database.GetDB()
	if err := db.Create(&comic).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// New books get valued as soon as the worker picks up the queue
	if h.worker != nil {
		h.worker.QueueRefresh(comic.ID)
	}

	c.JSON(http.StatusCreated, comic)
}

func (h *ComicHandler) UpdateComic(c *gin.Context) {
	db := database.GetDB()

	var comic models.Comic
	if err := db.First(&comic, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
		return
	}

	var req models.UpdateComicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Title != nil {
		comic.Title = *req.Title
	}
	if req.IssueNumber != nil {
		comic.IssueNumber = *req.IssueNumber
	}
	if req.Publisher != nil {
		comic.Publisher = *req.Publisher
	}
	if req.Grade != nil {
		if *req.Grade < 0 || *req.Grade > 10 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "grade must be between 0 and 10"})
			return
		}
		comic.Grade = *req.Grade
	}
	if req.GradingCompany != nil {
		comic.GradingCompany = *req.GradingCompany
	}
	if req.CertNumber != nil {
		comic.CertNumber = *req.CertNumber
	}
	if req.IsKeyIssue != nil {
		comic.IsKeyIssue = *req.IsKeyIssue
	}
	if req.KeyIssueReason != nil {
		comic.KeyIssueReason = *req.KeyIssueReason
	}
	if req.CoverImageURL != nil {
		comic.CoverImageURL = *req.CoverImageURL
	}
	if req.PurchasePrice != nil {
		comic.PurchasePrice = *req.PurchasePrice
	}
	if req.Notes != nil {
		comic.Notes = *req.Notes
	}

	if err := db.Save(&comic).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, comic)
}

func (h *ComicHandler) DeleteComic(c *gin.Context) {
	db := database.GetDB()

	result := db.Delete(&models.Comic{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
		return
	}

	db.Delete(&models.ValueHistoryPoint{}, "comic_id = ?", c.Param("id"))

	c.JSON(http.StatusOK, gin.H{"message": "comic deleted"})
}

// GetComicHistory returns a comic's recorded values oldest-first, plus the
// computed change over the recorded span.
func (h *ComicHandler) GetComicHistory(c *gin.Context) {
	db := database.GetDB()
	comicID := c.Param("id")

	var comic models.Comic
	if err := db.First(&comic, "id = ?", comicID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
		return
	}

	var history []models.ValueHistoryPoint
	if err := db.Where("comic_id = ?", comicID).Order("recorded_at ASC").Find(&history).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	points := services.HistoryPoints(history)

	c.JSON(http.StatusOK, gin.H{
		"comic_id": comicID,
		"history":  history,
		"change":   services.ComputeChange(points),
	})
}

// RefreshComicValue queues an urgent refresh for one comic.
func (h *ComicHandler) RefreshComicValue(c *gin.Context) {
	db := database.GetDB()
	comicID := c.Param("id")

	var comic models.Comic
	if err := db.First(&comic, "id = ?", comicID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "comic not found"})
		return
	}

	position := h.worker.QueueRefresh(comicID)
	c.JSON(http.StatusOK, gin.H{
		"message":        "refresh queued",
		"queue_position": position,
	})
}
