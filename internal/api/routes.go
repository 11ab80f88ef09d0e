package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/longboxhq/comic-tracker/backend/internal/api/handlers"
	"github.com/longboxhq/comic-tracker/backend/internal/cache"
	"github.com/longboxhq/comic-tracker/backend/internal/metrics"
	"github.com/longboxhq/comic-tracker/backend/internal/services"
)

func SetupRouter(
	valuationService *services.ValuationService,
	scanCache *cache.ScanCache,
	snapshotService *services.SnapshotService,
	worker *services.ValuationWorker,
	syncService *services.CollectionSyncService,
) *gin.Engine {
	router := gin.Default()

	// Get frontend dist path from env
	frontendPath := os.Getenv("FRONTEND_DIST_PATH")
	serveFrontend := frontendPath != "" && dirExists(frontendPath)

	// CORS configuration - allow origins from environment or use defaults
	config := cors.DefaultConfig()
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		config.AllowOrigins = strings.Split(corsOrigins, ",")
	} else {
		config.AllowOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = false // Explicitly set
	router.Use(cors.New(config))
	router.Use(requestMetrics())

	// Initialize handlers
	comicHandler := handlers.NewComicHandler(worker)
	valuationHandler := handlers.NewValuationHandler(valuationService, scanCache)
	portfolioHandler := handlers.NewPortfolioHandler(snapshotService, worker)
	syncHandler := handlers.NewSyncHandler(syncService)

	// API routes
	api := router.Group("/api")
	{
		// Comic routes
		comics := api.Group("/comics")
		{
			comics.GET("", comicHandler.ListComics)
			comics.POST("", comicHandler.AddComic)
			comics.GET("/:id", comicHandler.GetComic)
			comics.PUT("/:id", comicHandler.UpdateComic)
			comics.DELETE("/:id", comicHandler.DeleteComic)
			comics.GET("/:id/history", comicHandler.GetComicHistory)
			comics.POST("/:id/refresh-value", comicHandler.RefreshComicValue)
		}

		// Valuation routes
		valuation := api.Group("/valuation")
		{
			valuation.POST("", valuationHandler.GetValuation)
			valuation.POST("/scan", valuationHandler.ScanLookup)
			valuation.GET("/scan/status", valuationHandler.ScanCacheStatus)
			valuation.DELETE("/cache", valuationHandler.InvalidateCache)
		}

		// Portfolio routes
		portfolio := api.Group("/portfolio")
		{
			portfolio.GET("/stats", portfolioHandler.GetStats)
			portfolio.GET("/history", portfolioHandler.GetHistory)
			portfolio.POST("/snapshot", portfolioHandler.TakeSnapshot)
			portfolio.GET("/worker", portfolioHandler.GetWorkerStatus)
		}

		// Sync routes
		sync := api.Group("/sync")
		{
			sync.POST("", syncHandler.TriggerSync)
			sync.GET("/status", syncHandler.GetSyncStatus)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Prometheus scrape endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Serve frontend static files
	if serveFrontend {
		indexPath := filepath.Join(frontendPath, "index.html")

		// Serve static assets
		router.Static("/assets", filepath.Join(frontendPath, "assets"))

		// Serve root index.html
		router.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})

		// SPA fallback - serve index.html for all non-API routes
		router.NoRoute(func(c *gin.Context) {
			path := c.Request.URL.Path

			// Don't serve index.html for API routes
			if strings.HasPrefix(path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}

			// Serve index.html for SPA routing
			c.File(indexPath)
		})
	}

	return router
}

// requestMetrics records request counts and latency per route.
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
