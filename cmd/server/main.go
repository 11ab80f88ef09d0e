package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/longboxhq/comic-tracker/backend/internal/api"
	"github.com/longboxhq/comic-tracker/backend/internal/cache"
	"github.com/longboxhq/comic-tracker/backend/internal/database"
	"github.com/longboxhq/comic-tracker/backend/internal/services"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./comic_tracker.db"
	}

	// Initialize database
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Shared HTTP fetcher used by every pricing source
	fetcher := services.NewFetcher(3, 30*time.Second)

	// Pricing sources in priority order: structured API first, scrapes as
	// fallbacks. Unconfigured sources stay registered and get skipped.
	goCollect := services.NewGoCollectService(fetcher, os.Getenv("GOCOLLECT_API_KEY"))
	search := services.NewSearchClient(fetcher, os.Getenv("SEARCH_API_KEY"))
	covrPrice := services.NewCovrPriceService(search)
	priceGuide := services.NewPriceGuideService(search)

	// Cache tiers: per-session scan cache plus the longer-lived query cache
	scanCapacity := cache.DefaultScanCapacity
	if capStr := os.Getenv("SCAN_CACHE_CAPACITY"); capStr != "" {
		if n, err := strconv.Atoi(capStr); err == nil && n > 0 {
			scanCapacity = n
		}
	}
	scanCache, err := cache.NewScanCache(scanCapacity, cache.DefaultScanTTL)
	if err != nil {
		log.Fatalf("Failed to initialize scan cache: %v", err)
	}
	queryCache := cache.NewQueryCache(cache.DefaultQueryTTL)

	valuationService := services.NewValuationService(queryCache, goCollect, covrPrice, priceGuide)

	// Background workers
	worker := services.NewValuationWorker(valuationService, database.GetDB())
	snapshotService := services.NewSnapshotService(database.GetDB())

	// Remote collection sync (optional)
	syncService := services.NewCollectionSyncService(
		fetcher,
		database.GetDB(),
		os.Getenv("COLLECTION_SYNC_URL"),
		os.Getenv("COLLECTION_SYNC_TOKEN"),
	)

	// Create a cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start valuation worker in background with panic recovery
	go func() {
		for {
			func() {
				defer func() {
					if r := recover(); r != nil {
						log.Printf("PANIC in valuation worker: %v - restarting in 30 seconds", r)
					}
				}()
				worker.Start(ctx)
			}()

			select {
			case <-ctx.Done():
				return // Graceful shutdown
			case <-time.After(30 * time.Second):
				log.Println("Valuation worker restarting after panic recovery...")
			}
		}
	}()

	// Start snapshot service in background
	go snapshotService.Start(ctx)

	// Optionally sync the remote collection on startup (if enabled)
	if os.Getenv("SYNC_COLLECTION_ON_STARTUP") == "true" && syncService.Enabled() {
		go func() {
			// Wait a bit for the server to be ready
			time.Sleep(5 * time.Second)
			log.Println("Starting collection sync on startup...")
			result, err := syncService.Sync(ctx)
			if err != nil {
				log.Printf("Collection sync failed: %v", err)
			} else if result != nil {
				log.Printf("Collection sync completed: %d imported, %d updated", result.Imported, result.Updated)
			}
		}()
	}

	// Setup router
	router := api.SetupRouter(valuationService, scanCache, snapshotService, worker, syncService)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel the context to stop the background workers
	cancel()

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
