package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listify/internal/config"
	"listify/internal/database"
	"listify/internal/extract"
	"listify/internal/handlers"
	"listify/internal/ingest"
	"listify/internal/repository"
	"listify/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize the extraction model client
	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}
	extractor, err := extract.NewGeminiExtractor(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ExtractTimeout)
	if err != nil {
		log.Fatalf("Failed to create extractor: %v", err)
	}

	log.Printf("Extraction model: %s", cfg.GeminiModel)

	// Initialize repositories and services
	listRepo := repository.NewListRepository(db)
	normalizer := ingest.NewNormalizer(ingest.NewPageFetcher(cfg.FetchTimeout))
	listService := service.NewListService(listRepo, extractor, normalizer)

	// Initialize handlers
	listHandler := handlers.NewListHandler(listService)
	analyzeHandler := handlers.NewAnalyzeHandler(listService, cfg.UploadMaxSize)

	// Setup routes
	mux := http.NewServeMux()

	// Analysis routes
	mux.HandleFunc("POST /upload", analyzeHandler.Upload)
	mux.HandleFunc("POST /analyze-text", analyzeHandler.AnalyzeText)
	mux.HandleFunc("POST /analyze-link", analyzeHandler.AnalyzeLink)

	// List routes
	mux.HandleFunc("GET /lists", listHandler.GetLists)
	mux.HandleFunc("POST /lists", listHandler.CreateList)
	mux.HandleFunc("GET /lists/{id}", listHandler.GetList)
	mux.HandleFunc("DELETE /lists/{id}", listHandler.DeleteList)
	mux.HandleFunc("POST /lists/{id}/items", listHandler.AddItems)

	// Item routes
	mux.HandleFunc("PUT /items/{id}", listHandler.UpdateItem)
	mux.HandleFunc("DELETE /items/{id}", listHandler.DeleteItem)

	// Query routes
	mux.HandleFunc("GET /search", listHandler.Search)
	mux.HandleFunc("GET /stats", listHandler.Stats)
	mux.HandleFunc("GET /health", listHandler.Health)

	// Wrap with middleware
	handler := handlers.Logging(handlers.MaxBody(cfg.UploadMaxSize+1024*1024, mux))

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
