package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mathclub/internal/config"
	"mathclub/internal/database"
	"mathclub/internal/handlers"
	"mathclub/internal/repository"
	"mathclub/internal/security"
	"mathclub/internal/service"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

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

	// Initialize repositories
	rosterRepo := repository.NewRosterRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Initialize services
	reportService := service.NewStudentReportService(
		rosterRepo,
		activityRepo,
		cfg.RosterBatchSize,
		cfg.RosterMaxBatchSize,
		cfg.FetchTimeout,
		cfg.Debug,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := security.NewRateLimiter(ctx, cfg.AdminRateLimit, time.Minute)
	adminHandler := handlers.NewAdminHandler(reportService, limiter, version)

	// Setup routes
	mux := http.NewServeMux()
	adminHandler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := handlers.Logging(mux)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s (version %s)", addr, version)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
