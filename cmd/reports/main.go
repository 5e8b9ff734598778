package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"mathclub/internal/config"
	"mathclub/internal/database"
	"mathclub/internal/repository"
	"mathclub/internal/service"
)

func main() {
	// Define subcommands
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	digestCmd := flag.NewFlagSet("digest", flag.ExitOnError)

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: students_YYYYMMDD_HHMMSS.json)")

	// Import flags
	importInput := importCmd.String("input", "", "Input file path (required)")

	// Digest flags
	digestTimeout := digestCmd.Duration("timeout", 5*time.Minute, "Maximum time for the whole digest run")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rosterRepo := repository.NewRosterRepository(db)
	reportService := service.NewStudentReportService(
		rosterRepo,
		repository.NewActivityRepository(db),
		cfg.RosterBatchSize,
		cfg.RosterMaxBatchSize,
		cfg.FetchTimeout,
		cfg.Debug,
	)
	exportService := service.NewExportService(db, reportService, cfg.RosterBatchSize)

	ctx := context.Background()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		handleExport(ctx, exportService, *exportOutput)

	case "import":
		importCmd.Parse(os.Args[2:])
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, exportService, *importInput)

	case "digest":
		digestCmd.Parse(os.Args[2:])
		emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
		if err != nil {
			log.Fatalf("Failed to initialize email service: %v", err)
		}
		digestService := service.NewDigestService(rosterRepo, reportService, emailService)
		handleDigest(ctx, digestService, *digestTimeout)

	default:
		printUsage()
		os.Exit(1)
	}
}

func handleExport(ctx context.Context, exportService *service.ExportService, outputPath string) {
	// Generate default filename if not provided
	if outputPath == "" {
		timestamp := time.Now().Format("20060102_150405")
		outputPath = fmt.Sprintf("students_%s.json", timestamp)
	}

	// Ensure directory exists
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create output directory: %v", err)
		}
	}

	log.Printf("Exporting student list to: %s", outputPath)
	if err := exportService.Export(ctx, outputPath); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	// Get file size
	fileInfo, _ := os.Stat(outputPath)
	log.Printf("Export complete! File size: %.2f MB", float64(fileInfo.Size())/1024/1024)
}

func handleImport(ctx context.Context, exportService *service.ExportService, inputPath string) {
	// Check if file exists
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		log.Fatalf("Input file does not exist: %s", inputPath)
	}

	log.Printf("Importing activity records from: %s", inputPath)
	count, err := exportService.Import(ctx, inputPath)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Import complete! %d records added", count)
}

func handleDigest(ctx context.Context, digestService *service.DigestService, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Println("Sending parent progress digests...")
	result, err := digestService.SendDigests(ctx)
	if err != nil {
		log.Fatalf("Digest run failed: %v", err)
	}

	log.Printf("Digest run complete: %d sent, %d skipped, %d failed", result.Sent, result.Skipped, result.Failed)
	if result.Failed > 0 {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("MathClub Reports Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  reports export [options]    Export the aggregated student list to JSON")
	fmt.Println("  reports import [options]    Import activity records from JSON")
	fmt.Println("  reports digest [options]    Email each parent a progress digest")
	fmt.Println()
	fmt.Println("Export Options:")
	fmt.Println("  -output <file>      Output file path (default: students_YYYYMMDD_HHMMSS.json)")
	fmt.Println()
	fmt.Println("Import Options:")
	fmt.Println("  -input <file>       Input file path (required)")
	fmt.Println()
	fmt.Println("Digest Options:")
	fmt.Println("  -timeout <dur>      Maximum time for the whole run (default: 5m)")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  reports export -output exports/students.json")
	fmt.Println("  reports import -input records.json")
	fmt.Println("  reports digest")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_TYPE    Database type: sqlite, postgres, or mysql (default: sqlite)")
	fmt.Println("  DB_PATH          SQLite database path (default: ./mathclub.db)")
	fmt.Println("  DATABASE_URL     PostgreSQL or MySQL connection URL")
	fmt.Println("  SES_FROM_EMAIL   Sender address for digests (digests are skipped when unset)")
}
