package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"mathclub/internal/activity"
	"mathclub/internal/database"
	"mathclub/internal/models"
	"mathclub/internal/repository"
)

const exportVersion = "1.0"

// StudentExport is the JSON document written by Export
type StudentExport struct {
	Version    string            `json:"version"`
	RunID      string            `json:"run_id"`
	ExportedAt time.Time         `json:"exported_at"`
	Students   []StudentView     `json:"students"`
	Overview   activity.Overview `json:"overview"`
}

// RecordImport is the JSON document read by Import
type RecordImport struct {
	Version string         `json:"version"`
	Records []RecordBackup `json:"records"`
}

// RecordBackup is one activity record in an import file
type RecordBackup struct {
	AccountID int64                  `json:"account_id" validate:"required,gt=0"`
	CreatedAt time.Time              `json:"created_at"`
	Type      *string                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
}

// ExportService writes the student list to JSON and loads activity records from JSON
type ExportService struct {
	db        *database.DB
	reports   *StudentReportService
	batchSize int
}

// NewExportService creates a new export service
func NewExportService(db *database.DB, reports *StudentReportService, batchSize int) *ExportService {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportService{db: db, reports: reports, batchSize: batchSize}
}

// Export writes every student view, page by page, to outputPath
func (s *ExportService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportTo(ctx, file); err != nil {
		return err
	}

	log.Printf("Student list exported successfully to %s", outputPath)
	return nil
}

// ExportTo writes the export document to w
func (s *ExportService) ExportTo(ctx context.Context, w io.Writer) error {
	total, err := repository.NewRosterRepository(s.db).CountStudents(ctx)
	if err != nil {
		return fmt.Errorf("failed to count students: %w", err)
	}

	export := &StudentExport{
		Version:    exportVersion,
		RunID:      uuid.NewString(),
		ExportedAt: time.Now().UTC(),
		Students:   make([]StudentView, 0, total),
	}
	log.Printf("Starting student export %s (%d students)...", export.RunID, total)

	for skip := 0; ; skip += s.batchSize {
		views, err := s.reports.ListStudents(ctx, Page{Skip: skip, Limit: s.batchSize})
		if err != nil {
			return fmt.Errorf("failed to export students: %w", err)
		}
		export.Students = append(export.Students, views...)
		if len(views) < s.batchSize {
			break
		}
	}

	overview, err := s.reports.Overview(ctx)
	if err != nil {
		return fmt.Errorf("failed to export overview: %w", err)
	}
	export.Overview = *overview

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	log.Printf("Exported: %d students", len(export.Students))
	return nil
}

// Import loads activity records from a file
func (s *ExportService) Import(ctx context.Context, inputPath string) (int, error) {
	log.Printf("Starting record import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader loads activity records in a single transaction
func (s *ExportService) ImportFromReader(ctx context.Context, reader io.Reader) (int, error) {
	var doc RecordImport
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return 0, fmt.Errorf("failed to decode import: %w", err)
	}

	for i, r := range doc.Records {
		if err := validate.Struct(r); err != nil {
			return 0, fmt.Errorf("invalid record %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	records := repository.NewActivityRepository(tx)
	for i, r := range doc.Records {
		record := &models.ActivityRecord{
			OwnerAccountID: r.AccountID,
			CreatedAt:      r.CreatedAt,
			DeclaredType:   r.Type,
			Payload:        r.Payload,
		}
		if _, err := records.Create(ctx, record); err != nil {
			return 0, fmt.Errorf("failed to import record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}

	stored, err := repository.NewActivityRepository(s.db).CountRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	log.Printf("Imported %d activity records (%d stored)", len(doc.Records), stored)
	return len(doc.Records), nil
}
