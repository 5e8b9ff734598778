package repository

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"mathclub/internal/database"
	"mathclub/internal/models"
)

// ActivityRepository is the activity record store
type ActivityRepository struct {
	db database.DBTX
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ListByOwners returns every record owned by any of accountIDs.
// Order is unspecified; the aggregator applies its own ordering.
func (r *ActivityRepository) ListByOwners(ctx context.Context, accountIDs []int64) ([]models.ActivityRecord, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, account_id, created_at, declared_type, payload
		FROM activity_records
		WHERE account_id IN (` + database.Placeholders(len(accountIDs)) + `)
	`
	rows, err := r.db.QueryContext(ctx, query, int64Args(accountIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity records: %w", err)
	}
	defer rows.Close()

	var records []models.ActivityRecord
	for rows.Next() {
		var (
			record       models.ActivityRecord
			declaredType sql.NullString
			payload      []byte
		)
		if err := rows.Scan(&record.ID, &record.OwnerAccountID, &record.CreatedAt, &declaredType, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan activity record: %w", err)
		}

		record.Payload = decodePayload(record.ID, payload)
		if declaredType.Valid {
			tag := declaredType.String
			record.DeclaredType = &tag
		} else if tag, ok := record.Payload["type"].(string); ok {
			// Older rows kept the tag inside the document
			record.DeclaredType = &tag
		}

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity records: %w", err)
	}

	return records, nil
}

// Create stores a new activity record and returns its ID.
// A zero CreatedAt is replaced with the current time.
func (r *ActivityRepository) Create(ctx context.Context, record *models.ActivityRecord) (int64, error) {
	payload := record.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode payload: %w", err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var declaredType sql.NullString
	if record.DeclaredType != nil {
		declaredType = sql.NullString{String: *record.DeclaredType, Valid: true}
	}

	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO activity_records (account_id, declared_type, payload, created_at) VALUES (?, ?, ?, ?)",
		record.OwnerAccountID, declaredType, string(data), createdAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to create activity record: %w", err)
	}

	record.ID = id
	record.CreatedAt = createdAt
	return id, nil
}

// CountRecords returns the total number of stored records
func (r *ActivityRepository) CountRecords(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activity_records").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count activity records: %w", err)
	}
	return count, nil
}

// decodePayload parses a stored document. Anything that is not a JSON
// object decodes to an empty payload so the record still counts.
func decodePayload(recordID int64, data []byte) map[string]interface{} {
	payload := map[string]interface{}{}
	if len(bytes.TrimSpace(data)) == 0 {
		return payload
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		log.Printf("Warning: activity record %d has an unreadable payload: %v", recordID, err)
		return map[string]interface{}{}
	}
	return payload
}
