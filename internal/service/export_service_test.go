package service

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathclub/internal/database"
	"mathclub/internal/repository"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "mathclub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations("../../migrations"))
	return db
}

func TestImportThenExport(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	roster := repository.NewRosterRepository(db)

	parentAccount, err := roster.CreateAccount(ctx, "uid-parent", "Priya", "priya@example.com", "parent")
	require.NoError(t, err)
	parentID, err := roster.CreateParent(ctx, parentAccount, "+15550100", "priya@example.com")
	require.NoError(t, err)
	childID, err := roster.CreateStudent(ctx, nil, &parentID, "Meera", "6", "Hillside")
	require.NoError(t, err)

	importDoc := `{
		"version": "1.0",
		"records": [
			{"account_id": ` + itoa(parentAccount) + `, "created_at": "2026-05-04T10:00:00Z", "type": "Quiz",
			 "payload": {"childId": ` + itoa(childID) + `, "summary": {"accuracyPercent": 90, "totalTime": 12}}},
			{"account_id": ` + itoa(parentAccount) + `, "created_at": "2026-05-05T10:00:00Z",
			 "payload": {"childId": "` + itoa(childID) + `", "summary": {"accuracyPercent": 70, "totalTime": 40}}},
			{"account_id": ` + itoa(parentAccount) + `, "created_at": "2026-05-06T10:00:00Z",
			 "payload": {"summary": {"accuracyPercent": 10}}}
		]
	}`

	reports := NewStudentReportService(roster, repository.NewActivityRepository(db), 10, 10, time.Second, false)
	svc := NewExportService(db, reports, 10)

	n, err := svc.ImportFromReader(ctx, strings.NewReader(importDoc))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var out bytes.Buffer
	require.NoError(t, svc.ExportTo(ctx, &out))

	var export StudentExport
	require.NoError(t, json.Unmarshal(out.Bytes(), &export))
	assert.Equal(t, exportVersion, export.Version)
	assert.NotEmpty(t, export.RunID)
	require.Len(t, export.Students, 1)

	meera := export.Students[0]
	assert.Equal(t, "Meera", meera.Name)
	assert.Equal(t, itoa(parentAccount), meera.ID, "managed students fall back to the parent account id")
	assert.Equal(t, "priya@example.com", meera.Email)
	assert.Equal(t, 1, meera.AttemptCount)
	assert.Equal(t, 1, meera.RapidCount)
	require.NotNil(t, meera.Marks)
	assert.Equal(t, 90, *meera.Marks)
	require.NotNil(t, meera.RapidMath)
	assert.Equal(t, 40, meera.RapidMath.TimeTaken)
	assert.Equal(t, 2, export.Overview.TotalReports)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
