package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mathclub/internal/activity"
	"mathclub/internal/models"
	"mathclub/internal/observability"
)

var (
	// ErrStudentNotFound is returned when a student ID is not on the roster
	ErrStudentNotFound = errors.New("student not found")
	// ErrInvalidPage is returned for a negative skip or limit
	ErrInvalidPage = errors.New("invalid page")
)

// RosterStore is the roster feed
type RosterStore interface {
	ListStudents(ctx context.Context, skip, limit int) ([]models.RosterEntry, error)
	GetStudent(ctx context.Context, studentID int64) (*models.RosterEntry, error)
	AccountsWithCredentials(ctx context.Context, accountIDs []int64) (map[int64]bool, error)
}

// RecordStore is the activity record feed
type RecordStore interface {
	ListByOwners(ctx context.Context, accountIDs []int64) ([]models.ActivityRecord, error)
}

// Page selects a window of the roster
type Page struct {
	Skip  int `validate:"gte=0"`
	Limit int `validate:"gte=0"`
}

// StudentReportService assembles the admin student views
type StudentReportService struct {
	roster       RosterStore
	records      RecordStore
	batchSize    int
	maxBatchSize int
	fetchTimeout time.Duration
	debug        bool
}

// NewStudentReportService creates a new student report service
func NewStudentReportService(roster RosterStore, records RecordStore, batchSize, maxBatchSize int, fetchTimeout time.Duration, debug bool) *StudentReportService {
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxBatchSize < batchSize {
		maxBatchSize = batchSize
	}
	return &StudentReportService{
		roster:       roster,
		records:      records,
		batchSize:    batchSize,
		maxBatchSize: maxBatchSize,
		fetchTimeout: fetchTimeout,
		debug:        debug,
	}
}

// batch is one aggregated roster page
type batch struct {
	runID        string
	roster       activity.RosterMap
	result       activity.Result
	credentialed map[int64]bool
}

// ListStudents returns one page of student views in roster order.
// A zero limit means the default batch size; limits above the maximum are capped.
func (s *StudentReportService) ListStudents(ctx context.Context, page Page) ([]StudentView, error) {
	if err := validate.Struct(page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}

	limit := page.Limit
	if limit == 0 {
		limit = s.batchSize
	}
	if limit > s.maxBatchSize {
		limit = s.maxBatchSize
	}

	entries, err := s.roster.ListStudents(ctx, page.Skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	b, err := s.aggregate(ctx, entries)
	if err != nil {
		return nil, err
	}
	return b.views(), nil
}

// GetStudent returns the view of a single student. The student is
// aggregated as a batch of one, so a self account it shares with other
// roster students resolves to it without childId.
func (s *StudentReportService) GetStudent(ctx context.Context, studentID int64) (*StudentView, error) {
	entry, err := s.roster.GetStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if entry == nil {
		return nil, ErrStudentNotFound
	}

	b, err := s.aggregate(ctx, []models.RosterEntry{*entry})
	if err != nil {
		return nil, err
	}
	views := b.views()
	return &views[0], nil
}

// BuildViews aggregates an arbitrary set of roster entries as one batch
func (s *StudentReportService) BuildViews(ctx context.Context, entries []models.RosterEntry) ([]StudentView, error) {
	b, err := s.aggregate(ctx, entries)
	if err != nil {
		return nil, err
	}
	return b.views(), nil
}

// Overview summarizes the whole roster, one batch at a time
func (s *StudentReportService) Overview(ctx context.Context) (*activity.Overview, error) {
	builder := activity.NewOverviewBuilder()
	for skip := 0; ; skip += s.batchSize {
		entries, err := s.roster.ListStudents(ctx, skip, s.batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list students: %w", err)
		}
		if len(entries) == 0 {
			break
		}

		b, err := s.aggregate(ctx, entries)
		if err != nil {
			return nil, err
		}
		builder.Add(b.roster, b.result)

		if len(entries) < s.batchSize {
			break
		}
	}

	overview := builder.Build()
	return &overview, nil
}

// aggregate resolves the roster, fetches records and credentials
// concurrently, then runs the aggregator once over the whole batch
func (s *StudentReportService) aggregate(ctx context.Context, entries []models.RosterEntry) (*batch, error) {
	start := time.Now()
	b := &batch{
		runID:  uuid.NewString(),
		roster: activity.ResolveRoster(entries),
	}
	accountIDs := b.roster.AccountIDs()

	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	var records []models.ActivityRecord
	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		records, err = s.records.ListByOwners(gctx, accountIDs)
		if err != nil {
			return fmt.Errorf("failed to fetch activity records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		b.credentialed, err = s.roster.AccountsWithCredentials(gctx, accountIDs)
		if err != nil {
			return fmt.Errorf("failed to fetch credentials: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.result = activity.Aggregate(b.roster, records)
	s.report(b, time.Since(start))
	return b, nil
}

// report logs and exports the diagnostics of one batch
func (s *StudentReportService) report(b *batch, elapsed time.Duration) {
	d := b.result.Diagnostics
	observability.RecordBatch(observability.BatchStats{
		Assigned:         d.Assigned,
		Unassignable:     d.Unassignable,
		InvalidChildID:   d.InvalidChildID,
		ResolutionGaps:   len(d.ResolutionGaps),
		UnrecognizedTags: d.UnrecognizedTags,
		Duration:         elapsed,
	})

	if s.debug {
		log.Printf("[DEBUG] aggregation %s: students=%d records=%d assigned=%d took=%s",
			b.runID, len(b.roster.Order), d.Processed, d.Assigned, elapsed)
	}
	if d.Unassignable > 0 {
		log.Printf("aggregation %s: %d unassignable records (%d with invalid childId)", b.runID, d.Unassignable, d.InvalidChildID)
	}
	if d.ForeignChildID > 0 {
		log.Printf("aggregation %s: %d records assigned by childId to a student of another account", b.runID, d.ForeignChildID)
	}
	if len(d.ResolutionGaps) > 0 {
		log.Printf("aggregation %s: students without any account: %v", b.runID, d.ResolutionGaps)
	}
	for tag, n := range d.UnrecognizedTags {
		log.Printf("aggregation %s: unrecognized activity type %q on %d records", b.runID, tag, n)
	}
}

func (b *batch) views() []StudentView {
	views := make([]StudentView, 0, len(b.roster.Order))
	for _, sid := range b.roster.Order {
		views = append(views, buildStudentView(b.roster.Entries[sid], b.result.Students[sid], b.credentialed))
	}
	return views
}
