package service

import (
	"context"
	"fmt"
	"log"

	"mathclub/internal/models"
	"mathclub/internal/observability"
)

// ParentDirectory lists parents and the students they manage
type ParentDirectory interface {
	ListParents(ctx context.Context) ([]models.Parent, error)
	ListStudentsByParent(ctx context.Context, parentAccountID int64) ([]models.RosterEntry, error)
}

// StudentViewBuilder aggregates a set of roster entries into views
type StudentViewBuilder interface {
	BuildViews(ctx context.Context, entries []models.RosterEntry) ([]StudentView, error)
}

// DigestMailer sends parent progress digests
type DigestMailer interface {
	IsEnabled() bool
	SendProgressDigest(ctx context.Context, toEmail, toName string, children []ChildSummary) error
}

// DigestResult counts the outcome of one digest run
type DigestResult struct {
	Sent    int
	Skipped int
	Failed  int
}

// DigestService emails each parent a summary of their children's results
type DigestService struct {
	parents ParentDirectory
	views   StudentViewBuilder
	mailer  DigestMailer
}

// NewDigestService creates a new digest service
func NewDigestService(parents ParentDirectory, views StudentViewBuilder, mailer DigestMailer) *DigestService {
	return &DigestService{parents: parents, views: views, mailer: mailer}
}

// SendDigests sends one email per parent that manages at least one student.
// A failed send is logged and counted; the run continues with the next parent.
func (s *DigestService) SendDigests(ctx context.Context) (*DigestResult, error) {
	result := &DigestResult{}
	if !s.mailer.IsEnabled() {
		log.Println("Parent digests skipped: email service disabled")
		return result, nil
	}

	parents, err := s.parents.ListParents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list parents: %w", err)
	}

	for _, parent := range parents {
		entries, err := s.parents.ListStudentsByParent(ctx, parent.AccountID)
		if err != nil {
			return result, fmt.Errorf("failed to list students for parent %d: %w", parent.ID, err)
		}
		if len(entries) == 0 {
			result.Skipped++
			observability.RecordDigest("skipped")
			continue
		}

		views, err := s.views.BuildViews(ctx, entries)
		if err != nil {
			return result, fmt.Errorf("failed to build views for parent %d: %w", parent.ID, err)
		}

		if err := s.mailer.SendProgressDigest(ctx, parent.Email, parent.Name, childSummaries(views)); err != nil {
			log.Printf("Failed to send digest to parent %d: %v", parent.ID, err)
			result.Failed++
			observability.RecordDigest("failed")
			continue
		}
		result.Sent++
		observability.RecordDigest("sent")
	}

	log.Printf("Parent digests: sent=%d skipped=%d failed=%d", result.Sent, result.Skipped, result.Failed)
	return result, nil
}

func childSummaries(views []StudentView) []ChildSummary {
	children := make([]ChildSummary, 0, len(views))
	for _, v := range views {
		c := ChildSummary{
			Name:         v.Name,
			Grade:        v.Grade,
			AttemptCount: v.AttemptCount,
			RapidCount:   v.RapidCount,
			LatestMarks:  v.Marks,
			LatestDate:   v.Date,
		}
		if v.RapidMath != nil {
			marks, taken := v.RapidMath.Marks, v.RapidMath.TimeTaken
			c.RapidMarks = &marks
			c.RapidTime = &taken
		}
		children = append(children, c)
	}
	return children
}
