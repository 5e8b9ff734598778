package service

import (
	"strconv"
	"time"

	"mathclub/internal/activity"
	"mathclub/internal/models"
)

const (
	AuthProviderEmail  = "Email"
	AuthProviderGoogle = "Google"
)

// StudentView is one row of the admin student list
type StudentView struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	ChildID           string                 `json:"childId"`
	Grade             string                 `json:"grade"`
	School            string                 `json:"school"`
	Email             string                 `json:"email"`
	PhoneNumber       string                 `json:"phoneNumber"`
	JoinedAt          *string                `json:"joinedAt"`
	AttemptCount      int                    `json:"attemptCount"`
	RapidCount        int                    `json:"rapidCount"`
	Marks             *int                   `json:"marks"`
	Date              *string                `json:"date"`
	TopicFeedback     interface{}            `json:"topicFeedback"`
	LearningPlan      interface{}            `json:"learningPlan"`
	Summary           map[string]interface{} `json:"summary"`
	PerQuestionReport interface{}            `json:"perQuestionReport"`
	RapidMath         *RapidView             `json:"rapidMath"`
	History           []HistoryView          `json:"history"`
	AuthProvider      string                 `json:"authProvider"`
}

// RapidView is the latest rapid-math result, or a rapid history entry's detail
type RapidView struct {
	Marks          int                    `json:"marks"`
	TimeTaken      int                    `json:"timeTaken"`
	TotalQuestions int                    `json:"totalQuestions"`
	Date           string                 `json:"date"`
	Report         map[string]interface{} `json:"report"`
}

// HistoryView is one entry of a student's history, most recent first
type HistoryView struct {
	Type              activity.Category      `json:"type"`
	Date              string                 `json:"date"`
	Marks             int                    `json:"marks"`
	TotalQuestions    int                    `json:"totalQuestions"`
	TimeTaken         *int                   `json:"timeTaken"`
	ReportID          int64                  `json:"reportId"`
	ChildID           string                 `json:"childId"`
	Summary           map[string]interface{} `json:"summary"`
	PerQuestionReport interface{}            `json:"perQuestionReport"`
	TopicFeedback     interface{}            `json:"topicFeedback"`
	LearningPlan      interface{}            `json:"learningPlan"`
	RapidMath         *RapidView             `json:"rapidMath"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// displayID picks the identifier admins know the student by:
// student ticket, then parent ticket, then external uid, then account id
func displayID(entry models.RosterEntry) string {
	switch {
	case entry.StudentTicket != "":
		return entry.StudentTicket
	case entry.ParentTicket != "":
		return entry.ParentTicket
	case entry.AccountUID != "":
		return entry.AccountUID
	case entry.SelfAccountID != nil:
		return strconv.FormatInt(*entry.SelfAccountID, 10)
	case entry.ParentAccountID != nil:
		return strconv.FormatInt(*entry.ParentAccountID, 10)
	default:
		return strconv.FormatInt(entry.StudentID, 10)
	}
}

// authProvider reports "Email" when the student's login account holds a
// username credential. Managed students are judged by the parent account.
func authProvider(entry models.RosterEntry, credentialed map[int64]bool) string {
	account := entry.SelfAccountID
	if account == nil {
		account = entry.ParentAccountID
	}
	if account != nil && credentialed[*account] {
		return AuthProviderEmail
	}
	return AuthProviderGoogle
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func rapidView(e *activity.Entry) *RapidView {
	return &RapidView{
		Marks:          e.Marks,
		TimeTaken:      e.TimeTakenOrZero(),
		TotalQuestions: e.TotalQuestions,
		Date:           formatTime(e.CreatedAt),
		Report:         e.Report,
	}
}

// buildStudentView merges roster display fields with the student's aggregate
func buildStudentView(entry models.RosterEntry, agg *activity.StudentAggregate, credentialed map[int64]bool) StudentView {
	childID := strconv.FormatInt(entry.StudentID, 10)
	view := StudentView{
		ID:           displayID(entry),
		Name:         entry.DisplayName,
		ChildID:      childID,
		Grade:        entry.Grade,
		School:       entry.School,
		Email:        firstNonEmpty(entry.Email, entry.ParentEmail),
		PhoneNumber:  firstNonEmpty(entry.PhoneNumber, entry.ParentPhone),
		AuthProvider: authProvider(entry, credentialed),
		History:      []HistoryView{},
	}
	if view.Name == "" {
		view.Name = "Unknown"
	}
	if entry.JoinedAt != nil {
		joined := formatTime(*entry.JoinedAt)
		view.JoinedAt = &joined
	}
	if agg == nil {
		return view
	}

	view.AttemptCount = agg.Counts[activity.Standard]
	view.RapidCount = agg.Counts[activity.Rapid]

	if latest := agg.LatestStandard; latest != nil {
		marks := latest.Marks
		date := formatTime(latest.CreatedAt)
		view.Marks = &marks
		view.Date = &date
		view.TopicFeedback = latest.TopicFeedback
		view.LearningPlan = latest.LearningPlan
		view.Summary = latest.Summary
		view.PerQuestionReport = latest.PerQuestionReport
	}
	if agg.LatestRapid != nil {
		view.RapidMath = rapidView(agg.LatestRapid)
	}

	for i := range agg.History {
		e := &agg.History[i]
		h := HistoryView{
			Type:              e.Category,
			Date:              formatTime(e.CreatedAt),
			Marks:             e.Marks,
			TotalQuestions:    e.TotalQuestions,
			TimeTaken:         e.TimeTaken,
			ReportID:          e.RecordID,
			ChildID:           childID,
			Summary:           e.Summary,
			PerQuestionReport: e.PerQuestionReport,
			TopicFeedback:     e.TopicFeedback,
			LearningPlan:      e.LearningPlan,
		}
		if e.Category == activity.Rapid {
			h.RapidMath = rapidView(e)
		}
		view.History = append(view.History, h)
	}

	return view
}
