package models

import "time"

// RosterEntry is one student as delivered by the roster feed.
// A student has a self account, a parent account, both, or (a resolution gap) neither.
type RosterEntry struct {
	StudentID       int64
	DisplayName     string
	Grade           string
	SelfAccountID   *int64
	ParentAccountID *int64

	// Display-only fields
	School        string
	Email         string
	PhoneNumber   string
	ParentEmail   string
	ParentPhone   string
	AccountUID    string
	StudentTicket string
	ParentTicket  string
	JoinedAt      *time.Time
}

// HasAccount reports whether the student can own any activity records
func (e RosterEntry) HasAccount() bool {
	return e.SelfAccountID != nil || e.ParentAccountID != nil
}

// Parent is a parent account with contact details, used for progress digests
type Parent struct {
	ID          int64
	AccountID   int64
	Name        string
	Email       string
	PhoneNumber string
}
