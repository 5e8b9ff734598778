package activity

import (
	"sort"

	"mathclub/internal/models"
)

// Ownership lists the accounts whose records may belong to a student
type Ownership struct {
	Self   *int64
	Parent *int64
}

// Accounts returns the union of the self and parent accounts
func (o Ownership) Accounts() []int64 {
	var ids []int64
	if o.Self != nil {
		ids = append(ids, *o.Self)
	}
	if o.Parent != nil && (o.Self == nil || *o.Parent != *o.Self) {
		ids = append(ids, *o.Parent)
	}
	return ids
}

// RosterMap is the resolved roster for one batch
type RosterMap struct {
	// Order is the roster order of student IDs, duplicates removed
	Order    []int64
	Students map[int64]Ownership
	Entries  map[int64]models.RosterEntry
	// Gaps are students with neither a self nor a parent account
	Gaps []int64
}

// ResolveRoster maps each student to the accounts that can own its records.
// When a student ID repeats, the first entry wins.
func ResolveRoster(entries []models.RosterEntry) RosterMap {
	roster := RosterMap{
		Students: make(map[int64]Ownership, len(entries)),
		Entries:  make(map[int64]models.RosterEntry, len(entries)),
	}

	for _, entry := range entries {
		if _, seen := roster.Students[entry.StudentID]; seen {
			continue
		}
		roster.Order = append(roster.Order, entry.StudentID)
		roster.Students[entry.StudentID] = Ownership{Self: entry.SelfAccountID, Parent: entry.ParentAccountID}
		roster.Entries[entry.StudentID] = entry
		if !entry.HasAccount() {
			roster.Gaps = append(roster.Gaps, entry.StudentID)
		}
	}

	return roster
}

// AccountIDs returns every account to fetch records for, sorted and deduplicated
func (m RosterMap) AccountIDs() []int64 {
	seen := make(map[int64]bool)
	var ids []int64
	for _, sid := range m.Order {
		for _, id := range m.Students[sid].Accounts() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// OwnerKind tells how records under an account map to students
type OwnerKind int

const (
	// OwnedBySelf: the account is the self account of exactly one student
	OwnedBySelf OwnerKind = iota
	// ManagedBy: records need payload.childId to pick a student of the batch
	ManagedBy
)

// AccountOwner is the account-side view of the roster
type AccountOwner struct {
	Kind    OwnerKind
	Student int64
	// Candidates are the students linked to the account
	Candidates map[int64]bool
}

// Owners builds the reverse lookup from account to owning student(s).
// A self link to exactly one student takes precedence over any parent link.
// An account that several students claim as their self account is
// ambiguous and falls back to childId among all of them.
func (m RosterMap) Owners() map[int64]AccountOwner {
	selfClaims := make(map[int64][]int64)
	managed := make(map[int64][]int64)
	for _, sid := range m.Order {
		o := m.Students[sid]
		if o.Self != nil {
			selfClaims[*o.Self] = append(selfClaims[*o.Self], sid)
		}
		if o.Parent != nil {
			managed[*o.Parent] = append(managed[*o.Parent], sid)
		}
	}

	owners := make(map[int64]AccountOwner)
	for account, students := range selfClaims {
		if len(students) == 1 {
			owners[account] = AccountOwner{Kind: OwnedBySelf, Student: students[0]}
			continue
		}
		owners[account] = AccountOwner{Kind: ManagedBy, Candidates: candidateSet(students, managed[account])}
	}
	for account, students := range managed {
		if _, ok := owners[account]; ok {
			continue
		}
		owners[account] = AccountOwner{Kind: ManagedBy, Candidates: candidateSet(students, nil)}
	}

	return owners
}

func candidateSet(groups ...[]int64) map[int64]bool {
	set := make(map[int64]bool)
	for _, group := range groups {
		for _, sid := range group {
			set[sid] = true
		}
	}
	return set
}
