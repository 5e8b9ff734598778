// Package activity reconstructs per-student learning histories from the
// loosely typed activity log. Every function here is pure: inputs are never
// mutated and no state survives a call.
package activity

import (
	"sort"

	"mathclub/internal/models"
)

// StudentAggregate is the derived activity view of one student
type StudentAggregate struct {
	LatestStandard *Entry
	LatestRapid    *Entry
	Counts         map[Category]int
	// History is most recent first
	History []Entry
}

func newStudentAggregate() *StudentAggregate {
	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	return &StudentAggregate{Counts: counts, History: []Entry{}}
}

// Diagnostics reports the conditions the aggregator recovered from
type Diagnostics struct {
	Processed int
	Assigned  int
	// Unassignable counts every record attributed to no student
	Unassignable int
	// InvalidChildID counts unassignable records whose childId could not be parsed
	InvalidChildID int
	// ForeignChildID counts assigned records whose childId named a batch
	// student not linked to the record's account
	ForeignChildID   int
	ResolutionGaps   []int64
	UnrecognizedTags map[string]int
}

// Result is the output of one aggregation
type Result struct {
	Students    map[int64]*StudentAggregate
	Diagnostics Diagnostics
}

// Aggregate attributes each record to at most one roster student and builds
// every student's counts, latest entries and history. Every roster student
// gets an aggregate, including resolution gaps.
func Aggregate(roster RosterMap, records []models.ActivityRecord) Result {
	result := Result{
		Students: make(map[int64]*StudentAggregate, len(roster.Order)),
		Diagnostics: Diagnostics{
			ResolutionGaps:   append([]int64(nil), roster.Gaps...),
			UnrecognizedTags: make(map[string]int),
		},
	}
	for _, sid := range roster.Order {
		result.Students[sid] = newStudentAggregate()
	}

	owners := roster.Owners()

	for _, record := range sortedRecords(records) {
		result.Diagnostics.Processed++

		sid, outcome := resolveOwner(roster, owners, record)
		switch outcome {
		case ownerForeignChild:
			result.Diagnostics.ForeignChildID++
		case ownerInvalidChildID:
			result.Diagnostics.InvalidChildID++
			result.Diagnostics.Unassignable++
			continue
		case ownerNone:
			result.Diagnostics.Unassignable++
			continue
		}

		classification := Classify(record)
		if classification.UnrecognizedTag != "" {
			result.Diagnostics.UnrecognizedTags[classification.UnrecognizedTag]++
		}

		entry := Normalize(record, classification.Category)
		agg := result.Students[sid]
		agg.Counts[entry.Category]++
		switch entry.Category {
		case Standard:
			if agg.LatestStandard == nil {
				e := entry
				agg.LatestStandard = &e
			}
		case Rapid:
			if agg.LatestRapid == nil {
				e := entry
				agg.LatestRapid = &e
			}
		}
		agg.History = append(agg.History, entry)
		result.Diagnostics.Assigned++
	}

	return result
}

// sortedRecords returns a copy ordered by created_at desc, then record ID desc
func sortedRecords(records []models.ActivityRecord) []models.ActivityRecord {
	sorted := make([]models.ActivityRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted
}

type ownerOutcome int

const (
	ownerResolved ownerOutcome = iota
	ownerNone
	ownerInvalidChildID
	ownerForeignChild
)

// resolveOwner picks the student a record belongs to. Under a managed
// account, childId may name any student of the batch.
func resolveOwner(roster RosterMap, owners map[int64]AccountOwner, record models.ActivityRecord) (int64, ownerOutcome) {
	owner, ok := owners[record.OwnerAccountID]
	if !ok {
		return 0, ownerNone
	}
	if owner.Kind == OwnedBySelf {
		return owner.Student, ownerResolved
	}

	childID, present, valid := parseChildID(record.Payload)
	switch {
	case !present:
		// A parent's own practice, or an unrelated record
		return 0, ownerNone
	case !valid:
		return 0, ownerInvalidChildID
	case owner.Candidates[childID]:
		return childID, ownerResolved
	}
	if _, inBatch := roster.Students[childID]; inBatch {
		return childID, ownerForeignChild
	}
	return 0, ownerNone
}
