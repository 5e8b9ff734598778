package activity

import (
	"math"
	"sort"
)

// Overview is the admin dashboard summary across the roster
type Overview struct {
	TotalStudents int           `json:"totalStudents"`
	TotalReports  int           `json:"totalReports"`
	AverageMarks  int           `json:"averageMarks"`
	PerfectScores int           `json:"totalPerfectScores"`
	MarksByGrade  []GradeMarks  `json:"marksByGrade"`
	StudentGrowth []GrowthPoint `json:"studentGrowth"`
}

// GradeMarks is the rounded average mark of one grade
type GradeMarks struct {
	Grade   string `json:"name"`
	Average int    `json:"avg"`
}

// GrowthPoint is the cumulative number of students joined by the end of a month
type GrowthPoint struct {
	Month    string `json:"name"`
	Students int    `json:"students"`
}

type tally struct {
	sum   int
	count int
}

func (t tally) average() int {
	if t.count == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(t.sum) / float64(t.count)))
}

// OverviewBuilder accumulates an Overview one roster batch at a time
type OverviewBuilder struct {
	students int
	reports  int
	perfect  int
	marks    tally
	grades   map[string]*tally
	joined   map[string]int
}

// NewOverviewBuilder creates an empty builder
func NewOverviewBuilder() *OverviewBuilder {
	return &OverviewBuilder{
		grades: make(map[string]*tally),
		joined: make(map[string]int),
	}
}

// Add folds one aggregated batch into the overview
func (b *OverviewBuilder) Add(roster RosterMap, result Result) {
	for _, sid := range roster.Order {
		b.students++
		entry := roster.Entries[sid]
		if entry.JoinedAt != nil {
			b.joined[entry.JoinedAt.UTC().Format("2006-01")]++
		}

		agg := result.Students[sid]
		if agg == nil {
			continue
		}
		for _, h := range agg.History {
			b.reports++
			if !h.HasMarks {
				continue
			}
			b.marks.sum += h.Marks
			b.marks.count++
			if h.Marks == 100 {
				b.perfect++
			}
			if entry.Grade == "" {
				continue
			}
			g, ok := b.grades[entry.Grade]
			if !ok {
				g = &tally{}
				b.grades[entry.Grade] = g
			}
			g.sum += h.Marks
			g.count++
		}
	}
}

// Build returns the accumulated overview
func (b *OverviewBuilder) Build() Overview {
	overview := Overview{
		TotalStudents: b.students,
		TotalReports:  b.reports,
		AverageMarks:  b.marks.average(),
		PerfectScores: b.perfect,
		MarksByGrade:  []GradeMarks{},
		StudentGrowth: []GrowthPoint{},
	}

	grades := make([]string, 0, len(b.grades))
	for grade := range b.grades {
		grades = append(grades, grade)
	}
	sort.Strings(grades)
	for _, grade := range grades {
		overview.MarksByGrade = append(overview.MarksByGrade, GradeMarks{Grade: grade, Average: b.grades[grade].average()})
	}

	months := make([]string, 0, len(b.joined))
	for month := range b.joined {
		months = append(months, month)
	}
	sort.Strings(months)
	cumulative := 0
	for _, month := range months {
		cumulative += b.joined[month]
		overview.StudentGrowth = append(overview.StudentGrowth, GrowthPoint{Month: month, Students: cumulative})
	}

	return overview
}

// Summarize builds the overview of a single batch
func Summarize(roster RosterMap, result Result) Overview {
	b := NewOverviewBuilder()
	b.Add(roster, result)
	return b.Build()
}
