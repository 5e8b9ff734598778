package activity

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"mathclub/internal/models"
)

// Entry is a normalized activity record attributed to one student
type Entry struct {
	RecordID       int64
	Category       Category
	CreatedAt      time.Time
	Marks          int
	HasMarks       bool
	TotalQuestions int
	// TimeTaken is set whenever summary.totalTime exists, whatever the category
	TimeTaken *int
	Summary   map[string]interface{}

	TopicFeedback     interface{}
	LearningPlan      interface{}
	PerQuestionReport interface{}
	// Report is the whole payload, kept for rapid entries only
	Report map[string]interface{}
}

// Normalize extracts the display fields of a record for the given category.
// Missing or malformed numeric fields become 0.
func Normalize(record models.ActivityRecord, category Category) Entry {
	entry := Entry{
		RecordID:          record.ID,
		Category:          category,
		CreatedAt:         record.CreatedAt,
		TopicFeedback:     valueOr(record.Payload, "topicFeedback", map[string]interface{}{}),
		LearningPlan:      valueOr(record.Payload, "learningPlan", []interface{}{}),
		PerQuestionReport: valueOr(record.Payload, "perQuestionReport", []interface{}{}),
	}

	summary, ok := summaryOf(record.Payload)
	if ok {
		entry.Summary = summary
		if v, exists := summary["accuracyPercent"]; exists {
			entry.Marks = toInt(v)
			entry.HasMarks = v != nil
		}
		entry.TotalQuestions = toInt(summary["totalQuestions"])
		if v, exists := summary["totalTime"]; exists {
			t := toInt(v)
			entry.TimeTaken = &t
		}
	} else {
		entry.Summary = map[string]interface{}{}
	}

	if category == Rapid {
		entry.Report = record.Payload
		if entry.Report == nil {
			entry.Report = map[string]interface{}{}
		}
	}

	return entry
}

// TimeTakenOrZero returns TimeTaken, or 0 when the record had none
func (e Entry) TimeTakenOrZero() int {
	if e.TimeTaken == nil {
		return 0
	}
	return *e.TimeTaken
}

func valueOr(payload map[string]interface{}, key string, fallback interface{}) interface{} {
	if v, ok := payload[key]; ok && v != nil {
		return v
	}
	return fallback
}

// toInt coerces a loosely typed JSON value. Numbers truncate toward zero,
// numeric strings are parsed, anything else is 0.
func toInt(v interface{}) int {
	switch n := v.(type) {
	case json.Number:
		return parseNumeric(n.String())
	case string:
		return parseNumeric(strings.TrimSpace(n))
	case float64:
		return truncate(n)
	case float32:
		return truncate(float64(n))
	case int:
		return n
	case int64:
		return truncate(float64(n))
	case int32:
		return int(n)
	default:
		return 0
	}
}

func parseNumeric(s string) int {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return truncate(float64(i))
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return truncate(f)
	}
	return 0
}

func truncate(f float64) int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

// parseChildID reads payload.childId as a student ID. ok is false when the
// key is absent; valid is false when it is present but not an integer.
func parseChildID(payload map[string]interface{}) (id int64, ok bool, valid bool) {
	raw, exists := payload["childId"]
	if !exists || raw == nil {
		return 0, false, false
	}

	var s string
	switch v := raw.(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, true, false
		}
		return int64(v), true, true
	case int:
		return int64(v), true, true
	case int64:
		return v, true, true
	default:
		return 0, true, false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true, true
	}
	// Whole-valued numbers such as 12.0
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && !math.IsInf(f, 0) {
		return int64(f), true, true
	}
	return 0, true, false
}
