package activity

import (
	"strings"

	"mathclub/internal/models"
)

// Classification is the classifier's verdict for one record
type Classification struct {
	Category Category
	Rule     Rule
	// UnrecognizedTag holds a non-empty declared type that is in neither
	// explicit set; the record still falls through to the payload heuristic
	UnrecognizedTag string
}

// Classify derives a record's category. Explicit tags win over payload shape.
func Classify(record models.ActivityRecord) Classification {
	tag := strings.ToLower(record.DeclaredTypeOrEmpty())

	if standardTags[tag] {
		return Classification{Category: Standard, Rule: RuleExplicitStandard}
	}
	if rapidTags[tag] {
		return Classification{Category: Rapid, Rule: RuleExplicitRapid}
	}

	c := Classification{Category: Standard, Rule: RuleDefaultStandard, UnrecognizedTag: tag}
	if summary, ok := summaryOf(record.Payload); ok {
		if _, hasTime := summary["totalTime"]; hasTime {
			c.Category = Rapid
			c.Rule = RuleRapidShape
		}
	}
	return c
}

// summaryOf returns payload.summary when it is a JSON object
func summaryOf(payload map[string]interface{}) (map[string]interface{}, bool) {
	if payload == nil {
		return nil, false
	}
	summary, ok := payload["summary"].(map[string]interface{})
	return summary, ok
}
