package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mathclub/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		declared     *string
		body         string
		wantCategory Category
		wantRule     Rule
		wantTag      string
	}{
		{"standard tag", tag("standard"), `{"summary":{"accuracyPercent":80}}`, Standard, RuleExplicitStandard, ""},
		{"quiz tag wins over totalTime", tag("quiz"), `{"summary":{"totalTime":45}}`, Standard, RuleExplicitStandard, ""},
		{"assessment tag any casing", tag("AssessMent"), `{"summary":{"totalTime":45}}`, Standard, RuleExplicitStandard, ""},
		{"rapid tag", tag("rapid"), `{}`, Rapid, RuleExplicitRapid, ""},
		{"rapid_math tag upper case", tag("RAPID_MATH"), `{"summary":{}}`, Rapid, RuleExplicitRapid, ""},
		{"absent tag with totalTime", nil, `{"summary":{"totalTime":30}}`, Rapid, RuleRapidShape, ""},
		{"absent tag with null totalTime", nil, `{"summary":{"totalTime":null}}`, Rapid, RuleRapidShape, ""},
		{"absent tag without totalTime", nil, `{"summary":{"accuracyPercent":90}}`, Standard, RuleDefaultStandard, ""},
		{"absent tag without summary", nil, `{}`, Standard, RuleDefaultStandard, ""},
		{"summary not an object", nil, `{"summary":"totalTime"}`, Standard, RuleDefaultStandard, ""},
		{"empty tag behaves as absent", tag(""), `{"summary":{"totalTime":3}}`, Rapid, RuleRapidShape, ""},
		{"unknown tag falls through to shape", tag("Speed_Drill"), `{"summary":{"totalTime":3}}`, Rapid, RuleRapidShape, "speed_drill"},
		{"unknown tag defaults to standard", tag("practice"), `{"summary":{}}`, Standard, RuleDefaultStandard, "practice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(record(1, 1, at(0), tt.declared, tt.body))
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantRule, got.Rule)
			assert.Equal(t, tt.wantTag, got.UnrecognizedTag)
		})
	}
}

func TestClassifyNilPayload(t *testing.T) {
	got := Classify(models.ActivityRecord{ID: 1})
	assert.Equal(t, Standard, got.Category)
	assert.Equal(t, RuleDefaultStandard, got.Rule)
}
