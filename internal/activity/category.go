package activity

// Category is the derived kind of an activity record
type Category string

const (
	Standard Category = "standard"
	Rapid    Category = "rapid"
)

// Categories lists every category in display order
var Categories = []Category{Standard, Rapid}

// Rule names the classifier branch that decided a record's category
type Rule string

const (
	RuleExplicitStandard Rule = "explicit_standard"
	RuleExplicitRapid    Rule = "explicit_rapid"
	RuleRapidShape       Rule = "rapid_shape"
	RuleDefaultStandard  Rule = "default_standard"
)

var (
	standardTags = map[string]bool{"standard": true, "quiz": true, "assessment": true}
	rapidTags    = map[string]bool{"rapid": true, "rapid_math": true}
)
