package models

import "time"

// ActivityRecord is one stored activity result. Payload is an opaque JSON
// document decoded with json.Number so numeric fields keep their source form.
type ActivityRecord struct {
	ID             int64
	OwnerAccountID int64
	CreatedAt      time.Time
	DeclaredType   *string
	Payload        map[string]interface{}
}

// DeclaredTypeOrEmpty returns the declared type or "" when absent
func (r ActivityRecord) DeclaredTypeOrEmpty() string {
	if r.DeclaredType == nil {
		return ""
	}
	return *r.DeclaredType
}
