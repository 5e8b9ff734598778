package activity

import (
	"encoding/json"
	"strings"
	"time"

	"mathclub/internal/models"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func id(v int64) *int64 { return &v }

func tag(v string) *string { return &v }

func at(minutes int) time.Time { return baseTime.Add(time.Duration(minutes) * time.Minute) }

// payload decodes a JSON literal the same way the record store does
func payload(s string) map[string]interface{} {
	decoder := json.NewDecoder(strings.NewReader(s))
	decoder.UseNumber()
	out := map[string]interface{}{}
	if err := decoder.Decode(&out); err != nil {
		panic(err)
	}
	return out
}

func record(recordID, owner int64, created time.Time, declared *string, body string) models.ActivityRecord {
	return models.ActivityRecord{
		ID:             recordID,
		OwnerAccountID: owner,
		CreatedAt:      created,
		DeclaredType:   declared,
		Payload:        payload(body),
	}
}

func selfStudent(studentID, account int64) models.RosterEntry {
	return models.RosterEntry{StudentID: studentID, DisplayName: "student", SelfAccountID: id(account)}
}

func managedStudent(studentID, parentAccount int64) models.RosterEntry {
	return models.RosterEntry{StudentID: studentID, DisplayName: "child", ParentAccountID: id(parentAccount)}
}
