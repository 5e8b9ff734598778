package models

import "testing"

func TestRosterEntryHasAccount(t *testing.T) {
	id := int64(7)
	tests := []struct {
		name  string
		entry RosterEntry
		want  bool
	}{
		{name: "self account", entry: RosterEntry{StudentID: 1, SelfAccountID: &id}, want: true},
		{name: "parent account", entry: RosterEntry{StudentID: 1, ParentAccountID: &id}, want: true},
		{name: "neither", entry: RosterEntry{StudentID: 1}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.HasAccount(); got != tt.want {
				t.Errorf("RosterEntry.HasAccount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestActivityRecordDeclaredTypeOrEmpty(t *testing.T) {
	quiz := "Quiz"
	if got := (ActivityRecord{DeclaredType: &quiz}).DeclaredTypeOrEmpty(); got != "Quiz" {
		t.Errorf("DeclaredTypeOrEmpty() = %q, want %q", got, "Quiz")
	}
	if got := (ActivityRecord{}).DeclaredTypeOrEmpty(); got != "" {
		t.Errorf("DeclaredTypeOrEmpty() = %q, want empty", got)
	}
}
