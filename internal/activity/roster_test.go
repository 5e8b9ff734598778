package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mathclub/internal/models"
)

func TestOwnershipAccounts(t *testing.T) {
	tests := []struct {
		name string
		own  Ownership
		want []int64
	}{
		{"self only", Ownership{Self: id(1)}, []int64{1}},
		{"parent only", Ownership{Parent: id(2)}, []int64{2}},
		{"both", Ownership{Self: id(1), Parent: id(2)}, []int64{1, 2}},
		{"same account twice", Ownership{Self: id(3), Parent: id(3)}, []int64{3}},
		{"neither", Ownership{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.own.Accounts())
		})
	}
}

func TestResolveRoster(t *testing.T) {
	roster := ResolveRoster([]models.RosterEntry{
		selfStudent(10, 100),
		managedStudent(11, 200),
		managedStudent(12, 200),
		{StudentID: 13, DisplayName: "orphan"},
		{StudentID: 10, DisplayName: "duplicate", SelfAccountID: id(999)},
	})

	assert.Equal(t, []int64{10, 11, 12, 13}, roster.Order)
	assert.Equal(t, []int64{13}, roster.Gaps)
	assert.Equal(t, int64(100), *roster.Students[10].Self, "first entry wins for duplicates")
	assert.Equal(t, "student", roster.Entries[10].DisplayName)
	assert.Equal(t, []int64{100, 200}, roster.AccountIDs())
}

func TestResolveRosterEmpty(t *testing.T) {
	roster := ResolveRoster(nil)
	assert.Empty(t, roster.Order)
	assert.Empty(t, roster.AccountIDs())
	assert.Empty(t, roster.Owners())
}

func TestOwners(t *testing.T) {
	roster := ResolveRoster([]models.RosterEntry{
		selfStudent(1, 100),
		managedStudent(2, 200),
		managedStudent(3, 200),
		// Account 300 is claimed as a self account by two students
		selfStudent(4, 300),
		selfStudent(5, 300),
		// Account 100 also manages student 6, but the self link wins
		managedStudent(6, 100),
	})

	owners := roster.Owners()
	require.Len(t, owners, 3)

	assert.Equal(t, AccountOwner{Kind: OwnedBySelf, Student: 1}, owners[100])

	assert.Equal(t, ManagedBy, owners[200].Kind)
	assert.Equal(t, map[int64]bool{2: true, 3: true}, owners[200].Candidates)

	assert.Equal(t, ManagedBy, owners[300].Kind)
	assert.Equal(t, map[int64]bool{4: true, 5: true}, owners[300].Candidates)
}
