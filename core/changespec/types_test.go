package changespec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComparisonResult_Partition(t *testing.T) {
	diffs := []Difference{
		{ChangeKind: ChangeKindRemoved, Reason: ReasonTypeRemoved, FullName: "A", IsBreaking: true},
		{ChangeKind: ChangeKindAdded, Reason: ReasonTypeAdded, FullName: "B"},
		{ChangeKind: ChangeKindModified, Reason: ReasonSignatureChanged, FullName: "C", IsBreaking: true},
		{ChangeKind: ChangeKindMoved, Reason: ReasonTypeMoved, FullName: "D"},
		{ChangeKind: ChangeKindExcluded, Reason: ReasonTypeRemoved, FullName: "E"},
		{ChangeKind: ChangeKindAdded, Reason: ReasonMemberAdded, FullName: "F", IsBreaking: true},
	}

	r := NewComparisonResult(diffs)

	assert.Len(t, r.Additions, 2)
	assert.Len(t, r.Removals, 1)
	assert.Len(t, r.Modifications, 1)
	assert.Len(t, r.Moves, 1)
	assert.Len(t, r.Excluded, 1)
	assert.Equal(t, 4, r.TotalChanges())
	assert.Equal(t, 3, r.BreakingChangesCount())
	assert.True(t, r.HasBreakingChanges())
	assert.Equal(t, []string{"A", "C", "D", "B", "F", "E"}, names(r.All()))
	assert.Equal(t, []string{"A", "C", "F"}, names(r.Breaking()))
}

func TestNewComparisonResult_Empty(t *testing.T) {
	r := NewComparisonResult(nil)
	assert.False(t, r.HasBreakingChanges())
	assert.Zero(t, r.TotalChanges())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"additions":[]`)
}

func TestNewComparisonResult_UnknownKind(t *testing.T) {
	assert.Panics(t, func() {
		NewComparisonResult([]Difference{{ChangeKind: "renamed"}})
	})
}

func TestDifference_IsAddition(t *testing.T) {
	assert.True(t, Difference{Reason: ReasonInterfaceAdded}.IsAddition())
	assert.False(t, Difference{Reason: ReasonOptionalParameterAdded}.IsAddition())
}

func names(diffs []Difference) []string {
	out := make([]string, len(diffs))
	for i, d := range diffs {
		out[i] = d.FullName
	}
	return out
}
