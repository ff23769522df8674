package harness

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(n int) *int { return &n }

func runWith(t *testing.T, assertions []Assertion) *Result {
	t.Helper()
	result, err := Run(context.Background(), &Scenario{
		Name:        "assertions",
		Description: "two records, one rejected write",
		Owner:       "oracle.near",
		Steps: []Step{
			{Op: OpStore, Caller: "oracle.near", ID: "b", Text: "1"},
			{Op: OpStore, Caller: "oracle.near", ID: "a", Text: "2"},
			{Op: OpStore, Caller: "eve.near", ID: "c", Text: "3", Expect: &Expect{Error: "UNAUTHORIZED"}},
		},
		Assertions: assertions,
	})
	require.NoError(t, err)
	return result
}

func TestAssertions_Pass(t *testing.T) {
	result := runWith(t, []Assertion{
		{Type: AssertRecordCount, Count: count(2)},
		{Type: AssertListOrder, IDs: []string{"b", "a"}},
		{Type: AssertAbsent, ID: "c"},
		{Type: AssertEventCount, Count: count(2)},
	})
	assert.True(t, result.Pass, result.Errors)
}

func TestAssertions_Fail(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"record count", Assertion{Type: AssertRecordCount, Count: count(3)}, "Actual: 2 records"},
		{"list order", Assertion{Type: AssertListOrder, IDs: []string{"a", "b"}}, "Actual: [b a]"},
		{"absent", Assertion{Type: AssertAbsent, ID: "a"}, `Expected: "a" absent`},
		{"event count", Assertion{Type: AssertEventCount, Count: count(3)}, "Actual: 2 events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runWith(t, []Assertion{tt.assertion})
			assert.False(t, result.Pass)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tt.want)
			assert.Contains(t, result.Errors[0], "Full trace:")
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertAbsent,
		Expected: `"x" absent`,
		Actual:   "present",
		Trace:    []TraceEvent{{Seq: 1, Op: OpStore, Caller: "oracle.near", ID: "x", Outcome: OutcomeOK}},
	}

	var ae *AssertionError
	require.True(t, errors.As(error(err), &ae))
	assert.Contains(t, err.Error(), "Assertion failed: absent")
	assert.Contains(t, err.Error(), `[1] store caller="oracle.near" id="x" -> ok`)
}
