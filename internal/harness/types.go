package harness

import "github.com/rainwaters11/GoddessCryptoOracle/internal/record"

// OutcomeOK marks a step that returned no error.
const OutcomeOK = "ok"

// TraceEvent records one executed step and what it returned.
type TraceEvent struct {
	Seq     int
	Op      string
	Caller  string
	ID      string
	Text    string
	Limit   uint64
	Outcome string
	Found   bool
	Record  *record.Record
	Entries []record.Entry
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool

	// Trace contains one event per step, in order.
	Trace []TraceEvent

	// Errors contains expectation and assertion failures.
	Errors []string

	// Digest is the state digest after the last step.
	Digest string

	// Events is the number of record.stored events published.
	Events int
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
