package record

import (
	"encoding/json"
	"fmt"
)

// Record is a stored prophecy: the text payload plus the write timestamp and
// the identity of the writer. A Record is never mutated once written; an
// overwrite replaces it wholesale.
type Record struct {
	Text      string `json:"text"`
	Timestamp uint64 `json:"timestamp"` // nanoseconds, set by the service
	Creator   string `json:"creator"`
}

// Entry pairs a record with the identifier it is stored under.
//
// On the wire an Entry is the two-element array [id, record].
type Entry struct {
	ID     string
	Record Record
}

// MarshalJSON encodes the entry as [id, record].
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.ID, e.Record})
}

// UnmarshalJSON decodes an [id, record] pair.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("entry: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("entry: expected [id, record], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.ID); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &e.Record); err != nil {
		return fmt.Errorf("entry record: %w", err)
	}
	return nil
}

// Snapshot is the exported state of a registry: its owner, the ordered
// entries and the digest over them.
type Snapshot struct {
	Owner   string  `json:"owner"`
	Entries []Entry `json:"entries"`
	Digest  string  `json:"digest"`
}
