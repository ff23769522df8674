package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_FieldOrder(t *testing.T) {
	r := Record{Text: "The future of Web3 is bright!", Timestamp: 42, Creator: "oracle.near"}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"text":"The future of Web3 is bright!","timestamp":42,"creator":"oracle.near"}`, string(data))
}

func TestEntry_MarshalAsPair(t *testing.T) {
	e := Entry{ID: "p1", Record: Record{Text: "a", Timestamp: 1, Creator: "o"}}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, `["p1",{"text":"a","timestamp":1,"creator":"o"}]`, string(data))
}

func TestEntry_UnmarshalPair(t *testing.T) {
	var e Entry
	err := json.Unmarshal([]byte(`["p1",{"text":"a","timestamp":18446744073709551615,"creator":"o"}]`), &e)
	require.NoError(t, err)

	assert.Equal(t, "p1", e.ID)
	assert.Equal(t, uint64(18446744073709551615), e.Record.Timestamp)
	assert.Equal(t, "o", e.Record.Creator)
}

func TestEntry_UnmarshalRejectsWrongArity(t *testing.T) {
	var e Entry
	err := json.Unmarshal([]byte(`["p1"]`), &e)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"id":"p1"}`), &e)
	assert.Error(t, err)
}

func TestEntry_ListingRoundTrip(t *testing.T) {
	in := []Entry{
		{ID: "b", Record: Record{Text: "second", Timestamp: 2, Creator: "o"}},
		{ID: "a", Record: Record{Text: "first", Timestamp: 1, Creator: "o"}},
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out []Entry
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out, "listing order must survive the wire")
}
