// Package storetest provides a conformance suite for store.Backend
// implementations.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/store"
)

// Factory returns a fresh, empty backend. The suite closes it.
type Factory func(t *testing.T) store.Backend

// Run exercises the RecordStore and OwnerStore contracts against backends
// produced by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, b store.Backend)
	}{
		{"GetMissing", testGetMissing},
		{"PutThenGet", testPutThenGet},
		{"OverwriteKeepsSlot", testOverwriteKeepsSlot},
		{"ListBounds", testListBounds},
		{"ListZero", testListZero},
		{"ListHugeLimit", testListHugeLimit},
		{"ListIsRestartable", testListIsRestartable},
		{"Len", testLen},
		{"OpaqueIDs", testOpaqueIDs},
		{"OwnerInitOnce", testOwnerInitOnce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend(t)
			t.Cleanup(func() { _ = b.Close() })
			tt.fn(t, b)
		})
	}
}

func rec(text string, ts uint64) record.Record {
	return record.Record{Text: text, Timestamp: ts, Creator: "oracle.near"}
}

func ids(entries []record.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func testGetMissing(t *testing.T, b store.Backend) {
	got, found, err := b.Get(context.Background(), "never-stored")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, record.Record{}, got)
}

func testPutThenGet(t *testing.T, b store.Backend) {
	ctx := context.Background()
	want := rec("The future of Web3 is bright!", 1_700_000_000_000_000_000)

	require.NoError(t, b.Put(ctx, "test_prophecy", want))

	got, found, err := b.Get(ctx, "test_prophecy")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)
}

func testOverwriteKeepsSlot(t *testing.T, b store.Backend) {
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "A", rec("a1", 1)))
	require.NoError(t, b.Put(ctx, "B", rec("b1", 2)))
	require.NoError(t, b.Put(ctx, "A", rec("a2", 3)))

	entries, err := b.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, []string{"A", "B"}, ids(entries))
	assert.Equal(t, rec("a2", 3), entries[0].Record, "overwrite must replace content")
	assert.Equal(t, rec("b1", 2), entries[1].Record)

	n, err := b.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func testListBounds(t *testing.T, b store.Backend) {
	ctx := context.Background()
	keys := []string{"k5", "k1", "k9", "k3", "k7"}
	for i, k := range keys {
		require.NoError(t, b.Put(ctx, k, rec(k, uint64(i+1))))
	}

	for limit := uint64(0); limit <= uint64(len(keys))+2; limit++ {
		entries, err := b.List(ctx, limit)
		require.NoError(t, err)

		want := min(int(limit), len(keys))
		require.Len(t, entries, want, "limit=%d", limit)
		assert.Equal(t, keys[:want], ids(entries), "limit=%d keeps insertion order", limit)
	}
}

func testListZero(t *testing.T, b store.Backend) {
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "x", rec("x", 1)))

	entries, err := b.List(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func testListHugeLimit(t *testing.T, b store.Backend) {
	ctx := context.Background()
	require.NoError(t, b.Put(ctx, "x", rec("x", 1)))
	require.NoError(t, b.Put(ctx, "y", rec("y", 2)))

	entries, err := b.List(ctx, ^uint64(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids(entries))
}

func testListIsRestartable(t *testing.T, b store.Backend) {
	ctx := context.Background()
	for i := range 4 {
		k := fmt.Sprintf("p%d", i)
		require.NoError(t, b.Put(ctx, k, rec(k, uint64(i))))
	}

	first, err := b.List(ctx, 3)
	require.NoError(t, err)
	second, err := b.List(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	got, _, err := b.Get(ctx, "p2")
	require.NoError(t, err)
	again, _, err := b.Get(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func testLen(t *testing.T, b store.Backend) {
	ctx := context.Background()

	n, err := b.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, b.Put(ctx, "a", rec("a", 1)))
	require.NoError(t, b.Put(ctx, "b", rec("b", 2)))
	require.NoError(t, b.Put(ctx, "a", rec("a", 3)))

	n, err = b.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func testOpaqueIDs(t *testing.T, b store.Backend) {
	ctx := context.Background()
	keys := []string{"", "with space", "ünïcödé", "quote'\"", "prophecy_1700000000"}
	for i, k := range keys {
		require.NoError(t, b.Put(ctx, k, rec("t"+k, uint64(i))))
	}

	for i, k := range keys {
		got, found, err := b.Get(ctx, k)
		require.NoError(t, err)
		require.True(t, found, "id %q", k)
		assert.Equal(t, rec("t"+k, uint64(i)), got)
	}

	entries, err := b.List(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, keys, ids(entries))
}

func testOwnerInitOnce(t *testing.T, b store.Backend) {
	ctx := context.Background()

	_, ok, err := b.Owner(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.InitOwner(ctx, "oracle.near"))

	err = b.InitOwner(ctx, "eve.near")
	assert.True(t, errors.Is(err, store.ErrOwnerAlreadySet))

	owner, ok, err := b.Owner(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "oracle.near", owner)
}
