// Package memstore provides a volatile store.Backend.
//
// Records live in a map for key uniqueness; iteration order comes from a
// B-tree keyed by each id's first-insertion slot. Overwrites update the map
// entry in place and never touch the tree.
package memstore

import (
	"context"
	"sync"

	"github.com/google/btree"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/store"
)

var _ store.Backend = (*Store)(nil)

// slotItem orders ids by slot inside the B-tree.
type slotItem struct {
	slot uint64
	id   string
}

func (s slotItem) Less(than btree.Item) bool {
	return s.slot < than.(slotItem).slot
}

type entry struct {
	slot uint64
	rec  record.Record
}

// Store is an in-memory Backend. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	records  map[string]*entry
	order    *btree.BTree
	nextSlot uint64
	maxTS    uint64
	owner    string
	hasOwner bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		records:  make(map[string]*entry),
		order:    btree.New(16),
		nextSlot: 1,
	}
}

// Put inserts or overwrites the record stored under id.
func (s *Store) Put(ctx context.Context, id string, rec record.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.records[id]; ok {
		e.rec = rec
	} else {
		slot := s.nextSlot
		s.nextSlot++
		s.records[id] = &entry{slot: slot, rec: rec}
		s.order.ReplaceOrInsert(slotItem{slot: slot, id: id})
	}
	if rec.Timestamp > s.maxTS {
		s.maxTS = rec.Timestamp
	}
	return nil
}

// Get returns the record stored under id.
func (s *Store) Get(ctx context.Context, id string) (record.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return record.Record{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.records[id]
	if !ok {
		return record.Record{}, false, nil
	}
	return e.rec, true, nil
}

// List returns the first limit entries in insertion order.
func (s *Store) List(ctx context.Context, limit uint64) ([]record.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := uint64(s.order.Len())
	if limit < n {
		n = limit
	}
	entries := make([]record.Entry, 0, n)
	if n == 0 {
		return entries, nil
	}

	s.order.Ascend(func(i btree.Item) bool {
		item := i.(slotItem)
		entries = append(entries, record.Entry{ID: item.id, Record: s.records[item.id].rec})
		return uint64(len(entries)) < n
	})
	return entries, nil
}

// Len returns the number of stored ids.
func (s *Store) Len(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// MaxTimestamp returns the largest timestamp ever stored.
func (s *Store) MaxTimestamp(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxTS, nil
}

// Owner returns the recorded owner, if any.
func (s *Store) Owner(ctx context.Context) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.owner, s.hasOwner, nil
}

// InitOwner records owner once.
func (s *Store) InitOwner(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasOwner {
		return store.ErrOwnerAlreadySet
	}
	s.owner = owner
	s.hasOwner = true
	return nil
}

// Close is a no-op; the store's contents are dropped with it.
func (s *Store) Close() error {
	return nil
}
