package store

import (
	"context"
	"fmt"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
)

const ownerKey = "owner"

// Put inserts or overwrites the record stored under id.
//
// A new id takes the next slot (MAX(slot)+1). ON CONFLICT(id) updates the
// record columns only, so an overwritten id keeps its original slot.
//
// Timestamps are stored as the two's-complement int64 of the uint64 value;
// the driver rejects uint64 values with the high bit set.
func (s *Store) Put(ctx context.Context, id string, rec record.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (id, slot, text, timestamp, creator)
		VALUES (?, (SELECT COALESCE(MAX(slot), 0) + 1 FROM records), ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			timestamp = excluded.timestamp,
			creator = excluded.creator
	`,
		id,
		rec.Text,
		int64(rec.Timestamp),
		rec.Creator,
	)
	if err != nil {
		return fmt.Errorf("put record %q: %w", id, err)
	}
	return nil
}

// InitOwner records the registry owner.
// Uses ON CONFLICT DO NOTHING; zero rows affected means the slot was taken.
func (s *Store) InitOwner(ctx context.Context, owner string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING
	`, ownerKey, owner)
	if err != nil {
		return fmt.Errorf("init owner: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("init owner: rows affected: %w", err)
	}
	if n == 0 {
		return ErrOwnerAlreadySet
	}
	return nil
}
