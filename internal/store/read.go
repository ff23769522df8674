package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
)

// Get retrieves a single record by id.
// A missing id is not an error: found is false and rec is the zero Record.
func (s *Store) Get(ctx context.Context, id string) (record.Record, bool, error) {
	var (
		rec record.Record
		ts  int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT text, timestamp, creator
		FROM records
		WHERE id = ?
	`, id).Scan(&rec.Text, &ts, &rec.Creator)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, false, nil
	}
	if err != nil {
		return record.Record{}, false, fmt.Errorf("get record %q: %w", id, err)
	}
	rec.Timestamp = uint64(ts)
	return rec, true, nil
}

// List returns the first limit entries ordered by slot, i.e. by first
// insertion. Returns an empty slice (not nil) when nothing matches.
func (s *Store) List(ctx context.Context, limit uint64) ([]record.Entry, error) {
	entries := []record.Entry{}
	if limit == 0 {
		return entries, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, timestamp, creator
		FROM records
		ORDER BY slot ASC
		LIMIT ?
	`, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e  record.Entry
			ts int64
		)
		if err := rows.Scan(&e.ID, &e.Record.Text, &ts, &e.Record.Creator); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		e.Record.Timestamp = uint64(ts)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return entries, nil
}

// Len returns the number of stored ids.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// MaxTimestamp returns the largest stored timestamp, or 0 for an empty store.
func (s *Store) MaxTimestamp(ctx context.Context) (uint64, error) {
	// Timestamps are stored as two's-complement int64, so high-bit values
	// read back negative and must rank above every non-negative one.
	var ts int64
	err := s.db.QueryRowContext(ctx, `
		SELECT timestamp FROM records
		ORDER BY timestamp < 0 DESC, timestamp DESC
		LIMIT 1`).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("max timestamp: %w", err)
	}
	return uint64(ts), nil
}

// Owner returns the recorded owner, if any.
func (s *Store) Owner(ctx context.Context) (string, bool, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", ownerKey).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get owner: %w", err)
	}
	return owner, true, nil
}
