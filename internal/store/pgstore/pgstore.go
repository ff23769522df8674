// Package pgstore provides a Postgres-backed store.Backend using the pgx
// database/sql driver.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/store"
)

var _ store.Backend = (*Store)(nil)

const (
	driverName = "pgx"
	defaultDSN = "postgres://localhost/oracle?sslmode=disable"
	ownerKey   = "owner"
)

// schemaStatements create the tables. slot is drawn from a sequence on first
// insert and is not in the upsert's SET list, so overwrites keep it.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS oracle_records (
		id        TEXT PRIMARY KEY,
		slot      BIGSERIAL NOT NULL UNIQUE,
		text      TEXT NOT NULL,
		timestamp BIGINT NOT NULL,
		creator   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS oracle_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// Store persists records in Postgres.
type Store struct {
	db *sql.DB
}

// Open connects to dsn (defaultDSN when empty), verifies the connection and
// applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection without touching the schema.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply postgres schema: %w", err)
		}
	}
	return nil
}

// Put inserts or overwrites the record stored under id.
func (s *Store) Put(ctx context.Context, id string, rec record.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oracle_records (id, text, timestamp, creator)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			timestamp = EXCLUDED.timestamp,
			creator = EXCLUDED.creator`,
		id, rec.Text, int64(rec.Timestamp), rec.Creator,
	)
	if err != nil {
		return fmt.Errorf("put record %q: %w", id, err)
	}
	return nil
}

// Get returns the record stored under id.
func (s *Store) Get(ctx context.Context, id string) (record.Record, bool, error) {
	var (
		rec record.Record
		ts  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT text, timestamp, creator FROM oracle_records WHERE id = $1`, id,
	).Scan(&rec.Text, &ts, &rec.Creator)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Record{}, false, nil
	}
	if err != nil {
		return record.Record{}, false, fmt.Errorf("get record %q: %w", id, err)
	}
	rec.Timestamp = uint64(ts)
	return rec, true, nil
}

// List returns the first limit entries in slot order.
func (s *Store) List(ctx context.Context, limit uint64) ([]record.Entry, error) {
	entries := []record.Entry{}
	if limit == 0 {
		return entries, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, timestamp, creator FROM oracle_records ORDER BY slot ASC LIMIT $1`,
		store.ClampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM oracle_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// MaxTimestamp returns the largest stored timestamp, or 0 when empty.
func (s *Store) MaxTimestamp(ctx context.Context) (uint64, error) {
	// Timestamps are stored as two's-complement int64, so high-bit values
	// read back negative and must rank above every non-negative one.
	var ts int64
	err := s.db.QueryRowContext(ctx, `
		SELECT timestamp FROM oracle_records
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
	err := s.db.QueryRowContext(ctx, `SELECT value FROM oracle_meta WHERE key = $1`, ownerKey).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get owner: %w", err)
	}
	return owner, true, nil
}

// InitOwner records owner once.
func (s *Store) InitOwner(ctx context.Context, owner string) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO oracle_meta (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
		ownerKey, owner,
	)
	if err != nil {
		return fmt.Errorf("init owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("init owner: rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrOwnerAlreadySet
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying connection.
func (s *Store) DB() *sql.DB {
	return s.db
}
