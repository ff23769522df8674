package store

import (
	"context"
	"errors"
	"io"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
)

// ErrOwnerAlreadySet is returned by InitOwner when the owner slot of a
// backend has already been claimed.
var ErrOwnerAlreadySet = errors.New("owner already set")

// RecordStore is an ordered, key-unique mapping from identifiers to records.
//
// Iteration order is first-insertion order: overwriting an existing key
// replaces its record but keeps its position. There is no delete.
type RecordStore interface {
	// Put inserts or overwrites the record stored under id.
	Put(ctx context.Context, id string, rec record.Record) error

	// Get returns the record stored under id. A missing id is reported as
	// found=false with a nil error.
	Get(ctx context.Context, id string) (rec record.Record, found bool, err error)

	// List returns the first limit entries in insertion order. A limit of
	// zero yields an empty slice; a limit past the end yields every entry.
	List(ctx context.Context, limit uint64) ([]record.Entry, error)

	// Len returns the number of stored identifiers.
	Len(ctx context.Context) (int, error)
}

// OwnerStore persists the single owner identity of a registry.
type OwnerStore interface {
	// Owner returns the recorded owner, if any.
	Owner(ctx context.Context) (owner string, ok bool, err error)

	// InitOwner records owner. It fails with ErrOwnerAlreadySet if an owner
	// was recorded before, leaving the existing owner untouched.
	InitOwner(ctx context.Context, owner string) error
}

// Backend is a complete persistence substrate for the oracle.
type Backend interface {
	RecordStore
	OwnerStore
	io.Closer
}

// TimestampSource is implemented by backends that can report the largest
// timestamp they hold. The oracle clock resumes from it on restart.
type TimestampSource interface {
	MaxTimestamp(ctx context.Context) (uint64, error)
}

// ClampLimit converts a listing limit to the signed range SQL drivers accept.
func ClampLimit(limit uint64) int64 {
	const maxLimit = 1<<63 - 1
	if limit > maxLimit {
		return maxLimit
	}
	return int64(limit)
}
