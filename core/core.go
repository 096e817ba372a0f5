package core

import (
	"context"

	"github.com/google/uuid"
)

// Table names a logical record collection in the storage collaborator. The
// core never assumes SQL or any particular query language; tables are opaque
// namespaces for records.
type Table string

const (
	// TablePlans holds serialized Plan records.
	TablePlans Table = "plans"
	// TableEvents holds serialized Event records.
	TableEvents Table = "events"
)

// Record is the generic serialized shape exchanged with the storage
// collaborator. Values are restricted to JSON-representable types so any
// backend (in-memory map, document column, KV store) can hold them without
// schema knowledge.
type Record map[string]any

// Storage is the persistence collaborator. Implementations provide exactly
// four capabilities; the core builds everything else on top of them.
//
// Contract:
//   - Insert upserts by the record's "id" field: inserting a record whose id
//     already exists replaces the stored record (write-through transitions
//     depend on this).
//   - GetByID returns zero or one records; zero rows is not an error at this
//     layer (callers translate it to ErrNotFound).
//   - Query returns every record in the table for which pred returns true.
//   - Errors returned by any method indicate a storage-layer failure and must
//     never be conflated with "no such record".
type Storage interface {
	Insert(ctx context.Context, table Table, rec Record) error
	GetByID(ctx context.Context, table Table, id string) ([]Record, error)
	Query(ctx context.Context, table Table, pred func(Record) bool) ([]Record, error)
	Delete(ctx context.Context, table Table, id string) error
}

// NewID generates a unique identifier for plans and events.
func NewID() string { return uuid.NewString() }
