package storage

import (
	"context"
	"sync"

	"github.com/simforge/worldline/core"
)

// InMemoryStore is a volatile core.Storage implementation keeping records in
// process-local maps. It is safe for concurrent access and best suited for
// tests or ephemeral simulations. Records are copied on the way in and out to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu     sync.RWMutex
	tables map[core.Table]map[string]core.Record
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tables: make(map[core.Table]map[string]core.Record)}
}

// Insert upserts a record keyed by its "id" field.
func (s *InMemoryStore) Insert(_ context.Context, table core.Table, rec core.Record) error {
	id, ok := rec["id"].(string)
	if !ok || id == "" {
		return &core.ValidationError{Field: "id", Reason: "record id must be a non-empty string"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[table]
	if !ok {
		t = make(map[string]core.Record)
		s.tables[table] = t
	}
	t[id] = copyRecord(rec)
	return nil
}

// GetByID returns the record with the given id, or zero records if absent.
func (s *InMemoryStore) GetByID(_ context.Context, table core.Table, id string) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tables[table][id]
	if !ok {
		return nil, nil
	}
	return []core.Record{copyRecord(rec)}, nil
}

// Query returns every record in the table matching pred.
func (s *InMemoryStore) Query(_ context.Context, table core.Table, pred func(core.Record) bool) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Record
	for _, rec := range s.tables[table] {
		if pred == nil || pred(rec) {
			out = append(out, copyRecord(rec))
		}
	}
	return out, nil
}

// Delete removes the record with the given id. Deleting an absent id is a
// no-op.
func (s *InMemoryStore) Delete(_ context.Context, table core.Table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tables[table], id)
	return nil
}

// copyRecord deep-copies a record so nested slices and maps (witness ids,
// scratchpad notes) are never shared between the store and its callers.
func copyRecord(rec core.Record) core.Record {
	out := make(core.Record, len(rec))
	for k, v := range rec {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case core.Record:
		return copyRecord(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case core.Note:
		out := make(core.Note, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case []core.Note:
		out := make([]core.Note, len(t))
		for i, e := range t {
			out[i] = copyValue(e).(core.Note)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
