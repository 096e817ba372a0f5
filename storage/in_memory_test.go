package storage

import (
	"context"
	"testing"

	"github.com/simforge/worldline/core"
)

// Interface compliance (compile-time assertion)
var _ core.Storage = (*InMemoryStore)(nil)

func TestInMemoryStore_InsertUpserts(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.Insert(ctx, core.TablePlans, core.Record{"id": "p1", "status": "todo"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := s.Insert(ctx, core.TablePlans, core.Record{"id": "p1", "status": "in_progress"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	recs, err := s.GetByID(ctx, core.TablePlans, "p1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(recs) != 1 || recs[0]["status"] != "in_progress" {
		t.Fatalf("upsert did not replace: %v", recs)
	}
}

func TestInMemoryStore_GetByIDMissing(t *testing.T) {
	s := NewInMemoryStore()
	recs, err := s.GetByID(context.Background(), core.TablePlans, "missing")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected zero rows, got %v", recs)
	}
}

func TestInMemoryStore_InsertRequiresID(t *testing.T) {
	s := NewInMemoryStore()
	if err := s.Insert(context.Background(), core.TablePlans, core.Record{"status": "todo"}); err == nil {
		t.Fatal("expected error for record without id")
	}
}

func TestInMemoryStore_QueryAndDelete(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Insert(ctx, core.TableEvents, core.Record{"id": id, "location_id": "loc-" + id}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	recs, err := s.Query(ctx, core.TableEvents, func(rec core.Record) bool {
		return rec["location_id"] == "loc-b"
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(recs) != 1 || recs[0]["id"] != "b" {
		t.Fatalf("predicate query wrong: %v", recs)
	}

	if err := s.Delete(ctx, core.TableEvents, "b"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	recs, err = s.Query(ctx, core.TableEvents, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records after delete, got %d", len(recs))
	}
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.Insert(ctx, core.TablePlans, core.Record{"id": "p1", "status": "todo"}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	recs, _ := s.GetByID(ctx, core.TablePlans, "p1")
	recs[0]["status"] = "mutated"

	again, _ := s.GetByID(ctx, core.TablePlans, "p1")
	if again[0]["status"] != "todo" {
		t.Fatal("external mutation leaked into the store")
	}
}

func TestInMemoryStore_CopiesNestedValues(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	scratchpad := []core.Note{{"observation": "B arrived"}}
	witnesses := []string{"agent-a"}
	rec := core.Record{"id": "p1", "scratchpad": scratchpad, "witness_ids": witnesses}
	if err := s.Insert(ctx, core.TablePlans, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// mutating the caller's slices after Insert must not reach the store
	scratchpad[0]["observation"] = "mutated"
	witnesses[0] = "intruder"

	recs, err := s.GetByID(ctx, core.TablePlans, "p1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	got := recs[0]["scratchpad"].([]core.Note)
	if got[0]["observation"] != "B arrived" {
		t.Fatalf("nested note shared with caller: %v", got)
	}
	if ids := recs[0]["witness_ids"].([]string); ids[0] != "agent-a" {
		t.Fatalf("nested slice shared with caller: %v", ids)
	}

	// and mutating a returned record's slices must not reach the store either
	got[0]["observation"] = "mutated again"
	again, _ := s.GetByID(ctx, core.TablePlans, "p1")
	if again[0]["scratchpad"].([]core.Note)[0]["observation"] != "B arrived" {
		t.Fatal("returned nested note aliases the stored record")
	}
}
