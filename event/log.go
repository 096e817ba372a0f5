package event

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/simforge/worldline/clock"
	"github.com/simforge/worldline/core"
	"github.com/simforge/worldline/logging"
)

// Log is the append-only, step-ordered store of world facts plus its
// in-memory view window. The view holds every non-removed event whose
// effective step is >= the starting-step cursor.
//
// Contract:
//   - Append validates the temporal-anchor invariant before any write
//   - witness sets are snapshots computed at append time, never recomputed
//   - Refresh is an atomic replace-all: readers see either the pre- or
//     post-refresh view, never a mix
//   - query methods return defensive copies
type Log struct {
	store  core.Storage
	dir    core.LocationDirectory
	clk    *clock.Clock
	logger logging.Logger

	mu           sync.RWMutex
	startingStep int64
	events       []core.Event
}

// NewLog constructs a Log with an empty view. Call Refresh to load the
// window from storage, or use Open to do both at once.
func NewLog(store core.Storage, dir core.LocationDirectory, clk *clock.Clock, logger logging.Logger, startingStep int64) *Log {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Log{
		store:        store,
		dir:          dir,
		clk:          clk,
		logger:       logger,
		startingStep: startingStep,
	}
}

// Open constructs a Log and performs the initial load of the view window.
func Open(ctx context.Context, store core.Storage, dir core.LocationDirectory, clk *clock.Clock, logger logging.Logger, startingStep int64) (*Log, error) {
	l := NewLog(store, dir, clk, logger, startingStep)
	if _, err := l.Refresh(ctx, nil); err != nil {
		return nil, err
	}
	return l, nil
}

// StartingStep returns the current view cursor.
func (l *Log) StartingStep() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.startingStep
}

// effectiveStep maps an event's temporal anchor to a step number through the
// clock. Events carry exactly one anchor, so one branch always applies.
func (l *Log) effectiveStep(e core.Event) int64 {
	if e.Step != nil {
		return *e.Step
	}
	return l.clk.StepForTimestamp(*e.Timestamp)
}

// Append validates the draft, assigns an id if absent, derives the witness
// set from location occupancy at the event's step, persists the event and
// adds it to the view if it falls inside the current window. The returned
// event is the stored form.
//
// Appends from different agents never conflict; occupancy is read
// point-in-time with last-write-observed semantics.
func (l *Log) Append(ctx context.Context, draft core.Event) (core.Event, error) {
	start := time.Now()
	if err := draft.Validate(); err != nil {
		return core.Event{}, err
	}
	if draft.ID == "" {
		draft.ID = core.NewID()
	}
	step := l.effectiveStep(draft)

	if draft.WitnessIDs == nil {
		witnesses, err := l.dir.OccupantsAt(ctx, draft.LocationID, step)
		if err != nil {
			return core.Event{}, fmt.Errorf("derive witnesses for event %s: %w", draft.ID, err)
		}
		draft.WitnessIDs = witnesses
	}

	if err := l.store.Insert(ctx, core.TableEvents, draft.ToRecord()); err != nil {
		return core.Event{}, fmt.Errorf("persist event %s: %w", draft.ID, err)
	}

	l.mu.Lock()
	if step >= l.startingStep {
		l.insertLocked(draft, step)
	}
	l.mu.Unlock()

	l.logger.Info("Event appended", "event_id", draft.ID, "step", step, "witness_count", len(draft.WitnessIDs), "duration", time.Since(start))
	return draft, nil
}

// insertLocked places an event at its step position so the view stays
// step-ordered between refreshes; equal steps keep arrival order. Caller must
// hold the write lock.
func (l *Log) insertLocked(e core.Event, step int64) {
	i := sort.Search(len(l.events), func(i int) bool {
		return l.effectiveStep(l.events[i]) > step
	})
	l.events = append(l.events, core.Event{})
	copy(l.events[i+1:], l.events[i:])
	l.events[i] = e
}

// Refresh replaces the entire view by re-querying storage for all
// non-removed events with effective step >= the cursor. If newStartingStep is
// non-nil the cursor is updated first. The write lock is held across the
// storage read so a concurrent Append cannot partially apply; the operation
// is a full idempotent resync, not an incremental merge.
func (l *Log) Refresh(ctx context.Context, newStartingStep *int64) ([]core.Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if newStartingStep != nil {
		l.startingStep = *newStartingStep
	}

	recs, err := l.store.Query(ctx, core.TableEvents, func(rec core.Record) bool {
		return !core.Removed(rec)
	})
	if err != nil {
		return nil, fmt.Errorf("refresh events: %w", err)
	}

	events := make([]core.Event, 0, len(recs))
	for _, rec := range recs {
		e, err := core.EventFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("refresh events: %w", err)
		}
		if l.effectiveStep(e) >= l.startingStep {
			events = append(events, e)
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return l.effectiveStep(events[i]) < l.effectiveStep(events[j])
	})
	l.events = events
	return copyEvents(events), nil
}

// Remove drops the event from the view and tombstones it in storage. Step
// numbers of surrounding events never shift.
func (l *Log) Remove(ctx context.Context, eventID string) error {
	recs, err := l.store.GetByID(ctx, core.TableEvents, eventID)
	if err != nil {
		return fmt.Errorf("remove event %s: %w", eventID, err)
	}
	if len(recs) == 0 {
		return fmt.Errorf("event %s: %w", eventID, core.ErrNotFound)
	}
	rec := recs[0]
	rec["removed"] = true
	if err := l.store.Insert(ctx, core.TableEvents, rec); err != nil {
		return fmt.Errorf("remove event %s: %w", eventID, err)
	}

	l.mu.Lock()
	kept := l.events[:0]
	for _, e := range l.events {
		if e.ID != eventID {
			kept = append(kept, e)
		}
	}
	l.events = kept
	l.mu.Unlock()

	l.logger.Info("Event removed", "event_id", eventID)
	return nil
}

// All returns a copy of every event in the current view.
func (l *Log) All() []core.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyEvents(l.events)
}

// ByStep returns the view events whose effective step equals step.
func (l *Log) ByStep(step int64) []core.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []core.Event
	for _, e := range l.events {
		if l.effectiveStep(e) == step {
			out = append(out, e)
		}
	}
	return out
}

// ByLocationID returns the view events at the given location.
func (l *Log) ByLocationID(locationID string) []core.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []core.Event
	for _, e := range l.events {
		if e.LocationID == locationID {
			out = append(out, e)
		}
	}
	return out
}

// ByLocation returns the view events at the given resolved location.
func (l *Log) ByLocation(loc core.LocationRef) []core.Event {
	return l.ByLocationID(loc.ID)
}

func copyEvents(events []core.Event) []core.Event {
	out := make([]core.Event, len(events))
	copy(out, events)
	return out
}
