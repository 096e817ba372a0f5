package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/simforge/worldline/core"
)

// move records an agent arriving at a location from a given step onward.
type move struct {
	step       int64
	locationID string
}

// InMemory is a volatile core.LocationDirectory keeping locations and agent
// movement history in process-local maps. It is safe for concurrent access.
//
// Occupancy is interval-based: an agent is at the location of its latest move
// whose step is <= the queried step. Concurrent movement during an occupancy
// read resolves with last-write-observed semantics.
type InMemory struct {
	mu     sync.RWMutex
	byID   map[string]core.LocationRef
	byName map[string]string
	moves  map[string][]move
}

// NewInMemory constructs an empty in-memory directory.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:   make(map[string]core.LocationRef),
		byName: make(map[string]string),
		moves:  make(map[string][]move),
	}
}

// AddLocation registers a location and returns its reference. An empty id is
// assigned a fresh one.
func (d *InMemory) AddLocation(id, name string) core.LocationRef {
	if id == "" {
		id = core.NewID()
	}
	ref := core.LocationRef{ID: id, Name: name}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[id] = ref
	d.byName[name] = id
	return ref
}

// MoveAgent records that the agent is at the location from the given step
// onward, superseding any earlier movement at or after that step.
func (d *InMemory) MoveAgent(agentID, locationID string, step int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	history := d.moves[agentID]
	// drop any moves at or after the new step so history stays ordered
	for len(history) > 0 && history[len(history)-1].step >= step {
		history = history[:len(history)-1]
	}
	d.moves[agentID] = append(history, move{step: step, locationID: locationID})
}

// ResolveByName resolves a location by its exact name.
func (d *InMemory) ResolveByName(_ context.Context, name string) (core.LocationRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byName[name]
	if !ok {
		return core.LocationRef{}, fmt.Errorf("location %q: %w", name, core.ErrNotFound)
	}
	return d.byID[id], nil
}

// ResolveByID resolves a location by id.
func (d *InMemory) ResolveByID(_ context.Context, id string) (core.LocationRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ref, ok := d.byID[id]
	if !ok {
		return core.LocationRef{}, fmt.Errorf("location %s: %w", id, core.ErrNotFound)
	}
	return ref, nil
}

// OccupantsAt returns the ids of every agent at the location during the given
// step, sorted for determinism.
func (d *InMemory) OccupantsAt(_ context.Context, locationID string, step int64) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []string
	for agentID, history := range d.moves {
		if locationAt(history, step) == locationID {
			out = append(out, agentID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// locationAt returns the location of the latest move at or before step, or ""
// if the agent had not moved yet.
func locationAt(history []move, step int64) string {
	loc := ""
	for _, m := range history {
		if m.step > step {
			break
		}
		loc = m.locationID
	}
	return loc
}
