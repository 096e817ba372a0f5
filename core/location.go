package core

import "context"

// LocationRef identifies a resolved location. The directory owning the full
// location model is an external collaborator; the core only carries the
// reference.
type LocationRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LocationDirectory resolves location names and ids and answers point-in-time
// occupancy questions. Occupancy is the basis for witness derivation: every
// agent at a location when an event occurs witnesses it.
//
// Resolve methods return ErrNotFound (possibly wrapped) for unknown names or
// ids. OccupantsAt answers "who is at locationID during step" against the
// directory's current view; concurrent agent movement resolves with
// last-write-observed semantics.
type LocationDirectory interface {
	ResolveByName(ctx context.Context, name string) (LocationRef, error)
	ResolveByID(ctx context.Context, id string) (LocationRef, error)
	OccupantsAt(ctx context.Context, locationID string, step int64) ([]string, error)
}
