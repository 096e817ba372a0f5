package core

import (
	"time"
)

// EventType distinguishes agent-communication facts from ambient world facts.
type EventType string

const (
	// EventTypeMessage marks an agent-to-agent communication fact.
	EventTypeMessage EventType = "message"
	// EventTypeNonMessage marks an ambient world fact.
	EventTypeNonMessage EventType = "non_message"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	return t == EventTypeMessage || t == EventTypeNonMessage
}

// Event is a world fact witnessed by the agents present at its location when
// it occurred. After it is appended to the log it is immutable.
//
// Exactly one temporal anchor is set: either Timestamp (wall clock) or Step
// (simulation tick). WitnessIDs is a point-in-time snapshot computed at
// append; agents entering the location later are never added retroactively.
type Event struct {
	ID          string     `json:"id"`
	Type        EventType  `json:"type"`
	Description string     `json:"description"`
	LocationID  string     `json:"location_id"`
	WitnessIDs  []string   `json:"witness_ids"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Step        *int64     `json:"step,omitempty"`
}

// NewEvent constructs an event with a fresh id. It fails with a
// ValidationError if the anchor invariant is violated or the location is
// absent.
func NewEvent(typ EventType, description, locationID string, ts *time.Time, step *int64) (Event, error) {
	e := Event{
		ID:          NewID(),
		Type:        typ,
		Description: description,
		LocationID:  locationID,
		Timestamp:   ts,
		Step:        step,
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// NewEventAtStep constructs an event anchored to a simulation step.
func NewEventAtStep(typ EventType, description, locationID string, step int64) (Event, error) {
	return NewEvent(typ, description, locationID, nil, &step)
}

// NewEventAtTime constructs an event anchored to a wall-clock instant.
func NewEventAtTime(typ EventType, description, locationID string, ts time.Time) (Event, error) {
	return NewEvent(typ, description, locationID, &ts, nil)
}

// Validate checks the construction invariants. The event log calls this on
// every draft before persisting, so hand-built drafts get the same checks as
// constructor output.
func (e Event) Validate() error {
	if !e.Type.Valid() {
		return &ValidationError{Field: "type", Reason: "unknown event type"}
	}
	if e.LocationID == "" {
		return &ValidationError{Field: "location_id", Reason: "an event without a location cannot have witnesses"}
	}
	if e.Timestamp == nil && e.Step == nil {
		return &ValidationError{Field: "timestamp/step", Reason: "either timestamp or step must be provided"}
	}
	if e.Timestamp != nil && e.Step != nil {
		return &ValidationError{Field: "timestamp/step", Reason: "timestamp and step are mutually exclusive"}
	}
	return nil
}

// ToRecord serializes the event into its storage record shape.
func (e Event) ToRecord() Record {
	var ts any
	if e.Timestamp != nil {
		ts = e.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	var step any
	if e.Step != nil {
		step = *e.Step
	}
	witnesses := make([]string, len(e.WitnessIDs))
	copy(witnesses, e.WitnessIDs)
	return Record{
		"id":          e.ID,
		"type":        string(e.Type),
		"description": e.Description,
		"location_id": e.LocationID,
		"witness_ids": witnesses,
		"timestamp":   ts,
		"step":        step,
	}
}

// EventFromRecord reconstructs an event from its storage record shape.
func EventFromRecord(rec Record) (Event, error) {
	var e Event
	var err error
	if e.ID, err = recString(rec, "id"); err != nil {
		return Event{}, err
	}
	typ, err := recString(rec, "type")
	if err != nil {
		return Event{}, err
	}
	e.Type = EventType(typ)
	if !e.Type.Valid() {
		return Event{}, &ValidationError{Field: "type", Reason: "unknown event type " + typ}
	}
	if e.Description, err = recString(rec, "description"); err != nil {
		return Event{}, err
	}
	if e.LocationID, err = recString(rec, "location_id"); err != nil {
		return Event{}, err
	}
	if e.WitnessIDs, err = recStrings(rec, "witness_ids"); err != nil {
		return Event{}, err
	}
	if e.Timestamp, err = recOptTime(rec, "timestamp"); err != nil {
		return Event{}, err
	}
	if e.Step, err = recOptInt64(rec, "step"); err != nil {
		return Event{}, err
	}
	if err := e.Validate(); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Removed reports whether a stored event record carries the administrative
// deletion tombstone.
func Removed(rec Record) bool { return recBool(rec, "removed") }
