package core

import (
	"fmt"
	"time"
)

// PlanStatus is the lifecycle state of a plan.
type PlanStatus string

const (
	// PlanStatusTodo is the initial state of every created plan.
	PlanStatusTodo PlanStatus = "todo"
	// PlanStatusInProgress marks a started plan.
	PlanStatusInProgress PlanStatus = "in_progress"
	// PlanStatusDone is the terminal success state.
	PlanStatusDone PlanStatus = "done"
	// PlanStatusFailed is the terminal failure state. Abandonment is
	// expressed as a normal transition to this state.
	PlanStatusFailed PlanStatus = "failed"
)

// Terminal reports whether no further transitions are permitted.
func (s PlanStatus) Terminal() bool {
	return s == PlanStatusDone || s == PlanStatusFailed
}

// Valid reports whether s is one of the four known states.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusTodo, PlanStatusInProgress, PlanStatusDone, PlanStatusFailed:
		return true
	}
	return false
}

// Note is one opaque entry in a plan's scratchpad. The core never interprets
// note contents; they are agent-private working memory.
type Note map[string]any

// Plan is a bounded, goal-directed action owned by a single agent.
//
// Invariants maintained by the lifecycle manager:
//   - ID is assigned once at construction and never reassigned
//   - CompletedAt is non-nil iff Status is terminal
//   - MaxDurationHrs > 0
//   - Location is resolved at creation and never silently changed; nil means
//     the location name could not be resolved
//
// MaxDurationHrs is advisory data for an external scheduler; nothing in the
// core enforces it.
type Plan struct {
	ID             string       `json:"id"`
	AgentID        string       `json:"agent_id"`
	Description    string       `json:"description"`
	Location       *LocationRef `json:"location,omitempty"`
	MaxDurationHrs float64      `json:"max_duration_hrs"`
	StopCondition  string       `json:"stop_condition"`
	Status         PlanStatus   `json:"status"`
	Scratchpad     []Note       `json:"scratchpad"`
	RelatedEventID *string      `json:"related_event_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

func (p *Plan) String() string {
	loc := "unknown location"
	if p.Location != nil {
		loc = p.Location.Name
	}
	return fmt.Sprintf("[PLAN] %s at %s", p.Description, loc)
}

// ToRecord serializes the plan into its storage record shape. Timestamps use
// RFC 3339; absent optional fields serialize as nulls, not zero values.
func (p *Plan) ToRecord() Record {
	var locationID any
	if p.Location != nil {
		locationID = p.Location.ID
	}
	var relatedEventID any
	if p.RelatedEventID != nil {
		relatedEventID = *p.RelatedEventID
	}
	var completedAt any
	if p.CompletedAt != nil {
		completedAt = p.CompletedAt.UTC().Format(time.RFC3339Nano)
	}
	scratchpad := make([]Note, len(p.Scratchpad))
	copy(scratchpad, p.Scratchpad)
	return Record{
		"id":               p.ID,
		"agent_id":         p.AgentID,
		"description":      p.Description,
		"location_id":      locationID,
		"max_duration_hrs": p.MaxDurationHrs,
		"stop_condition":   p.StopCondition,
		"status":           string(p.Status),
		"scratchpad":       scratchpad,
		"related_event_id": relatedEventID,
		"created_at":       p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"completed_at":     completedAt,
	}
}

// PlanFromRecord reconstructs a plan from its storage record shape. A stored
// location_id yields a LocationRef carrying only the id; callers needing the
// name resolve it through the directory.
func PlanFromRecord(rec Record) (*Plan, error) {
	p := &Plan{}
	var err error
	if p.ID, err = recString(rec, "id"); err != nil {
		return nil, err
	}
	if p.AgentID, err = recString(rec, "agent_id"); err != nil {
		return nil, err
	}
	if p.Description, err = recString(rec, "description"); err != nil {
		return nil, err
	}
	locationID, err := recOptString(rec, "location_id")
	if err != nil {
		return nil, err
	}
	if locationID != nil {
		p.Location = &LocationRef{ID: *locationID}
	}
	if p.MaxDurationHrs, err = recFloat(rec, "max_duration_hrs"); err != nil {
		return nil, err
	}
	if p.StopCondition, err = recString(rec, "stop_condition"); err != nil {
		return nil, err
	}
	status, err := recString(rec, "status")
	if err != nil {
		return nil, err
	}
	p.Status = PlanStatus(status)
	if !p.Status.Valid() {
		return nil, fmt.Errorf("record field %q: unknown status %q", "status", status)
	}
	if p.Scratchpad, err = recNotes(rec, "scratchpad"); err != nil {
		return nil, err
	}
	if p.RelatedEventID, err = recOptString(rec, "related_event_id"); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = recTime(rec, "created_at"); err != nil {
		return nil, err
	}
	if p.CompletedAt, err = recOptTime(rec, "completed_at"); err != nil {
		return nil, err
	}
	return p, nil
}
