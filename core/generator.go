package core

import "context"

// Candidate is an externally produced, unvalidated plan proposal. The
// lifecycle manager treats candidates as untrusted input: validation happens
// at Create, never inside a generator.
type Candidate struct {
	Description    string  `json:"description"`
	LocationName   string  `json:"location_name"`
	StopCondition  string  `json:"stop_condition"`
	MaxDurationHrs float64 `json:"max_duration_hrs"`
}

// CandidateGenerator produces candidate plans for an agent given a free-form
// description of its current situation. Implementations may call out to a
// model provider; the core only consumes the resulting candidates.
type CandidateGenerator interface {
	Generate(ctx context.Context, agentID, situation string) ([]Candidate, error)
}
