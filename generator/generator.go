package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/simforge/worldline/core"
)

// BuildPrompt renders the instruction sent to a model provider. The model is
// asked for a JSON array so ParseCandidates can consume the reply directly.
func BuildPrompt(agentID, situation string) string {
	return fmt.Sprintf(
		"You are the planning routine for simulation agent %s.\n"+
			"Current situation: %s\n\n"+
			"Propose a short list of concrete plans. Reply with only a JSON array of objects, "+
			"each with the fields: description (string), location_name (string), "+
			"stop_condition (string, the observable success state), "+
			"max_duration_hrs (positive number).",
		agentID, situation,
	)
}

// ParseCandidates extracts candidates from model output. Accepted shapes are
// a bare JSON array and an object with a "plans" key; surrounding markdown
// code fences are stripped. Parsing is intentionally forgiving about
// packaging and strict about nothing else: validation belongs to the plan
// manager.
func ParseCandidates(raw string) ([]core.Candidate, error) {
	text := strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(text, "```json"); ok {
		text = after
	} else if after, ok := strings.CutPrefix(text, "```"); ok {
		text = after
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	var candidates []core.Candidate
	if err := json.Unmarshal([]byte(text), &candidates); err == nil {
		return candidates, nil
	}
	var wrapped struct {
		Plans []core.Candidate `json:"plans"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
		return nil, fmt.Errorf("parse candidates: %w", err)
	}
	if wrapped.Plans == nil {
		return nil, fmt.Errorf("parse candidates: no plan list found")
	}
	return wrapped.Plans, nil
}

// Mock is a deterministic core.CandidateGenerator returning canned
// candidates, optionally keyed by situation.
type Mock struct {
	defaults    []core.Candidate
	bySituation map[string][]core.Candidate
}

// NewMock constructs a Mock returning the given candidates for every call.
func NewMock(defaults ...core.Candidate) *Mock {
	return &Mock{defaults: defaults, bySituation: make(map[string][]core.Candidate)}
}

// AddResponse registers candidates returned for an exact situation string.
func (m *Mock) AddResponse(situation string, candidates ...core.Candidate) {
	m.bySituation[situation] = candidates
}

// Generate implements core.CandidateGenerator.
func (m *Mock) Generate(_ context.Context, _ string, situation string) ([]core.Candidate, error) {
	if c, ok := m.bySituation[situation]; ok {
		return c, nil
	}
	return m.defaults, nil
}
