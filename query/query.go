package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/simforge/worldline/clock"
	"github.com/simforge/worldline/core"
	"github.com/simforge/worldline/logging"
)

// Layer answers read-only queries against the storage collaborator.
// Predicates are evaluated record-side so only matching rows are decoded.
type Layer struct {
	store  core.Storage
	clk    *clock.Clock
	logger logging.Logger
}

// NewLayer constructs a Layer.
func NewLayer(store core.Storage, clk *clock.Clock, logger logging.Logger) *Layer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Layer{store: store, clk: clk, logger: logger}
}

// EventsInStepRange returns all non-removed events whose effective step lies
// in [from, to], ordered by step.
func (l *Layer) EventsInStepRange(ctx context.Context, from, to int64) ([]core.Event, error) {
	events, err := l.events(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := events[:0]
	for _, e := range events {
		if s := l.effectiveStep(e); s >= from && s <= to {
			out = append(out, e)
		}
	}
	return out, nil
}

// EventsByLocation returns all non-removed events at the given location,
// ordered by step.
func (l *Layer) EventsByLocation(ctx context.Context, locationID string) ([]core.Event, error) {
	return l.events(ctx, func(rec core.Record) bool {
		return rec["location_id"] == locationID
	})
}

// EventsWitnessedBy returns all non-removed events the given agent witnessed,
// ordered by step.
func (l *Layer) EventsWitnessedBy(ctx context.Context, agentID string) ([]core.Event, error) {
	events, err := l.events(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := events[:0]
	for _, e := range events {
		for _, w := range e.WitnessIDs {
			if w == agentID {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// PlansByAgent returns every plan owned by the agent.
func (l *Layer) PlansByAgent(ctx context.Context, agentID string) ([]*core.Plan, error) {
	return l.plans(ctx, func(rec core.Record) bool {
		return rec["agent_id"] == agentID
	})
}

// PlansByStatus returns every plan currently in the given status.
func (l *Layer) PlansByStatus(ctx context.Context, status core.PlanStatus) ([]*core.Plan, error) {
	return l.plans(ctx, func(rec core.Record) bool {
		return rec["status"] == string(status)
	})
}

func (l *Layer) effectiveStep(e core.Event) int64 {
	if e.Step != nil {
		return *e.Step
	}
	return l.clk.StepForTimestamp(*e.Timestamp)
}

func (l *Layer) events(ctx context.Context, pred func(core.Record) bool) ([]core.Event, error) {
	recs, err := l.store.Query(ctx, core.TableEvents, func(rec core.Record) bool {
		if core.Removed(rec) {
			return false
		}
		return pred == nil || pred(rec)
	})
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	events := make([]core.Event, 0, len(recs))
	for _, rec := range recs {
		e, err := core.EventFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("query events: %w", err)
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return l.effectiveStep(events[i]) < l.effectiveStep(events[j])
	})
	return events, nil
}

func (l *Layer) plans(ctx context.Context, pred func(core.Record) bool) ([]*core.Plan, error) {
	recs, err := l.store.Query(ctx, core.TablePlans, pred)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	plans := make([]*core.Plan, 0, len(recs))
	for _, rec := range recs {
		p, err := core.PlanFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("query plans: %w", err)
		}
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].CreatedAt.Before(plans[j].CreatedAt) })
	return plans, nil
}
