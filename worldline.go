// Package worldline provides a high-level façade over the simulation
// timeline core: the plan lifecycle manager, the event log with witness
// derivation, the simulation clock and the read-side query layer. Most
// applications interact with this package by:
//  1. Creating a Worldline via New() (optionally overriding the in-memory
//     collaborators)
//  2. Creating and advancing plans for their agents
//  3. Appending events and querying the timeline
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable storage implementation, a real
// location directory and a structured logger.
package worldline

import (
	"context"
	"fmt"
	"time"

	"github.com/simforge/worldline/clock"
	"github.com/simforge/worldline/core"
	"github.com/simforge/worldline/directory"
	"github.com/simforge/worldline/event"
	"github.com/simforge/worldline/logging"
	"github.com/simforge/worldline/plan"
	"github.com/simforge/worldline/query"
	"github.com/simforge/worldline/storage"
)

// Options configures a Worldline instance.
type Options struct {
	// Clock configuration: simulation epoch and fixed step duration.
	Clock clock.Config

	// StartingStep is the initial cursor of the event log's view window.
	StartingStep int64

	// Collaborators (default to in-memory implementations if not provided).
	Storage   core.Storage
	Directory core.LocationDirectory
	Generator core.CandidateGenerator

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Worldline is the high-level façade aggregating the timeline components.
type Worldline struct {
	opts    Options
	clock   *clock.Clock
	plans   *plan.Manager
	events  *event.Log
	queries *query.Layer
}

// New creates a Worldline with optional overrides. Any unset collaborator is
// initialized with an in-memory implementation. The event log's view is
// loaded during construction.
func New(ctx context.Context, optFns ...func(o *Options)) (*Worldline, error) {
	opts := Options{
		Clock:     clock.DefaultConfig(),
		Storage:   storage.NewInMemoryStore(),
		Directory: directory.NewInMemory(),
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	clk, err := clock.New(opts.Clock)
	if err != nil {
		return nil, fmt.Errorf("configure clock: %w", err)
	}
	log, err := event.Open(ctx, opts.Storage, opts.Directory, clk, opts.Logger, opts.StartingStep)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	return &Worldline{
		opts:    opts,
		clock:   clk,
		plans:   plan.NewManager(opts.Storage, opts.Directory, clk, opts.Logger),
		events:  log,
		queries: query.NewLayer(opts.Storage, clk, opts.Logger),
	}, nil
}

// Clock returns the simulation clock.
func (w *Worldline) Clock() *clock.Clock { return w.clock }

// Plans returns the plan lifecycle manager.
func (w *Worldline) Plans() *plan.Manager { return w.plans }

// Events returns the event log.
func (w *Worldline) Events() *event.Log { return w.events }

// Queries returns the read-side query layer.
func (w *Worldline) Queries() *query.Layer { return w.queries }

// CreatePlan validates the candidate and creates a plan in TODO for the
// agent.
func (w *Worldline) CreatePlan(ctx context.Context, cand core.Candidate, agentID string) (*core.Plan, error) {
	return w.plans.Create(ctx, cand, agentID)
}

// StartPlan transitions the plan to IN_PROGRESS.
func (w *Worldline) StartPlan(ctx context.Context, p *core.Plan) error {
	return w.plans.Start(ctx, p)
}

// CompletePlan transitions the plan to its terminal state.
func (w *Worldline) CompletePlan(ctx context.Context, p *core.Plan, outcome plan.Outcome) error {
	return w.plans.Complete(ctx, p, outcome)
}

// LoadPlan fetches a plan by id.
func (w *Worldline) LoadPlan(ctx context.Context, id string) (*core.Plan, error) {
	return w.plans.Load(ctx, id)
}

// RetirePlan removes the plan from active tracking.
func (w *Worldline) RetirePlan(ctx context.Context, p *core.Plan) error {
	return w.plans.Retire(ctx, p)
}

// AppendEvent validates the draft, derives its witness set and appends it to
// the log.
func (w *Worldline) AppendEvent(ctx context.Context, draft core.Event) (core.Event, error) {
	return w.events.Append(ctx, draft)
}

// AppendMessage records an agent-communication fact at the given location and
// step.
func (w *Worldline) AppendMessage(ctx context.Context, description, locationID string, step int64) (core.Event, error) {
	draft, err := core.NewEventAtStep(core.EventTypeMessage, description, locationID, step)
	if err != nil {
		return core.Event{}, err
	}
	return w.events.Append(ctx, draft)
}

// AppendFact records an ambient world fact at the given location and instant.
func (w *Worldline) AppendFact(ctx context.Context, description, locationID string, ts time.Time) (core.Event, error) {
	draft, err := core.NewEventAtTime(core.EventTypeNonMessage, description, locationID, ts)
	if err != nil {
		return core.Event{}, err
	}
	return w.events.Append(ctx, draft)
}

// RefreshEvents resyncs the event log's view window, optionally advancing the
// starting-step cursor.
func (w *Worldline) RefreshEvents(ctx context.Context, newStartingStep *int64) ([]core.Event, error) {
	return w.events.Refresh(ctx, newStartingStep)
}

// RemoveEvent tombstones an event; surrounding step numbers never shift.
func (w *Worldline) RemoveEvent(ctx context.Context, eventID string) error {
	return w.events.Remove(ctx, eventID)
}

// ProposePlans asks the configured candidate generator for proposals and
// creates a plan for every candidate that passes validation. Invalid
// candidates are skipped with a warning rather than aborting the batch.
func (w *Worldline) ProposePlans(ctx context.Context, agentID, situation string) ([]*core.Plan, error) {
	if w.opts.Generator == nil {
		return nil, fmt.Errorf("no candidate generator configured")
	}
	candidates, err := w.opts.Generator.Generate(ctx, agentID, situation)
	if err != nil {
		return nil, fmt.Errorf("generate candidates: %w", err)
	}
	plans := make([]*core.Plan, 0, len(candidates))
	for _, cand := range candidates {
		p, err := w.plans.Create(ctx, cand, agentID)
		if err != nil {
			w.opts.Logger.Warn("Skipping invalid candidate", "agent_id", agentID, "error", err.Error())
			continue
		}
		plans = append(plans, p)
	}
	return plans, nil
}
