package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/simforge/worldline/clock"
	"github.com/simforge/worldline/core"
	"github.com/simforge/worldline/logging"
)

// Outcome is the result an executing agent reports when completing a plan.
type Outcome int

const (
	// OutcomeSuccess transitions the plan to DONE.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure transitions the plan to FAILED. Abandonment uses this
	// outcome; there is no separate cancellation token.
	OutcomeFailure
)

// Manager owns the lifecycle of plans. All collaborators are injected at
// construction; the manager holds no global state beyond its per-plan locks.
type Manager struct {
	store  core.Storage
	dir    core.LocationDirectory
	clk    *clock.Clock
	logger logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager constructs a Manager. A nil logger is substituted with a no-op
// logger.
func NewManager(store core.Storage, dir core.LocationDirectory, clk *clock.Clock, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Manager{
		store:  store,
		dir:    dir,
		clk:    clk,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing transitions for a plan id, allocating
// it on first use.
func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// Create validates a candidate and produces a persisted plan in TODO with a
// fresh id. The candidate's location name is resolved against the directory;
// a failed resolution is logged as a warning and the plan proceeds with an
// absent location — a naming lookup failure never blocks creation.
func (m *Manager) Create(ctx context.Context, cand core.Candidate, agentID string) (*core.Plan, error) {
	return m.create(ctx, cand, agentID, nil)
}

// CreateTriggered is Create with a back-reference to the message/event that
// prompted the plan. The reference is part of the single creating write, so a
// persistence failure can never leave a plan behind without it.
func (m *Manager) CreateTriggered(ctx context.Context, cand core.Candidate, agentID, triggerEventID string) (*core.Plan, error) {
	return m.create(ctx, cand, agentID, &triggerEventID)
}

func (m *Manager) create(ctx context.Context, cand core.Candidate, agentID string, relatedEventID *string) (*core.Plan, error) {
	if strings.TrimSpace(cand.StopCondition) == "" {
		return nil, &core.ValidationError{Field: "stop_condition", Reason: "must not be empty"}
	}
	if cand.MaxDurationHrs <= 0 {
		return nil, &core.ValidationError{Field: "max_duration_hrs", Reason: "must be positive"}
	}
	if agentID == "" {
		return nil, &core.ValidationError{Field: "agent_id", Reason: "must not be empty"}
	}

	var location *core.LocationRef
	if cand.LocationName != "" {
		ref, err := m.dir.ResolveByName(ctx, cand.LocationName)
		if err != nil {
			warn := &core.ResolutionWarning{Name: cand.LocationName, Err: err}
			m.logger.Warn("Could not resolve location", "location_name", cand.LocationName, "error", warn.Error())
		} else {
			location = &ref
		}
	}

	p := &core.Plan{
		ID:             core.NewID(),
		AgentID:        agentID,
		Description:    cand.Description,
		Location:       location,
		MaxDurationHrs: cand.MaxDurationHrs,
		StopCondition:  cand.StopCondition,
		Status:         core.PlanStatusTodo,
		RelatedEventID: relatedEventID,
		CreatedAt:      m.clk.Now(),
	}
	if err := m.store.Insert(ctx, core.TablePlans, p.ToRecord()); err != nil {
		return nil, fmt.Errorf("persist plan %s: %w", p.ID, err)
	}
	m.logger.Info("Plan created", "plan_id", p.ID, "agent_id", agentID, "status", string(p.Status))
	return p, nil
}

// storedLocked re-reads the persisted plan for a transition. The caller must
// hold the per-plan lock; validating against stored state rather than the
// caller's copy keeps transitions linearizable even when several copies of
// the same plan id were loaded independently.
func (m *Manager) storedLocked(ctx context.Context, p *core.Plan) (*core.Plan, error) {
	recs, err := m.store.GetByID(ctx, core.TablePlans, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", p.ID, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("plan %s: %w", p.ID, core.ErrNotFound)
	}
	stored, err := core.PlanFromRecord(recs[0])
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", p.ID, err)
	}
	// the record carries only the location id; keep the caller's resolved ref
	if p.Location != nil && stored.Location != nil && p.Location.ID == stored.Location.ID {
		stored.Location = p.Location
	}
	return stored, nil
}

// Start transitions TODO -> IN_PROGRESS.
func (m *Manager) Start(ctx context.Context, p *core.Plan) error {
	l := m.lockFor(p.ID)
	l.Lock()
	defer l.Unlock()

	stored, err := m.storedLocked(ctx, p)
	if err != nil {
		return err
	}
	if stored.Status != core.PlanStatusTodo {
		return &core.InvalidTransitionError{PlanID: p.ID, From: stored.Status, To: core.PlanStatusInProgress}
	}
	next := *stored
	next.Status = core.PlanStatusInProgress
	if err := m.store.Insert(ctx, core.TablePlans, next.ToRecord()); err != nil {
		return fmt.Errorf("persist plan %s: %w", p.ID, err)
	}
	*p = next
	m.logger.Info("Plan transition applied", "plan_id", p.ID, "from", string(core.PlanStatusTodo), "to", string(p.Status))
	return nil
}

// Complete transitions IN_PROGRESS to the terminal state selected by outcome
// and stamps CompletedAt. No transition out of a terminal state is permitted.
func (m *Manager) Complete(ctx context.Context, p *core.Plan, outcome Outcome) error {
	l := m.lockFor(p.ID)
	l.Lock()
	defer l.Unlock()

	to := core.PlanStatusDone
	if outcome == OutcomeFailure {
		to = core.PlanStatusFailed
	}
	stored, err := m.storedLocked(ctx, p)
	if err != nil {
		return err
	}
	if stored.Status != core.PlanStatusInProgress {
		return &core.InvalidTransitionError{PlanID: p.ID, From: stored.Status, To: to}
	}
	next := *stored
	next.Status = to
	now := m.clk.Now()
	next.CompletedAt = &now
	if err := m.store.Insert(ctx, core.TablePlans, next.ToRecord()); err != nil {
		return fmt.Errorf("persist plan %s: %w", p.ID, err)
	}
	*p = next
	m.logger.Info("Plan transition applied", "plan_id", p.ID, "from", string(core.PlanStatusInProgress), "to", string(p.Status))
	return nil
}

// Load fetches a plan by id. Zero rows yields ErrNotFound; a storage failure
// propagates distinctly and is never collapsed into ErrNotFound. A stored
// location reference is resolved to its full form when the directory still
// knows the id.
func (m *Manager) Load(ctx context.Context, id string) (*core.Plan, error) {
	recs, err := m.store.GetByID(ctx, core.TablePlans, id)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", id, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("plan %s: %w", id, core.ErrNotFound)
	}
	p, err := core.PlanFromRecord(recs[0])
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", id, err)
	}
	if p.Location != nil {
		ref, err := m.dir.ResolveByID(ctx, p.Location.ID)
		if err == nil {
			p.Location = &ref
		}
	}
	return p, nil
}

// AddNote appends an opaque note to the plan's scratchpad and persists the
// plan. Notes are agent-private working memory; the core never interprets
// them.
func (m *Manager) AddNote(ctx context.Context, p *core.Plan, note core.Note) error {
	l := m.lockFor(p.ID)
	l.Lock()
	defer l.Unlock()

	stored, err := m.storedLocked(ctx, p)
	if err != nil {
		return err
	}
	next := *stored
	next.Scratchpad = append(append([]core.Note(nil), stored.Scratchpad...), note)
	if err := m.store.Insert(ctx, core.TablePlans, next.ToRecord()); err != nil {
		return fmt.Errorf("persist plan %s: %w", p.ID, err)
	}
	*p = next
	return nil
}

// Retire removes the plan from active tracking. Events referencing the plan
// keep their references; retirement never rewrites history.
func (m *Manager) Retire(ctx context.Context, p *core.Plan) error {
	if err := m.store.Delete(ctx, core.TablePlans, p.ID); err != nil {
		return fmt.Errorf("retire plan %s: %w", p.ID, err)
	}
	m.mu.Lock()
	delete(m.locks, p.ID)
	m.mu.Unlock()
	m.logger.Info("Plan retired", "plan_id", p.ID)
	return nil
}

// PromptText renders a human-readable execution prompt for the owning agent.
func PromptText(p *core.Plan) string {
	locationName := "current location"
	if p.Location != nil {
		locationName = p.Location.Name
	}
	return fmt.Sprintf(
		"Work towards this now: %s\nAt this location: %s\nSuccess means: %s\nYou have %g hours maximum.",
		p.Description, locationName, p.StopCondition, p.MaxDurationHrs,
	)
}

// IsNotFound reports whether err denotes a missing record rather than a
// storage failure.
func IsNotFound(err error) bool { return errors.Is(err, core.ErrNotFound) }
