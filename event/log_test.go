package event

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simforge/worldline/clock"
	"github.com/simforge/worldline/core"
	"github.com/simforge/worldline/directory"
	"github.com/simforge/worldline/storage"
)

var epoch = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func testFixture(t *testing.T, startingStep int64) (*Log, *storage.InMemoryStore, *directory.InMemory) {
	t.Helper()
	clk, err := clock.New(clock.Config{Epoch: epoch, StepDuration: time.Minute})
	require.NoError(t, err)
	store := storage.NewInMemoryStore()
	dir := directory.NewInMemory()
	dir.AddLocation("loc-1", "Town Square")
	dir.AddLocation("loc-2", "Market")
	log, err := Open(context.Background(), store, dir, clk, nil, startingStep)
	require.NoError(t, err)
	return log, store, dir
}

func draftAtStep(t *testing.T, locationID string, step int64) core.Event {
	t.Helper()
	e, err := core.NewEventAtStep(core.EventTypeMessage, "something happened", locationID, step)
	require.NoError(t, err)
	return e
}

func TestLog_AppendDerivesWitnesses(t *testing.T) {
	log, store, dir := testFixture(t, 0)
	ctx := context.Background()

	dir.MoveAgent("agent-a", "loc-1", 0)
	dir.MoveAgent("agent-b", "loc-1", 5)
	dir.MoveAgent("agent-c", "loc-2", 0)

	stored, err := log.Append(ctx, draftAtStep(t, "loc-1", 10))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"agent-a", "agent-b"}, stored.WitnessIDs)

	// snapshot: moving an agent into the location afterwards must not alter
	// the previously computed witness set
	dir.MoveAgent("agent-c", "loc-1", 8)
	recs, err := store.GetByID(ctx, core.TableEvents, stored.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	got, err := core.EventFromRecord(recs[0])
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"agent-a", "agent-b"}, got.WitnessIDs)
}

func TestLog_AppendRespectsProvidedWitnesses(t *testing.T) {
	log, _, _ := testFixture(t, 0)

	draft := draftAtStep(t, "loc-1", 3)
	draft.WitnessIDs = []string{"agent-z"}
	stored, err := log.Append(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-z"}, stored.WitnessIDs)
}

func TestLog_AppendValidatesAnchor(t *testing.T) {
	log, _, _ := testFixture(t, 0)

	draft := core.Event{Type: core.EventTypeMessage, Description: "x", LocationID: "loc-1"}
	_, err := log.Append(context.Background(), draft)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLog_AppendTimestampAnchorUsesClock(t *testing.T) {
	log, _, dir := testFixture(t, 0)
	ctx := context.Background()

	dir.MoveAgent("agent-a", "loc-1", 0)

	ts := epoch.Add(7*time.Minute + 30*time.Second) // inside step 7
	draft, err := core.NewEventAtTime(core.EventTypeNonMessage, "rain starts", "loc-1", ts)
	require.NoError(t, err)
	stored, err := log.Append(ctx, draft)
	require.NoError(t, err)

	assert.Nil(t, stored.Step, "anchor stays a timestamp")
	assert.Equal(t, []string{"agent-a"}, stored.WitnessIDs)
	byStep := log.ByStep(7)
	require.Len(t, byStep, 1)
	assert.Equal(t, stored.ID, byStep[0].ID)
}

func TestLog_AppendOutsideWindowPersistsButHidden(t *testing.T) {
	log, store, _ := testFixture(t, 100)
	ctx := context.Background()

	stored, err := log.Append(ctx, draftAtStep(t, "loc-1", 5))
	require.NoError(t, err)

	assert.Empty(t, log.All(), "event below the cursor stays out of the view")
	recs, err := store.GetByID(ctx, core.TableEvents, stored.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1, "but it is durable")
}

func TestLog_AppendKeepsWindowStepOrdered(t *testing.T) {
	log, _, _ := testFixture(t, 0)
	ctx := context.Background()

	for _, step := range []int64{5, 2, 9, 2} {
		_, err := log.Append(ctx, draftAtStep(t, "loc-1", step))
		require.NoError(t, err)
	}

	var steps []int64
	for _, e := range log.All() {
		steps = append(steps, *e.Step)
	}
	// ordered by step without an intervening Refresh; equal steps keep
	// arrival order
	assert.Equal(t, []int64{2, 2, 5, 9}, steps)
}

func TestLog_RefreshWindowInvariant(t *testing.T) {
	log, _, _ := testFixture(t, 0)
	ctx := context.Background()

	for _, step := range []int64{2, 5, 8, 11} {
		_, err := log.Append(ctx, draftAtStep(t, "loc-1", step))
		require.NoError(t, err)
	}

	cursor := int64(5)
	events, err := log.Refresh(ctx, &cursor)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for _, e := range events {
		require.NotNil(t, e.Step)
		assert.GreaterOrEqual(t, *e.Step, cursor)
	}

	// a higher cursor strictly shrinks or preserves the visible set
	cursor = 9
	events, err = log.Refresh(ctx, &cursor)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(11), *events[0].Step)

	// idempotent: refreshing again with no cursor change is a no-op resync
	events2, err := log.Refresh(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, events, events2)
	assert.Equal(t, int64(9), log.StartingStep())
}

func TestLog_RefreshReplacesStaleView(t *testing.T) {
	log, store, _ := testFixture(t, 0)
	ctx := context.Background()

	stored, err := log.Append(ctx, draftAtStep(t, "loc-1", 3))
	require.NoError(t, err)

	// out-of-band storage mutation: tombstone behind the log's back
	recs, err := store.GetByID(ctx, core.TableEvents, stored.ID)
	require.NoError(t, err)
	recs[0]["removed"] = true
	require.NoError(t, store.Insert(ctx, core.TableEvents, recs[0]))

	require.Len(t, log.All(), 1, "stale view before refresh")
	_, err = log.Refresh(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, log.All(), "refresh is a replace-all, stale state cannot linger")
}

func TestLog_Remove(t *testing.T) {
	log, store, _ := testFixture(t, 0)
	ctx := context.Background()

	e1, err := log.Append(ctx, draftAtStep(t, "loc-1", 3))
	require.NoError(t, err)
	e2, err := log.Append(ctx, draftAtStep(t, "loc-1", 4))
	require.NoError(t, err)

	require.NoError(t, log.Remove(ctx, e1.ID))
	all := log.All()
	require.Len(t, all, 1)
	assert.Equal(t, e2.ID, all[0].ID)
	assert.Equal(t, int64(4), *all[0].Step, "surrounding steps never shift")

	recs, err := store.GetByID(ctx, core.TableEvents, e1.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, core.Removed(recs[0]), "removal is a tombstone, not an erase")

	err = log.Remove(ctx, "missing-id")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLog_Queries(t *testing.T) {
	log, _, dir := testFixture(t, 0)
	ctx := context.Background()

	loc2, err := dir.ResolveByName(ctx, "Market")
	require.NoError(t, err)

	_, err = log.Append(ctx, draftAtStep(t, "loc-1", 3))
	require.NoError(t, err)
	_, err = log.Append(ctx, draftAtStep(t, "loc-2", 3))
	require.NoError(t, err)
	_, err = log.Append(ctx, draftAtStep(t, "loc-2", 7))
	require.NoError(t, err)

	assert.Len(t, log.ByStep(3), 2)
	assert.Empty(t, log.ByStep(99))
	assert.Len(t, log.ByLocationID("loc-2"), 2)
	assert.Len(t, log.ByLocation(loc2), 2)
	assert.Len(t, log.All(), 3)
}

func TestLog_AllReturnsCopy(t *testing.T) {
	log, _, _ := testFixture(t, 0)
	ctx := context.Background()

	_, err := log.Append(ctx, draftAtStep(t, "loc-1", 1))
	require.NoError(t, err)

	all := log.All()
	all[0].Description = "mutated"
	assert.Equal(t, "something happened", log.All()[0].Description)
}
