package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simforge/worldline/core"
)

// Interface compliance (compile-time assertion)
var _ core.LocationDirectory = (*InMemory)(nil)

func TestInMemory_Resolve(t *testing.T) {
	d := NewInMemory()
	ctx := context.Background()

	ref := d.AddLocation("loc-1", "Town Square")
	assert.Equal(t, "loc-1", ref.ID)

	byName, err := d.ResolveByName(ctx, "Town Square")
	require.NoError(t, err)
	assert.Equal(t, ref, byName)

	byID, err := d.ResolveByID(ctx, "loc-1")
	require.NoError(t, err)
	assert.Equal(t, ref, byID)

	_, err = d.ResolveByName(ctx, "Atlantis")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = d.ResolveByID(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInMemory_AddLocationAssignsID(t *testing.T) {
	d := NewInMemory()
	ref := d.AddLocation("", "Market")
	assert.NotEmpty(t, ref.ID)
}

func TestInMemory_OccupantsAt(t *testing.T) {
	d := NewInMemory()
	ctx := context.Background()
	d.AddLocation("loc-1", "Town Square")
	d.AddLocation("loc-2", "Market")

	d.MoveAgent("agent-a", "loc-1", 0)
	d.MoveAgent("agent-b", "loc-2", 0)
	d.MoveAgent("agent-b", "loc-1", 5)

	occupants, err := d.OccupantsAt(ctx, "loc-1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-a"}, occupants)

	occupants, err = d.OccupantsAt(ctx, "loc-1", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-a", "agent-b"}, occupants)

	// before any move the agent is nowhere
	occupants, err = d.OccupantsAt(ctx, "loc-2", 10)
	require.NoError(t, err)
	assert.Empty(t, occupants)
}

func TestInMemory_MoveSupersedesLaterMoves(t *testing.T) {
	d := NewInMemory()
	ctx := context.Background()

	d.MoveAgent("agent-a", "loc-1", 10)
	d.MoveAgent("agent-a", "loc-2", 5) // rewrites history from step 5 on

	occupants, err := d.OccupantsAt(ctx, "loc-2", 12)
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-a"}, occupants)

	occupants, err = d.OccupantsAt(ctx, "loc-1", 12)
	require.NoError(t, err)
	assert.Empty(t, occupants)
}
