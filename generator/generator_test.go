package generator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simforge/worldline/core"
)

// Interface compliance (compile-time assertion)
var _ core.CandidateGenerator = (*Mock)(nil)

func TestParseCandidates_BareArray(t *testing.T) {
	raw := `[{"description":"negotiate","location_name":"Town Square","stop_condition":"agreement reached","max_duration_hrs":0.5}]`
	candidates, err := ParseCandidates(raw)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "negotiate", candidates[0].Description)
	assert.Equal(t, "Town Square", candidates[0].LocationName)
	assert.Equal(t, 0.5, candidates[0].MaxDurationHrs)
}

func TestParseCandidates_PlansWrapper(t *testing.T) {
	raw := `{"plans":[{"description":"a","location_name":"L","stop_condition":"s","max_duration_hrs":1},{"description":"b","location_name":"L","stop_condition":"s","max_duration_hrs":2}]}`
	candidates, err := ParseCandidates(raw)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestParseCandidates_StripsCodeFences(t *testing.T) {
	raw := "```json\n[{\"description\":\"a\",\"location_name\":\"L\",\"stop_condition\":\"s\",\"max_duration_hrs\":1}]\n```"
	candidates, err := ParseCandidates(raw)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestParseCandidates_Malformed(t *testing.T) {
	_, err := ParseCandidates("the agent should probably negotiate")
	require.Error(t, err)

	_, err = ParseCandidates(`{"something_else": true}`)
	require.Error(t, err)
}

func TestMock_Generate(t *testing.T) {
	def := core.Candidate{Description: "wander", LocationName: "Market", StopCondition: "bored", MaxDurationHrs: 1}
	m := NewMock(def)
	m.AddResponse("under attack", core.Candidate{Description: "flee", LocationName: "Forest", StopCondition: "safe", MaxDurationHrs: 0.25})

	candidates, err := m.Generate(context.Background(), "agent-a", "quiet morning")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "wander", candidates[0].Description)

	candidates, err = m.Generate(context.Background(), "agent-a", "under attack")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "flee", candidates[0].Description)
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("agent-a", "market day")
	assert.Contains(t, prompt, "agent-a")
	assert.Contains(t, prompt, "market day")
	assert.Contains(t, prompt, "max_duration_hrs")
}
