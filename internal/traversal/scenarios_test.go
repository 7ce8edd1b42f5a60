package traversal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allykrinsky/lineage-poc/internal/taxonomy"
)

func TestXUpstreamFromCuratedTransactions(t *testing.T) {
	engine := seedEngine(t)

	resp, err := engine.Traverse(context.Background(), Request{
		StartNodeID: "ds-002",
		Axes:        []taxonomy.Axis{taxonomy.AxisX},
		XDirection:  XUpstream,
	})
	require.NoError(t, err)

	path := findPath(resp, "ds-001")
	require.NotNil(t, path, "expected a collapsed path to ds-001")

	step := path.Steps[0]
	assert.Equal(t, taxonomy.AxisX, step.Axis)
	assert.Equal(t, StepUpstream, step.Direction)
	assert.Equal(t, "ds-002", step.From.ID)
	assert.Equal(t, "ds-001", step.To.ID)
	require.NotNil(t, step.Via)
	assert.Equal(t, "job-001", step.Via.ID)
	assert.Equal(t, "dataset_etl", step.HopGroup)
	assert.ElementsMatch(t, []string{"produces", "consumes"}, step.EdgeNames)

	ids := nodeIDSet(resp)
	assert.True(t, ids["ds-001"])
	assert.False(t, ids["ds-003"], "downstream material must not appear")
}

func TestXDownstreamFromCuratedTransactions(t *testing.T) {
	engine := seedEngine(t)

	resp, err := engine.Traverse(context.Background(), Request{
		StartNodeID: "ds-002",
		Axes:        []taxonomy.Axis{taxonomy.AxisX},
		XDirection:  XDownstream,
	})
	require.NoError(t, err)

	ids := nodeIDSet(resp)
	for _, id := range []string{"ds-003", "mv-002", "ds-004"} {
		assert.True(t, ids[id], "expected %s downstream of ds-002", id)
	}
	assert.False(t, ids["ds-001"], "upstream material must not appear")

	path := findPath(resp, "ds-003", "mv-002", "ds-004")
	require.NotNil(t, path, "expected the full downstream chain as one path")
	for i, via := range []string{"job-002", "job-003", "job-004"} {
		step := path.Steps[i]
		assert.Equal(t, StepDownstream, step.Direction)
		require.NotNil(t, step.Via)
		assert.Equal(t, via, step.Via.ID)
	}
}

func TestYDownFromFraudReviewSystem(t *testing.T) {
	engine := seedEngine(t)

	resp, err := engine.Traverse(context.Background(), Request{
		StartNodeID: "asys-001",
		Axes:        []taxonomy.Axis{taxonomy.AxisY},
		YDirection:  YDown,
	})
	require.NoError(t, err)

	ids := nodeIDSet(resp)
	assert.True(t, ids["asysv-001"])
	assert.True(t, ids["agv-001"])

	path := findPath(resp, "asysv-001", "agv-001")
	require.NotNil(t, path)
	for _, step := range path.Steps {
		assert.Equal(t, taxonomy.AxisY, step.Axis)
		assert.Equal(t, StepDown, step.Direction)
		assert.Nil(t, step.Via)
	}
}

func TestZCapFromCuratedTransactions(t *testing.T) {
	engine := seedEngine(t)

	resp, err := engine.Traverse(context.Background(), Request{
		StartNodeID: "ds-002",
		Axes:        []taxonomy.Axis{taxonomy.AxisZ},
		MaxZHops:    intPtr(1),
	})
	require.NoError(t, err)

	ids := nodeIDSet(resp)
	assert.True(t, ids["uc-001"], "use case association")
	assert.True(t, ids["ws-001"], "workspace association")
	assert.True(t, ids["rs-001"], "result set association")

	// Nothing beyond the direct associations.
	assert.False(t, ids["rpt-001"])
	assert.False(t, ids["uc-002"])
	assert.Len(t, resp.Nodes, 4)

	for _, path := range resp.Paths {
		assert.Len(t, path.Steps, 1)
		assert.Equal(t, StepUndirected, path.Steps[0].Direction)
	}

	assert.Equal(t, 3, resp.Metadata.ZHopsTaken)
	assert.GreaterOrEqual(t, resp.Metadata.BlockedZOfZPaths, 1)
}

func TestZOfZBlocked(t *testing.T) {
	engine := seedEngine(t)

	resp, err := engine.Traverse(context.Background(), Request{
		StartNodeID: "ds-002",
		Axes:        []taxonomy.Axis{taxonomy.AxisX, taxonomy.AxisZ},
		MaxZHops:    intPtr(1),
	})
	require.NoError(t, err)

	for _, path := range resp.Paths {
		zSteps := 0
		for _, step := range path.Steps {
			if step.Axis == taxonomy.AxisZ {
				zSteps++
			}
		}
		assert.LessOrEqual(t, zSteps, 1, "a path spent more than one association hop")
	}

	ids := nodeIDSet(resp)
	assert.True(t, ids["agv-001"], "agent reached via X chain then one Z hop")
	assert.False(t, ids["rpt-001"], "report requires a second Z hop")
	assert.GreaterOrEqual(t, resp.Metadata.BlockedZOfZPaths, 1)
}

func TestCollapsingWithoutTransformers(t *testing.T) {
	engine := seedEngine(t)

	resp, err := engine.Traverse(context.Background(), Request{
		StartNodeID:         "ds-001",
		Axes:                []taxonomy.Axis{taxonomy.AxisX},
		XDirection:          XDownstream,
		IncludeTransformers: false,
	})
	require.NoError(t, err)

	assert.False(t, nodeTypeSet(resp)["etl_job"], "transformers must be hidden")

	ids := nodeIDSet(resp)
	for _, id := range []string{"ds-002", "ds-003", "mv-002", "ds-004"} {
		assert.True(t, ids[id])
	}

	viaSeen := false
	for _, path := range resp.Paths {
		for _, step := range path.Steps {
			if step.Via != nil {
				viaSeen = true
				assert.Equal(t, "etl_job", step.Via.Type)
			}
		}
	}
	assert.True(t, viaSeen, "X steps must still report their transformer under via")
}

func TestCollapsingRetainsTransformersWhenAsked(t *testing.T) {
	engine := seedEngine(t)

	resp, err := engine.Traverse(context.Background(), Request{
		StartNodeID:         "ds-001",
		Axes:                []taxonomy.Axis{taxonomy.AxisX},
		XDirection:          XDownstream,
		IncludeTransformers: true,
	})
	require.NoError(t, err)

	ids := nodeIDSet(resp)
	for _, id := range []string{"job-001", "job-002", "job-003", "job-004"} {
		assert.True(t, ids[id], "expected transformer %s in nodes", id)
	}

	// With transformers retained, the raw consumes/produces edges survive.
	edges := edgeIdentitySet(resp)
	assert.True(t, edges["job-001|consumes||ds-001"])
	assert.True(t, edges["job-001|produces||ds-002"])
}
