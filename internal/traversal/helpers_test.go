package traversal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/allykrinsky/lineage-poc/internal/graph"
	"github.com/allykrinsky/lineage-poc/internal/seed"
	"github.com/allykrinsky/lineage-poc/internal/taxonomy"
)

// seedEngine builds an engine over the shipped taxonomy and fraud seed
// graph, loaded into the in-memory store.
func seedEngine(t *testing.T) *Engine {
	t.Helper()

	reg, err := taxonomy.Load("../../configs/taxonomy.yaml")
	require.NoError(t, err)

	fixture, err := seed.Load("../../configs/seed_fraud.yaml")
	require.NoError(t, err)
	require.NoError(t, fixture.Validate(reg))

	store := graph.NewMemoryStore()
	require.NoError(t, fixture.Apply(context.Background(), store))

	return NewEngine(store, reg, zaptest.NewLogger(t))
}

func intPtr(n int) *int { return &n }

func nodeIDSet(resp *Response) map[string]bool {
	ids := make(map[string]bool, len(resp.Nodes))
	for _, n := range resp.Nodes {
		ids[n.ID] = true
	}
	return ids
}

func nodeTypeSet(resp *Response) map[string]bool {
	types := make(map[string]bool)
	for _, n := range resp.Nodes {
		types[n.Type] = true
	}
	return types
}

func edgeIdentitySet(resp *Response) map[string]bool {
	ids := make(map[string]bool, len(resp.Edges))
	for _, e := range resp.Edges {
		ids[e.SourceID+"|"+e.Name+"|"+e.SubType+"|"+e.DestinationID] = true
	}
	return ids
}

// findPath returns the first path whose steps visit exactly the given
// to-endpoints in order, judged by LogicalStep.To (empty-string entries
// match unclosed steps).
func findPath(resp *Response, toIDs ...string) *Path {
	for i := range resp.Paths {
		p := &resp.Paths[i]
		if len(p.Steps) != len(toIDs) {
			continue
		}
		match := true
		for j, step := range p.Steps {
			switch {
			case toIDs[j] == "" && step.To == nil:
			case step.To != nil && step.To.ID == toIDs[j]:
			default:
				match = false
			}
			if !match {
				break
			}
		}
		if match {
			return p
		}
	}
	return nil
}

func subsetOf(t *testing.T, small, big map[string]bool, label string) {
	t.Helper()
	for id := range small {
		require.True(t, big[id], "%s: %s missing from superset", label, id)
	}
}
