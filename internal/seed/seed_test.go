package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allykrinsky/lineage-poc/internal/graph"
	"github.com/allykrinsky/lineage-poc/internal/taxonomy"
)

func testRegistry(t *testing.T) *taxonomy.Registry {
	t.Helper()
	reg, err := taxonomy.Load("../../configs/taxonomy.yaml")
	require.NoError(t, err)
	return reg
}

func TestShippedSeedIsValid(t *testing.T) {
	reg := testRegistry(t)

	fixture, err := Load("../../configs/seed_fraud.yaml")
	require.NoError(t, err)
	require.NoError(t, fixture.Validate(reg))

	store := graph.NewMemoryStore()
	require.NoError(t, fixture.Apply(context.Background(), store))

	assert.Equal(t, len(fixture.Nodes), store.NodeCount())
	assert.Equal(t, len(fixture.Edges), store.EdgeCount())
	assert.Equal(t, fixture.NodeIDs()[0], fixture.Nodes[0].ID)
}

func TestValidateRejectsUnknownType(t *testing.T) {
	reg := testRegistry(t)

	fixture, err := Parse([]byte(`
nodes:
  - {id: n-1, type: spaceship, name: enterprise}
`))
	require.NoError(t, err)
	assert.Error(t, fixture.Validate(reg))
}

func TestValidateRejectsDanglingEdge(t *testing.T) {
	reg := testRegistry(t)

	fixture, err := Parse([]byte(`
nodes:
  - {id: ds-1, type: dataset, name: a}
edges:
  - {source: ds-1, name: in_workspace, destination: ws-9}
`))
	require.NoError(t, err)
	assert.Error(t, fixture.Validate(reg))
}

func TestValidateRejectsDuplicateIDs(t *testing.T) {
	reg := testRegistry(t)

	fixture, err := Parse([]byte(`
nodes:
  - {id: ds-1, type: dataset, name: a}
  - {id: ds-1, type: dataset, name: b}
`))
	require.NoError(t, err)
	assert.Error(t, fixture.Validate(reg))
}

func TestValidateAllowsEdgesOutsideTaxonomy(t *testing.T) {
	reg := testRegistry(t)

	// The graph may be a superset of what traversal covers.
	fixture, err := Parse([]byte(`
nodes:
  - {id: ds-1, type: dataset, name: a}
  - {id: ds-2, type: dataset, name: b}
edges:
  - {source: ds-1, name: mirrors, destination: ds-2}
`))
	require.NoError(t, err)
	assert.NoError(t, fixture.Validate(reg))
}
