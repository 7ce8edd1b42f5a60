package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.PutNode(ctx, Node{ID: "ds-1", Type: "dataset", Properties: map[string]string{"name": "raw"}}))
	require.NoError(t, store.PutNode(ctx, Node{ID: "job-1", Type: "etl_job"}))
	require.NoError(t, store.PutEdge(ctx, Edge{SourceID: "job-1", Name: "consumes", DestinationID: "ds-1"}))

	node, err := store.GetNode(ctx, "ds-1")
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.Equal(t, "raw", node.Name())

	missing, err := store.GetNode(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStoreNeighborsDirections(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.PutNode(ctx, Node{ID: "ds-1", Type: "dataset"}))
	require.NoError(t, store.PutNode(ctx, Node{ID: "job-1", Type: "etl_job"}))
	require.NoError(t, store.PutEdge(ctx, Edge{SourceID: "job-1", Name: "consumes", DestinationID: "ds-1"}))

	fromJob, err := store.Neighbors(ctx, "job-1")
	require.NoError(t, err)
	require.Len(t, fromJob, 1)
	assert.Equal(t, DirectionOutgoing, fromJob[0].Direction)
	assert.Equal(t, "ds-1", fromJob[0].OtherID)
	assert.Equal(t, "etl_job", fromJob[0].SourceType)
	assert.Equal(t, "dataset", fromJob[0].DestinationType)

	fromDS, err := store.Neighbors(ctx, "ds-1")
	require.NoError(t, err)
	require.Len(t, fromDS, 1)
	assert.Equal(t, DirectionIncoming, fromDS[0].Direction)
	assert.Equal(t, "job-1", fromDS[0].OtherID)
}

func TestMemoryStoreRejectsDanglingEdge(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.PutNode(ctx, Node{ID: "ds-1", Type: "dataset"}))
	err := store.PutEdge(ctx, Edge{SourceID: "ghost", Name: "consumes", DestinationID: "ds-1"})
	assert.Error(t, err)
}

func TestMemoryStoreDeduplicatesEdges(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.PutNode(ctx, Node{ID: "a", Type: "dataset"}))
	require.NoError(t, store.PutNode(ctx, Node{ID: "b", Type: "dataset"}))

	edge := Edge{SourceID: "a", Name: "related_to", DestinationID: "b"}
	require.NoError(t, store.PutEdge(ctx, edge))
	require.NoError(t, store.PutEdge(ctx, edge))

	assert.Equal(t, 1, store.EdgeCount())
	incident, err := store.Neighbors(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, incident, 1)
}
