package server

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/allykrinsky/lineage-poc/internal/graph"
	"github.com/allykrinsky/lineage-poc/internal/jsonx"
	"github.com/allykrinsky/lineage-poc/internal/seed"
	"github.com/allykrinsky/lineage-poc/internal/taxonomy"
	"github.com/allykrinsky/lineage-poc/internal/traversal"
)

func testHandler(t *testing.T) http.Handler {
	t.Helper()

	reg, err := taxonomy.Load("../../configs/taxonomy.yaml")
	require.NoError(t, err)

	fixture, err := seed.Load("../../configs/seed_fraud.yaml")
	require.NoError(t, err)

	store := graph.NewMemoryStore()
	require.NoError(t, fixture.Apply(context.Background(), store))

	logger := zaptest.NewLogger(t)
	engine := traversal.NewEngine(store, reg, logger)
	return New(engine, store, logger).Handler()
}

func postTraverse(t *testing.T, h http.Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := jsonx.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/traverse", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTraverseEndpoint(t *testing.T) {
	h := testHandler(t)

	rec := postTraverse(t, h, map[string]interface{}{
		"start_node_id": "ds-002",
		"axes":          []string{"X"},
		"x_direction":   "upstream",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp traversal.Response
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "ds-002", resp.StartNode.ID)
	assert.Equal(t, "curated_transactions", resp.StartNode.Name)

	found := false
	for _, n := range resp.Nodes {
		if n.ID == "ds-001" {
			found = true
		}
	}
	assert.True(t, found, "expected upstream dataset in response nodes")
}

func TestTraverseEndpointErrors(t *testing.T) {
	h := testHandler(t)

	tests := []struct {
		name   string
		body   interface{}
		status int
		kind   string
	}{
		{
			"unknown start node",
			map[string]interface{}{"start_node_id": "ds-999", "axes": []string{"X"}},
			http.StatusNotFound,
			"start_not_found",
		},
		{
			"missing axes",
			map[string]interface{}{"start_node_id": "ds-001"},
			http.StatusBadRequest,
			"invalid_request",
		},
		{
			"unknown axis",
			map[string]interface{}{"start_node_id": "ds-001", "axes": []string{"Q"}},
			http.StatusBadRequest,
			"invalid_request",
		},
		{
			"z hops beyond cap",
			map[string]interface{}{"start_node_id": "ds-001", "axes": []string{"Z"}, "max_z_hops": 99},
			http.StatusBadRequest,
			"invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postTraverse(t, h, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body["kind"])
		})
	}
}

func TestTraverseEndpointMalformedBody(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/traverse", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNodeEndpoint(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nodes/ds-001", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var node graph.Node
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &node))
	assert.Equal(t, "dataset", node.Type)
	assert.Equal(t, "raw_transactions", node.Name())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/nodes/ds-999", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h := testHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
