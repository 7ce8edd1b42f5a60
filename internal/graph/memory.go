package graph

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store used by tests, seed dry runs, and local
// development. Neighbors are returned in insertion order, which keeps
// traversal results stable across runs.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	// adjacency holds, per node id, the incident edges in insertion order.
	adjacency map[string][]IncidentEdge
	edges     map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:     make(map[string]*Node),
		adjacency: make(map[string][]IncidentEdge),
		edges:     make(map[string]struct{}),
	}
}

// PutNode inserts or replaces a node.
func (s *MemoryStore) PutNode(ctx context.Context, node Node) error {
	if node.ID == "" || node.Type == "" {
		return fmt.Errorf("memory store: node requires id and type")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := node
	s.nodes[node.ID] = &n
	return nil
}

// PutEdge inserts an edge. Both endpoints must already exist; duplicate
// edges (same identity) are ignored.
func (s *MemoryStore) PutEdge(ctx context.Context, edge Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.nodes[edge.SourceID]
	if !ok {
		return fmt.Errorf("memory store: edge %s: unknown source %q", edge.Name, edge.SourceID)
	}
	dst, ok := s.nodes[edge.DestinationID]
	if !ok {
		return fmt.Errorf("memory store: edge %s: unknown destination %q", edge.Name, edge.DestinationID)
	}

	edge.SourceType = src.Type
	edge.DestinationType = dst.Type

	if _, dup := s.edges[edge.Identity()]; dup {
		return nil
	}
	s.edges[edge.Identity()] = struct{}{}

	s.adjacency[edge.SourceID] = append(s.adjacency[edge.SourceID], IncidentEdge{
		Edge:      edge,
		Direction: DirectionOutgoing,
		OtherID:   edge.DestinationID,
		OtherType: edge.DestinationType,
	})
	s.adjacency[edge.DestinationID] = append(s.adjacency[edge.DestinationID], IncidentEdge{
		Edge:      edge,
		Direction: DirectionIncoming,
		OtherID:   edge.SourceID,
		OtherType: edge.SourceType,
	})
	return nil
}

// GetNode resolves a node by id; missing nodes return (nil, nil).
func (s *MemoryStore) GetNode(ctx context.Context, id string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[id]
	if !ok {
		return nil, nil
	}
	n := *node
	return &n, nil
}

// Neighbors returns the incident edges of a node in insertion order.
func (s *MemoryStore) Neighbors(ctx context.Context, id string) ([]IncidentEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	incident := s.adjacency[id]
	out := make([]IncidentEdge, len(incident))
	copy(out, incident)
	return out, nil
}

// NodeCount returns the number of nodes in the store.
func (s *MemoryStore) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of distinct edges in the store.
func (s *MemoryStore) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}
