// Package graph provides the adjacency layer the traversal engine runs
// against: a minimal store contract plus the Dgraph-backed and in-memory
// implementations of it.
package graph

import (
	"context"
	"strings"
)

// Direction is the stored direction of an edge relative to the queried node.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// Node is a graph node as the store returns it. Properties, sub_type
// included, are opaque to the traversal engine; classification reads the
// sub_type of the edge (Edge.SubType), not of the node.
type Node struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Name returns the node's display name, falling back to its id.
func (n *Node) Name() string {
	if n.Properties != nil {
		if name, ok := n.Properties["name"]; ok && name != "" {
			return name
		}
	}
	return n.ID
}

// Edge is a stored edge in its canonical orientation: the arrow as it exists
// in the graph, which is not necessarily the semantic forward direction.
type Edge struct {
	SourceID        string            `json:"source_id"`
	SourceType      string            `json:"source_type"`
	Name            string            `json:"name"`
	DestinationID   string            `json:"destination_id"`
	DestinationType string            `json:"destination_type"`
	SubType         string            `json:"sub_type,omitempty"`
	Properties      map[string]string `json:"properties,omitempty"`
}

// Identity returns a stable key for edge deduplication.
func (e Edge) Identity() string {
	return strings.Join([]string{e.SourceID, e.Name, e.SubType, e.DestinationID}, "|")
}

// IncidentEdge is an edge as seen from one of its endpoints.
type IncidentEdge struct {
	Edge

	// Direction of the stored arrow relative to the queried node.
	Direction Direction

	// The other endpoint.
	OtherID   string
	OtherType string
}

// Store is the adjacency contract the traversal engine consumes. The store
// is opaque to the engine; it only needs node resolution and incident edges.
type Store interface {
	// GetNode resolves a node by id. A missing node returns (nil, nil).
	GetNode(ctx context.Context, id string) (*Node, error)

	// Neighbors returns every edge incident to the node, each annotated
	// with its stored direction relative to the node.
	Neighbors(ctx context.Context, id string) ([]IncidentEdge, error)
}

// Mutator is the write side used by seed loading. The traversal engine never
// mutates the graph and never sees this interface.
type Mutator interface {
	PutNode(ctx context.Context, node Node) error
	PutEdge(ctx context.Context, edge Edge) error
}
