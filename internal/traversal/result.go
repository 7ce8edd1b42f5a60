package traversal

import (
	"github.com/allykrinsky/lineage-poc/internal/graph"
	"github.com/allykrinsky/lineage-poc/internal/taxonomy"
)

// StepDirection is the direction of one logical step as traversed: upstream
// or downstream for X, up or down for Y, undirected for Z.
type StepDirection string

const (
	StepUpstream   StepDirection = "upstream"
	StepDownstream StepDirection = "downstream"
	StepUp         StepDirection = "up"
	StepDown       StepDirection = "down"
	StepUndirected StepDirection = "undirected"
	// StepBoth marks a step whose parts were traversed in opposite senses:
	// a folded X hop under x_direction=both, or a passthrough bridge whose
	// consumed edges disagree on direction.
	StepBoth StepDirection = "both"
)

// StepEndpoint identifies one end of a logical step.
type StepEndpoint struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// LogicalStep is one entry of an output path. A folded X step spans two
// edges via a transformer and carries Via and HopGroup; an X step leaving a
// transformer the path did not enter through spans one edge and has no Via.
// Y and Z steps span one edge, or several when a passthrough node was
// elided. An unclosed X step has To == nil and Via set.
type LogicalStep struct {
	Axis      taxonomy.Axis `json:"axis"`
	Direction StepDirection `json:"direction"`
	From      *StepEndpoint `json:"from"`
	To        *StepEndpoint `json:"to"`
	Via       *StepEndpoint `json:"via,omitempty"`
	EdgeNames []string      `json:"edge_names"`
	HopGroup  string        `json:"hop_group,omitempty"`
}

// Path is an ordered list of logical steps from the start node outward.
type Path struct {
	Steps []LogicalStep `json:"logical_steps"`
}

// NodeSummary is a node as it appears in the response.
type NodeSummary struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// EdgeSummary is an edge as it appears in the response, in stored
// orientation. Synthesized marks bridging edges the collapser created in
// place of passthrough nodes.
type EdgeSummary struct {
	SourceID        string        `json:"source_id"`
	SourceType      string        `json:"source_type"`
	Name            string        `json:"name"`
	DestinationID   string        `json:"destination_id"`
	DestinationType string        `json:"destination_type"`
	SubType         string        `json:"sub_type,omitempty"`
	Axis            taxonomy.Axis `json:"axis"`
	Synthesized     bool          `json:"synthesized,omitempty"`
}

// StartNode is the response echo of the resolved start node.
type StartNode struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// Metadata carries traversal accounting.
type Metadata struct {
	ZHopsTaken        int `json:"z_hops_taken"`
	TotalNodesVisited int `json:"total_nodes_visited"`
	BlockedZOfZPaths  int `json:"blocked_z_of_z_paths"`
}

// Response is the collapsed, user-facing traversal result.
type Response struct {
	StartNode StartNode     `json:"start_node"`
	Nodes     []NodeSummary `json:"nodes"`
	Edges     []EdgeSummary `json:"edges"`
	Paths     []Path        `json:"paths"`
	Metadata  Metadata      `json:"traversal_metadata"`
}

// rawStep is one traversed edge before collapsing, recorded in traversal
// order (from the path's previous node to the new one).
type rawStep struct {
	edge      graph.Edge
	axis      taxonomy.Axis
	hopRole   taxonomy.HopRole
	hopGroup  string
	direction StepDirection
	fromID    string
	fromType  string
	toID      string
	toType    string
}

// Subgraph is the raw traversal output handed to the collapser. Node and
// edge order is first-discovery order, which makes results deterministic
// for stores with stable neighbor iteration.
type Subgraph struct {
	Start     *graph.Node
	NodeOrder []string
	Nodes     map[string]*graph.Node
	EdgeOrder []string
	Edges     map[string]rawEdge
	Paths     [][]rawStep
	Metadata  Metadata
}

// rawEdge is a result edge with its classification axis attached.
type rawEdge struct {
	edge graph.Edge
	axis taxonomy.Axis
}
