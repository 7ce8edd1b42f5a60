package lineage

// TraverseRequest mirrors the service's traversal request.
type TraverseRequest struct {
	StartNodeID         string   `json:"start_node_id"`
	Axes                []string `json:"axes"`
	XDirection          string   `json:"x_direction,omitempty"`
	YDirection          string   `json:"y_direction,omitempty"`
	MaxZHops            *int     `json:"max_z_hops,omitempty"`
	MaxDepth            *int     `json:"max_depth,omitempty"`
	IncludeTransformers bool     `json:"include_transformers,omitempty"`
}

// Node is a node summary.
type Node struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Edge is an edge summary in stored orientation.
type Edge struct {
	SourceID        string `json:"source_id"`
	SourceType      string `json:"source_type"`
	Name            string `json:"name"`
	DestinationID   string `json:"destination_id"`
	DestinationType string `json:"destination_type"`
	SubType         string `json:"sub_type,omitempty"`
	Axis            string `json:"axis"`
	Synthesized     bool   `json:"synthesized,omitempty"`
}

// Endpoint identifies one end of a logical step.
type Endpoint struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// LogicalStep is one entry of a traversal path.
type LogicalStep struct {
	Axis      string    `json:"axis"`
	Direction string    `json:"direction"`
	From      *Endpoint `json:"from"`
	To        *Endpoint `json:"to"`
	Via       *Endpoint `json:"via,omitempty"`
	EdgeNames []string  `json:"edge_names"`
	HopGroup  string    `json:"hop_group,omitempty"`
}

// Path is an ordered list of logical steps.
type Path struct {
	Steps []LogicalStep `json:"logical_steps"`
}

// Metadata carries traversal accounting.
type Metadata struct {
	ZHopsTaken        int `json:"z_hops_taken"`
	TotalNodesVisited int `json:"total_nodes_visited"`
	BlockedZOfZPaths  int `json:"blocked_z_of_z_paths"`
}

// StartNode echoes the resolved start node.
type StartNode struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// TraverseResponse is the collapsed traversal result.
type TraverseResponse struct {
	StartNode StartNode `json:"start_node"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	Paths     []Path    `json:"paths"`
	Metadata  Metadata  `json:"traversal_metadata"`
}
