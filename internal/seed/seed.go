// Package seed loads declarative graph fixtures (nodes and edges in YAML)
// into a graph store. The traversal engine never depends on this package;
// it only requires that the store, once populated, honors the adjacency
// contract.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/allykrinsky/lineage-poc/internal/graph"
	"github.com/allykrinsky/lineage-poc/internal/taxonomy"
)

// NodeFixture is one node in a fixture file.
type NodeFixture struct {
	ID          string `yaml:"id"`
	Type        string `yaml:"type"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	SubType     string `yaml:"sub_type,omitempty"`
}

// EdgeFixture is one stored edge in a fixture file, in stored orientation.
type EdgeFixture struct {
	Source      string `yaml:"source"`
	Name        string `yaml:"name"`
	Destination string `yaml:"destination"`
	SubType     string `yaml:"sub_type,omitempty"`
}

// Fixture is a declarative seed graph.
type Fixture struct {
	Nodes []NodeFixture `yaml:"nodes"`
	Edges []EdgeFixture `yaml:"edges"`
}

// Load reads a fixture from a YAML file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse reads a fixture from raw YAML.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("seed: parse: %w", err)
	}
	return &f, nil
}

// Validate checks the fixture against the taxonomy: every node type must be
// known and every edge endpoint must name a fixture node. Edges outside the
// taxonomy are allowed; the graph may be a superset of what traversal
// covers.
func (f *Fixture) Validate(reg *taxonomy.Registry) error {
	ids := make(map[string]bool, len(f.Nodes))
	for i, node := range f.Nodes {
		if node.ID == "" || node.Type == "" {
			return fmt.Errorf("seed: node %d requires id and type", i)
		}
		if !reg.KnowsType(node.Type) {
			return fmt.Errorf("seed: node %s has unknown type %q", node.ID, node.Type)
		}
		if ids[node.ID] {
			return fmt.Errorf("seed: duplicate node id %s", node.ID)
		}
		ids[node.ID] = true
	}
	for i, edge := range f.Edges {
		if edge.Source == "" || edge.Destination == "" || edge.Name == "" {
			return fmt.Errorf("seed: edge %d requires source, name and destination", i)
		}
		if !ids[edge.Source] {
			return fmt.Errorf("seed: edge %s names unknown source %s", edge.Name, edge.Source)
		}
		if !ids[edge.Destination] {
			return fmt.Errorf("seed: edge %s names unknown destination %s", edge.Name, edge.Destination)
		}
	}
	return nil
}

// Apply writes the fixture into the store, nodes first.
func (f *Fixture) Apply(ctx context.Context, m graph.Mutator) error {
	for _, node := range f.Nodes {
		props := map[string]string{}
		if node.Name != "" {
			props["name"] = node.Name
		}
		if node.Description != "" {
			props["description"] = node.Description
		}
		if node.SubType != "" {
			props["sub_type"] = node.SubType
		}
		if err := m.PutNode(ctx, graph.Node{ID: node.ID, Type: node.Type, Properties: props}); err != nil {
			return fmt.Errorf("seed: node %s: %w", node.ID, err)
		}
	}
	for _, edge := range f.Edges {
		if err := m.PutEdge(ctx, graph.Edge{
			SourceID:      edge.Source,
			Name:          edge.Name,
			DestinationID: edge.Destination,
			SubType:       edge.SubType,
		}); err != nil {
			return fmt.Errorf("seed: edge %s->%s: %w", edge.Source, edge.Destination, err)
		}
	}
	return nil
}

// NodeIDs returns every node id in the fixture, in file order.
func (f *Fixture) NodeIDs() []string {
	ids := make([]string, 0, len(f.Nodes))
	for _, node := range f.Nodes {
		ids = append(ids, node.ID)
	}
	return ids
}
