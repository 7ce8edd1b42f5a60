package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/dgo/v240"
	"github.com/dgraph-io/dgo/v240/protos/api"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/allykrinsky/lineage-poc/internal/jsonx"
)

// Client wraps the Dgraph client as a lineage Store. Edges live as uid
// predicates named after their taxonomy edge name, with the optional
// sub_type carried as a facet; every node carries an xid holding its stable
// lineage id.
type Client struct {
	conn      *dgo.Dgraph
	grpcConn  *grpc.ClientConn
	logger    *zap.Logger
	edgeNames []string

	// nodeCache fronts GetNode; adjacency is not cached here (see the cache
	// package for the adjacency tier).
	nodeCache *expirable.LRU[string, *Node]
}

// ClientConfig holds configuration for the Dgraph client. RequestTimeout is
// not applied by the client; queries and mutations run under the caller's
// context.
type ClientConfig struct {
	Address        string
	MaxRetries     int
	RetryInterval  time.Duration
	RequestTimeout time.Duration
	NodeCacheSize  int
	NodeCacheTTL   time.Duration
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Address:        "localhost:9080",
		MaxRetries:     5,
		RetryInterval:  2 * time.Second,
		RequestTimeout: 30 * time.Second,
		NodeCacheSize:  4096,
		NodeCacheTTL:   time.Minute,
	}
}

// NewClient connects to Dgraph, installs the lineage schema, and returns the
// Store. edgeNames is the set of edge predicates the taxonomy defines; the
// adjacency query expands exactly these.
func NewClient(ctx context.Context, cfg ClientConfig, edgeNames []string, logger *zap.Logger) (*Client, error) {
	var conn *grpc.ClientConn
	var err error

	for i := 0; i < cfg.MaxRetries; i++ {
		conn, err = grpc.DialContext(ctx, cfg.Address,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithBlock(),
		)
		if err == nil {
			break
		}
		logger.Warn("Failed to connect to Dgraph, retrying...",
			zap.Int("attempt", i+1),
			zap.Error(err))
		time.Sleep(cfg.RetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Dgraph after %d attempts: %w", cfg.MaxRetries, err)
	}

	client := &Client{
		conn:      dgo.NewDgraphClient(api.NewDgraphClient(conn)),
		grpcConn:  conn,
		logger:    logger,
		edgeNames: append([]string(nil), edgeNames...),
		nodeCache: expirable.NewLRU[string, *Node](cfg.NodeCacheSize, nil, cfg.NodeCacheTTL),
	}

	if err := client.initSchema(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("Dgraph client connected", zap.String("address", cfg.Address))
	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.grpcConn.Close()
}

func (c *Client) initSchema(ctx context.Context) error {
	return c.conn.Alter(ctx, &api.Operation{Schema: SchemaFor(c.edgeNames)})
}

// nodeFields are the predicates fetched for every node in a query.
const nodeFields = `
		uid
		xid
		node_type
		name
		description
		sub_type`

type rawNode struct {
	UID         string `json:"uid"`
	XID         string `json:"xid"`
	NodeType    string `json:"node_type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SubType     string `json:"sub_type"`
}

func (r rawNode) toNode() *Node {
	props := map[string]string{}
	if r.Name != "" {
		props["name"] = r.Name
	}
	if r.Description != "" {
		props["description"] = r.Description
	}
	if r.SubType != "" {
		props["sub_type"] = r.SubType
	}
	return &Node{ID: r.XID, Type: r.NodeType, Properties: props}
}

// GetNode resolves a node by its stable id. Missing nodes return (nil, nil).
func (c *Client) GetNode(ctx context.Context, id string) (*Node, error) {
	if node, ok := c.nodeCache.Get(id); ok {
		return node, nil
	}

	query := `query Node($id: string) {
		node(func: eq(xid, $id), first: 1) {` + nodeFields + `
		}
	}`

	resp, err := c.conn.NewReadOnlyTxn().QueryWithVars(ctx, query, map[string]string{"$id": id})
	if err != nil {
		return nil, fmt.Errorf("dgraph: get node %s: %w", id, err)
	}

	var result struct {
		Node []rawNode `json:"node"`
	}
	if err := jsonx.Unmarshal(resp.Json, &result); err != nil {
		return nil, fmt.Errorf("dgraph: unmarshal node %s: %w", id, err)
	}
	if len(result.Node) == 0 {
		return nil, nil
	}

	node := result.Node[0].toNode()
	c.nodeCache.Add(id, node)
	return node, nil
}

// Neighbors returns every edge incident to the node. Each taxonomy edge
// predicate is expanded in both stored directions; sub_type facets ride
// along as "<predicate>|sub_type" keys.
func (c *Client) Neighbors(ctx context.Context, id string) ([]IncidentEdge, error) {
	var sb strings.Builder
	sb.WriteString(`query Neighbors($id: string) {
	node(func: eq(xid, $id), first: 1) {
		xid
		node_type
`)
	for _, name := range c.edgeNames {
		fmt.Fprintf(&sb, "\t\t%s @facets {%s\n\t\t}\n", name, nodeFields)
		fmt.Fprintf(&sb, "\t\t~%s @facets {%s\n\t\t}\n", name, nodeFields)
	}
	sb.WriteString("\t}\n}")

	resp, err := c.conn.NewReadOnlyTxn().QueryWithVars(ctx, sb.String(), map[string]string{"$id": id})
	if err != nil {
		return nil, fmt.Errorf("dgraph: neighbors of %s: %w", id, err)
	}

	var result struct {
		Node []map[string]interface{} `json:"node"`
	}
	if err := jsonx.Unmarshal(resp.Json, &result); err != nil {
		return nil, fmt.Errorf("dgraph: unmarshal neighbors of %s: %w", id, err)
	}
	if len(result.Node) == 0 {
		return nil, nil
	}

	nodeData := result.Node[0]
	selfType, _ := nodeData["node_type"].(string)

	var incident []IncidentEdge
	for key, value := range nodeData {
		edgeName := key
		outgoing := true
		if strings.HasPrefix(key, "~") {
			edgeName = key[1:]
			outgoing = false
		}
		if !c.isEdgeName(edgeName) {
			continue
		}

		items, ok := value.([]interface{})
		if !ok {
			continue
		}
		for _, item := range items {
			other, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			otherID, _ := other["xid"].(string)
			otherType, _ := other["node_type"].(string)
			if otherID == "" {
				continue
			}

			// Facets come back keyed on the queried predicate, including
			// the ~ prefix on reverse expansion.
			subType := ""
			if st, ok := other[key+"|sub_type"].(string); ok {
				subType = st
			}

			edge := Edge{Name: edgeName, SubType: subType}
			if outgoing {
				edge.SourceID, edge.SourceType = id, selfType
				edge.DestinationID, edge.DestinationType = otherID, otherType
			} else {
				edge.SourceID, edge.SourceType = otherID, otherType
				edge.DestinationID, edge.DestinationType = id, selfType
			}

			direction := DirectionOutgoing
			if !outgoing {
				direction = DirectionIncoming
			}
			incident = append(incident, IncidentEdge{
				Edge:      edge,
				Direction: direction,
				OtherID:   otherID,
				OtherType: otherType,
			})
		}
	}
	return incident, nil
}

func (c *Client) isEdgeName(name string) bool {
	for _, n := range c.edgeNames {
		if n == name {
			return true
		}
	}
	return false
}

// PutNode upserts a node by xid.
func (c *Client) PutNode(ctx context.Context, node Node) error {
	if node.ID == "" || node.Type == "" {
		return fmt.Errorf("dgraph: node requires id and type")
	}

	query := fmt.Sprintf(`query { n as var(func: eq(xid, %q)) }`, node.ID)

	var nquads strings.Builder
	fmt.Fprintf(&nquads, "uid(n) <xid> %q .\n", node.ID)
	fmt.Fprintf(&nquads, "uid(n) <node_type> %q .\n", node.Type)
	for key, val := range node.Properties {
		switch key {
		case "name", "description", "sub_type":
			fmt.Fprintf(&nquads, "uid(n) <%s> %q .\n", key, val)
		}
	}

	req := &api.Request{
		Query:     query,
		Mutations: []*api.Mutation{{SetNquads: []byte(nquads.String())}},
		CommitNow: true,
	}
	if _, err := c.conn.NewTxn().Do(ctx, req); err != nil {
		return fmt.Errorf("dgraph: put node %s: %w", node.ID, err)
	}
	c.nodeCache.Remove(node.ID)
	return nil
}

// PutEdge links two existing nodes with the edge predicate, carrying the
// sub_type as a facet when present.
func (c *Client) PutEdge(ctx context.Context, edge Edge) error {
	if edge.SourceID == "" || edge.DestinationID == "" || edge.Name == "" {
		return fmt.Errorf("dgraph: edge requires source, destination and name")
	}

	query := fmt.Sprintf(`query {
		s as var(func: eq(xid, %q))
		d as var(func: eq(xid, %q))
	}`, edge.SourceID, edge.DestinationID)

	nquad := fmt.Sprintf("uid(s) <%s> uid(d)", edge.Name)
	if edge.SubType != "" {
		nquad += fmt.Sprintf(" (sub_type=%q)", edge.SubType)
	}
	nquad += " .\n"

	req := &api.Request{
		Query:     query,
		Mutations: []*api.Mutation{{SetNquads: []byte(nquad)}},
		CommitNow: true,
	}
	if _, err := c.conn.NewTxn().Do(ctx, req); err != nil {
		return fmt.Errorf("dgraph: put edge %s: %w", edge.Identity(), err)
	}
	return nil
}
