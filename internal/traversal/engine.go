// Package traversal implements the edge-taxonomy-driven traversal engine: a
// bounded breadth-first exploration of the lineage graph that classifies
// every edge onto one of three axes, enforces per-path constraints (most
// importantly the association hop cap), and collapses transformer hops in
// the returned subgraph.
package traversal

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/allykrinsky/lineage-poc/internal/graph"
	"github.com/allykrinsky/lineage-poc/internal/taxonomy"
)

// Engine executes traversal requests against a Store. It holds no mutable
// state of its own; everything per-request lives on the stack of Traverse.
type Engine struct {
	store    graph.Store
	registry *taxonomy.Registry
	logger   *zap.Logger
}

// NewEngine creates a traversal engine.
func NewEngine(store graph.Store, registry *taxonomy.Registry, logger *zap.Logger) *Engine {
	return &Engine{store: store, registry: registry, logger: logger}
}

// state is one path tip in the BFS frontier.
type state struct {
	nodeID   string
	nodeType string
	// path holds every node id from the start to this tip, in order. It is
	// the within-path visited set for the cycle guard.
	path     []string
	steps    []rawStep
	zHops    int
	lastAxis taxonomy.Axis
	depth    int
}

// Traverse runs the bounded BFS and returns the collapsed subgraph.
func (e *Engine) Traverse(ctx context.Context, req Request) (*Response, error) {
	raw, p, err := e.traverse(ctx, req)
	if err != nil {
		return nil, err
	}
	return Collapse(raw, e.registry, p.includeTransformers), nil
}

// TraverseRaw runs the bounded BFS and returns the raw, uncollapsed
// subgraph. Collapsing is a presentation concern; the raw view never prunes
// reachable material.
func (e *Engine) TraverseRaw(ctx context.Context, req Request) (*Subgraph, error) {
	raw, _, err := e.traverse(ctx, req)
	return raw, err
}

func (e *Engine) traverse(ctx context.Context, req Request) (*Subgraph, params, error) {
	p, err := req.validate()
	if err != nil {
		return nil, p, err
	}

	start, err := e.store.GetNode(ctx, p.startID)
	if err != nil {
		return nil, p, fmt.Errorf("%w: resolving start node: %v", ErrAdapter, err)
	}
	if start == nil {
		return nil, p, fmt.Errorf("%w: %s", ErrStartNotFound, p.startID)
	}
	if _, _, err := e.registry.NodeRole(start.Type); err != nil {
		return nil, p, err
	}

	sub := &Subgraph{
		Start:     start,
		NodeOrder: []string{start.ID},
		Nodes:     map[string]*graph.Node{start.ID: start},
		Edges:     make(map[string]rawEdge),
	}

	frontier := []*state{{
		nodeID:   start.ID,
		nodeType: start.Type,
		path:     []string{start.ID},
	}}

	classificationMisses := 0

	for len(frontier) > 0 {
		select {
		case <-ctx.Done():
			return nil, p, fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		default:
		}

		s := frontier[0]
		frontier = frontier[1:]

		if p.maxDepth >= 0 && s.depth >= p.maxDepth {
			continue
		}

		incident, err := e.store.Neighbors(ctx, s.nodeID)
		if err != nil {
			return nil, p, fmt.Errorf("%w: neighbors of %s: %v", ErrAdapter, s.nodeID, err)
		}

		for _, inc := range incident {
			cls, ok := e.registry.Classify(inc.Name, inc.SourceType, inc.DestinationType, inc.SubType)
			if !ok {
				// The graph may legitimately contain edges outside the
				// taxonomy; they do not participate in traversal.
				classificationMisses++
				continue
			}
			if !p.axes[cls.Axis] {
				continue
			}

			along := inc.Direction == graph.DirectionOutgoing
			var direction StepDirection

			switch cls.Axis {
			case taxonomy.AxisX:
				// Exactly one endpoint of an X edge is a transformer
				// (validated at registry construction), so the move either
				// enters or leaves it; that, not the stored arrow, fixes
				// the derivation sense.
				entering := e.isTransformer(inc.OtherType)
				direction = xFlow(cls.RoleInHop, entering)
				if p.xDirection != XBoth && direction != xDirStep(p.xDirection) {
					continue
				}
			case taxonomy.AxisY:
				direction = yMove(cls.SemanticUp, along)
				if p.yDirection != YBoth && direction != yDirStep(p.yDirection) {
					continue
				}
			case taxonomy.AxisZ:
				// The per-path association cap. This, not any global
				// budget, is what stops association-of-association fan-out.
				if s.zHops >= p.maxZHops {
					sub.Metadata.BlockedZOfZPaths++
					continue
				}
				direction = StepUndirected
			}

			if containsID(s.path, inc.OtherID) {
				continue
			}

			step := rawStep{
				edge:      inc.Edge,
				axis:      cls.Axis,
				hopRole:   cls.RoleInHop,
				hopGroup:  cls.HopGroup,
				direction: direction,
				fromID:    s.nodeID,
				fromType:  s.nodeType,
				toID:      inc.OtherID,
				toType:    inc.OtherType,
			}

			next := &state{
				nodeID:   inc.OtherID,
				nodeType: inc.OtherType,
				path:     appendCopy(s.path, inc.OtherID),
				steps:    appendStepCopy(s.steps, step),
				zHops:    s.zHops,
				lastAxis: cls.Axis,
				depth:    s.depth + 1,
			}
			if cls.Axis == taxonomy.AxisZ {
				next.zHops++
				sub.Metadata.ZHopsTaken++
			}

			if err := e.addNode(ctx, sub, inc.OtherID, inc.OtherType); err != nil {
				return nil, p, err
			}
			if _, seen := sub.Edges[inc.Identity()]; !seen {
				sub.EdgeOrder = append(sub.EdgeOrder, inc.Identity())
				sub.Edges[inc.Identity()] = rawEdge{edge: inc.Edge, axis: cls.Axis}
			}
			sub.Paths = append(sub.Paths, next.steps)
			frontier = append(frontier, next)
		}
	}

	sub.Metadata.TotalNodesVisited = len(sub.Nodes)

	if classificationMisses > 0 {
		e.logger.Debug("Edges outside taxonomy skipped",
			zap.Int("count", classificationMisses),
			zap.String("start", p.startID))
	}

	return sub, p, nil
}

// addNode records a newly reached node, fetching its properties from the
// store. A node the store no longer resolves keeps its id and type from the
// edge record.
func (e *Engine) addNode(ctx context.Context, sub *Subgraph, id, nodeType string) error {
	if _, seen := sub.Nodes[id]; seen {
		return nil
	}
	node, err := e.store.GetNode(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: fetching node %s: %v", ErrAdapter, id, err)
	}
	if node == nil {
		node = &graph.Node{ID: id, Type: nodeType}
	}
	sub.NodeOrder = append(sub.NodeOrder, id)
	sub.Nodes[id] = node
	return nil
}

// xFlow maps an X edge onto the derivation direction of the move. entering
// is true when the move lands on the transformer endpoint. Entering through
// an input edge follows the data flow (downstream); entering through an
// output edge walks back to the producer (upstream). Leaving mirrors both.
func xFlow(role taxonomy.HopRole, entering bool) StepDirection {
	if role == taxonomy.HopInput {
		if entering {
			return StepDownstream
		}
		return StepUpstream
	}
	if entering {
		return StepUpstream
	}
	return StepDownstream
}

func (e *Engine) isTransformer(nodeType string) bool {
	role, _, err := e.registry.NodeRole(nodeType)
	return err == nil && role == taxonomy.RoleTransformer
}

// yMove maps a Y edge onto up/down. semantic_up=forward means the stored
// arrow points up the hierarchy; reverse means it points down.
func yMove(up taxonomy.SemanticUp, along bool) StepDirection {
	if up == taxonomy.SemanticForward {
		if along {
			return StepUp
		}
		return StepDown
	}
	if along {
		return StepDown
	}
	return StepUp
}

func xDirStep(d XDirection) StepDirection {
	if d == XUpstream {
		return StepUpstream
	}
	return StepDownstream
}

func yDirStep(d YDirection) StepDirection {
	if d == YUp {
		return StepUp
	}
	return StepDown
}

func containsID(path []string, id string) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

func appendCopy(path []string, id string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = id
	return out
}

func appendStepCopy(steps []rawStep, step rawStep) []rawStep {
	out := make([]rawStep, len(steps)+1)
	copy(out, steps)
	out[len(steps)] = step
	return out
}
