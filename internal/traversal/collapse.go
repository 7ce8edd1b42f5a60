package traversal

import (
	"strings"

	"github.com/allykrinsky/lineage-poc/internal/taxonomy"
)

// Collapse turns the raw traversal subgraph into the user-facing shape. It
// reshapes, never prunes reachability: passthrough nodes (visible: false)
// are elided with synthesized bridging edges, and paired X edges sharing a
// hop group are folded into single logical steps through their transformer.
func Collapse(sub *Subgraph, reg *taxonomy.Registry, includeTransformers bool) *Response {
	c := &collapser{
		sub:                 sub,
		reg:                 reg,
		includeTransformers: includeTransformers,
		synthesized:         make(map[string]EdgeSummary),
	}
	return c.run()
}

type collapser struct {
	sub                 *Subgraph
	reg                 *taxonomy.Registry
	includeTransformers bool

	synthesized      map[string]EdgeSummary
	synthesizedOrder []string
}

// flatStep is a path step after passthrough elision: one or more consumed
// raw edges between two retained endpoints.
type flatStep struct {
	axis      taxonomy.Axis
	direction StepDirection
	hopRole   taxonomy.HopRole
	hopGroup  string
	fromID    string
	fromType  string
	toID      string
	toType    string
	edgeNames []string
	merged    bool
}

func (c *collapser) run() *Response {
	resp := &Response{
		StartNode: StartNode{
			ID:   c.sub.Start.ID,
			Type: c.sub.Start.Type,
			Name: c.sub.Start.Name(),
		},
		Metadata: c.sub.Metadata,
	}

	for _, raw := range c.sub.Paths {
		flat := c.elidePassthrough(raw)
		if len(flat) == 0 {
			continue
		}
		resp.Paths = append(resp.Paths, Path{Steps: c.foldHops(flat)})
	}

	retained := make(map[string]bool, len(c.sub.Nodes))
	for _, id := range c.sub.NodeOrder {
		node := c.sub.Nodes[id]
		role, visible, err := c.reg.NodeRole(node.Type)
		if err != nil || !visible {
			continue
		}
		if role == taxonomy.RoleTransformer && !c.includeTransformers {
			continue
		}
		retained[id] = true
		resp.Nodes = append(resp.Nodes, NodeSummary{
			ID:         node.ID,
			Type:       node.Type,
			Properties: node.Properties,
		})
	}

	for _, identity := range c.sub.EdgeOrder {
		re := c.sub.Edges[identity]
		if !retained[re.edge.SourceID] || !retained[re.edge.DestinationID] {
			continue
		}
		resp.Edges = append(resp.Edges, EdgeSummary{
			SourceID:        re.edge.SourceID,
			SourceType:      re.edge.SourceType,
			Name:            re.edge.Name,
			DestinationID:   re.edge.DestinationID,
			DestinationType: re.edge.DestinationType,
			SubType:         re.edge.SubType,
			Axis:            re.axis,
		})
	}
	for _, key := range c.synthesizedOrder {
		syn := c.synthesized[key]
		if !retained[syn.SourceID] || !retained[syn.DestinationID] {
			continue
		}
		resp.Edges = append(resp.Edges, syn)
	}

	return resp
}

// visible reports the visibility of a traversed node's type. Types the
// taxonomy does not know cannot be traversed to, so the error branch only
// defends against a malformed subgraph.
func (c *collapser) visible(nodeType string) bool {
	_, vis, err := c.reg.NodeRole(nodeType)
	return err == nil && vis
}

func (c *collapser) role(nodeType string) taxonomy.Role {
	role, _, _ := c.reg.NodeRole(nodeType)
	return role
}

// elidePassthrough folds every step whose interior endpoint is a
// non-visible node into its successor, synthesizing a direct edge between
// the neighbors. A trailing step into a passthrough node is dropped: its
// target cannot appear in output.
func (c *collapser) elidePassthrough(raw []rawStep) []flatStep {
	var flat []flatStep
	for _, step := range raw {
		fs := flatStep{
			axis:      step.axis,
			direction: step.direction,
			hopRole:   step.hopRole,
			hopGroup:  step.hopGroup,
			fromID:    step.fromID,
			fromType:  step.fromType,
			toID:      step.toID,
			toType:    step.toType,
			edgeNames: []string{step.edge.Name},
		}

		if n := len(flat); n > 0 && !c.visible(flat[n-1].toType) {
			prev := &flat[n-1]
			prev.toID = step.toID
			prev.toType = step.toType
			prev.edgeNames = append(prev.edgeNames, step.edge.Name)
			if prev.direction != step.direction {
				prev.direction = StepBoth
			}
			if prev.axis != step.axis || prev.hopGroup != step.hopGroup {
				prev.hopGroup = ""
				prev.hopRole = ""
			}
			prev.merged = true
			continue
		}

		flat = append(flat, fs)
	}

	for len(flat) > 0 && !c.visible(flat[len(flat)-1].toType) {
		flat = flat[:len(flat)-1]
	}

	for i := range flat {
		if flat[i].merged {
			c.recordSynthesized(flat[i])
		}
	}
	return flat
}

// recordSynthesized registers the bridging edge that replaced a passthrough
// chain, deduplicated across paths.
func (c *collapser) recordSynthesized(fs flatStep) {
	name := strings.Join(fs.edgeNames, "+")
	key := fs.fromID + "|" + name + "|" + fs.toID
	if _, ok := c.synthesized[key]; ok {
		return
	}
	c.synthesized[key] = EdgeSummary{
		SourceID:        fs.fromID,
		SourceType:      fs.fromType,
		Name:            name,
		DestinationID:   fs.toID,
		DestinationType: fs.toType,
		Axis:            fs.axis,
		Synthesized:     true,
	}
	c.synthesizedOrder = append(c.synthesizedOrder, key)
}

// foldHops pairs consecutive X steps that pass through a transformer and
// share a hop group into one logical step. A half-hop ending on a
// transformer stays as an unclosed step with To == nil. An unpaired X edge
// at the interior of a path is emitted the same way rather than failing.
func (c *collapser) foldHops(flat []flatStep) []LogicalStep {
	var steps []LogicalStep
	for i := 0; i < len(flat); i++ {
		st := flat[i]

		if st.axis != taxonomy.AxisX {
			steps = append(steps, LogicalStep{
				Axis:      st.axis,
				Direction: st.direction,
				From:      &StepEndpoint{ID: st.fromID, Type: st.fromType},
				To:        &StepEndpoint{ID: st.toID, Type: st.toType},
				EdgeNames: st.edgeNames,
			})
			continue
		}

		if c.role(st.toType) == taxonomy.RoleTransformer {
			if i+1 < len(flat) {
				next := flat[i+1]
				if next.axis == taxonomy.AxisX && next.hopGroup == st.hopGroup && next.fromID == st.toID {
					direction := st.direction
					if next.direction != direction {
						direction = StepBoth
					}
					steps = append(steps, LogicalStep{
						Axis:      taxonomy.AxisX,
						Direction: direction,
						From:      &StepEndpoint{ID: st.fromID, Type: st.fromType},
						To:        &StepEndpoint{ID: next.toID, Type: next.toType},
						Via:       &StepEndpoint{ID: st.toID, Type: st.toType},
						EdgeNames: append(append([]string{}, st.edgeNames...), next.edgeNames...),
						HopGroup:  st.hopGroup,
					})
					i++
					continue
				}
			}
			steps = append(steps, LogicalStep{
				Axis:      taxonomy.AxisX,
				Direction: st.direction,
				From:      &StepEndpoint{ID: st.fromID, Type: st.fromType},
				To:        nil,
				Via:       &StepEndpoint{ID: st.toID, Type: st.toType},
				EdgeNames: st.edgeNames,
				HopGroup:  st.hopGroup,
			})
			continue
		}

		// An X step landing on a resource with no transformer in front of
		// it: the path entered mid-hop (start was the transformer, or a Z
		// jump landed there). Emit it plainly.
		steps = append(steps, LogicalStep{
			Axis:      taxonomy.AxisX,
			Direction: st.direction,
			From:      &StepEndpoint{ID: st.fromID, Type: st.fromType},
			To:        &StepEndpoint{ID: st.toID, Type: st.toType},
			EdgeNames: st.edgeNames,
			HopGroup:  st.hopGroup,
		})
	}
	return steps
}
