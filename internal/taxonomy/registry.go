package taxonomy

import (
	"fmt"
)

// typePair keys edge rules within one edge name.
type typePair struct {
	src string
	dst string
}

// ruleSet holds the rules registered for one (edge_name, source, destination)
// triple: at most one wildcard rule plus any number of sub_type-specific rules.
type ruleSet struct {
	wildcard  *EdgeRule
	bySubType map[string]*EdgeRule
}

// Registry indexes the taxonomy for O(1) classification lookups.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	nodeTypes map[string]NodeTypeSpec
	rules     map[string]map[typePair]*ruleSet
}

// NewRegistry builds and validates a Registry from a taxonomy document.
// A validation failure here is a configuration error and prevents startup.
func NewRegistry(doc Document) (*Registry, error) {
	if len(doc.NodeTypes) == 0 {
		return nil, fmt.Errorf("taxonomy: no node types defined")
	}
	if len(doc.EdgeRules) == 0 {
		return nil, fmt.Errorf("taxonomy: no edge rules defined")
	}

	reg := &Registry{
		nodeTypes: make(map[string]NodeTypeSpec, len(doc.NodeTypes)),
		rules:     make(map[string]map[typePair]*ruleSet),
	}

	for name, spec := range doc.NodeTypes {
		if !spec.Role.Valid() {
			return nil, fmt.Errorf("taxonomy: node type %q has unknown role %q", name, spec.Role)
		}
		reg.nodeTypes[name] = spec
	}

	hopGroupRules := make(map[string]int)

	for i, rule := range doc.EdgeRules {
		if rule.Edge == "" || rule.Source == "" || rule.Destination == "" {
			return nil, fmt.Errorf("taxonomy: edge rule %d is missing edge/source/destination", i)
		}
		if _, ok := reg.nodeTypes[rule.Source]; !ok {
			return nil, fmt.Errorf("taxonomy: rule %s references unknown source type %q", rule.key(), rule.Source)
		}
		if _, ok := reg.nodeTypes[rule.Destination]; !ok {
			return nil, fmt.Errorf("taxonomy: rule %s references unknown destination type %q", rule.key(), rule.Destination)
		}
		if !rule.Axis.Valid() {
			return nil, fmt.Errorf("taxonomy: rule %s has unknown axis %q", rule.key(), rule.Axis)
		}

		switch rule.Axis {
		case AxisX:
			if rule.RoleInHop != HopInput && rule.RoleInHop != HopOutput {
				return nil, fmt.Errorf("taxonomy: X rule %s has invalid role_in_hop %q", rule.key(), rule.RoleInHop)
			}
			if rule.HopGroup == "" {
				return nil, fmt.Errorf("taxonomy: X rule %s has no hop_group", rule.key())
			}
			// The engine derives derivation sense from which endpoint is
			// the transformer, so an X rule must join exactly one.
			srcIsT := reg.nodeTypes[rule.Source].Role == RoleTransformer
			dstIsT := reg.nodeTypes[rule.Destination].Role == RoleTransformer
			if srcIsT == dstIsT {
				return nil, fmt.Errorf("taxonomy: X rule %s must join exactly one transformer endpoint", rule.key())
			}
			hopGroupRules[rule.HopGroup]++
		case AxisY:
			if rule.SemanticUp != SemanticForward && rule.SemanticUp != SemanticReverse {
				return nil, fmt.Errorf("taxonomy: Y rule %s has invalid semantic_up %q", rule.key(), rule.SemanticUp)
			}
		case AxisZ:
			if rule.RoleInHop != "" || rule.HopGroup != "" || rule.SemanticUp != "" {
				return nil, fmt.Errorf("taxonomy: Z rule %s carries axis-specific fields", rule.key())
			}
		}

		if err := reg.insert(doc.EdgeRules[i]); err != nil {
			return nil, err
		}
	}

	// A hop group appearing in a single rule can never pair into a logical
	// step, so collapsing would be impossible.
	for group, n := range hopGroupRules {
		if n < 2 {
			return nil, fmt.Errorf("taxonomy: hop_group %q appears in only one rule", group)
		}
	}

	return reg, nil
}

func (reg *Registry) insert(rule EdgeRule) error {
	pairs, ok := reg.rules[rule.Edge]
	if !ok {
		pairs = make(map[typePair]*ruleSet)
		reg.rules[rule.Edge] = pairs
	}

	pair := typePair{src: rule.Source, dst: rule.Destination}
	set, ok := pairs[pair]
	if !ok {
		set = &ruleSet{}
		pairs[pair] = set
	}

	if rule.SubType == "" {
		if set.wildcard != nil {
			return fmt.Errorf("taxonomy: duplicate rule for %s", rule.key())
		}
		set.wildcard = &rule
		return nil
	}

	if set.bySubType == nil {
		set.bySubType = make(map[string]*EdgeRule)
	}
	if _, dup := set.bySubType[rule.SubType]; dup {
		return fmt.Errorf("taxonomy: duplicate rule for %s sub_type %q", rule.key(), rule.SubType)
	}
	set.bySubType[rule.SubType] = &rule
	return nil
}

// Classify resolves the classification for a concrete edge. The second return
// is false when no rule matches; the caller is expected to skip such edges
// rather than fail, since the graph may legitimately contain edges outside
// the taxonomy.
func (reg *Registry) Classify(edgeName, srcType, dstType, subType string) (Classification, bool) {
	rule := reg.lookup(edgeName, srcType, dstType, subType)
	if rule == nil {
		return Classification{}, false
	}
	return Classification{
		Axis:       rule.Axis,
		RoleInHop:  rule.RoleInHop,
		HopGroup:   rule.HopGroup,
		SemanticUp: rule.SemanticUp,
	}, true
}

func (reg *Registry) lookup(edgeName, srcType, dstType, subType string) *EdgeRule {
	pairs, ok := reg.rules[edgeName]
	if !ok {
		return nil
	}
	set, ok := pairs[typePair{src: srcType, dst: dstType}]
	if !ok {
		return nil
	}
	// A sub_type-specific rule wins over the wildcard.
	if subType != "" && set.bySubType != nil {
		if rule, ok := set.bySubType[subType]; ok {
			return rule
		}
	}
	return set.wildcard
}

// NodeRole returns the role and visibility of a node type. Encountering a
// type the taxonomy does not know is a configuration error, surfaced at the
// request boundary.
func (reg *Registry) NodeRole(nodeType string) (Role, bool, error) {
	spec, ok := reg.nodeTypes[nodeType]
	if !ok {
		return "", false, fmt.Errorf("taxonomy: unknown node type %q", nodeType)
	}
	return spec.Role, spec.Visible, nil
}

// KnowsType reports whether the node type is defined by the taxonomy.
func (reg *Registry) KnowsType(nodeType string) bool {
	_, ok := reg.nodeTypes[nodeType]
	return ok
}

// HopGroup returns the hop group for an X-classified triple, if any. It
// ignores sub_type-specific rules when a wildcard exists; the collapser only
// needs group identity per triple.
func (reg *Registry) HopGroup(edgeName, srcType, dstType string) (string, bool) {
	pairs, ok := reg.rules[edgeName]
	if !ok {
		return "", false
	}
	set, ok := pairs[typePair{src: srcType, dst: dstType}]
	if !ok {
		return "", false
	}
	if set.wildcard != nil && set.wildcard.Axis == AxisX {
		return set.wildcard.HopGroup, true
	}
	for _, rule := range set.bySubType {
		if rule.Axis == AxisX {
			return rule.HopGroup, true
		}
	}
	return "", false
}

// EdgeNames returns the names of all edges the taxonomy has rules for.
func (reg *Registry) EdgeNames() []string {
	names := make([]string, 0, len(reg.rules))
	for name := range reg.rules {
		names = append(names, name)
	}
	return names
}

// NodeTypes returns the names of all node types known to the taxonomy.
func (reg *Registry) NodeTypes() []string {
	names := make([]string, 0, len(reg.nodeTypes))
	for name := range reg.nodeTypes {
		names = append(names, name)
	}
	return names
}
