package traversal

import (
	"fmt"

	"github.com/allykrinsky/lineage-poc/internal/taxonomy"
)

// XDirection selects the derivation sense of X-axis traversal, interpreted
// relative to the start node.
type XDirection string

const (
	XUpstream   XDirection = "upstream"
	XDownstream XDirection = "downstream"
	XBoth       XDirection = "both"
)

// YDirection selects the hierarchy sense of Y-axis traversal.
type YDirection string

const (
	YUp   YDirection = "up"
	YDown YDirection = "down"
	YBoth YDirection = "both"
)

// MaxZHopCap is the system-wide upper bound on the per-path association
// budget a request may ask for.
const MaxZHopCap = 4

// Request is one traversal request. MaxZHops and MaxDepth are pointers so an
// absent field can be told apart from an explicit zero.
type Request struct {
	StartNodeID         string          `json:"start_node_id"`
	Axes                []taxonomy.Axis `json:"axes"`
	XDirection          XDirection      `json:"x_direction,omitempty"`
	YDirection          YDirection      `json:"y_direction,omitempty"`
	MaxZHops            *int            `json:"max_z_hops,omitempty"`
	MaxDepth            *int            `json:"max_depth,omitempty"`
	IncludeTransformers bool            `json:"include_transformers,omitempty"`
}

// params is a validated request with defaults applied.
type params struct {
	startID             string
	axes                map[taxonomy.Axis]bool
	xDirection          XDirection
	yDirection          YDirection
	maxZHops            int
	maxDepth            int // -1 means unbounded
	includeTransformers bool
}

func (r Request) validate() (params, error) {
	p := params{
		startID:             r.StartNodeID,
		axes:                make(map[taxonomy.Axis]bool, len(r.Axes)),
		xDirection:          r.XDirection,
		yDirection:          r.YDirection,
		maxZHops:            1,
		maxDepth:            -1,
		includeTransformers: r.IncludeTransformers,
	}

	if r.StartNodeID == "" {
		return p, fmt.Errorf("%w: start_node_id is required", ErrInvalidRequest)
	}
	if len(r.Axes) == 0 {
		return p, fmt.Errorf("%w: axes must be a non-empty subset of X, Y, Z", ErrInvalidRequest)
	}
	for _, axis := range r.Axes {
		if !axis.Valid() {
			return p, fmt.Errorf("%w: unknown axis %q", ErrInvalidRequest, axis)
		}
		p.axes[axis] = true
	}

	switch p.xDirection {
	case "":
		p.xDirection = XBoth
	case XUpstream, XDownstream, XBoth:
	default:
		return p, fmt.Errorf("%w: unknown x_direction %q", ErrInvalidRequest, p.xDirection)
	}

	switch p.yDirection {
	case "":
		p.yDirection = YBoth
	case YUp, YDown, YBoth:
	default:
		return p, fmt.Errorf("%w: unknown y_direction %q", ErrInvalidRequest, p.yDirection)
	}

	if r.MaxZHops != nil {
		if *r.MaxZHops < 0 {
			return p, fmt.Errorf("%w: max_z_hops must be non-negative", ErrInvalidRequest)
		}
		if *r.MaxZHops > MaxZHopCap {
			return p, fmt.Errorf("%w: max_z_hops exceeds cap of %d", ErrInvalidRequest, MaxZHopCap)
		}
		p.maxZHops = *r.MaxZHops
	}

	if r.MaxDepth != nil {
		if *r.MaxDepth < 0 {
			return p, fmt.Errorf("%w: max_depth must be non-negative", ErrInvalidRequest)
		}
		p.maxDepth = *r.MaxDepth
	}

	return p, nil
}
