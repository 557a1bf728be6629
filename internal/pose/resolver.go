// Package pose resolves world and joint matrices from a scene graph and a
// per-frame set of local transform overrides.
package pose

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-pose/internal/logger"
	"github.com/Faultbox/midgard-pose/internal/scene"
	"github.com/Faultbox/midgard-pose/pkg/math"
)

// Overrides maps node index to the local transform that replaces the node's
// static local for one frame.
type Overrides map[int]math.Mat4

// Composition selects how several channels targeting one node are merged.
type Composition int

const (
	// ComposeDecomposed writes each channel into the node's bind-pose T, R or S
	// and builds one T*R*S matrix per node.
	ComposeDecomposed Composition = iota
	// ComposeMultiply multiplies the per-channel matrices in channel order.
	ComposeMultiply
)

// String returns the config name of the policy.
func (c Composition) String() string {
	switch c {
	case ComposeDecomposed:
		return "decomposed"
	case ComposeMultiply:
		return "multiply"
	default:
		return fmt.Sprintf("Composition(%d)", int(c))
	}
}

// ParseComposition maps a config name to a Composition.
func ParseComposition(s string) (Composition, error) {
	switch strings.ToLower(s) {
	case "", "decomposed":
		return ComposeDecomposed, nil
	case "multiply":
		return ComposeMultiply, nil
	default:
		return 0, fmt.Errorf("unknown composition %q (want decomposed or multiply)", s)
	}
}

// Resolver computes world transforms and skinning matrices against one graph.
// It holds no per-frame state, so results depend only on the graph and the
// overrides passed in. A Resolver is not safe for concurrent use because of
// its unreachable-node log bookkeeping; give each player its own.
type Resolver struct {
	graph *scene.Graph
	log   *zap.Logger

	// Unreachable nodes are logged once per resolver.
	reported map[int]bool
}

// NewResolver returns a resolver over g.
func NewResolver(g *scene.Graph) *Resolver {
	return &Resolver{
		graph:    g,
		log:      logger.Named("pose"),
		reported: make(map[int]bool),
	}
}

// Graph returns the graph the resolver reads.
func (r *Resolver) Graph() *scene.Graph {
	return r.graph
}

// effectiveLocal returns the override for node if present, else its static local.
func (r *Resolver) effectiveLocal(node int, ov Overrides) math.Mat4 {
	if m, ok := ov[node]; ok {
		return m
	}
	return r.graph.Local(node)
}

// Global returns the world transform of node: the product of effective local
// transforms from the root down to node. A node not reachable from the root
// gets its own effective local.
func (r *Resolver) Global(node int, ov Overrides) math.Mat4 {
	path, ok := r.graph.PathTo(node)
	if !ok {
		if !r.reported[node] {
			r.reported[node] = true
			r.log.Debug("node not reachable from root",
				zap.Int("node", node),
				zap.Int("root", r.graph.Root))
		}
		return r.effectiveLocal(node, ov)
	}

	world := r.effectiveLocal(path[0], ov)
	for _, n := range path[1:] {
		world = world.Mul(r.effectiveLocal(n, ov))
	}
	return world
}

// JointMatrices returns Global(joint) * InverseBind for every joint of the
// node's skin, in skin order. ok is false when the node has no skin.
func (r *Resolver) JointMatrices(node int, ov Overrides) ([]math.Mat4, bool) {
	skin, ok := r.graph.SkinOf(node)
	if !ok {
		return nil, false
	}

	joints := make([]math.Mat4, len(skin.Joints))
	for i, j := range skin.Joints {
		joints[i] = r.Global(j, ov).Mul(skin.InverseBind[i])
	}
	return joints, true
}
