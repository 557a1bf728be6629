package pose

import (
	"github.com/Faultbox/midgard-pose/internal/anim"
	"github.com/Faultbox/midgard-pose/internal/scene"
	"github.com/Faultbox/midgard-pose/pkg/math"
)

type trs struct {
	t math.Vec3
	r math.Quat
	s math.Vec3
}

// Builder merges sampled channel values into one frame's Overrides.
// It is reused across frames; Reset clears it.
type Builder struct {
	graph  *scene.Graph
	policy Composition

	mats  Overrides
	parts map[int]*trs
	order []int
}

// NewBuilder returns a builder for graph g using policy.
func NewBuilder(g *scene.Graph, policy Composition) *Builder {
	return &Builder{
		graph:  g,
		policy: policy,
		mats:   make(Overrides),
		parts:  make(map[int]*trs),
	}
}

// Policy returns the composition policy in use.
func (b *Builder) Policy() Composition {
	return b.policy
}

// Reset discards everything added since the last Reset.
func (b *Builder) Reset() {
	clear(b.mats)
	clear(b.parts)
	b.order = b.order[:0]
}

// Add merges one sampled value into its node's override.
func (b *Builder) Add(v anim.Value) {
	if b.policy == ComposeMultiply {
		if existing, ok := b.mats[v.Node]; ok {
			b.mats[v.Node] = existing.Mul(v.Matrix())
		} else {
			b.mats[v.Node] = v.Matrix()
		}
		return
	}

	p, ok := b.parts[v.Node]
	if !ok {
		p = &trs{r: math.QuatIdentity(), s: math.Vec3One()}
		if n, found := b.graph.Node(v.Node); found {
			p.t, p.r, p.s = n.Local.TRS()
		}
		b.parts[v.Node] = p
		b.order = append(b.order, v.Node)
	}
	v.Apply(&p.t, &p.r, &p.s)
}

// Overrides returns the merged overrides. The map is owned by the builder
// and is only valid until the next Reset.
func (b *Builder) Overrides() Overrides {
	if b.policy == ComposeDecomposed {
		for _, n := range b.order {
			p := b.parts[n]
			b.mats[n] = math.FromTRS(p.t, p.r, p.s)
		}
	}
	return b.mats
}
