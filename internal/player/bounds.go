package player

import (
	"github.com/Faultbox/midgard-pose/internal/bounds"
	"github.com/Faultbox/midgard-pose/pkg/math"
)

// Bounds folds every mesh vertex of the last Evaluate into a world-space box.
// Skinned primitives are deformed on the CPU with linear blend skinning;
// their node's own world transform is ignored, as glTF requires.
func (p *Player) Bounds() bounds.AABB {
	var box bounds.AABB
	for i := range p.meshes {
		ms := &p.meshes[i]
		mesh := &p.graph.Meshes[ms.Mesh]
		for j := range mesh.Primitives {
			prim := &mesh.Primitives[j]
			skinned := ms.Joints != nil && prim.Skinned()
			for k, pos := range prim.Positions {
				var w [3]float32
				if skinned {
					w = skinVertex(pos, prim.Joints[k], prim.Weights[k], ms.Joints, ms.World)
				} else {
					w = ms.World.TransformPoint(pos)
				}
				box.Update(w[0], w[1], w[2])
			}
		}
	}
	return box
}

// skinVertex blends pos through up to four joint matrices. Influences that
// name a joint outside the skin are dropped; a vertex with no remaining
// weight falls back to the node transform.
func skinVertex(pos [3]float32, joints [4]uint16, weights [4]float32, mats []math.Mat4, world math.Mat4) [3]float32 {
	var out [3]float32
	var total float32
	for i, j := range joints {
		w := weights[i]
		if w == 0 || int(j) >= len(mats) {
			continue
		}
		q := mats[j].TransformPoint(pos)
		out[0] += q[0] * w
		out[1] += q[1] * w
		out[2] += q[2] * w
		total += w
	}
	if total == 0 {
		return world.TransformPoint(pos)
	}
	if total != 1 {
		out[0] /= total
		out[1] /= total
		out[2] /= total
	}
	return out
}
