// Package scene holds the immutable node hierarchy a pose is evaluated against.
package scene

import (
	"github.com/Faultbox/midgard-pose/pkg/math"
)

// Transform is a node's local transform, either as TRS parts or as an explicit matrix.
type Transform struct {
	Translation math.Vec3
	Rotation    math.Quat
	Scale       math.Vec3

	// Matrix overrides the TRS parts when set.
	Matrix *math.Mat4
}

// IdentityTransform returns a TRS transform with no effect.
func IdentityTransform() Transform {
	return Transform{
		Rotation: math.QuatIdentity(),
		Scale:    math.Vec3One(),
	}
}

// HasTRS reports whether the TRS parts are authoritative.
func (t Transform) HasTRS() bool {
	return t.Matrix == nil
}

// Compose returns the explicit matrix if present, else T * R * S.
func (t Transform) Compose() math.Mat4 {
	if t.Matrix != nil {
		return *t.Matrix
	}
	return math.FromTRS(t.Translation, t.Rotation, t.Scale)
}

// TRS returns the transform as parts, decomposing an explicit matrix if needed.
func (t Transform) TRS() (math.Vec3, math.Quat, math.Vec3) {
	if t.Matrix != nil {
		return t.Matrix.Decompose()
	}
	return t.Translation, t.Rotation, t.Scale
}

// Node is one entry of the scene arena. Mesh and Skin are -1 when absent.
type Node struct {
	Index    int
	Name     string
	Local    Transform
	Children []int
	Mesh     int
	Skin     int
}

// HasMesh reports whether the node carries geometry.
func (n *Node) HasMesh() bool {
	return n.Mesh >= 0
}

// Skin binds a node's mesh to a set of joint nodes.
// Joints[i] pairs with InverseBind[i].
type Skin struct {
	Name        string
	Joints      []int
	InverseBind []math.Mat4
	Skeleton    int // -1 when unspecified
}

// Primitive is one draw range of a mesh.
type Primitive struct {
	Positions [][3]float32
	Indices   []uint32
	TexCoords [][2]float32
	Joints    [][4]uint16
	Weights   [][4]float32
	Material  int // -1 when absent
	Mode      int
}

// Skinned reports whether the primitive carries joint influences.
func (p *Primitive) Skinned() bool {
	return len(p.Joints) > 0 && len(p.Weights) == len(p.Joints)
}

// Mesh is the static geometry referenced by a node.
type Mesh struct {
	Name       string
	Primitives []Primitive
}

// VertexCount returns the number of positions across all primitives.
func (m *Mesh) VertexCount() int {
	n := 0
	for i := range m.Primitives {
		n += len(m.Primitives[i].Positions)
	}
	return n
}
