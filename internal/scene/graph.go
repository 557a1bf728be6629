package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-pose/pkg/math"
)

// Graph validation errors.
var (
	ErrNodeIndex       = errors.New("node index out of range")
	ErrMultipleParents = errors.New("node has more than one parent")
	ErrCycle           = errors.New("node hierarchy contains a cycle")
	ErrSkinMismatch    = errors.New("skin joint and inverse bind counts differ")
	ErrSkinIndex       = errors.New("skin index out of range")
	ErrMeshIndex       = errors.New("mesh index out of range")
)

// Graph is an arena of nodes addressed by index. Children are index lists;
// there are no parent links. A Graph is read-only after NewGraph and may be
// shared between players.
type Graph struct {
	Nodes  []Node
	Skins  []Skin
	Meshes []Mesh

	// Root is the declared root the hierarchy is resolved from.
	Root int
}

// NewGraph validates the arena and returns it as a Graph.
func NewGraph(nodes []Node, skins []Skin, meshes []Mesh, root int) (*Graph, error) {
	g := &Graph{Nodes: nodes, Skins: skins, Meshes: meshes, Root: root}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Graph) validate() error {
	n := len(g.Nodes)
	if n > 0 && (g.Root < 0 || g.Root >= n) {
		return fmt.Errorf("%w: root %d", ErrNodeIndex, g.Root)
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = -1
	}

	for i := range g.Nodes {
		node := &g.Nodes[i]
		node.Index = i

		for _, c := range node.Children {
			if c < 0 || c >= n {
				return fmt.Errorf("node %q: %w: child %d", node.Name, ErrNodeIndex, c)
			}
			if parent[c] >= 0 {
				return fmt.Errorf("node %q: %w", g.Nodes[c].Name, ErrMultipleParents)
			}
			parent[c] = i
		}
		if node.Mesh >= len(g.Meshes) {
			return fmt.Errorf("node %q: %w: %d", node.Name, ErrMeshIndex, node.Mesh)
		}
		if node.Skin >= len(g.Skins) {
			return fmt.Errorf("node %q: %w: %d", node.Name, ErrSkinIndex, node.Skin)
		}
	}

	// With at most one parent per node, a cycle is a parent chain that never ends.
	for i := range g.Nodes {
		steps := 0
		for p := parent[i]; p >= 0; p = parent[p] {
			steps++
			if steps > n {
				return fmt.Errorf("node %q: %w", g.Nodes[i].Name, ErrCycle)
			}
		}
	}

	for i := range g.Skins {
		skin := &g.Skins[i]
		if len(skin.Joints) != len(skin.InverseBind) {
			return fmt.Errorf("skin %q: %w: %d joints, %d matrices",
				skin.Name, ErrSkinMismatch, len(skin.Joints), len(skin.InverseBind))
		}
		for _, j := range skin.Joints {
			if j < 0 || j >= n {
				return fmt.Errorf("skin %q: %w: joint %d", skin.Name, ErrNodeIndex, j)
			}
		}
	}
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Node returns the node at index i.
func (g *Graph) Node(i int) (*Node, bool) {
	if i < 0 || i >= len(g.Nodes) {
		return nil, false
	}
	return &g.Nodes[i], true
}

// Local returns the static local matrix of node i, identity if out of range.
func (g *Graph) Local(i int) math.Mat4 {
	if i < 0 || i >= len(g.Nodes) {
		return math.Identity()
	}
	return g.Nodes[i].Local.Compose()
}

// SkinOf returns the skin attached to node i.
func (g *Graph) SkinOf(i int) (*Skin, bool) {
	if i < 0 || i >= len(g.Nodes) {
		return nil, false
	}
	s := g.Nodes[i].Skin
	if s < 0 || s >= len(g.Skins) {
		return nil, false
	}
	return &g.Skins[s], true
}

// NodeByName returns the index of the first node with the given name.
func (g *Graph) NodeByName(name string) (int, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// MeshNodes returns the indices of mesh-bearing nodes in index order.
func (g *Graph) MeshNodes() []int {
	var out []int
	for i := range g.Nodes {
		if g.Nodes[i].HasMesh() {
			out = append(out, i)
		}
	}
	return out
}

// PathTo returns the node indices from the root to target, both inclusive.
// The path is found by depth-first search over child lists.
// Returns false if target is not reachable from the root.
func (g *Graph) PathTo(target int) ([]int, bool) {
	if target < 0 || target >= len(g.Nodes) || g.Root < 0 || g.Root >= len(g.Nodes) {
		return nil, false
	}

	path := []int{g.Root}
	if g.Root == target {
		return path, true
	}

	// Iterative DFS: each stack frame is the next child slot to try at that depth.
	next := []int{0}
	for len(path) > 0 {
		depth := len(path) - 1
		node := &g.Nodes[path[depth]]
		if next[depth] >= len(node.Children) {
			path = path[:depth]
			next = next[:depth]
			continue
		}

		child := node.Children[next[depth]]
		next[depth]++
		if child < 0 || child >= len(g.Nodes) || len(path) >= len(g.Nodes) {
			continue
		}
		path = append(path, child)
		if child == target {
			return path, true
		}
		next = append(next, 0)
	}
	return nil, false
}
