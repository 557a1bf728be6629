// Package bounds tracks axis-aligned bounding boxes of model geometry.
package bounds

import (
	"fmt"

	"github.com/Faultbox/midgard-pose/pkg/math"
)

// AABB is an axis-aligned bounding box. The zero value is empty; the first
// Update initializes it. Once initialized, Min <= Max on every axis and the
// box only grows.
type AABB struct {
	min, max math.Vec3
	valid    bool
}

// New returns a box spanning the two corners in any order.
func New(a, b math.Vec3) AABB {
	return AABB{min: a.Min(b), max: a.Max(b), valid: true}
}

// FromPoints returns the box enclosing every point.
func FromPoints(points [][3]float32) AABB {
	var box AABB
	for _, p := range points {
		box.Update(p[0], p[1], p[2])
	}
	return box
}

// Update grows the box to contain (x, y, z).
func (b *AABB) Update(x, y, z float32) {
	p := math.Vec3{X: x, Y: y, Z: z}
	if !b.valid {
		b.min, b.max, b.valid = p, p, true
		return
	}
	b.min = b.min.Min(p)
	b.max = b.max.Max(p)
}

// Merge grows the box to contain other.
func (b *AABB) Merge(other AABB) {
	if !other.valid {
		return
	}
	b.Update(other.min.X, other.min.Y, other.min.Z)
	b.Update(other.max.X, other.max.Y, other.max.Z)
}

// Empty reports whether no point has been added.
func (b AABB) Empty() bool {
	return !b.valid
}

// Min returns the minimum corner.
func (b AABB) Min() math.Vec3 {
	return b.min
}

// Max returns the maximum corner.
func (b AABB) Max() math.Vec3 {
	return b.max
}

// Center returns the midpoint of the box.
func (b AABB) Center() math.Vec3 {
	return b.min.Add(b.max).Scale(0.5)
}

// Size returns the extent along each axis.
func (b AABB) Size() math.Vec3 {
	return b.max.Sub(b.min)
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]math.Vec3 {
	lo, hi := b.min, b.max
	return [8]math.Vec3{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
	}
}

// Transform returns the box enclosing all eight corners after m.
// An empty box stays empty.
func (b AABB) Transform(m math.Mat4) AABB {
	if !b.valid {
		return b
	}
	var out AABB
	for _, c := range b.Corners() {
		p := m.TransformVec3(c)
		out.Update(p.X, p.Y, p.Z)
	}
	return out
}

// Touches reports whether the boxes overlap on every axis.
// Boxes that only share a face do not touch.
func (b AABB) Touches(other AABB) bool {
	if !b.valid || !other.valid {
		return false
	}
	return b.max.X > other.min.X && other.max.X > b.min.X &&
		b.max.Y > other.min.Y && other.max.Y > b.min.Y &&
		b.max.Z > other.min.Z && other.max.Z > b.min.Z
}

// Vertices returns the six faces of the box as quads, four xyz vertices
// per face: left, right, top, bottom, back, front.
func (b AABB) Vertices() [72]float32 {
	x0, y0, z0 := b.min.X, b.min.Y, b.min.Z
	x1, y1, z1 := b.max.X, b.max.Y, b.max.Z
	return [72]float32{
		// Left
		x0, y0, z0, x0, y1, z0, x0, y1, z1, x0, y0, z1,
		// Right
		x1, y0, z0, x1, y1, z0, x1, y1, z1, x1, y0, z1,
		// Top
		x0, y1, z0, x1, y1, z0, x1, y1, z1, x0, y1, z1,
		// Bottom
		x0, y0, z0, x1, y0, z0, x1, y0, z1, x0, y0, z1,
		// Back
		x0, y1, z0, x1, y1, z0, x1, y0, z0, x0, y0, z0,
		// Front
		x0, y1, z1, x1, y1, z1, x1, y0, z1, x0, y0, z1,
	}
}

// String formats the box for logs and CLI output.
func (b AABB) String() string {
	if !b.valid {
		return "AABB(empty)"
	}
	return fmt.Sprintf("AABB(min=(%.3f, %.3f, %.3f) max=(%.3f, %.3f, %.3f))",
		b.min.X, b.min.Y, b.min.Z, b.max.X, b.max.Y, b.max.Z)
}
