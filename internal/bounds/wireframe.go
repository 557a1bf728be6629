package bounds

// WireframeVertexCount is the number of vertices in a box wireframe (12 edges x 2).
const WireframeVertexCount = 24

// DefaultPadding is the padding applied to selection boxes.
const DefaultPadding = 0.01

// Wireframe returns the box edges as a line list, xyz per vertex,
// grown by padding on every side. An empty box yields nil.
func (b AABB) Wireframe(padding float32) []float32 {
	if !b.valid {
		return nil
	}
	minX, minY, minZ := b.min.X-padding, b.min.Y-padding, b.min.Z-padding
	maxX, maxY, maxZ := b.max.X+padding, b.max.Y+padding, b.max.Z+padding

	return []float32{
		// Bottom face
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	}
}
